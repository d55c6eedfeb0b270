package parser

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/keyfc/bbs/internal/document"
	"github.com/keyfc/bbs/pkg/models"
)

// "<author> - 2024/3/7 9:05:01"
var postTitlePattern = regexp.MustCompile(`(.+) - (\d{4}/\d{1,2}/\d{1,2} \d{1,2}:\d{2}:\d{2})`)

// Topic fetches one page of a topic's posts
func (p *Parser) Topic(ctx context.Context, id string, cookies []*http.Cookie) models.Result[*models.TopicPage] {
	return load(ctx, p, "topic", p.url(ArchiverPath+"showtopic-"+id+".aspx"), cookies, p.ParseTopic)
}

// ParseTopic extracts a topic page. Breadcrumbs end with the topic, its forum and
// the forum's parent.
func (p *Parser) ParseTopic(doc *goquery.Document) models.Result[*models.TopicPage] {
	if d := document.DetectDenial(doc); d != nil {
		return models.Denied[*models.TopicPage](*d)
	}

	crumbs := document.Breadcrumbs(doc)
	if p.strict && len(crumbs) == 0 {
		return parseFailure[*models.TopicPage]("topic", "breadcrumbs not found")
	}

	page := &models.TopicPage{
		PageInfo:    document.PageInfo(doc),
		Breadcrumbs: crumbs,
		ThisForum:   forumAt(crumbs, 2),
		ParentForum: forumAt(crumbs, 3),
		Posts:       []models.Post{},
		Pagination:  document.Pagination(doc, document.Archiver),
	}
	if c := crumbAt(crumbs, 1); c != nil {
		page.ThisTopic = &models.Topic{Title: c.Name, ID: document.ExtractID(c.Link)}
	}

	doc.Find("div.postitem").Each(func(i int, item *goquery.Selection) {
		title := item.Find("div.postitemtitle").First()
		content := item.Find("div.postitemcontent").First()
		if title.Length() == 0 || content.Length() == 0 {
			return
		}

		m := postTitlePattern.FindStringSubmatch(title.Text())
		if m == nil {
			return
		}
		html, err := content.Html()
		if err != nil {
			return
		}

		page.Posts = append(page.Posts, models.Post{
			Author:       strings.TrimSpace(m[1]),
			PostTime:     document.ParseTime(document.LayoutTopic, m[2]),
			PostTimeText: m[2],
			Content:      html,
			PostNumber:   i + 1,
		})
	})

	return models.Succeeded(page)
}
