package parser

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/keyfc/bbs/internal/document"
	"github.com/keyfc/bbs/pkg/models"
)

var replyCountPattern = regexp.MustCompile(`\((\d+) 篇回复\)`)

// Forum fetches one page of a forum's topic list
func (p *Parser) Forum(ctx context.Context, id string, cookies []*http.Cookie) models.Result[*models.ForumPage] {
	return load(ctx, p, "forum", p.url(ArchiverPath+"showforum-"+id+".aspx"), cookies, p.ParseForum)
}

// ParseForum extracts a forum page. The last breadcrumb is the forum itself and
// the one before it the parent.
func (p *Parser) ParseForum(doc *goquery.Document) models.Result[*models.ForumPage] {
	if d := document.DetectDenial(doc); d != nil {
		return models.Denied[*models.ForumPage](*d)
	}

	crumbs := document.Breadcrumbs(doc)
	if p.strict && len(crumbs) == 0 {
		return parseFailure[*models.ForumPage]("forum", "breadcrumbs not found")
	}

	page := &models.ForumPage{
		PageInfo:    document.PageInfo(doc),
		Breadcrumbs: crumbs,
		ThisForum:   forumAt(crumbs, 1),
		ParentForum: forumAt(crumbs, 2),
		Topics:      []models.Topic{},
		Pagination:  document.Pagination(doc, document.Archiver),
	}

	doc.Find("#wrap ol li").Each(func(i int, li *goquery.Selection) {
		a := li.Find("a").First()
		if a.Length() == 0 {
			return
		}
		href, _ := a.Attr("href")
		page.Topics = append(page.Topics, models.Topic{
			Title:      strings.TrimSpace(a.Text()),
			ID:         document.ExtractID(href),
			ReplyCount: replyCount(document.OwnText(li)),
		})
	})

	return models.Succeeded(page)
}

// replyCount is nil when the row carries no "(N 篇回复)" suffix
func replyCount(text string) *int {
	m := replyCountPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// crumbAt returns the n-th breadcrumb from the end (1 = last), or nil
func crumbAt(crumbs []models.Breadcrumb, n int) *models.Breadcrumb {
	i := len(crumbs) - n
	if n < 1 || i < 0 {
		return nil
	}
	return &crumbs[i]
}

func forumAt(crumbs []models.Breadcrumb, n int) *models.Forum {
	c := crumbAt(crumbs, n)
	if c == nil {
		return nil
	}
	return &models.Forum{Name: c.Name, ID: document.ExtractID(c.Link)}
}
