package parser

import (
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/keyfc/bbs/internal/document"
	urlutil "github.com/keyfc/bbs/internal/utils/url"
	"github.com/keyfc/bbs/pkg/models"
)

// MyTopics fetches the topics the logged-in user started
func (p *Parser) MyTopics(ctx context.Context, cookies []*http.Cookie) models.Result[*models.MyTopicsPage] {
	return load(ctx, p, "mytopics", p.url("mytopics.aspx"), cookies, p.ParseMyTopics)
}

// MyPosts fetches the topics the logged-in user replied to
func (p *Parser) MyPosts(ctx context.Context, cookies []*http.Cookie) models.Result[*models.MyPostsPage] {
	return load(ctx, p, "myposts", p.url("myposts.aspx"), cookies, p.ParseMyPosts)
}

// ParseMyTopics extracts the started-topics table
func (p *Parser) ParseMyTopics(doc *goquery.Document) models.Result[*models.MyTopicsPage] {
	if d := document.DetectDenial(doc); d != nil {
		return models.Denied[*models.MyTopicsPage](*d)
	}
	return models.Succeeded(&models.MyTopicsPage{
		PageInfo:   document.PageInfo(doc),
		Topics:     p.topicRows(doc),
		Pagination: document.Pagination(doc, document.ControlPanel),
	})
}

// ParseMyPosts extracts the replied-topics table, which shares the started-topics layout
func (p *Parser) ParseMyPosts(doc *goquery.Document) models.Result[*models.MyPostsPage] {
	if d := document.DetectDenial(doc); d != nil {
		return models.Denied[*models.MyPostsPage](*d)
	}
	return models.Succeeded(&models.MyPostsPage{
		PageInfo:   document.PageInfo(doc),
		Posts:      p.topicRows(doc),
		Pagination: document.Pagination(doc, document.ControlPanel),
	})
}

// topicRows drops rows without a title link, which includes the header row
func (p *Parser) topicRows(doc *goquery.Document) []models.MyTopic {
	topics := []models.MyTopic{}
	doc.Find("table.datatable > tbody > tr").Each(func(i int, row *goquery.Selection) {
		title := row.Find("td.datatitle > a").First()
		href, ok := title.Attr("href")
		if !ok {
			return
		}

		icon, _ := row.Find("td:first-child img").First().Attr("src")
		forum := row.Find("td:nth-child(4) > a").First()
		forumHref, _ := forum.Attr("href")
		last := row.Find("td:last-child").First()
		dateText := document.Text(last.Find("span.time > a"))
		user := last.Find(`a[href^="userinfo-"]`).First()
		userHref, _ := user.Attr("href")

		topic := models.MyTopic{
			ID:               document.ExtractLooseID(href),
			Title:            strings.TrimSpace(title.Text()),
			URL:              urlutil.ResolveURL(p.base, href),
			ForumName:        strings.TrimSpace(forum.Text()),
			ForumID:          document.ExtractLooseID(forumHref),
			ForumURL:         urlutil.ResolveURL(p.base, forumHref),
			LastPostDate:     document.ParseTime(document.LayoutControlPanel, dateText),
			LastPostDateText: dateText,
			LastPostUser:     models.User{ID: document.ExtractLooseID(userHref), Name: strings.TrimSpace(user.Text())},
			IsHot:            strings.Contains(icon, "hot"),
		}
		topics = append(topics, topic)
	})
	return topics
}
