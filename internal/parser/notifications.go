package parser

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/keyfc/bbs/internal/document"
	urlutil "github.com/keyfc/bbs/internal/utils/url"
	"github.com/keyfc/bbs/pkg/models"
)

const reasonMarker = "理由:"

// Notifications fetches the notice list. FilterAll, or an empty filter, requests the unfiltered page.
func (p *Parser) Notifications(ctx context.Context, filter models.NotificationFilter, cookies []*http.Cookie) models.Result[*models.NotificationsPage] {
	if filter == "" {
		filter = models.FilterAll
	}
	target := p.url("usercpnotice.aspx")
	if filter != models.FilterAll {
		target += "?filter=" + url.QueryEscape(string(filter))
	}

	return load(ctx, p, "notifications", target, cookies, func(doc *goquery.Document) models.Result[*models.NotificationsPage] {
		return p.ParseNotifications(doc, filter)
	})
}

// ParseNotifications extracts notices. Only the content cell is required; topic,
// user and reason stay empty when the notice has none.
func (p *Parser) ParseNotifications(doc *goquery.Document, filter models.NotificationFilter) models.Result[*models.NotificationsPage] {
	if d := document.DetectDenial(doc); d != nil {
		return models.Denied[*models.NotificationsPage](*d)
	}

	page := &models.NotificationsPage{
		PageInfo:      document.PageInfo(doc),
		Filter:        filter,
		Notifications: []models.Notification{},
		Pagination:    document.Pagination(doc, document.ControlPanel),
	}

	doc.Find("table.pm_list > tbody > tr").Each(func(i int, row *goquery.Selection) {
		content := row.Find("td.notice_list").First()
		if content.Length() == 0 {
			return
		}

		text := strings.TrimSpace(content.Text())
		dateText := document.Text(row.Find("td.name_and_date span.date"))
		n := models.Notification{
			Content:  text,
			Date:     document.ParseTime(document.LayoutControlPanel, dateText),
			DateText: dateText,
		}

		if topic := content.Find(`a[href*="showtopic"]`).First(); topic.Length() > 0 {
			href, _ := topic.Attr("href")
			n.TopicID = document.ExtractLooseID(href)
			n.TopicTitle = strings.TrimSpace(topic.Text())
			n.TopicURL = urlutil.ResolveURL(p.base, href)
		}
		if user := content.Find(`a[href*="userinfo"]`).First(); user.Length() > 0 {
			href, _ := user.Attr("href")
			n.User = models.User{ID: document.ExtractLooseID(href), Name: strings.TrimSpace(user.Text())}
		}
		if at := strings.LastIndex(text, reasonMarker); at >= 0 {
			n.Reason = strings.TrimSpace(text[at+len(reasonMarker):])
		}

		page.Notifications = append(page.Notifications, n)
	})

	return models.Succeeded(page)
}
