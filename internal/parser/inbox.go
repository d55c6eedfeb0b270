package parser

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/keyfc/bbs/internal/document"
	urlutil "github.com/keyfc/bbs/internal/utils/url"
	"github.com/keyfc/bbs/pkg/models"
)

var (
	messageCountPattern = regexp.MustCompile(`共有短消息:(\d+)条`)
	messageLimitPattern = regexp.MustCompile(`上限:(\d+)条`)
)

// Inbox fetches the first page of private messages
func (p *Parser) Inbox(ctx context.Context, cookies []*http.Cookie) models.Result[*models.InboxPage] {
	return load(ctx, p, "inbox", p.url("usercpinbox.aspx"), cookies, p.ParseInbox)
}

// ParseInbox extracts the message list and the quota line of the pager. Rows
// without an id attribute are dropped.
func (p *Parser) ParseInbox(doc *goquery.Document) models.Result[*models.InboxPage] {
	if d := document.DetectDenial(doc); d != nil {
		return models.Denied[*models.InboxPage](*d)
	}

	pagesText := doc.Find("div.pages").First().Text()
	page := &models.InboxPage{
		PageInfo:   document.PageInfo(doc),
		Messages:   []models.InboxItem{},
		Pagination: document.Pagination(doc, document.ControlPanel),
	}
	page.MessageCount, _ = document.FirstInt(messageCountPattern, pagesText)
	page.MessageLimit, _ = document.FirstInt(messageLimitPattern, pagesText)

	doc.Find("table.pm_list > tbody > tr").Each(func(i int, row *goquery.Selection) {
		id, _ := row.Attr("id")
		if id == "" {
			return
		}

		title, _ := row.Find("td.msg_icon img").First().Attr("title")
		sender := row.Find("td.name_and_date span.name a").First()
		senderHref, _ := sender.Attr("href")
		subject := row.Find("td.pmsubject p a").First()
		subjectHref, _ := subject.Attr("href")
		dateText := document.Text(row.Find("td.name_and_date span.date"))

		page.Messages = append(page.Messages, models.InboxItem{
			ID:       id,
			Sender:   models.User{ID: document.ExtractLooseID(senderHref), Name: strings.TrimSpace(sender.Text())},
			Subject:  strings.TrimSpace(subject.Text()),
			Snippet:  document.Text(row.Find("td.pmsubject div.snippet_wrap a")),
			Date:     document.ParseTime(document.LayoutControlPanel, dateText),
			DateText: dateText,
			IsRead:   title == "已读",
			URL:      urlutil.ResolveURL(p.base, subjectHref),
		})
	})

	return models.Succeeded(page)
}
