package parser

import (
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/keyfc/bbs/internal/document"
	"github.com/keyfc/bbs/pkg/models"
)

// Index fetches the archiver front page. It is public, so no denial check runs.
func (p *Parser) Index(ctx context.Context, cookies []*http.Cookie) models.Result[*models.IndexPage] {
	return load(ctx, p, "index", p.url(ArchiverPath+"index.aspx"), cookies, p.ParseIndex)
}

// ParseIndex walks category and forum rows in document order. Each category
// collects the forums after it, nested by the whitespace count of their heading.
func (p *Parser) ParseIndex(doc *goquery.Document) models.Result[*models.IndexPage] {
	page := &models.IndexPage{
		PageInfo:   document.PageInfo(doc),
		Categories: []models.Forum{},
	}

	var (
		current *models.Forum
		rows    []flatForum
	)
	flush := func() {
		if current == nil {
			return
		}
		current.SubForums = buildForumTree(rows)
		page.Categories = append(page.Categories, *current)
	}

	doc.Find("div.cateitem, div.forumitem").Each(func(i int, el *goquery.Selection) {
		switch {
		case el.HasClass("cateitem"):
			a := el.Find("h2 a").First()
			if a.Length() == 0 {
				return
			}
			flush()
			href, _ := a.Attr("href")
			current = &models.Forum{Name: strings.TrimSpace(a.Text()), ID: document.ExtractID(href)}
			rows = nil

		case el.HasClass("forumitem"):
			h3 := el.Find("h3").First()
			a := h3.Find("a").First()
			if a.Length() == 0 {
				return
			}
			href, _ := a.Attr("href")
			rows = append(rows, flatForum{
				name:  strings.TrimSpace(a.Text()),
				id:    document.ExtractID(href),
				level: indentLevel(h3.Text()),
			})
		}
	})
	flush()

	return models.Succeeded(page)
}

// indentLevel counts the ASCII whitespace in a row heading; the archiver indents
// sub-forums with literal spaces.
func indentLevel(text string) int {
	n := 0
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n', '\v', '\f', '\r':
			n++
		}
	}
	return n
}
