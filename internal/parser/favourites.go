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

// Favourites fetches the subscribed topics
func (p *Parser) Favourites(ctx context.Context, cookies []*http.Cookie) models.Result[*models.FavouritesPage] {
	return load(ctx, p, "favourites", p.url("usercpsubscribe.aspx"), cookies, p.ParseFavourites)
}

// ParseFavourites extracts the subscription table, skipping the column header row
func (p *Parser) ParseFavourites(doc *goquery.Document) models.Result[*models.FavouritesPage] {
	if d := document.DetectDenial(doc); d != nil {
		return models.Denied[*models.FavouritesPage](*d)
	}

	page := &models.FavouritesPage{
		PageInfo:   document.PageInfo(doc),
		Favourites: []models.Favourite{},
		Pagination: document.Pagination(doc, document.ControlPanel),
	}

	doc.Find("table.datatable > tbody > tr:not(.colplural)").Each(func(i int, row *goquery.Selection) {
		title := row.Find("td.datatitle > a").First()
		href, ok := title.Attr("href")
		if !ok {
			return
		}
		id, _ := row.Find(`input[name="titemid"]`).First().Attr("value")
		author := row.Find("td:nth-child(3) > a").First()
		authorHref, _ := author.Attr("href")
		dateText := document.Text(row.Find("td.time"))

		page.Favourites = append(page.Favourites, models.Favourite{
			ID:       strings.TrimSpace(id),
			Title:    strings.TrimSpace(title.Text()),
			URL:      urlutil.ResolveURL(p.base, href),
			Author:   models.User{ID: document.ExtractLooseID(authorHref), Name: strings.TrimSpace(author.Text())},
			Date:     document.ParseTime(document.LayoutFavourites, dateText),
			DateText: dateText,
		})
	})

	return models.Succeeded(page)
}
