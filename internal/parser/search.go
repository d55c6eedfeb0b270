package parser

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/keyfc/bbs/internal/document"
	urlutil "github.com/keyfc/bbs/internal/utils/url"
	"github.com/keyfc/bbs/pkg/models"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultDenialMessage = "Permission denied"

var totalResultsPattern = regexp.MustCompile(`共搜索到(\d+)个符合条件的帖子`)

// searchForm holds the fixed fields of the site's post search
func searchForm(keyword string) url.Values {
	fields := url.Values{}
	fields.Set("keyword", keyword)
	fields.Set("poster", "")
	fields.Set("type", "post")
	fields.Set("keywordtype", "0")
	fields.Set("posttableid", "1")
	fields.Set("searchtime", "0")
	fields.Set("searchtimetype", "0")
	fields.Set("resultorder", "0")
	fields.Set("resultordertype", "0")
	fields.Set("searchforumid", "")
	fields.Set("submit", "")
	return fields
}

// Search submits the search form, follows the link in the reply and parses the results
func (p *Parser) Search(ctx context.Context, keyword string, cookies []*http.Cookie) models.Result[*models.SearchPage] {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "parser:search")
	defer span.End()

	result := guard("search", func() models.Result[*models.SearchPage] {
		resp, err := p.fetcher.PostForm(ctx, p.url("search.aspx"), searchForm(keyword), cookies)
		if err != nil {
			return models.Failed[*models.SearchPage]("failed to submit search request", err)
		}
		doc, err := p.fetcher.ParseHTML(resp.Body, resp.ContentType)
		if err != nil {
			return models.Failed[*models.SearchPage]("failed to parse search response", err)
		}

		redirect, denied := p.searchRedirect(doc)
		if denied != nil {
			return *denied
		}
		if redirect == "" {
			return parseFailure[*models.SearchPage]("search", "search redirection link not found")
		}

		log.Debug().Str("keyword", keyword).Str("redirect", redirect).Msg("Following search redirect")

		results, err := p.fetcher.GetDocument(ctx, redirect, cookies)
		if err != nil {
			return models.Failed[*models.SearchPage]("failed to retrieve search results", err)
		}
		return p.ParseSearchResults(results)
	})

	span.SetAttributes(attribute.String("result", result.Kind.String()))
	if result.Kind == models.KindFailure {
		span.SetStatus(codes.Error, result.Message)
	}
	return result
}

// searchRedirect reads the results link from the submission reply. An error box
// there means the identity may not search.
func (p *Parser) searchRedirect(doc *goquery.Document) (string, *models.Result[*models.SearchPage]) {
	if box := doc.Find("div.msg_inner.error_msg").First(); box.Length() > 0 {
		msg := strings.TrimSpace(box.Find("p").First().Text())
		if msg == "" {
			msg = defaultDenialMessage
		}
		denied := models.Denied[*models.SearchPage](document.ClassifyDenial(msg, true))
		return "", &denied
	}

	href, ok := doc.Find("div.msg_inner a").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", nil
	}
	return urlutil.ResolveURL(p.base, href), nil
}

// ParseSearchResults extracts the redirected results page. Rows missing the title,
// forum, author, post date or last post links are dropped.
func (p *Parser) ParseSearchResults(doc *goquery.Document) models.Result[*models.SearchPage] {
	if d := document.DetectDenial(doc); d != nil {
		return models.Denied[*models.SearchPage](*d)
	}

	page := &models.SearchPage{
		PageInfo:   document.PageInfo(doc),
		Pagination: document.Pagination(doc, document.ControlPanel),
		Items:      []models.SearchItem{},
	}
	if n, ok := document.FirstInt(totalResultsPattern, doc.Find("p.channelinfo").First().Text()); ok {
		page.TotalResults = n
	}

	doc.Find("div.threadlist.searchlist > table > tbody").Each(func(i int, tbody *goquery.Selection) {
		if tbody.HasClass("category") {
			return
		}
		tr := tbody.Find("tr").First()
		if tr.Length() == 0 {
			return
		}
		if item, ok := p.searchItem(tr); ok {
			page.Items = append(page.Items, item)
		}
	})

	return models.Succeeded(page)
}

func (p *Parser) searchItem(tr *goquery.Selection) (models.SearchItem, bool) {
	var item models.SearchItem

	title := tr.Find("th.subject > a").First()
	topicHref, ok := title.Attr("href")
	if !ok {
		return item, false
	}
	forum := tr.Find(`td > a[href^="showforum"]`).First()
	forumHref, ok := forum.Attr("href")
	if !ok {
		return item, false
	}
	author := tr.Find("td.author > cite > a").First()
	authorHref, ok := author.Attr("href")
	if !ok {
		return item, false
	}
	postDate := tr.Find("td.author > em").First()
	if postDate.Length() == 0 {
		return item, false
	}
	lastPost := tr.Find("td.lastpost > em > a").First()
	lastPostHref, ok := lastPost.Attr("href")
	if !ok {
		return item, false
	}
	lastAuthor := tr.Find("td.lastpost > cite > a").First()
	lastAuthorHref, ok := lastAuthor.Attr("href")
	if !ok {
		return item, false
	}

	item.ID = document.ExtractLooseID(topicHref)
	item.Title = strings.TrimSpace(title.Text())
	item.URL = urlutil.ResolveURL(p.base, topicHref)
	item.Forum = models.Forum{Name: strings.TrimSpace(forum.Text()), ID: document.ExtractLooseID(forumHref)}
	item.Author = models.User{ID: document.ExtractLooseID(authorHref), Name: strings.TrimSpace(author.Text())}
	item.PostDateText = strings.TrimSpace(postDate.Text())
	item.PostDate = document.ParseTime(document.LayoutSearch, item.PostDateText)
	item.ReplyCount, item.ViewCount = parseNums(tr.Find("td.nums").First().Text())

	lastText := strings.TrimSpace(lastPost.Text())
	item.LastPost = models.LastPost{
		Date:     document.ParseTime(document.LayoutSearch, lastText),
		DateText: lastText,
		URL:      urlutil.ResolveURL(p.base, lastPostHref),
		Author:   models.User{ID: document.ExtractLooseID(lastAuthorHref), Name: strings.TrimSpace(lastAuthor.Text())},
	}
	return item, true
}

// parseNums reads "replies / views"; unreadable parts are 0
func parseNums(text string) (int, int) {
	replies, views, _ := strings.Cut(text, "/")
	return document.Atoi(replies), document.Atoi(views)
}
