// Package document holds the extraction helpers every forum page shares.
package document

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/keyfc/bbs/pkg/models"
	"golang.org/x/net/html"
)

var (
	idPattern      = regexp.MustCompile(`-(\d+)\.aspx`)
	looseIDPattern = regexp.MustCompile(`-(\d+)`)
)

// PageInfo extracts the title and the keywords/description meta tags.
func PageInfo(doc *goquery.Document) models.PageInfo {
	if doc == nil {
		return models.PageInfo{}
	}
	keywords, _ := doc.Find("meta[name=keywords]").First().Attr("content")
	description, _ := doc.Find("meta[name=description]").First().Attr("content")
	return models.PageInfo{
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		Keywords:    keywords,
		Description: description,
	}
}

// Breadcrumbs returns the anchors of the forum navigation bar in document order.
// Pages without the bar, including denial pages, yield an empty slice.
func Breadcrumbs(doc *goquery.Document) []models.Breadcrumb {
	crumbs := []models.Breadcrumb{}
	if doc == nil {
		return crumbs
	}
	doc.Find("div.forumnav").First().Find("a").Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		crumbs = append(crumbs, models.Breadcrumb{
			Name: strings.TrimSpace(a.Text()),
			Link: href,
		})
	})
	return crumbs
}

// ExtractID pulls the numeric id out of links like "showtopic-70169.aspx".
func ExtractID(href string) string {
	if m := idPattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

// ExtractLooseID matches the first "-<digits>" anywhere, as control-panel links
// such as "userinfo-12.aspx?x=1" need.
func ExtractLooseID(href string) string {
	if m := looseIDPattern.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

// OwnText concatenates the direct text children of the first selected node.
func OwnText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	var sb strings.Builder
	for c := sel.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// Text is the trimmed text of the first selected node.
func Text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.First().Text())
}

// Atoi parses trimmed text, returning 0 for anything that is not an integer.
func Atoi(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return n
}

// FirstInt returns the first capture group of re in text as an integer.
func FirstInt(re *regexp.Regexp, text string) (int, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil || len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
