package document

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/keyfc/bbs/pkg/models"
)

// Variant selects the pager markup a page family uses.
type Variant int

const (
	// Archiver pages render a numeric pager: a span for the current page, anchors for the rest.
	Archiver Variant = iota
	// ControlPanel pages render free text like "2/5页".
	ControlPanel
)

// Some control-panel pages are served with the unit glyph decoded as Latin-1 ("é¡µ").
var controlPanelPagePattern = regexp.MustCompile(`(\d+)/(\d+)(?:页|é¡µ)`)

// Pagination extracts the pager state. It falls back to (1,1) whenever the pager
// is missing or reports a page outside [1, total].
func Pagination(doc *goquery.Document, variant Variant) models.Pagination {
	if doc == nil {
		return models.SinglePage()
	}

	var p models.Pagination
	switch variant {
	case ControlPanel:
		p = controlPanelPagination(doc)
	default:
		p = archiverPagination(doc)
	}

	if p.Current < 1 || p.Total < 1 || p.Current > p.Total {
		return models.SinglePage()
	}
	p.HasNext = p.Current < p.Total
	p.HasPrevious = p.Current > 1
	return p
}

func archiverPagination(doc *goquery.Document) models.Pagination {
	pager := doc.Find("div.pagenumbers").First()
	if pager.Length() == 0 {
		return models.SinglePage()
	}

	current := 1
	if n, err := strconv.Atoi(strings.TrimSpace(pager.Find("span").First().Text())); err == nil {
		current = n
	}

	total := 1
	pages := map[int]string{}
	pager.Find("a").Each(func(i int, a *goquery.Selection) {
		n, err := strconv.Atoi(strings.TrimSpace(a.Text()))
		if err != nil {
			return
		}
		if n > total {
			total = n
		}
		if _, seen := pages[n]; !seen {
			pages[n], _ = a.Attr("href")
		}
	})
	// The last page renders as the span, so no anchor carries it.
	if current > total {
		total = current
	}

	return models.Pagination{
		Current:      current,
		Total:        total,
		NextLink:     pages[current+1],
		PreviousLink: pages[current-1],
	}
}

func controlPanelPagination(doc *goquery.Document) models.Pagination {
	// Raw HTML, because text() merges the counter with neighbouring nodes.
	pagesHTML, err := doc.Find("div.pages").First().Html()
	if err != nil {
		return models.SinglePage()
	}
	m := controlPanelPagePattern.FindStringSubmatch(pagesHTML)
	if m == nil {
		return models.SinglePage()
	}
	current, err1 := strconv.Atoi(m[1])
	total, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return models.SinglePage()
	}
	return models.Pagination{Current: current, Total: total}
}
