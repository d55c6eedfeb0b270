package parser

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/keyfc/bbs/internal/engine/enginetest"
	"github.com/keyfc/bbs/internal/transport"
	"github.com/keyfc/bbs/pkg/models"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

func newTestParser(t *testing.T, opts ...Option) (*Parser, *enginetest.Forum) {
	t.Helper()
	forum := enginetest.NewForum(t)
	return New(transport.New(nil, "", nil), forum.BaseURL(), opts...), forum
}

const indexHTML = `<html><head><title>KeyFC 论坛 - Archiver</title></head><body><div id="wrap">
<div class="cateitem"><h2><a href="showforum-1.aspx">Key</a></h2></div>
<div class="forumitem"><h3><a href="showforum-2.aspx">Alpha</a></h3></div>
<div class="forumitem"><h3>  <a href="showforum-3.aspx">AlphaSub</a></h3></div>
<div class="forumitem"><h3>    <a href="showforum-4.aspx">AlphaSubSub</a></h3></div>
<div class="forumitem"><h3>  <a href="showforum-5.aspx">AlphaSub2</a></h3></div>
<div class="forumitem"><h3><a href="showforum-6.aspx">Beta</a></h3></div>
<div class="cateitem"><h2><a href="showforum-7.aspx">FC</a></h2></div>
<div class="forumitem"><h3><a href="showforum-8.aspx">Gamma</a></h3></div>
</div></body></html>`

func TestParseIndex(t *testing.T) {
	p := New(nil, "https://keyfc.net/bbs/")
	result := p.ParseIndex(mustDoc(t, indexHTML))
	if !result.OK() {
		t.Fatalf("expected success, got %s: %s", result.Kind, result.Message)
	}

	want := []models.Forum{
		{Name: "Key", ID: "1", SubForums: []models.Forum{
			{Name: "Alpha", ID: "2", SubForums: []models.Forum{
				{Name: "AlphaSub", ID: "3", SubForums: []models.Forum{
					{Name: "AlphaSubSub", ID: "4"},
				}},
				{Name: "AlphaSub2", ID: "5"},
			}},
			{Name: "Beta", ID: "6"},
		}},
		{Name: "FC", ID: "7", SubForums: []models.Forum{
			{Name: "Gamma", ID: "8"},
		}},
	}
	if diff := cmp.Diff(want, result.Page.Categories); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
	if result.Page.PageInfo.Title != "KeyFC 论坛 - Archiver" {
		t.Errorf("unexpected title %q", result.Page.PageInfo.Title)
	}
}

func TestParseIndex_Idempotent(t *testing.T) {
	p := New(nil, "https://keyfc.net/bbs/")
	first := p.ParseIndex(mustDoc(t, indexHTML))
	second := p.ParseIndex(mustDoc(t, indexHTML))
	if diff := cmp.Diff(first.Page, second.Page); diff != "" {
		t.Errorf("parses differ (-first +second):\n%s", diff)
	}
}

func TestIndex_Fetch(t *testing.T) {
	p, forum := newTestParser(t)
	forum.Handle("archiver/index.aspx", indexHTML)

	result := p.Index(context.Background(), nil)
	if !result.OK() {
		t.Fatalf("expected success, got %s: %s (%v)", result.Kind, result.Message, result.Err)
	}
	if len(result.Page.Categories) != 2 {
		t.Errorf("expected 2 categories, got %d", len(result.Page.Categories))
	}
	if n := forum.Count(http.MethodGet, "archiver/index.aspx"); n != 1 {
		t.Errorf("expected one request, got %d", n)
	}
}

func TestIndentLevel(t *testing.T) {
	cases := map[string]int{
		"Alpha":        0,
		"  Alpha":      2,
		"\t\nAlpha Sub": 3,
		"\u00a0Alpha":  0,
	}
	for in, want := range cases {
		if got := indentLevel(in); got != want {
			t.Errorf("indentLevel(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestBuildForumTree_Invariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for round := 0; round < 50; round++ {
		var rows []flatForum
		levels := map[string]int{}
		n := 1 + rng.IntN(20)
		for i := 0; i < n; i++ {
			name := "f" + strconv.Itoa(i)
			level := rng.IntN(4)
			rows = append(rows, flatForum{name: name, id: strconv.Itoa(i), level: level})
			levels[name] = level
		}

		var order []string
		var walk func(parent *models.Forum, forums []models.Forum)
		walk = func(parent *models.Forum, forums []models.Forum) {
			for i := range forums {
				f := &forums[i]
				if parent != nil && levels[f.Name] <= levels[parent.Name] {
					t.Fatalf("round %d: %s (level %d) nested under %s (level %d)",
						round, f.Name, levels[f.Name], parent.Name, levels[parent.Name])
				}
				order = append(order, f.Name)
				walk(f, f.SubForums)
			}
		}
		walk(nil, buildForumTree(rows))

		if len(order) != len(rows) {
			t.Fatalf("round %d: expected %d nodes, got %d", round, len(rows), len(order))
		}
		for i, row := range rows {
			if order[i] != row.name {
				t.Fatalf("round %d: pre-order %v does not follow document order at %d", round, order, i)
			}
		}
	}
}

func TestBuildForumTree_Empty(t *testing.T) {
	if got := buildForumTree(nil); len(got) != 0 {
		t.Errorf("expected no forums, got %v", got)
	}
}
