package parser

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/keyfc/bbs/internal/engine"
	"github.com/keyfc/bbs/internal/engine/enginetest"
	"github.com/keyfc/bbs/pkg/models"
)

const forumHTML = `<html><head><title>Forum X - KeyFC</title></head><body>
<div class="forumnav"><a href="index.aspx">Home</a> &raquo; <a href="showforum-1.aspx">Category</a> &raquo; <a href="showforum-52.aspx">Forum X</a></div>
<div id="wrap"><ol>
<li><a href="showtopic-100.aspx">First topic</a> (12 篇回复)</li>
<li><a href="showtopic-101.aspx">Second topic</a></li>
<li>no anchor here</li>
</ol>
<div class="pagenumbers"><span>1</span><a href="showforum-52-2.aspx">2</a></div>
</div></body></html>`

const topicHTML = `<html><head><title>First topic</title></head><body>
<div class="forumnav"><a href="index.aspx">Home</a><a href="showforum-1.aspx">Category</a><a href="showforum-52.aspx">Forum X</a><a href="showtopic-100.aspx">First topic</a></div>
<div id="wrap">
<div class="postitem"><div class="postitemtitle">alice - 2024/3/7 9:05:01</div><div class="postitemcontent"><p>Hello</p></div></div>
<div class="postitem"><div class="postitemtitle">no date here</div><div class="postitemcontent">lost</div></div>
<div class="postitem"><div class="postitemtitle">bob - 2024/3/7 10:00:00</div><div class="postitemcontent">Reply</div></div>
</div></body></html>`

const deniedTopicHTML = `<html><body>
<div class="forumnav"><a href="index.aspx">Home</a><a href="showtopic-9.aspx">Secret</a></div>
<div class="msg">您当前的身份 "游客" 阅读权限不够，本主题阅读权限为: 50</div>
<div class="postitem"><div class="postitemtitle">alice - 2024/3/7 9:05:01</div><div class="postitemcontent">hidden</div></div>
</body></html>`

func TestParseForum(t *testing.T) {
	p := New(nil, "https://keyfc.net/bbs/")
	result := p.ParseForum(mustDoc(t, forumHTML))
	if !result.OK() {
		t.Fatalf("expected success, got %s: %s", result.Kind, result.Message)
	}
	page := result.Page

	if page.ThisForum == nil || page.ThisForum.ID != "52" || page.ThisForum.Name != "Forum X" {
		t.Errorf("unexpected this forum: %+v", page.ThisForum)
	}
	if page.ParentForum == nil || page.ParentForum.Name != "Category" {
		t.Errorf("unexpected parent forum: %+v", page.ParentForum)
	}
	if len(page.Topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(page.Topics))
	}
	if rc := page.Topics[0].ReplyCount; rc == nil || *rc != 12 {
		t.Errorf("expected reply count 12, got %v", rc)
	}
	if page.Topics[1].ReplyCount != nil {
		t.Errorf("expected nil reply count, got %d", *page.Topics[1].ReplyCount)
	}
	if page.Topics[0].ID != "100" || page.Topics[0].Title != "First topic" {
		t.Errorf("unexpected topic: %+v", page.Topics[0])
	}

	wantPager := models.Pagination{Current: 1, Total: 2, HasNext: true, NextLink: "showforum-52-2.aspx"}
	if page.Pagination != wantPager {
		t.Errorf("pagination = %+v, want %+v", page.Pagination, wantPager)
	}
}

func TestParseForum_ShortBreadcrumbs(t *testing.T) {
	html := `<div class="forumnav"><a href="showforum-52.aspx">Forum X</a></div><div id="wrap"><ol></ol></div>`

	result := New(nil, "https://keyfc.net/bbs/").ParseForum(mustDoc(t, html))
	if !result.OK() {
		t.Fatalf("expected success, got %s", result.Kind)
	}
	if result.Page.ThisForum == nil || result.Page.ParentForum != nil {
		t.Errorf("expected only this forum, got %+v / %+v", result.Page.ThisForum, result.Page.ParentForum)
	}
}

func TestParseForum_StrictBreadcrumbs(t *testing.T) {
	html := `<div id="wrap"><ol><li><a href="showtopic-1.aspx">t</a></li></ol></div>`

	tolerant := New(nil, "https://keyfc.net/bbs/").ParseForum(mustDoc(t, html))
	if !tolerant.OK() || tolerant.Page.ThisForum != nil {
		t.Fatalf("tolerant parse should succeed with nil references, got %+v", tolerant)
	}

	strict := New(nil, "https://keyfc.net/bbs/", WithStrictBreadcrumbs(true)).ParseForum(mustDoc(t, html))
	if strict.Kind != models.KindFailure {
		t.Fatalf("expected failure, got %s", strict.Kind)
	}
	if !errors.Is(strict.Err, engine.ErrParse) {
		t.Errorf("expected parse error, got %v", strict.Err)
	}
}

func TestParseForum_Denied(t *testing.T) {
	html := `<div class="forumnav"><a href="showforum-1.aspx">x</a></div><div class="msg">您没有浏览该版块的权限</div>
<div id="wrap"><ol><li><a href="showtopic-1.aspx">t</a></li></ol></div>`

	result := New(nil, "https://keyfc.net/bbs/").ParseForum(mustDoc(t, html))
	if result.Kind != models.KindPermissionDenial {
		t.Fatalf("expected permission denial, got %s", result.Kind)
	}
	if result.Page != nil {
		t.Error("denied page must not carry content")
	}
	if _, err := result.Unwrap(); err == nil {
		t.Error("expected Unwrap error for denial")
	} else {
		var de *models.DenialError
		if !errors.As(err, &de) {
			t.Errorf("expected DenialError, got %T", err)
		}
	}
}

func TestParseTopic(t *testing.T) {
	p := New(nil, "https://keyfc.net/bbs/")
	result := p.ParseTopic(mustDoc(t, topicHTML))
	if !result.OK() {
		t.Fatalf("expected success, got %s: %s", result.Kind, result.Message)
	}
	page := result.Page

	if page.ThisTopic == nil || page.ThisTopic.ID != "100" {
		t.Errorf("unexpected this topic: %+v", page.ThisTopic)
	}
	if page.ThisForum == nil || page.ThisForum.ID != "52" {
		t.Errorf("unexpected this forum: %+v", page.ThisForum)
	}
	if page.ParentForum == nil || page.ParentForum.Name != "Category" {
		t.Errorf("unexpected parent forum: %+v", page.ParentForum)
	}

	if len(page.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(page.Posts))
	}
	first := page.Posts[0]
	if first.Author != "alice" || first.PostNumber != 1 || first.Content != "<p>Hello</p>" {
		t.Errorf("unexpected first post: %+v", first)
	}
	if first.PostTime == nil || first.PostTime.Hour() != 9 || first.PostTimeText != "2024/3/7 9:05:01" {
		t.Errorf("unexpected post time: %v (%q)", first.PostTime, first.PostTimeText)
	}
	if page.Posts[1].Author != "bob" || page.Posts[1].PostNumber != 3 {
		t.Errorf("unexpected second post: %+v", page.Posts[1])
	}
	if page.Pagination != models.SinglePage() {
		t.Errorf("expected single page, got %+v", page.Pagination)
	}
}

func TestParseTopic_Denied(t *testing.T) {
	result := New(nil, "https://keyfc.net/bbs/").ParseTopic(mustDoc(t, deniedTopicHTML))
	if result.Kind != models.KindPermissionDenial {
		t.Fatalf("expected permission denial, got %s", result.Kind)
	}
	if result.Page != nil {
		t.Fatal("denied page must not carry posts or breadcrumbs")
	}
	if result.Denial.RequiredLevel != 50 || result.Denial.CurrentIdentity != "游客" {
		t.Errorf("unexpected denial: %+v", result.Denial)
	}
}

func TestParseTopic_Idempotent(t *testing.T) {
	p := New(nil, "https://keyfc.net/bbs/")
	first := p.ParseTopic(mustDoc(t, topicHTML))
	second := p.ParseTopic(mustDoc(t, topicHTML))
	if diff := cmp.Diff(first.Page, second.Page); diff != "" {
		t.Errorf("parses differ (-first +second):\n%s", diff)
	}
}

func TestForum_Fetch(t *testing.T) {
	p, forum := newTestParser(t)
	forum.Handle("archiver/showforum-52.aspx", forumHTML)

	cookies := []*http.Cookie{{Name: "dnt", Value: "userid=1"}}
	result := p.Forum(context.Background(), "52", cookies)
	if !result.OK() {
		t.Fatalf("expected success, got %s: %s (%v)", result.Kind, result.Message, result.Err)
	}
	if len(result.Page.Topics) != 2 {
		t.Errorf("expected 2 topics, got %d", len(result.Page.Topics))
	}
	if got := forum.Requests()[0].Cookie; got != "dnt=userid=1" {
		t.Errorf("unexpected cookie header %q", got)
	}
}

func TestTopic_FetchFailure(t *testing.T) {
	p, forum := newTestParser(t)
	forum.HandleRoute("archiver/showtopic-1.aspx", enginetest.Route{Status: http.StatusServiceUnavailable})

	result := p.Topic(context.Background(), "1", nil)
	if result.Kind != models.KindFailure {
		t.Fatalf("expected failure, got %s", result.Kind)
	}
	if !errors.Is(result.Err, engine.ErrHTTPStatus) {
		t.Errorf("expected HTTP status error, got %v", result.Err)
	}
	if _, err := result.Unwrap(); !errors.Is(err, engine.ErrHTTPStatus) {
		t.Errorf("Unwrap should keep the cause, got %v", err)
	}
}

func TestGuard_RecoversPanic(t *testing.T) {
	result := guard("test", func() models.Result[*models.ForumPage] {
		panic("boom")
	})
	if result.Kind != models.KindFailure || !errors.Is(result.Err, engine.ErrParse) {
		t.Errorf("expected parse failure, got %+v", result)
	}
}

// padded pushes every CJK character past the first KB, where charset sniffing stops
func padded(html string) string {
	return strings.Replace(html, "<body>", "<body><!--"+strings.Repeat(" ", 1100)+"-->", 1)
}

func TestForum_UndeclaredUTF8(t *testing.T) {
	p, forum := newTestParser(t)
	forum.HandleRoute("archiver/showforum-52.aspx", enginetest.Route{Body: padded(forumHTML), ContentType: "text/html"})

	result := p.Forum(context.Background(), "52", nil)
	if !result.OK() {
		t.Fatalf("expected success, got %s: %s (%v)", result.Kind, result.Message, result.Err)
	}
	if rc := result.Page.Topics[0].ReplyCount; rc == nil || *rc != 12 {
		t.Errorf("expected reply count 12, got %v", rc)
	}
	if result.Page.Pagination.Total != 2 {
		t.Errorf("unexpected pagination %+v", result.Page.Pagination)
	}
}

func TestTopic_UndeclaredUTF8Denial(t *testing.T) {
	p, forum := newTestParser(t)
	forum.HandleRoute("archiver/showtopic-9.aspx", enginetest.Route{Body: padded(deniedTopicHTML), NoContentType: true})

	result := p.Topic(context.Background(), "9", nil)
	if result.Kind != models.KindPermissionDenial {
		t.Fatalf("expected permission denial, got %s: %s", result.Kind, result.Message)
	}
	if result.Denial.RequiredLevel != 50 || result.Denial.CurrentIdentity != "游客" {
		t.Errorf("unexpected denial: %+v", result.Denial)
	}
}
