package parser

import (
	"context"
	"testing"
	"time"

	"github.com/keyfc/bbs/internal/document"
	"github.com/keyfc/bbs/pkg/models"
)

const inboxHTML = `<html><head><title>收件箱</title></head><body>
<div class="pages">共有短消息:12条 上限:100条 <em>1/2页</em></div>
<table class="pm_list"><tbody>
<tr id="msg1">
<td class="msg_icon"><img src="images/read.gif" title="已读"/></td>
<td class="name_and_date"><span class="name"><a href="userinfo-7.aspx">alice</a></span><span class="date">2024-3-7 9:05</span></td>
<td class="pmsubject"><p><a href="usercpshowpm.aspx?pmid=1">Hi</a></p><div class="snippet_wrap"><a>first lines</a></div></td>
</tr>
<tr id="msg2">
<td class="msg_icon"><img src="images/unread.gif" title="未读"/></td>
<td class="name_and_date"><span class="name"><a href="userinfo-8.aspx">bob</a></span><span class="date">bad date</span></td>
<td class="pmsubject"><p><a href="usercpshowpm.aspx?pmid=2">Yo</a></p></td>
</tr>
<tr><td colspan="3">no id</td></tr>
</tbody></table></body></html>`

func TestParseInbox(t *testing.T) {
	p := New(nil, "https://keyfc.net/bbs/")
	result := p.ParseInbox(mustDoc(t, inboxHTML))
	if !result.OK() {
		t.Fatalf("expected success, got %s: %s", result.Kind, result.Message)
	}
	page := result.Page

	if page.MessageCount != 12 || page.MessageLimit != 100 {
		t.Errorf("unexpected quota %d/%d", page.MessageCount, page.MessageLimit)
	}
	wantPager := models.Pagination{Current: 1, Total: 2, HasNext: true}
	if page.Pagination != wantPager {
		t.Errorf("pagination = %+v, want %+v", page.Pagination, wantPager)
	}
	if len(page.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(page.Messages))
	}

	first := page.Messages[0]
	if first.ID != "msg1" || !first.IsRead || first.Sender.ID != "7" || first.Subject != "Hi" || first.Snippet != "first lines" {
		t.Errorf("unexpected first message: %+v", first)
	}
	if first.URL != "https://keyfc.net/bbs/usercpshowpm.aspx?pmid=1" {
		t.Errorf("unexpected url %q", first.URL)
	}
	want := time.Date(2024, 3, 7, 9, 5, 0, 0, document.SiteLocation)
	if first.Date == nil || !first.Date.Equal(want) {
		t.Errorf("date = %v, want %v", first.Date, want)
	}

	second := page.Messages[1]
	if second.IsRead || second.Date != nil || second.DateText != "bad date" {
		t.Errorf("unexpected second message: %+v", second)
	}
}

func TestParseInbox_DenialWins(t *testing.T) {
	html := `<div class="msgbox error_msg"><p>您还没有登录</p></div>` + inboxHTML
	result := New(nil, "https://keyfc.net/bbs/").ParseInbox(mustDoc(t, html))
	if result.Kind != models.KindPermissionDenial || result.Page != nil {
		t.Fatalf("expected permission denial without content, got %+v", result)
	}
}

const noticesHTML = `<html><body><table class="pm_list"><tbody>
<tr>
<td class="notice_list"><a href="userinfo-9.aspx">mod</a> 移动了您的主题 <a href="showtopic-42.aspx">Kanon</a> 理由: 旧理由: 分类错误 </td>
<td class="name_and_date"><span class="date">2024-3-7 10:00</span></td>
</tr>
<tr><td class="notice_list">系统维护通知</td></tr>
<tr><td>no notice cell</td></tr>
</tbody></table></body></html>`

func TestParseNotifications(t *testing.T) {
	p := New(nil, "https://keyfc.net/bbs/")
	result := p.ParseNotifications(mustDoc(t, noticesHTML), models.FilterTopicAdmin)
	if !result.OK() {
		t.Fatalf("expected success, got %s", result.Kind)
	}
	page := result.Page

	if page.Filter != models.FilterTopicAdmin {
		t.Errorf("unexpected filter %q", page.Filter)
	}
	if len(page.Notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(page.Notifications))
	}

	n := page.Notifications[0]
	if n.Reason != "分类错误" {
		t.Errorf("reason = %q", n.Reason)
	}
	if n.User.ID != "9" || n.User.Name != "mod" {
		t.Errorf("unexpected user %+v", n.User)
	}
	if n.TopicID != "42" || n.TopicTitle != "Kanon" || n.TopicURL != "https://keyfc.net/bbs/showtopic-42.aspx" {
		t.Errorf("unexpected topic %q %q %q", n.TopicID, n.TopicTitle, n.TopicURL)
	}
	if n.Date == nil {
		t.Error("expected a parsed date")
	}

	plain := page.Notifications[1]
	if plain.Content != "系统维护通知" || plain.TopicID != "" || plain.User.Name != "" || plain.Reason != "" {
		t.Errorf("unexpected plain notice %+v", plain)
	}
}

func TestNotifications_FilterQuery(t *testing.T) {
	cases := []struct {
		filter models.NotificationFilter
		query  string
	}{
		{models.FilterPostReply, "filter=postreply"},
		{models.FilterAll, ""},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(string(tc.filter), func(t *testing.T) {
			p, forum := newTestParser(t)
			forum.Handle("usercpnotice.aspx", noticesHTML)

			result := p.Notifications(context.Background(), tc.filter, nil)
			if !result.OK() {
				t.Fatalf("expected success, got %s: %v", result.Kind, result.Err)
			}
			if got := forum.Requests()[0].Query; got != tc.query {
				t.Errorf("query = %q, want %q", got, tc.query)
			}
			if result.Page.Filter != models.FilterAll && tc.filter != models.FilterPostReply {
				t.Errorf("empty filter should report all, got %q", result.Page.Filter)
			}
		})
	}
}

const myTopicsHTML = `<html><body><div class="pages"><em>2/3页</em></div>
<table class="datatable"><tbody>
<tr><th>标题</th><th>版块</th></tr>
<tr>
<td><img src="images/folder_hot.gif"/></td>
<td class="datatitle"><a href="showtopic-42.aspx">Kanon</a></td>
<td>12</td>
<td><a href="showforum-52.aspx">Forum X</a></td>
<td><span class="time"><a href="showtopic-42.aspx?page=end">2024-3-7 10:00</a></span> by <a href="userinfo-8.aspx">bob</a></td>
</tr>
<tr>
<td><img src="images/folder_new.gif"/></td>
<td class="datatitle"><a href="showtopic-43.aspx">Air</a></td>
<td>0</td>
<td><a href="showforum-53.aspx">Forum Y</a></td>
<td><span class="time"><a href="showtopic-43.aspx">2024-3-8 11:30</a></span> by <a href="userinfo-7.aspx">alice</a></td>
</tr>
</tbody></table></body></html>`

func TestParseMyTopics(t *testing.T) {
	result := New(nil, "https://keyfc.net/bbs/").ParseMyTopics(mustDoc(t, myTopicsHTML))
	if !result.OK() {
		t.Fatalf("expected success, got %s", result.Kind)
	}
	page := result.Page
	if len(page.Topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(page.Topics))
	}
	if page.Pagination.Current != 2 || !page.Pagination.HasPrevious || !page.Pagination.HasNext {
		t.Errorf("unexpected pagination %+v", page.Pagination)
	}

	hot := page.Topics[0]
	if !hot.IsHot || hot.ID != "42" || hot.ForumID != "52" || hot.ForumName != "Forum X" {
		t.Errorf("unexpected first topic %+v", hot)
	}
	if hot.ForumURL != "https://keyfc.net/bbs/showforum-52.aspx" {
		t.Errorf("unexpected forum url %q", hot.ForumURL)
	}
	if hot.LastPostUser.Name != "bob" || hot.LastPostDateText != "2024-3-7 10:00" || hot.LastPostDate == nil {
		t.Errorf("unexpected last post %+v", hot)
	}
	if page.Topics[1].IsHot {
		t.Error("second topic is not hot")
	}
}

func TestMyPosts_FetchesRepliesPage(t *testing.T) {
	p, forum := newTestParser(t)
	forum.Handle("myposts.aspx", myTopicsHTML)

	result := p.MyPosts(context.Background(), nil)
	if !result.OK() {
		t.Fatalf("expected success, got %s: %v", result.Kind, result.Err)
	}
	if len(result.Page.Posts) != 2 {
		t.Errorf("expected 2 posts, got %d", len(result.Page.Posts))
	}
	if n := forum.Count("GET", "mytopics.aspx"); n != 0 {
		t.Errorf("replies must not be read from the topics page, got %d hits", n)
	}
}

const favouritesHTML = `<html><body><table class="datatable"><tbody>
<tr class="colplural"><td class="datatitle"><a href="#">标题</a></td></tr>
<tr>
<td><input type="checkbox" name="titemid" value="555"/></td>
<td class="datatitle"><a href="showtopic-42.aspx">Kanon</a></td>
<td><a href="userinfo-7.aspx">alice</a></td>
<td class="time">2024/3/7 9:05:01</td>
</tr>
</tbody></table></body></html>`

func TestParseFavourites(t *testing.T) {
	result := New(nil, "https://keyfc.net/bbs/").ParseFavourites(mustDoc(t, favouritesHTML))
	if !result.OK() {
		t.Fatalf("expected success, got %s", result.Kind)
	}
	favs := result.Page.Favourites
	if len(favs) != 1 {
		t.Fatalf("expected the header row to be skipped, got %d rows", len(favs))
	}
	f := favs[0]
	if f.ID != "555" || f.Title != "Kanon" || f.Author.ID != "7" || f.URL != "https://keyfc.net/bbs/showtopic-42.aspx" {
		t.Errorf("unexpected favourite %+v", f)
	}
	want := time.Date(2024, 3, 7, 9, 5, 1, 0, document.SiteLocation)
	if f.Date == nil || !f.Date.Equal(want) {
		t.Errorf("date = %v, want %v", f.Date, want)
	}
	if result.Page.Pagination != models.SinglePage() {
		t.Errorf("expected single page, got %+v", result.Page.Pagination)
	}
}
