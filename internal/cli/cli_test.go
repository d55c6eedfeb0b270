package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/keyfc/bbs/internal/reqctx"
	"github.com/keyfc/bbs/pkg/keyfc"
	"github.com/keyfc/bbs/pkg/models"
	"github.com/spf13/cobra"
)

func TestParseCookies(t *testing.T) {
	tests := []struct {
		name   string
		format string
		input  string
		want   [][2]string
	}{
		{
			name:   "header",
			format: "header",
			input:  "Cookie: dnt=userid=1&password=x; expires=2099-01-01T00:00:00Z\n",
			want:   [][2]string{{"dnt", "userid=1&password=x"}, {"expires", "2099-01-01T00:00:00Z"}},
		},
		{
			name:   "json",
			format: "json",
			input:  `[{"name": "dnt", "value": "userid=1", "domain": "keyfc.net"}]`,
			want:   [][2]string{{"dnt", "userid=1"}},
		},
		{
			name:   "netscape",
			format: "netscape",
			input: "# Netscape HTTP Cookie File\n" +
				".keyfc.net\tTRUE\t/\tFALSE\t4102444800\tdnt\tuserid=1\n" +
				"#HttpOnly_keyfc.net\tFALSE\t/\tTRUE\t0\tsid\tabc\n" +
				"broken line\n",
			want: [][2]string{{"dnt", "userid=1"}, {"sid", "abc"}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cookies, err := parseCookies(tc.format, strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("parseCookies failed: %v", err)
			}
			var got [][2]string
			for _, c := range cookies {
				got = append(got, [2]string{c.Name, c.Value})
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("cookies mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseNetscape_Attributes(t *testing.T) {
	input := ".keyfc.net\tTRUE\t/bbs\tTRUE\t4102444800\tdnt\tuserid=1\n#HttpOnly_keyfc.net\tFALSE\t/\tFALSE\t0\tsid\tabc\n"
	cookies, err := parseNetscape(strings.NewReader(input))
	if err != nil || len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d (%v)", len(cookies), err)
	}
	dnt, sid := cookies[0], cookies[1]
	if dnt.Domain != "keyfc.net" || dnt.Path != "/bbs" || !dnt.Secure || dnt.HttpOnly {
		t.Errorf("unexpected attributes %+v", dnt)
	}
	if !dnt.Expires.Equal(time.Unix(4102444800, 0)) {
		t.Errorf("unexpected expiry %s", dnt.Expires)
	}
	if !sid.HttpOnly || !sid.Expires.IsZero() {
		t.Errorf("session cookie should be HttpOnly without expiry: %+v", sid)
	}
}

func TestParseCookies_Rejects(t *testing.T) {
	if _, err := parseCookies("yaml", strings.NewReader("")); err == nil {
		t.Error("expected an error for an unknown format")
	}
	if _, err := parseCookies("json", strings.NewReader("{not json")); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}

func TestParseFilter(t *testing.T) {
	if f, err := parseFilter("PostReply"); err != nil || f != models.FilterPostReply {
		t.Errorf("parseFilter = %q, %v", f, err)
	}
	if _, err := parseFilter("everything"); err == nil {
		t.Error("expected an error for an unknown filter")
	}
}

func TestIndexTable(t *testing.T) {
	page := &models.IndexPage{Categories: []models.Forum{
		{Name: "Key", ID: "1", SubForums: []models.Forum{
			{Name: "Kanon", ID: "52", SubForums: []models.Forum{{Name: "Fan art", ID: "60"}}},
		}},
		{Name: "Misc", ID: "2"},
	}}
	want := [][]string{
		{"1", "Key", ""},
		{"52", "Kanon", "1"},
		{"60", "Fan art", "52"},
		{"2", "Misc", ""},
	}
	if diff := cmp.Diff(want, indexTable(page).Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestForumTable_MissingReplyCount(t *testing.T) {
	n := 12
	page := &models.ForumPage{Topics: []models.Topic{
		{Title: "Hello", ID: "100", ReplyCount: &n},
		{Title: "No count", ID: "101"},
	}}
	want := [][]string{{"100", "Hello", "12"}, {"101", "No count", ""}}
	if diff := cmp.Diff(want, forumTable(page).Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestWhen(t *testing.T) {
	ts := time.Date(2024, 3, 7, 9, 5, 0, 0, time.UTC)
	if got := when(&ts, "ignored"); got != "2024-03-07 09:05" {
		t.Errorf("when = %q", got)
	}
	if got := when(nil, "昨天"); got != "昨天" {
		t.Errorf("when should fall back to the text, got %q", got)
	}
}

func TestTopicMarkdown(t *testing.T) {
	page := &models.TopicPage{
		ThisTopic: &models.Topic{Title: "Kanon", ID: "1"},
		Posts: []models.Post{
			{Author: "alice", PostTimeText: "2023/12/1 18:30:00", PostNumber: 1, Content: `<p>see <a href="showtopic-2.aspx">this</a></p>`},
		},
	}
	md, err := topicMarkdown(page, "https://keyfc.net/bbs/")
	if err != nil {
		t.Fatalf("topicMarkdown failed: %v", err)
	}
	for _, want := range []string{"# Kanon\n", "## #1 alice (2023/12/1 18:30:00)", "[this](https://keyfc.net/bbs/showtopic-2.aspx)"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four\n- item stays\n\nsecond paragraph", 9)
	want := "one two\nthree\nfour\n- item stays\n\nsecond\nparagraph"
	if got != want {
		t.Errorf("wrapText = %q, want %q", got, want)
	}
}

func newEmitCommand(t *testing.T, output string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cmd := &cobra.Command{Use: "forum"}
	cmd.Flags().StringP("output", "o", output, "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(reqctx.WithRequestContext(context.Background(), "forum"))
	return cmd, &out
}

var forumView = view[*models.ForumPage]{table: forumTable, text: printForum}

func TestEmit_Text(t *testing.T) {
	cmd, out := newEmitCommand(t, "")
	page := &models.ForumPage{
		ThisForum:  &models.Forum{Name: "Kanon", ID: "52"},
		Topics:     []models.Topic{{Title: "Hello", ID: "100"}},
		Pagination: models.Pagination{Current: 1, Total: 3},
	}
	fetched := &keyfc.Fetched[*models.ForumPage]{Result: models.Succeeded(page), Mode: keyfc.WithCookies}
	if err := emit(cmd, fetched, nil, forumView); err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	for _, want := range []string{"Kanon", "(page 1/3)", "100", "Hello"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q: %q", want, out.String())
		}
	}
}

func TestEmit_SavesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forum.csv")
	cmd, out := newEmitCommand(t, path)
	page := &models.ForumPage{Topics: []models.Topic{{Title: "Hello", ID: "100"}}}
	fetched := &keyfc.Fetched[*models.ForumPage]{Result: models.Succeeded(page)}
	if err := emit(cmd, fetched, nil, forumView); err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "id,title,replies\n100,Hello,\n" {
		t.Errorf("unexpected CSV %q", data)
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be printed when saving, got %q", out.String())
	}
}

func TestEmit_Denied(t *testing.T) {
	cmd, _ := newEmitCommand(t, "")
	result := models.Denied[*models.ForumPage](models.Denial{Kind: models.DenialPermission, Message: "您没有权限"})
	err := emit(cmd, &keyfc.Fetched[*models.ForumPage]{Result: result}, nil, forumView)

	var denial *models.DenialError
	if !errors.As(err, &denial) || denial.Denial.Message != "您没有权限" {
		t.Fatalf("expected a denial error, got %v", err)
	}
	var reqErr *reqctx.RequestError
	if !errors.As(err, &reqErr) || reqErr.RequestID != reqctx.GetRequestContext(cmd.Context()).RequestID {
		t.Errorf("error should carry the request id: %v", err)
	}
}

func TestSave_Rejects(t *testing.T) {
	dir := t.TempDir()
	page := &models.ForumPage{}
	if err := save(filepath.Join(dir, "page.md"), page, forumView); err == nil {
		t.Error("expected an error for markdown without post bodies")
	}
	if err := save(filepath.Join(dir, "page.xml"), page, forumView); err == nil {
		t.Error("expected an error for an unknown extension")
	}
}
