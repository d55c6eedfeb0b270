package keyfc

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/keyfc/bbs/internal/auth"
	"github.com/keyfc/bbs/internal/engine/enginetest"
	"github.com/keyfc/bbs/pkg/models"
)

const (
	indexPage = `<html><body><div class="cateitem"><h2><a href="showforum-1.aspx">Key</a></h2></div>
<div class="forumitem"><h3><a href="showforum-2.aspx">Alpha</a></h3></div></body></html>`
	ucPage = `<html><body><div class="cpuser"><ul class="cprate"><li><strong>alice</strong></li></ul></div></body></html>`
)

func loginRoute() enginetest.Route {
	expires := time.Now().Add(12 * time.Hour).UTC().Format(time.RFC3339)
	return enginetest.Route{
		Body:    `<html><body><p>登录成功</p></body></html>`,
		Cookies: []*http.Cookie{{Name: "dnt", Value: "userid=1"}, {Name: auth.ExpiresCookie, Value: expires}},
	}
}

func wrongPasswordRoute() enginetest.Route {
	return enginetest.Route{
		Body: `<div class="msg_inner error_msg"><p>密码或安全提问第1次错误, 您最多有5次机会重试</p></div>`,
	}
}

func newForum(t *testing.T, login enginetest.Route) *enginetest.Forum {
	t.Helper()
	forum := enginetest.NewForum(t)
	forum.HandleRoute("login.aspx", login)
	forum.Handle("archiver/index.aspx", indexPage)
	forum.Handle("usercp.aspx", ucPage)
	return forum
}

func TestBuildOptions(t *testing.T) {
	o := buildOptions(nil)
	if o.baseURL != DefaultBaseURL || !o.autoLogin {
		t.Errorf("unexpected defaults %+v", o)
	}
	o = buildOptions([]Option{WithBaseURL("http://localhost:8080/bbs"), WithAutoLogin(false)})
	if o.baseURL != "http://localhost:8080/bbs/" || o.autoLogin {
		t.Errorf("unexpected options %+v", o)
	}
}

func TestClient_LoginAndFetch(t *testing.T) {
	forum := newForum(t, loginRoute())
	c := New(WithBaseURL(forum.BaseURL()), WithUserAgent("keyfc-test"))
	defer c.Close()

	if c.IsLoggedIn() {
		t.Fatal("new client must start without a session")
	}
	if result := c.Login(context.Background(), "alice", "secret"); result.Kind != models.LoginSuccess {
		t.Fatalf("login failed: %v", result.AsError())
	}
	if !c.IsLoggedInValid() {
		t.Error("expected a valid session")
	}

	result := c.UserCenter(context.Background())
	page, err := result.Unwrap()
	if err != nil {
		t.Fatalf("user center failed: %v", err)
	}
	if page.Username != "alice" {
		t.Errorf("unexpected username %q", page.Username)
	}

	reqs := forum.Requests()
	last := reqs[len(reqs)-1]
	if last.Cookie != "dnt=userid=1; expires="+c.Cookies()[1].Value {
		t.Errorf("unexpected cookie header %q", last.Cookie)
	}
	if last.Agent != "keyfc-test" {
		t.Errorf("unexpected user agent %q", last.Agent)
	}
}

func TestClient_FailedLoginKeepsSession(t *testing.T) {
	forum := newForum(t, wrongPasswordRoute())
	c := New(WithBaseURL(forum.BaseURL()))

	saved := []*http.Cookie{{Name: "dnt", Value: "old"}}
	c.Restore(saved)

	result := c.Login(context.Background(), "alice", "wrong")
	if result.Kind != models.LoginPasswordIncorrect {
		t.Fatalf("expected wrong password, got %s", result.Kind)
	}
	if cookies := c.Cookies(); len(cookies) != 1 || cookies[0].Value != "old" {
		t.Errorf("previous session should survive, got %v", cookies)
	}

	c.Logout()
	if c.IsLoggedIn() {
		t.Error("expected no session after logout")
	}
}

func TestAutoClient_LogsInOnce(t *testing.T) {
	forum := newForum(t, loginRoute())
	c := NewAutoClient("alice", "secret", WithBaseURL(forum.BaseURL()))

	for i := 0; i < 2; i++ {
		fetched, err := c.UserCenter(context.Background())
		if err != nil {
			t.Fatalf("user center failed: %v", err)
		}
		if fetched.Mode != WithCookies || !fetched.LoggedInValid || !fetched.Result.OK() {
			t.Errorf("unexpected fetch %+v", fetched)
		}
	}
	if n := forum.Count(http.MethodPost, "login.aspx"); n != 1 {
		t.Errorf("expected one login, got %d", n)
	}
}

func TestAutoClient_LoginFailure(t *testing.T) {
	forum := newForum(t, wrongPasswordRoute())
	c := NewAutoClient("alice", "wrong", WithBaseURL(forum.BaseURL()))

	t.Run("public page falls back", func(t *testing.T) {
		fetched, err := c.Index(context.Background())
		if err != nil {
			t.Fatalf("public page should not fail: %v", err)
		}
		if fetched.Mode != WithoutCookies || fetched.LoggedInValid {
			t.Errorf("expected anonymous fetch, got %+v", fetched)
		}
		if !fetched.Result.OK() || len(fetched.Result.Page.Categories) != 1 {
			t.Errorf("unexpected index result %+v", fetched.Result)
		}
	})

	t.Run("control panel surfaces the error", func(t *testing.T) {
		fetched, err := c.UserCenter(context.Background())
		if fetched != nil {
			t.Errorf("expected no result, got %+v", fetched)
		}
		var loginErr *auth.LoginError
		if !errors.As(err, &loginErr) {
			t.Fatalf("expected LoginError, got %v", err)
		}
		if !errors.Is(err, models.ErrAuth) {
			t.Errorf("expected the error to match ErrAuth: %v", err)
		}
		if loginErr.Result.FailingTimes != 1 || loginErr.Result.MaxRetries != 5 {
			t.Errorf("unexpected counts %+v", loginErr.Result)
		}
	})
}

func TestAutoClient_AutoLoginOff(t *testing.T) {
	forum := newForum(t, loginRoute())
	c := NewAutoClient("alice", "secret", WithBaseURL(forum.BaseURL()), WithAutoLogin(false))

	fetched, err := c.UserCenter(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched.Mode != WithoutCookies {
		t.Errorf("expected anonymous fetch, got %s", fetched.Mode)
	}
	if n := forum.Count(http.MethodPost, "login.aspx"); n != 0 {
		t.Errorf("expected no login, got %d", n)
	}
}
