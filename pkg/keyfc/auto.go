package keyfc

import (
	"context"
	"net/http"

	"github.com/keyfc/bbs/internal/auth"
	"github.com/keyfc/bbs/pkg/models"
	"github.com/rs/zerolog/log"
)

// Mode records whether a fetch carried session cookies
type Mode int

const (
	// WithCookies means the request carried a session.
	WithCookies Mode = iota
	// WithoutCookies means the page was fetched anonymously.
	WithoutCookies
)

func (m Mode) String() string {
	if m == WithCookies {
		return "with_cookies"
	}
	return "without_cookies"
}

// Fetched is a page result together with the session state it was fetched under
type Fetched[T any] struct {
	Result        models.Result[T]
	Mode          Mode
	LoggedInValid bool
}

// AutoClient logs in on demand. Each operation asks for cookies first and logs
// in once when the session is missing or expired.
//
// Public pages (index, forum, topic) are fetched anonymously if that login
// fails. Control-panel pages return the *auth.LoginError instead.
type AutoClient struct {
	client    *Client
	auto      *auth.AutoAuth
	autoLogin bool
}

// NewAutoClient creates an AutoClient for one account
func NewAutoClient(username, password string, opts ...Option) *AutoClient {
	o := buildOptions(opts)
	c := newClient(o, username, password)
	return &AutoClient{
		client:    c,
		auto:      auth.NewAutoAuth(c.authenticator()),
		autoLogin: o.autoLogin,
	}
}

// RefreshLogin logs in regardless of the current session
func (a *AutoClient) RefreshLogin(ctx context.Context) models.LoginResult {
	return a.auto.RefreshLogin(ctx)
}

// Logout forgets the session; the next operation logs in again when auto-login is on
func (a *AutoClient) Logout() {
	a.auto.Logout()
}

// Restore seeds the session, typically with a saved one
func (a *AutoClient) Restore(cookies []*http.Cookie) {
	a.auto.Authenticator().Restore(cookies)
}

func (a *AutoClient) Cookies() []*http.Cookie {
	return a.auto.Authenticator().Cookies()
}

func (a *AutoClient) IsLoggedIn() bool {
	return a.auto.Authenticator().IsLoggedIn()
}

func (a *AutoClient) IsLoggedInValid() bool {
	return a.auto.IsLoggedInValid()
}

func (a *AutoClient) BaseURL() string {
	return a.client.BaseURL()
}

// Close releases idle connections
func (a *AutoClient) Close() {
	a.client.Close()
}

func fetchPublic[T any](ctx context.Context, a *AutoClient, op string, fetch func([]*http.Cookie) models.Result[T]) (*Fetched[T], error) {
	cookies, err := a.auto.GetCookies(ctx, a.autoLogin)
	if err != nil {
		log.Warn().Err(err).Str("op", op).Msg("Login failed, fetching anonymously")
		cookies = nil
	}
	return newFetched(a, fetch(cookies), cookies), nil
}

func fetchPrivate[T any](ctx context.Context, a *AutoClient, fetch func([]*http.Cookie) models.Result[T]) (*Fetched[T], error) {
	cookies, err := a.auto.GetCookies(ctx, a.autoLogin)
	if err != nil {
		return nil, err
	}
	return newFetched(a, fetch(cookies), cookies), nil
}

func newFetched[T any](a *AutoClient, result models.Result[T], cookies []*http.Cookie) *Fetched[T] {
	mode := WithCookies
	if len(cookies) == 0 {
		mode = WithoutCookies
	}
	return &Fetched[T]{Result: result, Mode: mode, LoggedInValid: a.auto.IsLoggedInValid()}
}

// Index fetches the board list, anonymously when no login is possible.
func (a *AutoClient) Index(ctx context.Context) (*Fetched[*models.IndexPage], error) {
	return fetchPublic(ctx, a, "index", func(cookies []*http.Cookie) models.Result[*models.IndexPage] {
		return a.client.parser.Index(ctx, cookies)
	})
}

// Forum fetches the topic list of board id.
func (a *AutoClient) Forum(ctx context.Context, id string) (*Fetched[*models.ForumPage], error) {
	return fetchPublic(ctx, a, "forum", func(cookies []*http.Cookie) models.Result[*models.ForumPage] {
		return a.client.parser.Forum(ctx, id, cookies)
	})
}

// Topic fetches the posts of topic id.
func (a *AutoClient) Topic(ctx context.Context, id string) (*Fetched[*models.TopicPage], error) {
	return fetchPublic(ctx, a, "topic", func(cookies []*http.Cookie) models.Result[*models.TopicPage] {
		return a.client.parser.Topic(ctx, id, cookies)
	})
}

// Search looks up topic titles. The forum only allows it for members.
func (a *AutoClient) Search(ctx context.Context, keyword string) (*Fetched[*models.SearchPage], error) {
	return fetchPrivate(ctx, a, func(cookies []*http.Cookie) models.Result[*models.SearchPage] {
		return a.client.parser.Search(ctx, keyword, cookies)
	})
}

// UserCenter fetches the account overview.
func (a *AutoClient) UserCenter(ctx context.Context) (*Fetched[*models.UcPage], error) {
	return fetchPrivate(ctx, a, func(cookies []*http.Cookie) models.Result[*models.UcPage] {
		return a.client.parser.UserCenter(ctx, cookies)
	})
}

// Inbox fetches the private message list.
func (a *AutoClient) Inbox(ctx context.Context) (*Fetched[*models.InboxPage], error) {
	return fetchPrivate(ctx, a, func(cookies []*http.Cookie) models.Result[*models.InboxPage] {
		return a.client.parser.Inbox(ctx, cookies)
	})
}

// Notifications fetches system notices of one type.
func (a *AutoClient) Notifications(ctx context.Context, filter models.NotificationFilter) (*Fetched[*models.NotificationsPage], error) {
	return fetchPrivate(ctx, a, func(cookies []*http.Cookie) models.Result[*models.NotificationsPage] {
		return a.client.parser.Notifications(ctx, filter, cookies)
	})
}

// MyTopics fetches the topics the account started.
func (a *AutoClient) MyTopics(ctx context.Context) (*Fetched[*models.MyTopicsPage], error) {
	return fetchPrivate(ctx, a, func(cookies []*http.Cookie) models.Result[*models.MyTopicsPage] {
		return a.client.parser.MyTopics(ctx, cookies)
	})
}

// MyPosts fetches the topics the account replied to.
func (a *AutoClient) MyPosts(ctx context.Context) (*Fetched[*models.MyPostsPage], error) {
	return fetchPrivate(ctx, a, func(cookies []*http.Cookie) models.Result[*models.MyPostsPage] {
		return a.client.parser.MyPosts(ctx, cookies)
	})
}

// Favourites fetches the subscribed topics.
func (a *AutoClient) Favourites(ctx context.Context) (*Fetched[*models.FavouritesPage], error) {
	return fetchPrivate(ctx, a, func(cookies []*http.Cookie) models.Result[*models.FavouritesPage] {
		return a.client.parser.Favourites(ctx, cookies)
	})
}
