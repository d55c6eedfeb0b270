// Package keyfc is the public entry point for reading the KeyFC forum.
//
// A Client holds one transport and one cookie jar. Page operations return
// models.Result values; use Result.Unwrap to switch to ordinary error flow.
package keyfc

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/keyfc/bbs/internal/auth"
	"github.com/keyfc/bbs/internal/parser"
	"github.com/keyfc/bbs/internal/transport"
	"github.com/keyfc/bbs/pkg/models"
)

// DefaultBaseURL is the forum root every relative path is resolved against
const DefaultBaseURL = "https://keyfc.net/bbs/"

type options struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	headers    map[string]string
	strict     bool
	autoLogin  bool
}

// Option configures a Client or AutoClient
type Option func(*options)

// WithHTTPClient sets the underlying HTTP client, for timeouts and proxies
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithBaseURL points the client at another forum root
func WithBaseURL(base string) Option {
	return func(o *options) { o.baseURL = base }
}

// WithUserAgent overrides the desktop browser user agent
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithHeaders adds fixed headers to every request
func WithHeaders(h map[string]string) Option {
	return func(o *options) { o.headers = h }
}

// WithStrictBreadcrumbs makes forum and topic pages without breadcrumbs fail
func WithStrictBreadcrumbs(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithAutoLogin controls whether an AutoClient logs in when its session is stale.
// It is on by default and has no effect on a plain Client.
func WithAutoLogin(enabled bool) Option {
	return func(o *options) { o.autoLogin = enabled }
}

func buildOptions(opts []Option) options {
	o := options{baseURL: DefaultBaseURL, autoLogin: true}
	for _, opt := range opts {
		opt(&o)
	}
	if !strings.HasSuffix(o.baseURL, "/") {
		o.baseURL += "/"
	}
	return o
}

// Client fetches forum pages with its own cookies.
// Page operations are safe for concurrent use; Login calls are serialized.
type Client struct {
	transport *transport.Client
	parser    *parser.Parser
	baseURL   string

	loginMu sync.Mutex
	mu      sync.RWMutex
	auth    *auth.Authenticator
}

// New creates a Client with no session
func New(opts ...Option) *Client {
	return newClient(buildOptions(opts), "", "")
}

func newClient(o options, username, password string) *Client {
	t := transport.New(o.httpClient, o.userAgent, o.headers)
	c := &Client{
		transport: t,
		parser:    parser.New(t, o.baseURL, parser.WithStrictBreadcrumbs(o.strict)),
		baseURL:   o.baseURL,
	}
	c.auth = c.newAuthenticator(username, password)
	return c
}

func (c *Client) newAuthenticator(username, password string) *auth.Authenticator {
	return auth.NewAuthenticator(c.transport, c.baseURL+"login.aspx", username, password)
}

func (c *Client) authenticator() *auth.Authenticator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// BaseURL returns the forum root, always ending in "/"
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login signs in as username. The previous session is kept unless the login succeeds.
func (c *Client) Login(ctx context.Context, username, password string) models.LoginResult {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	a := c.newAuthenticator(username, password)
	result := a.Login(ctx)
	if result.Kind == models.LoginSuccess {
		c.mu.Lock()
		c.auth = a
		c.mu.Unlock()
	}
	return result
}

// Logout forgets the session cookies
func (c *Client) Logout() {
	c.authenticator().Logout()
}

// Restore replaces the session cookies, typically with a saved session
func (c *Client) Restore(cookies []*http.Cookie) {
	c.authenticator().Restore(cookies)
}

// Cookies returns a copy of the session cookies
func (c *Client) Cookies() []*http.Cookie {
	return c.authenticator().Cookies()
}

// IsLoggedIn reports whether any session cookies are held
func (c *Client) IsLoggedIn() bool {
	return c.authenticator().IsLoggedIn()
}

// IsLoggedInValid reports whether the session exists and has not expired
func (c *Client) IsLoggedInValid() bool {
	return c.authenticator().IsLoggedInValid()
}

// Index fetches the board list with the current cookies.
func (c *Client) Index(ctx context.Context) models.Result[*models.IndexPage] {
	return c.parser.Index(ctx, c.Cookies())
}

// Forum fetches the topic list of board id.
func (c *Client) Forum(ctx context.Context, id string) models.Result[*models.ForumPage] {
	return c.parser.Forum(ctx, id, c.Cookies())
}

// Topic fetches the posts of topic id.
func (c *Client) Topic(ctx context.Context, id string) models.Result[*models.TopicPage] {
	return c.parser.Topic(ctx, id, c.Cookies())
}

// Search looks up topic titles containing keyword.
func (c *Client) Search(ctx context.Context, keyword string) models.Result[*models.SearchPage] {
	return c.parser.Search(ctx, keyword, c.Cookies())
}

// UserCenter fetches the account overview. It needs a session.
func (c *Client) UserCenter(ctx context.Context) models.Result[*models.UcPage] {
	return c.parser.UserCenter(ctx, c.Cookies())
}

// Inbox fetches the private message list.
func (c *Client) Inbox(ctx context.Context) models.Result[*models.InboxPage] {
	return c.parser.Inbox(ctx, c.Cookies())
}

// Notifications fetches system notices of one type.
func (c *Client) Notifications(ctx context.Context, filter models.NotificationFilter) models.Result[*models.NotificationsPage] {
	return c.parser.Notifications(ctx, filter, c.Cookies())
}

// MyTopics fetches the topics the account started.
func (c *Client) MyTopics(ctx context.Context) models.Result[*models.MyTopicsPage] {
	return c.parser.MyTopics(ctx, c.Cookies())
}

// MyPosts fetches the topics the account replied to.
func (c *Client) MyPosts(ctx context.Context) models.Result[*models.MyPostsPage] {
	return c.parser.MyPosts(ctx, c.Cookies())
}

// Favourites fetches the subscribed topics.
func (c *Client) Favourites(ctx context.Context) models.Result[*models.FavouritesPage] {
	return c.parser.Favourites(ctx, c.Cookies())
}

// Close releases idle connections. The client must not be used afterwards.
func (c *Client) Close() {
	c.transport.Close()
}
