// internal/auth/login.go
package auth

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/keyfc/bbs/internal/engine"
	"github.com/keyfc/bbs/pkg/models"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultExpires is the session lifetime requested at login, in seconds (12 hours)
	DefaultExpires = "43200"
	templateID     = "0"

	// ExpiresCookie holds the session expiry as an ISO-8601 instant
	ExpiresCookie = "expires"

	userNotFoundPhrase = "用户不存在"
)

const tracerName = "keyfc.auth"

var (
	passwordIncorrectPattern = regexp.MustCompile(`密码或安全提问第(\d+)次错误, 您最多有(\d+)次机会重试`)
)

// Authenticator logs one account in and tracks its cookies.
// Reads of the cookie state are safe from several goroutines; concurrent Login
// calls on one instance must be serialized by the caller.
type Authenticator struct {
	fetcher  engine.Fetcher
	loginURL string
	username string
	password string
	now      func() time.Time

	mu      sync.RWMutex
	cookies []*http.Cookie
}

// NewAuthenticator creates an Authenticator posting to loginURL (".../login.aspx")
func NewAuthenticator(f engine.Fetcher, loginURL, username, password string) *Authenticator {
	return &Authenticator{
		fetcher:  f,
		loginURL: loginURL,
		username: username,
		password: password,
		now:      time.Now,
	}
}

// Username returns the account this authenticator logs in as
func (a *Authenticator) Username() string {
	return a.username
}

// Login posts the credentials and interprets the returned page.
// Only a page without an error message counts as success.
func (a *Authenticator) Login(ctx context.Context) models.LoginResult {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "auth:Login")
	defer span.End()
	span.SetAttributes(attribute.String("username", a.username))

	fields := url.Values{}
	fields.Set("username", a.username)
	fields.Set("password", a.password)
	fields.Set("templateid", templateID)
	fields.Set("login", "")
	fields.Set("expires", DefaultExpires)

	target := fmt.Sprintf("%s?stamp=%s", a.loginURL, strconv.FormatFloat(rand.Float64(), 'f', -1, 64))

	log.Debug().Str("username", a.username).Str("url", a.loginURL).Msg("Logging in")

	resp, err := a.fetcher.PostForm(ctx, target, fields, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login request failed")
		return models.LoginResult{Kind: models.LoginFailure, Message: "login request failed", Err: err}
	}

	result := a.interpret(resp)
	if result.Kind == models.LoginSuccess {
		log.Info().Str("username", a.username).Int("cookies", len(result.Cookies)).Msg("Login succeeded")
	} else {
		span.SetStatus(codes.Error, result.Kind.String())
		log.Warn().Str("username", a.username).Str("result", result.Kind.String()).Str("message", result.Message).Msg("Login rejected")
	}
	return result
}

func (a *Authenticator) interpret(resp *engine.Response) models.LoginResult {
	doc, err := a.fetcher.ParseHTML(resp.Body, resp.ContentType)
	if err != nil {
		return models.LoginResult{Kind: models.LoginFailure, Message: "failed to parse login response", Err: err}
	}

	msgSel := doc.Find("div.msg_inner.error_msg p").First()
	if msgSel.Length() == 0 {
		cookies := resp.Cookies()
		a.mu.Lock()
		a.cookies = cookies
		a.mu.Unlock()
		return models.LoginResult{Kind: models.LoginSuccess, Cookies: cloneCookies(cookies)}
	}

	msg := strings.TrimSpace(msgSel.Text())
	if strings.Contains(msg, userNotFoundPhrase) {
		return models.LoginResult{Kind: models.LoginUserNotFound, Message: msg}
	}

	if m := passwordIncorrectPattern.FindStringSubmatch(msg); m != nil {
		failing, err := strconv.Atoi(m[1])
		if err != nil {
			return models.LoginResult{Kind: models.LoginFailure, Message: "failing times not found", Err: err}
		}
		maxRetries, err := strconv.Atoi(m[2])
		if err != nil {
			return models.LoginResult{Kind: models.LoginFailure, Message: "max retries not found", Err: err}
		}
		return models.LoginResult{
			Kind:         models.LoginPasswordIncorrect,
			Message:      msg,
			FailingTimes: failing,
			MaxRetries:   maxRetries,
		}
	}

	return models.LoginResult{Kind: models.LoginUnknownDenial, Message: msg}
}

// Logout forgets the stored cookies. No request is made.
func (a *Authenticator) Logout() {
	a.mu.Lock()
	a.cookies = nil
	a.mu.Unlock()
}

// Restore seeds the cookie state, typically from a saved session
func (a *Authenticator) Restore(cookies []*http.Cookie) {
	a.mu.Lock()
	a.cookies = cloneCookies(cookies)
	a.mu.Unlock()
}

// Cookies returns a copy of the current cookies, possibly empty
func (a *Authenticator) Cookies() []*http.Cookie {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return cloneCookies(a.cookies)
}

// IsLoggedIn reports whether any cookies are held, valid or not
func (a *Authenticator) IsLoggedIn() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cookies) > 0
}

// IsLoggedInValid reports whether cookies are held and the session has not expired
func (a *Authenticator) IsLoggedInValid() bool {
	if !a.IsLoggedIn() {
		return false
	}
	expires, ok := a.ExpiresAt()
	if !ok {
		return false
	}
	return !a.now().After(expires)
}

// ExpiresAt reads the session expiry from the "expires" cookie.
// ok is false when the cookie is missing or unparseable, which callers treat as expired.
func (a *Authenticator) ExpiresAt() (time.Time, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return SessionExpiry(a.cookies)
}

// SessionExpiry finds and parses the expiry cookie in cookies
func SessionExpiry(cookies []*http.Cookie) (time.Time, bool) {
	for _, c := range cookies {
		if c == nil || c.Name != ExpiresCookie {
			continue
		}
		return parseInstant(c.Value)
	}
	return time.Time{}, false
}

func parseInstant(value string) (time.Time, bool) {
	value = strings.Trim(strings.TrimSpace(value), `"`)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	if unescaped, err := url.QueryUnescape(value); err == nil && unescaped != value {
		if t, err := time.Parse(time.RFC3339Nano, unescaped); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func cloneCookies(cookies []*http.Cookie) []*http.Cookie {
	if len(cookies) == 0 {
		return []*http.Cookie{}
	}
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out
}
