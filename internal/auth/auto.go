package auth

import (
	"context"
	"net/http"

	"github.com/keyfc/bbs/internal/engine"
	"github.com/keyfc/bbs/pkg/models"
	"github.com/rs/zerolog/log"
)

// LoginError reports an automatic login that did not succeed
type LoginError struct {
	Result models.LoginResult
}

func (e *LoginError) Error() string {
	return "failed to refresh login: " + e.Result.AsError().Error()
}

func (e *LoginError) Unwrap() error {
	return e.Result.Err
}

func (e *LoginError) Is(target error) bool {
	return target == engine.ErrAuth
}

// AutoAuth hands out cookies, logging in again once when the stored ones are stale
type AutoAuth struct {
	auth *Authenticator
}

// NewAutoAuth wraps an Authenticator
func NewAutoAuth(a *Authenticator) *AutoAuth {
	return &AutoAuth{auth: a}
}

// Authenticator exposes the wrapped authenticator
func (a *AutoAuth) Authenticator() *Authenticator {
	return a.auth
}

// GetCookies returns the current cookies when they are valid or autoLogin is off;
// the result may be empty, meaning the caller proceeds unauthenticated.
// Otherwise it performs exactly one login and fails on anything but success.
func (a *AutoAuth) GetCookies(ctx context.Context, autoLogin bool) ([]*http.Cookie, error) {
	if !autoLogin || a.auth.IsLoggedInValid() {
		return a.auth.Cookies(), nil
	}

	log.Debug().Str("username", a.auth.Username()).Msg("Session missing or expired, logging in")

	result := a.RefreshLogin(ctx)
	if result.Kind != models.LoginSuccess {
		return nil, &LoginError{Result: result}
	}
	return result.Cookies, nil
}

// RefreshLogin logs in regardless of the cookie state
func (a *AutoAuth) RefreshLogin(ctx context.Context) models.LoginResult {
	return a.auth.Login(ctx)
}

// IsLoggedInValid reports the wrapped authenticator's session validity
func (a *AutoAuth) IsLoggedInValid() bool {
	return a.auth.IsLoggedInValid()
}

// Logout clears the stored cookies
func (a *AutoAuth) Logout() {
	a.auth.Logout()
}
