// Package app wires configuration, logging, the forum client and the session store.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/keyfc/bbs/internal/auth"
	"github.com/keyfc/bbs/internal/config"
	"github.com/keyfc/bbs/internal/telemetry"
	"github.com/keyfc/bbs/internal/transport"
	"github.com/keyfc/bbs/pkg/keyfc"
	"github.com/keyfc/bbs/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all dependencies of one CLI run.
//
// It is created before a command runs and closed after it. Close persists the
// session when the command logged in again.
type Application struct {
	Config     *config.Config
	Logger     *zerolog.Logger
	HTTPClient *http.Client
	Client     *keyfc.AutoClient
	Sessions   *auth.Store
	Telemetry  *telemetry.Telemetry

	clientOpts []keyfc.Option
	restored   string
	startTime  time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It configures logging and tracing, builds the HTTP client (with the proxy if
// one is set), opens the session store and restores the saved session into the client.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := setupLogging(cfg)

	tel, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.OTLPHeaders)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Str("proxy", cfg.Proxy).
		Msg("HTTP client initialized")

	var store *auth.Store
	if cfg.SessionDir != "" {
		store = auth.NewFileStore(cfg.SessionDir)
	} else if store, err = auth.NewStore(""); err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	autoLogin := cfg.AutoLogin && cfg.Username != "" && cfg.Password != ""
	opts := []keyfc.Option{
		keyfc.WithHTTPClient(httpClient),
		keyfc.WithBaseURL(cfg.BaseURL),
		keyfc.WithUserAgent(cfg.UserAgent),
		keyfc.WithHeaders(cfg.Headers),
		keyfc.WithStrictBreadcrumbs(cfg.StrictBreadcrumbs),
	}
	client := keyfc.NewAutoClient(cfg.Username, cfg.Password, append(opts, keyfc.WithAutoLogin(autoLogin))...)

	a := &Application{
		Config:     cfg,
		Logger:     &logger,
		HTTPClient: httpClient,
		Client:     client,
		Sessions:   store,
		Telemetry:  tel,
		clientOpts: opts,
		startTime:  time.Now(),
	}
	if err := a.restoreSession(); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("base_url", cfg.BaseURL).
		Bool("auto_login", autoLogin).
		Bool("session", client.IsLoggedIn()).
		Msg("Application initialized")
	return a, nil
}

func setupLogging(cfg *config.Config) zerolog.Logger {
	// Info logs stay hidden unless -v is used
	level := zerolog.ErrorLevel
	switch cfg.LogLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if cfg.JSONLog {
		w = os.Stderr
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return log.Logger
}

func newHTTPClient(cfg *config.Config) (*http.Client, error) {
	tr := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy: %w", err)
		}
		tr.Proxy = http.ProxyURL(proxyURL)
	}
	return &http.Client{Timeout: cfg.HTTPTimeout, Transport: tr}, nil
}

// Login signs in with explicit credentials and, on success, replaces the client
// with one bound to that account. The previous client stays in place on failure.
func (a *Application) Login(ctx context.Context, username, password string) models.LoginResult {
	client := keyfc.NewAutoClient(username, password,
		append(a.clientOpts, keyfc.WithAutoLogin(a.Config.AutoLogin))...)
	result := client.RefreshLogin(ctx)
	if result.Kind != models.LoginSuccess {
		client.Close()
		return result
	}

	a.Client.Close()
	a.Client = client
	a.Config.Username = username
	a.Config.Password = password
	a.Logger.Debug().Str("username", username).Msg("Client switched to new account")
	return result
}

// SessionName is the saved session this run reads and writes: --session, else the username
func (a *Application) SessionName() string {
	if a.Config.Session != "" {
		return a.Config.Session
	}
	return a.Config.Username
}

func (a *Application) restoreSession() error {
	name := a.SessionName()
	if name == "" {
		return nil
	}
	session, err := a.Sessions.Load(name)
	if errors.Is(err, auth.ErrSessionNotFound) {
		a.Logger.Debug().Str("session", name).Msg("No saved session")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", name, err)
	}
	if session.BaseURL != "" && session.BaseURL != a.Config.BaseURL {
		a.Logger.Warn().Str("session", name).Str("base_url", session.BaseURL).Msg("Saved session belongs to another forum, ignoring it")
		return nil
	}

	cookies := session.HTTPCookies()
	a.Client.Restore(cookies)
	a.restored = transport.CookieHeader(cookies)
	a.Logger.Debug().
		Str("session", name).
		Bool("expired", session.Expired(time.Now())).
		Msg("Session restored")
	return nil
}

// SaveSession stores the client's current cookies under SessionName
func (a *Application) SaveSession() (*auth.Session, error) {
	name := a.SessionName()
	if name == "" {
		return nil, fmt.Errorf("no session name: pass --session or --username")
	}
	cookies := a.Client.Cookies()
	if len(cookies) == 0 {
		return nil, fmt.Errorf("no session cookies to save")
	}
	session := auth.NewSession(name, a.Config.Username, a.Config.BaseURL, cookies)
	if err := a.Sessions.Save(session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	a.restored = transport.CookieHeader(cookies)
	return session, nil
}

// Close saves a session refreshed during the run and releases connections.
// Errors while saving are logged, not returned.
func (a *Application) Close(ctx context.Context) error {
	if header := transport.CookieHeader(a.Client.Cookies()); header != "" && header != a.restored && a.SessionName() != "" {
		if _, err := a.SaveSession(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to persist refreshed session")
		} else {
			a.Logger.Debug().Str("session", a.SessionName()).Msg("Refreshed session saved")
		}
	}

	a.Client.Close()
	if err := a.Telemetry.Shutdown(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to flush traces")
	}
	a.Logger.Debug().Dur("uptime", time.Since(a.startTime)).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
