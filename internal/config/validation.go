package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/keyfc/bbs/internal/utils/headers"
	urlutil "github.com/keyfc/bbs/internal/utils/url"
)

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if err := urlutil.ValidateBaseURL(c.BaseURL); err != nil {
		return err
	}
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil || u.Host == "" {
			return fmt.Errorf("invalid proxy %q", c.Proxy)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "socks5":
		default:
			return fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
		}
	}
	if c.OTLPEndpoint != "" {
		u, err := url.Parse(c.OTLPEndpoint)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid otlp endpoint %q", c.OTLPEndpoint)
		}
	}
	if err := headers.Validate(c.Headers); err != nil {
		return err
	}
	if c.Password != "" && c.Username == "" {
		return fmt.Errorf("a password is set without a username")
	}
	return nil
}
