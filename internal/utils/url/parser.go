package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL checks that urlStr is an absolute http(s) URL with a host
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ValidateBaseURL additionally requires the trailing slash that relative forum links resolve against
func ValidateBaseURL(urlStr string) error {
	if err := ValidateURL(urlStr); err != nil {
		return err
	}
	if !strings.HasSuffix(urlStr, "/") {
		return fmt.Errorf("invalid base URL %q: must end with /", urlStr)
	}
	return nil
}

// ResolveURL resolves a possibly-relative href against a base URL.
// Empty hrefs stay empty so missing links are not mistaken for the base page.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(u).String()
}
