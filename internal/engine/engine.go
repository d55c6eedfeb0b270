package engine

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Response is a raw reply to a form submission. Body is already read and closed.
type Response struct {
	StatusCode  int
	Header      http.Header
	Body        []byte
	ContentType string
}

// Cookies parses every Set-Cookie header of the response. net/http drops
// values with bytes outside its cookie-octet set (quotes, backslashes, raw
// UTF-8), which the forum's dnt cookie can carry; those lines keep their
// value verbatim and take only the attributes from net/http.
func (r *Response) Cookies() []*http.Cookie {
	if r == nil {
		return nil
	}
	var cookies []*http.Cookie
	for _, line := range r.Header.Values("Set-Cookie") {
		if c, err := http.ParseSetCookie(line); err == nil {
			cookies = append(cookies, c)
			continue
		}
		if c := parseRawSetCookie(line); c != nil {
			cookies = append(cookies, c)
		}
	}
	return cookies
}

func parseRawSetCookie(line string) *http.Cookie {
	pair, attrs, _ := strings.Cut(line, ";")
	name, value, ok := strings.Cut(pair, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return nil
	}
	stub := name + "=x"
	if attrs != "" {
		stub += ";" + attrs
	}
	c, err := http.ParseSetCookie(stub)
	if err != nil {
		return nil
	}
	c.Value = strings.TrimSpace(value)
	c.Raw = line
	return c
}

// Fetcher is the transport every parser and the authenticator depend on
type Fetcher interface {
	// GetDocument fetches url with the given cookies and parses the HTML body
	GetDocument(ctx context.Context, url string, cookies []*http.Cookie) (*goquery.Document, error)

	// PostForm submits fields as an urlencoded form and returns the raw response
	PostForm(ctx context.Context, url string, fields url.Values, cookies []*http.Cookie) (*Response, error)

	// ParseHTML parses an already-read body without another round trip
	ParseHTML(body []byte, contentType string) (*goquery.Document, error)
}
