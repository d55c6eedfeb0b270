// Package transport issues the forum's HTTP requests and hands back parsed documents.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/keyfc/bbs/internal/engine"
	"github.com/keyfc/bbs/internal/reqctx"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// DefaultUserAgent is the desktop browser string the forum expects
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

const tracerName = "keyfc.transport"

// Client implements engine.Fetcher over net/http and goquery
type Client struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
}

var _ engine.Fetcher = (*Client)(nil)

// New creates a Client. A nil http.Client uses a default one with a 30s timeout.
func New(client *http.Client, userAgent string, headers map[string]string) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		client:    client,
		userAgent: userAgent,
		headers:   headers,
	}
}

// GetDocument retrieves url and parses the body as HTML
func (c *Client) GetDocument(ctx context.Context, rawURL string, cookies []*http.Cookie) (*goquery.Document, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "transport:GetDocument", trace.WithAttributes(attribute.String("url", rawURL)))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, c.fail(span, engine.NewEngineError(engine.ErrCodeValidation, "failed to create request", err))
	}

	resp, err := c.do(ctx, req, cookies)
	if err != nil {
		return nil, c.fail(span, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(span, engine.NewEngineError(engine.ErrCodeNetworkError, "failed to read body", err))
	}

	doc, err := c.ParseHTML(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, c.fail(span, err)
	}
	return doc, nil
}

// PostForm submits fields as application/x-www-form-urlencoded and returns the read response
func (c *Client) PostForm(ctx context.Context, rawURL string, fields url.Values, cookies []*http.Cookie) (*engine.Response, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "transport:PostForm", trace.WithAttributes(attribute.String("url", rawURL)))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(fields.Encode()))
	if err != nil {
		return nil, c.fail(span, engine.NewEngineError(engine.ErrCodeValidation, "failed to create request", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(ctx, req, cookies)
	if err != nil {
		return nil, c.fail(span, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(span, engine.NewEngineError(engine.ErrCodeNetworkError, "failed to read body", err))
	}

	return &engine.Response{
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// ParseHTML decodes body to UTF-8 according to contentType and parses it.
// Bodies are only transcoded when a charset is declared by the header, a BOM
// or a meta tag; anything else is read as UTF-8.
func (c *Client) ParseHTML(body []byte, contentType string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(decodeBody(body, contentType))
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "failed to parse HTML", err)
	}
	return doc, nil
}

func decodeBody(body []byte, contentType string) io.Reader {
	e, name, certain := charset.DetermineEncoding(body, contentType)
	// windows-1252 without certainty is the fallback for an ASCII-only first
	// KB, which is what every undeclared UTF-8 page looks like.
	if e == encoding.Nop || (!certain && name == "windows-1252") {
		return bytes.NewReader(body)
	}
	log.Debug().Str("charset", name).Str("content_type", contentType).Msg("Transcoding body")
	return e.NewDecoder().Reader(bytes.NewReader(body))
}

// Close releases idle keep-alive connections
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

func (c *Client) do(ctx context.Context, req *http.Request, cookies []*http.Cookie) (*http.Response, error) {
	rc := reqctx.GetRequestContext(ctx)
	start := time.Now()

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if header := CookieHeader(cookies); header != "" {
		req.Header.Set("Cookie", header)
	}

	log.Debug().
		Str("request_id", rc.RequestID).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("cookies", len(cookies)).
		Msg("Sending request")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, engine.NewEngineError(engine.ErrCodeTimeout, "request timed out", err).
				WithDetail("url", req.URL.String())
		}
		return nil, engine.NewEngineError(engine.ErrCodeNetworkError, "failed to fetch URL", err).
			WithDetail("url", req.URL.String())
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, engine.NewEngineError(engine.ErrCodeHTTPStatus,
			fmt.Sprintf("response code is not 200, instead: %d", resp.StatusCode), nil).
			WithDetail("status", resp.StatusCode).
			WithDetail("url", req.URL.String())
	}

	log.Debug().
		Str("request_id", rc.RequestID).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Int64("response_time_ms", time.Since(start).Milliseconds()).
		Msg("Request completed")

	return resp, nil
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
