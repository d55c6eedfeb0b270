// Package parser turns forum pages into typed page models.
//
// Every fetching operation returns a models.Result and never panics: transport
// errors and extraction errors become Failure, site messages become denials.
// The Parse* methods work on an already-parsed document and never touch the network.
package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/keyfc/bbs/internal/engine"
	"github.com/keyfc/bbs/pkg/models"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ArchiverPath is the prefix of the lightweight public renderings
const ArchiverPath = "archiver/"

// tracerName is looked up on every span; the provider is installed after init
const tracerName = "keyfc.parser"

// Parser fetches and parses pages relative to one forum base URL
type Parser struct {
	fetcher engine.Fetcher
	base    string
	strict  bool
}

// Option configures a Parser
type Option func(*Parser)

// WithStrictBreadcrumbs makes forum and topic pages without breadcrumbs a Failure
// instead of a page with nil references.
func WithStrictBreadcrumbs(strict bool) Option {
	return func(p *Parser) {
		p.strict = strict
	}
}

// New creates a Parser. baseURL must end with "/", e.g. "https://keyfc.net/bbs/".
func New(f engine.Fetcher, baseURL string, opts ...Option) *Parser {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	p := &Parser{fetcher: f, base: baseURL}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BaseURL returns the forum root every path is resolved against
func (p *Parser) BaseURL() string {
	return p.base
}

func (p *Parser) url(path string) string {
	return p.base + strings.TrimPrefix(path, "/")
}

// load fetches url and hands the document to parse inside guard
func load[T any](ctx context.Context, p *Parser, op, url string, cookies []*http.Cookie, parse func(*goquery.Document) models.Result[T]) models.Result[T] {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "parser:"+op, trace.WithAttributes(
		attribute.String("url", url),
		attribute.Bool("authenticated", len(cookies) > 0),
	))
	defer span.End()

	result := guard(op, func() models.Result[T] {
		doc, err := p.fetcher.GetDocument(ctx, url, cookies)
		if err != nil {
			return models.Failed[T](fmt.Sprintf("failed to retrieve %s", op), err)
		}
		return parse(doc)
	})

	span.SetAttributes(attribute.String("result", result.Kind.String()))
	if result.Kind == models.KindFailure {
		if result.Err != nil {
			span.RecordError(result.Err)
		}
		span.SetStatus(codes.Error, result.Message)
	}

	log.Debug().Str("op", op).Str("url", url).Str("result", result.Kind.String()).Msg("Page parsed")
	return result
}

// guard converts a panic in fn into a Failure
func guard[T any](op string, fn func() models.Result[T]) (result models.Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("op", op).Interface("panic", r).Msg("Parser panicked")
			result = models.Failed[T](
				fmt.Sprintf("failed to parse %s page", op),
				engine.NewEngineError(engine.ErrCodeParseError, fmt.Sprintf("%v", r), nil),
			)
		}
	}()
	return fn()
}

func parseFailure[T any](op, message string) models.Result[T] {
	return models.Failed[T](
		fmt.Sprintf("failed to parse %s page", op),
		engine.NewEngineError(engine.ErrCodeParseError, message, nil),
	)
}
