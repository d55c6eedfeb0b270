// Package reqctx tags one CLI invocation with an id that transport logs and errors carry.
package reqctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

type key int

const requestKey key = 0

// RequestContext identifies one command run
type RequestContext struct {
	RequestID string
	Command   string
	StartTime time.Time
}

// Elapsed is the time since the command started
func (rc *RequestContext) Elapsed() time.Duration {
	return time.Since(rc.StartTime)
}

// WithRequestContext attaches a fresh request id for command to ctx
func WithRequestContext(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, requestKey, &RequestContext{
		RequestID: generateID(),
		Command:   command,
		StartTime: time.Now(),
	})
}

// GetRequestContext returns the attached context, or a placeholder with id "unknown"
func GetRequestContext(ctx context.Context) *RequestContext {
	if ctx != nil {
		if rc, ok := ctx.Value(requestKey).(*RequestContext); ok {
			return rc
		}
	}
	return &RequestContext{
		RequestID: "unknown",
		StartTime: time.Now(),
	}
}

func generateID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// RequestError wraps an error with the id of the command that produced it
type RequestError struct {
	RequestID string
	Err       error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("[%s] %v", e.RequestID, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError tags err with the request id in ctx; nil stays nil
func NewRequestError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &RequestError{
		RequestID: GetRequestContext(ctx).RequestID,
		Err:       err,
	}
}
