// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"

	"github.com/keyfc/bbs/pkg/models"
)

// Common engine errors. ErrDenied and ErrAuth are shared with pkg/models.
var (
	ErrTimeout    = errors.New("request timeout")
	ErrInvalidURL = errors.New("invalid URL")
	ErrNetwork    = errors.New("network error")
	ErrHTTPStatus = errors.New("unexpected HTTP status")
	ErrParse      = errors.New("failed to parse response")
	ErrDenied     = models.ErrDenied
	ErrAuth       = models.ErrAuth
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeTimeout      ErrorCode = "TIMEOUT"
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeNetworkError ErrorCode = "NETWORK_ERROR"
	ErrCodeHTTPStatus   ErrorCode = "HTTP_STATUS"
	ErrCodeParseError   ErrorCode = "PARSE_ERROR"
)

var codeSentinels = map[ErrorCode]error{
	ErrCodeTimeout:      ErrTimeout,
	ErrCodeValidation:   ErrInvalidURL,
	ErrCodeNetworkError: ErrNetwork,
	ErrCodeHTTPStatus:   ErrHTTPStatus,
	ErrCodeParseError:   ErrParse,
}

// EngineError wraps errors with additional context
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is matches another EngineError by code, the sentinel for this code, or the underlying error
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	if sentinel, ok := codeSentinels[e.Code]; ok && sentinel == target {
		return true
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	e.Details[key] = value
	return e
}

// StatusCode returns the HTTP status recorded on an HTTP_STATUS error, or 0.
func StatusCode(err error) int {
	var ee *EngineError
	if !errors.As(err, &ee) || ee.Code != ErrCodeHTTPStatus {
		return 0
	}
	code, _ := ee.Details["status"].(int)
	return code
}
