package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind tags the variant held by a Result.
type Kind int

const (
	// KindSuccess carries the parsed Page.
	KindSuccess Kind = iota
	// KindPermissionDenial is a read-permission refusal with its level details.
	KindPermissionDenial
	// KindUnknownDenial is any other site message that replaced the page.
	KindUnknownDenial
	// KindFailure is a transport error or a page that could not be parsed.
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindPermissionDenial:
		return "permission_denial"
	case KindUnknownDenial:
		return "unknown_denial"
	default:
		return "failure"
	}
}

// DenialKind classifies a site message that blocked a page.
type DenialKind int

const (
	// DenialPermission means the identity's read level is too low.
	DenialPermission DenialKind = iota
	// DenialUnknown is every other refusal message.
	DenialUnknown
)

// Denial is the site's own explanation for refusing a page.
// RequiredLevel and CurrentIdentity are only filled for topic read-permission denials.
type Denial struct {
	Kind            DenialKind `json:"-"`
	Message         string     `json:"message"`
	RequiredLevel   int        `json:"required_level,omitempty"`
	CurrentIdentity string     `json:"current_identity,omitempty"`
}

// ErrDenied matches every DenialError. ErrAuth matches a login that did not succeed.
var (
	ErrDenied = errors.New("access denied by forum")
	ErrAuth   = errors.New("authentication failed")
)

// DenialError exposes a Denial through the error interface.
type DenialError struct {
	Denial Denial
}

func (e *DenialError) Is(target error) bool {
	return target == ErrDenied
}

func (e *DenialError) Error() string {
	if e.Denial.Kind == DenialPermission {
		if e.Denial.RequiredLevel > 0 {
			return fmt.Sprintf("permission denied: identity %q below read level %d", e.Denial.CurrentIdentity, e.Denial.RequiredLevel)
		}
		return "permission denied: " + e.Denial.Message
	}
	return "denied: " + e.Denial.Message
}

// Result is the outcome of one page fetch. Exactly one of Page, Denial or Err
// is meaningful, selected by Kind.
type Result[T any] struct {
	Kind    Kind
	Page    T
	Denial  *Denial
	Message string
	Err     error
}

// Succeeded wraps a parsed page.
func Succeeded[T any](page T) Result[T] {
	return Result[T]{Kind: KindSuccess, Page: page}
}

// Denied wraps a denial, choosing the variant from its kind.
func Denied[T any](d Denial) Result[T] {
	kind := KindUnknownDenial
	if d.Kind == DenialPermission {
		kind = KindPermissionDenial
	}
	return Result[T]{Kind: kind, Denial: &d, Message: d.Message}
}

// Failed wraps a transport or extraction error.
func Failed[T any](message string, err error) Result[T] {
	return Result[T]{Kind: KindFailure, Message: message, Err: err}
}

// OK reports whether the result holds a page.
func (r Result[T]) OK() bool {
	return r.Kind == KindSuccess
}

// Unwrap converts the result into ordinary Go error flow.
func (r Result[T]) Unwrap() (T, error) {
	var zero T
	switch r.Kind {
	case KindSuccess:
		return r.Page, nil
	case KindPermissionDenial, KindUnknownDenial:
		if r.Denial == nil {
			return zero, &DenialError{Denial: Denial{Kind: DenialUnknown, Message: r.Message}}
		}
		return zero, &DenialError{Denial: *r.Denial}
	default:
		if r.Err == nil {
			return zero, errors.New(r.Message)
		}
		if r.Message == "" {
			return zero, r.Err
		}
		return zero, fmt.Errorf("%s: %w", r.Message, r.Err)
	}
}

// LoginKind tags the variant held by a LoginResult.
type LoginKind int

const (
	// LoginSuccess means the forum set the session cookies.
	LoginSuccess LoginKind = iota
	// LoginUserNotFound means no account has the username.
	LoginUserNotFound
	// LoginPasswordIncorrect carries FailingTimes and MaxRetries.
	LoginPasswordIncorrect
	// LoginUnknownDenial is a refusal message the client does not recognize.
	LoginUnknownDenial
	// LoginFailure is a transport error or a response without cookies.
	LoginFailure
)

func (k LoginKind) String() string {
	switch k {
	case LoginSuccess:
		return "success"
	case LoginUserNotFound:
		return "user_not_found"
	case LoginPasswordIncorrect:
		return "password_incorrect"
	case LoginUnknownDenial:
		return "unknown_denial"
	default:
		return "failure"
	}
}

// LoginResult is the outcome of one login attempt.
type LoginResult struct {
	Kind         LoginKind
	Cookies      []*http.Cookie
	FailingTimes int
	MaxRetries   int
	Message      string
	Err          error
}

// AsError describes a non-successful login, or returns nil on success.
func (r LoginResult) AsError() error {
	switch r.Kind {
	case LoginSuccess:
		return nil
	case LoginUserNotFound:
		return fmt.Errorf("user not found: %s", r.Message)
	case LoginPasswordIncorrect:
		return fmt.Errorf("password incorrect: failed %d times, at most %d retries", r.FailingTimes, r.MaxRetries)
	case LoginUnknownDenial:
		return fmt.Errorf("login denied: %s", r.Message)
	default:
		if r.Err != nil {
			return fmt.Errorf("login failed: %s: %w", r.Message, r.Err)
		}
		return fmt.Errorf("login failed: %s", r.Message)
	}
}
