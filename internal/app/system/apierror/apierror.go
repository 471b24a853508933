// Package apierror is the error taxonomy for the JSON API and the single
// place where errors are turned into HTTP responses.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/mohallahub/internal/app/system/i18n"
)

// Kind classifies an error for status-code mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
	KindRateLimited
	KindMethodNotAllowed
	KindUnsupportedMediaType
)

// Status returns the HTTP status for k.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindUnsupportedMediaType:
		return "unsupported_media_type"
	default:
		return "internal"
	}
}

// Error is an API-facing error. Code is an i18n message key.
type Error struct {
	Kind       Kind
	Code       string
	Fields     map[string]string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Status is the HTTP status for the error's kind.
func (e *Error) Status() int { return e.Kind.Status() }

// Validation reports malformed input with optional per-field messages.
func Validation(code string, fields map[string]string) *Error {
	if code == "" {
		code = i18n.KeyValidationFailed
	}
	return &Error{Kind: KindValidation, Code: code, Fields: fields}
}

// NotFound reports a missing user or neighborhood.
func NotFound(code string) *Error {
	if code == "" {
		code = i18n.KeyNotFound
	}
	return &Error{Kind: KindNotFound, Code: code}
}

// Unauthorized reports a missing, invalid or expired credential, or an
// inactive account.
func Unauthorized(code string, err error) *Error {
	if code == "" {
		code = i18n.KeyUnauthorized
	}
	return &Error{Kind: KindUnauthorized, Code: code, Err: err}
}

// Forbidden reports a valid identity without the required verification
// level or role.
func Forbidden(code string) *Error {
	if code == "" {
		code = i18n.KeyForbidden
	}
	return &Error{Kind: KindForbidden, Code: code}
}

// Conflict reports a duplicate phone or neighborhood.
func Conflict(code string, err error) *Error {
	if code == "" {
		code = i18n.KeyConflict
	}
	return &Error{Kind: KindConflict, Code: code, Err: err}
}

// RateLimited reports excessive attempts from one source.
func RateLimited(retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimited, Code: i18n.KeyRateLimited, RetryAfter: retryAfter}
}

// MethodNotAllowed reports a known path requested with the wrong method.
func MethodNotAllowed() *Error {
	return &Error{Kind: KindMethodNotAllowed, Code: i18n.KeyMethodNotAllowed}
}

// UnsupportedMediaType reports a request body that is not JSON.
func UnsupportedMediaType() *Error {
	return &Error{Kind: KindUnsupportedMediaType, Code: i18n.KeyUnsupportedMediaType}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: i18n.KeyInternal, Err: err}
}

// From returns err as an *Error, wrapping anything else as Internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
