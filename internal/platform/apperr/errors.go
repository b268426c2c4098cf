package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by who can correct it.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind to the response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is the error type returned across service and repository boundaries.
// Message is safe to show to the caller; Err is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and message, so package-level
// sentinels work with errors.Is even after WithField copies them.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// WithField returns a copy of e carrying an extra response body field.
func (e *Error) WithField(key string, value interface{}) *Error {
	fields := make(map[string]interface{}, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields[key] = value
	return &Error{Kind: e.Kind, Message: e.Message, Fields: fields, Err: e.Err}
}

func newErr(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newErr(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newErr(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newErr(KindConflict, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return newErr(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newErr(KindForbidden, format, args...)
}

// Internal wraps err so that only a generic message reaches the caller.
func Internal(err error, format string, args ...interface{}) *Error {
	e := newErr(KindInternal, format, args...)
	e.Err = err
	return e
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}
