// Package domainerrors defines the error vocabulary shared by all services.
//
// Services return *Error values carrying a stable machine-readable Code plus a
// human-readable Description. Transport layers translate the Code into an HTTP
// status via ToHTTPStatus and render the envelope with
// pkg/platform/httputil.WriteError. Infrastructure layers return
// pkg/platform/sentinel errors instead; services wrap those with Wrap.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies an error class. The string value is the wire format used in
// the "error" member of JSON error responses, so values are append-only.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation_failed"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeRateLimited  Code = "rate_limit_exceeded"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"
)

// Error is a domain error. Field, when set, names the request field the
// failure is attributed to (e.g. "email"); it stays empty for failures that
// cannot be pinned on a single input. Fields lists every offending field when
// more than one is invalid at once, one entry per field in declaration order;
// Field then still names the first so single-field consumers keep working.
type Error struct {
	Code        Code
	Description string
	Field       string
	Fields      []string

	err error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func (e *Error) Unwrap() error { return e.err }

// WithField attributes the error to a named request field and returns the
// receiver for chaining.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithFields attributes the error to every named field. Field is set to the
// first entry so callers that only look at a single attribution still see one.
func (e *Error) WithFields(fields ...string) *Error {
	e.Fields = fields
	if len(fields) > 0 {
		e.Field = fields[0]
	}
	return e
}

// New creates a domain error with the given code and description.
func New(code Code, description string) *Error {
	return &Error{Code: code, Description: description}
}

// Newf creates a domain error with a formatted description.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Description: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a domain code and description while keeping the
// original error reachable through errors.Is/As.
func Wrap(err error, code Code, description string) *Error {
	return &Error{Code: code, Description: description, err: err}
}

// HasCode reports whether err or any error it wraps is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the domain code from err, defaulting to CodeInternal for
// errors that never passed through this package.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code to the HTTP status transport layers respond
// with. Unknown codes deliberately fall back to 500.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation:
		return 400
	case CodeUnauthorized:
		return 401
	case CodeForbidden:
		return 403
	case CodeNotFound:
		return 404
	case CodeConflict:
		return 409
	case CodeRateLimited:
		return 429
	case CodeTimeout:
		return 504
	case CodeInternal:
		return 500
	default:
		return 500
	}
}
