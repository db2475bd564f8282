// Package apperr defines the error taxonomy shared by every API surface:
// validation errors raised before storage is touched, not-found and conflict
// errors surfaced verbatim, and everything else collapsed into a generic
// message so backend detail never reaches the user.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error code carried in every error response.
type Code string

const (
	CodeValidation      Code = "VALIDATION"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeForbidden       Code = "FORBIDDEN"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeNotTerminalStep Code = "NOT_TERMINAL_STEP"
	CodeTooLarge        Code = "PAYLOAD_TOO_LARGE"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeInternal        Code = "INTERNAL"
)

// GenericMessage is shown for every error whose code is not explicitly
// user-facing.
const GenericMessage = "Ocorreu um erro, tente novamente mais tarde"

// FieldError ties a validation failure to a single field path.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Rule    string `json:"rule,omitempty"`
}

// Error is a classified application error.
type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
	// Extra members merged into the JSON error body (redirectStep, current...).
	Extra map[string]interface{}
	// HTTPStatus overrides the status derived from Code when non-zero.
	HTTPStatus int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// With attaches an extra response member and returns the same error.
func (e *Error) With(key string, value interface{}) *Error {
	if e.Extra == nil {
		e.Extra = make(map[string]interface{})
	}
	e.Extra[key] = value
	return e
}

// WithStatus overrides the response status and returns the same error.
func (e *Error) WithStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func NotFound(msg string) *Error { return New(CodeNotFound, msg) }

func Conflict(msg string) *Error { return New(CodeConflict, msg) }

func Forbidden(msg string) *Error { return New(CodeForbidden, msg) }

// Validation builds a validation error carrying every field failure.
func Validation(msg string, fields []FieldError) *Error {
	return &Error{Code: CodeValidation, Message: msg, Fields: fields}
}

// Internal wraps an unexpected failure. Its message is never shown.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: GenericMessage, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// CodeOf returns the code of err, CodeInternal for unclassified errors and
// the empty code for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if ae, ok := As(err); ok {
		return ae.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// Status maps a code to its HTTP status.
func Status(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotTerminalStep:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// codeForStatus classifies errors that arrive as plain HTTP statuses
// (echo routing, middleware).
func codeForStatus(status int) Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusUnsupportedMediaType:
		return CodeValidation
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusRequestEntityTooLarge:
		return CodeTooLarge
	case http.StatusTooManyRequests:
		return CodeRateLimited
	default:
		return CodeInternal
	}
}

// UserMessage returns the message a client may show for err.
func UserMessage(err error) string {
	ae, ok := As(err)
	if !ok || ae.Code == CodeInternal || ae.Message == "" {
		return GenericMessage
	}
	return ae.Message
}
