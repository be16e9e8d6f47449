package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error so callers can branch on the
// category without string matching.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindGateway
	KindPersistence
)

// Error represents an application error
type Error struct {
	Kind    Kind   `json:"-"`
	Message string `json:"message"`
	// Retryable is only meaningful for KindGateway: it reports whether the
	// underlying provider failure was transient (network, 5xx) or fatal (4xx,
	// malformed response, business rejection).
	Retryable bool  `json:"-"`
	Err       error `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to an HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Validation creates a 400-equivalent error for malformed or out-of-range input.
func Validation(message string, err error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}

// NotFound creates a 404-equivalent error for an unknown order or payment.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Gateway wraps a payment-provider communication failure. Retryable failures
// are retried by the gateway client itself; by the time this error reaches a
// caller the retries are exhausted.
func Gateway(message string, retryable bool, err error) *Error {
	return &Error{Kind: KindGateway, Message: message, Retryable: retryable, Err: err}
}

// Persistence wraps a store-layer failure.
func Persistence(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// Internal wraps anything that doesn't fit the taxonomy above.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// AsError extracts the application error from err, wrapping unknown errors
// as internal.
func AsError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}
