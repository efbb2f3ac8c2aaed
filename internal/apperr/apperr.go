// Package apperr defines the error taxonomy shared by services, middleware
// and handlers. Services return *Error values; the HTTP edge turns them into
// a status code and a {"message": ...} body.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the client.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindInvalidToken
	KindInvalidCredentials
	KindForbidden
	KindNotFound
	KindConflict
	KindSlotUnavailable
	KindInvalidTransition
	KindPaymentGateway
)

var kindNames = map[Kind]string{
	KindInternal:           "InternalError",
	KindValidation:         "ValidationError",
	KindUnauthenticated:    "Unauthenticated",
	KindInvalidToken:       "InvalidToken",
	KindInvalidCredentials: "InvalidCredentials",
	KindForbidden:          "Forbidden",
	KindNotFound:           "NotFound",
	KindConflict:           "Conflict",
	KindSlotUnavailable:    "SlotUnavailable",
	KindInvalidTransition:  "InvalidTransition",
	KindPaymentGateway:     "PaymentGatewayError",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "InternalError"
}

// Status maps a kind onto an HTTP status code. Duplicate email keeps the
// 400 the web client already handles.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthenticated, KindInvalidToken, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindSlotUnavailable, KindInvalidTransition:
		return http.StatusConflict
	case KindPaymentGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a client-safe message and an optional internal cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind without a cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap attaches a cause that is logged server-side but never shown to clients.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string) *Error { return New(KindValidation, msg) }
func NotFound(msg string) *Error   { return New(KindNotFound, msg) }
func Forbidden(msg string) *Error  { return New(KindForbidden, msg) }
func Internal(msg string, err error) *Error {
	return Wrap(KindInternal, msg, err)
}

// KindOf reports the kind of err, defaulting to KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Message returns the client-facing text for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal server error"
}
