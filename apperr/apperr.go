package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies a business failure and decides its HTTP status.
type Kind int

const (
	Validation Kind = iota
	NotFound
	Conflict
	Forbidden
	Unauthorized
	Locked
	InsufficientStock
	PaymentVerificationFailed
	Internal
)

func (k Kind) HTTPStatus() int {
	switch k {
	case Validation, InsufficientStock, PaymentVerificationFailed:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Locked:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

// Error is the typed result every core operation returns on failure.
// Detail carries structured context for the caller (current stock,
// remaining login attempts, lock expiry, ...).
type Error struct {
	Kind    Kind
	Message string
	Detail  map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// With attaches one structured context field and returns the same error.
func (e *Error) With(key string, value interface{}) *Error {
	if e.Detail == nil {
		e.Detail = make(map[string]interface{})
	}
	e.Detail[key] = value
	return e
}

// KindOf reports the Kind of err, or Internal for anything untyped.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// Respond writes err as a JSON error response. Internal failures hide the
// underlying cause from the caller; everything else surfaces its message
// and detail fields as-is.
func Respond(c *gin.Context, err error) {
	var ae *Error
	if !errors.As(err, &ae) {
		ae = Wrap(Internal, "unexpected error", err)
	}

	body := gin.H{}
	if ae.Kind == Internal {
		body["error"] = "internal server error"
	} else {
		body["error"] = ae.Message
		for k, v := range ae.Detail {
			body[k] = v
		}
	}

	// keep the full error around for the request logger
	_ = c.Error(err)

	c.JSON(ae.Kind.HTTPStatus(), body)
}
