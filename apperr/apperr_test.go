package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		Validation:                http.StatusBadRequest,
		NotFound:                  http.StatusNotFound,
		Conflict:                  http.StatusConflict,
		Forbidden:                 http.StatusForbidden,
		Unauthorized:              http.StatusUnauthorized,
		Locked:                    http.StatusLocked,
		InsufficientStock:         http.StatusBadRequest,
		PaymentVerificationFailed: http.StatusBadRequest,
		Internal:                  http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.HTTPStatus())
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Conflict, KindOf(New(Conflict, "dup")))
	assert.Equal(t, NotFound, KindOf(Wrap(NotFound, "missing", errors.New("sql: no rows"))))
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
	assert.Equal(t, Internal, KindOf(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(Internal, "gateway unreachable", cause)
	assert.ErrorIs(t, err, cause)
}

func TestWithAttachesDetail(t *testing.T) {
	err := New(InsufficientStock, "insufficient stock").
		With("current_stock", 3).
		With("requested", 5)
	assert.Equal(t, 3, err.Detail["current_stock"])
	assert.Equal(t, 5, err.Detail["requested"])
}
