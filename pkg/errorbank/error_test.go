package errorbank_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orderdash/orderdash/pkg/errorbank"
)

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err    *errorbank.AppError
		status int
	}{
		{errorbank.BadRequest("bad"), http.StatusBadRequest},
		{errorbank.Conflict("conflict"), http.StatusConflict},
		{errorbank.NotFound("missing"), http.StatusNotFound},
		{errorbank.Unprocessable("invalid"), http.StatusUnprocessableEntity},
		{errorbank.Internal("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.status, tc.err.StatusCode(), "kind=%s", tc.err.Kind())
	}
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := errorbank.Internal("failed to load orders", errorbank.WithCause(cause))

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "failed to load orders")
	require.Contains(t, err.Error(), "connection refused")
}

func TestWithViolationsCopies(t *testing.T) {
	violations := []string{"Customer name is required", "Price must be greater than 0"}
	err := errorbank.Unprocessable("validation failed", errorbank.WithViolations(violations))

	violations[0] = "mutated"
	require.Equal(t, "Customer name is required", err.Violations()[0])
	require.Len(t, err.Violations(), 2)
}

func TestFromPassesThroughAppError(t *testing.T) {
	original := errorbank.NotFound("order not found")
	wrapped := fmt.Errorf("service: %w", original)

	require.Same(t, original, errorbank.From(wrapped))
}

func TestFromWrapsUnknownError(t *testing.T) {
	err := errorbank.From(errors.New("disk full"))
	require.Equal(t, errorbank.KindInternal, err.Kind())
	require.Equal(t, http.StatusInternalServerError, err.StatusCode())
}

func TestFromNil(t *testing.T) {
	require.Nil(t, errorbank.From(nil))
}
