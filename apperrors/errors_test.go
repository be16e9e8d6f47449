package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation("bad input", nil), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Gateway("provider down", true, nil), http.StatusBadGateway},
		{Persistence("db down", nil), http.StatusInternalServerError},
		{Internal("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.HTTPStatus(), tt.err.Message)
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	base := NotFound("order not found")
	wrapped := fmt.Errorf("lookup failed: %w", base)

	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindValidation))
	assert.False(t, IsKind(errors.New("plain"), KindNotFound))
}

func TestAsErrorWrapsUnknown(t *testing.T) {
	plain := errors.New("something broke")

	appErr := AsError(plain)
	require.NotNil(t, appErr)
	assert.Equal(t, KindInternal, appErr.Kind)
	assert.ErrorIs(t, appErr, plain)
}

func TestGatewayRetryableFlag(t *testing.T) {
	transient := Gateway("timeout", true, nil)
	fatal := Gateway("rejected", false, nil)

	assert.True(t, AsError(transient).Retryable)
	assert.False(t, AsError(fatal).Retryable)
}
