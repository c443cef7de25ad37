package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
		code   Code
	}{
		{"unauthorized", Unauthorized("no header"), http.StatusUnauthorized, CodeUnauthorized},
		{"token expired", TokenExpired(), http.StatusUnauthorized, CodeTokenExpired},
		{"invalid token", InvalidToken("bad"), http.StatusUnauthorized, CodeInvalidToken},
		{"suspended", Suspended("banned"), http.StatusForbidden, CodeAgentSuspended},
		{"forbidden", Forbidden("agents only"), http.StatusForbidden, CodeForbidden},
		{"validation", Validation("too long"), http.StatusBadRequest, CodeValidationError},
		{"rate limited", RateLimited(42), http.StatusTooManyRequests, CodeRateLimited},
		{"backup unavailable", BackupUnavailable("down"), http.StatusServiceUnavailable, CodeBackupServiceUnavailable},
		{"internal", Internal("oops"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestRateLimited_RetryAfter(t *testing.T) {
	err := RateLimited(90)

	assert.Equal(t, 90, err.RetryAfter)
	assert.Contains(t, err.Message, "90 seconds")
}

func TestError_UnwrapsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", TokenExpired())

	var apiErr *Error
	require.True(t, errors.As(wrapped, &apiErr))
	assert.Equal(t, CodeTokenExpired, apiErr.Code)
}

func TestError_String(t *testing.T) {
	assert.Equal(t, "FORBIDDEN: nope", Forbidden("nope").Error())
}
