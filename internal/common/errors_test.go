package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name            string
		originalError   error
		message         string
		expectedMessage string
	}{
		{
			name:            "wrap simple error",
			originalError:   errors.New("original error"),
			message:         "wrapper message",
			expectedMessage: "wrapper message: original error",
		},
		{
			name:            "empty wrapper message",
			originalError:   errors.New("original error"),
			message:         "",
			expectedMessage: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrappedError := WrapError(tt.originalError, tt.message)
			require.Error(t, wrappedError)
			assert.Equal(t, tt.expectedMessage, wrappedError.Error())
			assert.ErrorIs(t, wrappedError, tt.originalError)
		})
	}
}

func TestWrapError_Nil(t *testing.T) {
	assert.NoError(t, WrapError(nil, "context"))
	assert.NoError(t, WrapErrorf(nil, "context %d", 1))
}

func TestWrapErrorf(t *testing.T) {
	base := errors.New("disk full")
	err := WrapErrorf(base, "failed to save key %q", "js_urls")

	assert.Equal(t, `failed to save key "js_urls": disk full`, err.Error())
	assert.ErrorIs(t, err, base)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("backend", "redis", "unsupported storage backend")

	assert.Equal(t, "validation failed for field 'backend': unsupported storage backend (value: redis)", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)

	var target *ValidationError
	require.True(t, errors.As(WrapError(err, "config"), &target))
	assert.Equal(t, "backend", target.Field)
}

func TestHTTPError(t *testing.T) {
	tests := []struct {
		name     string
		err      *HTTPError
		expected string
	}{
		{
			name:     "with url",
			err:      NewHTTPErrorWithURL(http.StatusTooManyRequests, "rate limited", "https://discord.test/hook"),
			expected: "HTTP 429 error for 'https://discord.test/hook': rate limited",
		},
		{
			name:     "without url",
			err:      &HTTPError{StatusCode: http.StatusBadGateway, Message: "bad gateway"},
			expected: "HTTP 502 error: bad gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorCollector(t *testing.T) {
	var ec ErrorCollector
	assert.False(t, ec.HasErrors())
	assert.NoError(t, ec.Error())

	first := errors.New("first")
	second := errors.New("second")
	ec.Add(nil)
	ec.Add(first)
	ec.AddWithContext(second, "sink")

	require.True(t, ec.HasErrors())
	err := ec.Error()
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Contains(t, err.Error(), "sink: second")
}
