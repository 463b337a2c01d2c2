// internal/common/errors/classifier_test.go
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"testing"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyIsIdentityOnWizardError(t *testing.T) {
	orig := New(CategoryRateLimit, "slow down")
	got := Classify(fmt.Errorf("wrapped: %w", orig))
	assert.Same(t, orig, got)
}

func TestClassifyContextErrors(t *testing.T) {
	got := Classify(context.DeadlineExceeded)
	assert.Equal(t, CategoryTimeout, got.Category)
	assert.True(t, got.Retryable)

	got = Classify(context.Canceled)
	assert.Equal(t, CategoryInternal, got.Category)
	assert.False(t, got.Retryable)
}

func TestClassifyAnthropicErrors(t *testing.T) {
	cases := []struct {
		errType   string
		category  Category
		retryable bool
	}{
		{"authentication_error", CategoryAuth, false},
		{"permission_error", CategoryAuth, false},
		{"rate_limit_error", CategoryRateLimit, true},
		{"invalid_request_error", CategoryValidation, false},
		{"overloaded_error", CategoryAPIError, true},
	}
	for _, tc := range cases {
		t.Run(tc.errType, func(t *testing.T) {
			err := &anthropic.APIError{Type: anthropic.ErrType(tc.errType), Message: "boom"}
			got := Classify(err)
			assert.Equal(t, tc.category, got.Category)
			assert.Equal(t, tc.retryable, got.Retryable)
		})
	}
}

func TestClassifyHTTPStatuses(t *testing.T) {
	cases := []struct {
		status   int
		category Category
	}{
		{401, CategoryAuth},
		{403, CategoryAuth},
		{429, CategoryRateLimit},
		{408, CategoryTimeout},
		{504, CategoryTimeout},
		{400, CategoryValidation},
		{404, CategoryValidation},
		{422, CategoryValidation},
		{500, CategoryAPIError},
		{503, CategoryAPIError},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("status_%d", tc.status), func(t *testing.T) {
			got := Classify(&openai.APIError{HTTPStatusCode: tc.status, Message: "boom"})
			assert.Equal(t, tc.category, got.Category)
		})
	}
}

func TestClassifyNetworkError(t *testing.T) {
	var netErr net.Error = &net.DNSError{Err: "no such host", IsTimeout: false}
	got := Classify(fmt.Errorf("dialing: %w", netErr))
	assert.Equal(t, CategoryNetwork, got.Category)
	assert.True(t, got.Retryable)
}

func TestClassifyFileSystemErrors(t *testing.T) {
	got := Classify(fmt.Errorf("open settings: %w", os.ErrNotExist))
	assert.Equal(t, CategoryFileSystem, got.Category)

	got = Classify(fmt.Errorf("open settings: %w", os.ErrPermission))
	assert.Equal(t, CategoryFileSystem, got.Category)
}

func TestClassifyGeminiMessages(t *testing.T) {
	cases := []struct {
		msg      string
		category Category
	}{
		{"rpc error: API key not valid", CategoryAuth},
		{"UNAUTHENTICATED: request not authorized", CategoryAuth},
		{"RESOURCE_EXHAUSTED: quota exceeded", CategoryRateLimit},
		{"INVALID_ARGUMENT: bad contents", CategoryValidation},
	}
	for _, tc := range cases {
		got := Classify(stderrors.New(tc.msg))
		assert.Equal(t, tc.category, got.Category, tc.msg)
	}
}

func TestClassifyUnknownFallsThrough(t *testing.T) {
	got := Classify(stderrors.New("something odd"))
	assert.Equal(t, CategoryInternal, got.Category)
	assert.True(t, got.Retryable)
}

func TestCircuitOpenError(t *testing.T) {
	assert.True(t, IsCircuitOpen(ErrCircuitOpen))
	assert.False(t, ErrCircuitOpen.Retryable)
	assert.Equal(t, CategoryAPIError, ErrCircuitOpen.Category)
	assert.False(t, IsCircuitOpen(New(CategoryAPIError, "some other failure")))
}

func TestCountsTowardBreaker(t *testing.T) {
	assert.True(t, CountsTowardBreaker(New(CategoryNetwork, "down")))
	assert.True(t, CountsTowardBreaker(New(CategoryTimeout, "slow")))
	assert.True(t, CountsTowardBreaker(New(CategoryAuth, "bad key")))
	assert.False(t, CountsTowardBreaker(New(CategoryValidation, "caller bug")))
	assert.False(t, CountsTowardBreaker(ErrCircuitOpen))
	assert.False(t, CountsTowardBreaker(nil))
}

func TestNewOAuthExpired(t *testing.T) {
	got := NewOAuthExpired("google")
	assert.Equal(t, CategoryOAuth, got.Category)
	assert.Equal(t, "google", got.Provider)
	assert.NotEmpty(t, got.Action)
}

func TestWizardErrorUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	wrapped := Wrap(CategoryNetwork, "call failed", cause)
	require.ErrorIs(t, wrapped, cause)
}
