// internal/common/errors/classifier.go
package errors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"
)

// Classify maps any raw failure to exactly one WizardError. It is total:
// unknown shapes fall through to the internal category with Retryable=true.
// Classifying an already-classified error is the identity.
func Classify(err error) *WizardError {
	if err == nil {
		return nil
	}

	var we *WizardError
	if errors.As(err, &we) {
		return we
	}

	// Context expiry before any transport-level error check: a cancelled or
	// timed-out call often surfaces as a wrapped net error too.
	if errors.Is(err, context.DeadlineExceeded) {
		return timeoutError(err)
	}
	if errors.Is(err, context.Canceled) {
		e := Wrap(CategoryInternal, "operation cancelled", err)
		e.Retryable = false
		return e
	}

	// Anthropic SDK errors.
	var anthropicAPIErr *anthropic.APIError
	if errors.As(err, &anthropicAPIErr) {
		return classifyAnthropicType(string(anthropicAPIErr.Type), err)
	}
	var anthropicReqErr *anthropic.RequestError
	if errors.As(err, &anthropicReqErr) {
		return classifyHTTPStatus(anthropicReqErr.StatusCode, err)
	}

	// OpenAI SDK errors.
	var openaiAPIErr *openai.APIError
	if errors.As(err, &openaiAPIErr) {
		return classifyHTTPStatus(openaiAPIErr.HTTPStatusCode, err)
	}
	var openaiReqErr *openai.RequestError
	if errors.As(err, &openaiReqErr) {
		return classifyHTTPStatus(openaiReqErr.HTTPStatusCode, err)
	}

	// Transport failures.
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return timeoutError(err)
		}
		e := Wrap(CategoryNetwork, "network error: "+err.Error(), err)
		e.Action = defaultAction(CategoryNetwork)
		return e
	}

	// Settings/session persistence failures.
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		e := Wrap(CategoryFileSystem, err.Error(), err)
		e.Action = defaultAction(CategoryFileSystem)
		return e
	}

	// The Gemini SDK wraps HTTP failures in plain errors carrying the status
	// text; match the handful of shapes its API returns.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key not valid"),
		strings.Contains(msg, "unauthenticated"),
		strings.Contains(msg, "permission denied"):
		e := Wrap(CategoryAuth, err.Error(), err)
		e.Action = defaultAction(CategoryAuth)
		return e
	case strings.Contains(msg, "resource_exhausted"),
		strings.Contains(msg, "quota exceeded"),
		strings.Contains(msg, "429"):
		e := Wrap(CategoryRateLimit, err.Error(), err)
		e.Action = defaultAction(CategoryRateLimit)
		return e
	case strings.Contains(msg, "invalid_argument"):
		e := Wrap(CategoryValidation, err.Error(), err)
		e.Action = defaultAction(CategoryValidation)
		return e
	}

	e := Wrap(CategoryInternal, err.Error(), err)
	e.Action = defaultAction(CategoryInternal)
	return e
}

func classifyAnthropicType(errType string, cause error) *WizardError {
	var category Category
	switch errType {
	case "authentication_error", "permission_error":
		category = CategoryAuth
	case "rate_limit_error":
		category = CategoryRateLimit
	case "invalid_request_error":
		category = CategoryValidation
	case "overloaded_error", "api_error":
		category = CategoryAPIError
	default:
		category = CategoryAPIError
	}
	e := Wrap(category, cause.Error(), cause)
	e.Action = defaultAction(category)
	if category == CategoryAPIError {
		// Provider-side 5xx/overload is transient.
		e.Retryable = true
	}
	return e
}

func classifyHTTPStatus(status int, cause error) *WizardError {
	var category Category
	retryable := false
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		category = CategoryAuth
	case status == http.StatusTooManyRequests:
		category = CategoryRateLimit
		retryable = true
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		category = CategoryTimeout
		retryable = true
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity || status == http.StatusNotFound:
		category = CategoryValidation
	case status >= 500:
		category = CategoryAPIError
		retryable = true
	case status == 0:
		category = CategoryNetwork
		retryable = true
	default:
		category = CategoryAPIError
	}
	e := Wrap(category, cause.Error(), cause)
	e.Retryable = retryable || defaultRetryable(category)
	e.Action = defaultAction(category)
	return e
}

func timeoutError(cause error) *WizardError {
	e := Wrap(CategoryTimeout, "request timed out", cause)
	e.Action = defaultAction(CategoryTimeout)
	return e
}

// NewOAuthExpired builds the auth-bundle-expired error: the core never
// refreshes tokens itself, so the only recovery is the host's OAuth flow.
func NewOAuthExpired(provider string) *WizardError {
	e := New(CategoryOAuth, "access token expired")
	e.Action = defaultAction(CategoryOAuth)
	e.Provider = provider
	return e
}
