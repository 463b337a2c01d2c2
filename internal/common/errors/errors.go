// internal/common/errors/errors.go

// Package errors provides the uniform failure taxonomy shared by every
// provider client, the design-tool client, and the wizard engines. Nothing
// above the orchestrator boundary branches on provider-specific error shapes;
// it branches on Category and Retryable only.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Category is the fixed classification every raw failure maps into.
type Category string

const (
	CategoryNetwork    Category = "network"
	CategoryAuth       Category = "auth"
	CategoryValidation Category = "validation"
	CategoryTimeout    Category = "timeout"
	CategoryRateLimit  Category = "rate_limit"
	CategoryAPIError   Category = "api_error"
	CategoryInternal   Category = "internal"
	CategoryOAuth      Category = "oauth"
	CategoryFileSystem Category = "file_system"
)

// WizardError is the structured error surfaced past the orchestrator
// boundary. Cause keeps the raw error for logs; callers read Category,
// Message, Action and Retryable.
type WizardError struct {
	Category  Category  `json:"category"`
	Message   string    `json:"message"`
	Action    string    `json:"action,omitempty"`
	Retryable bool      `json:"retryable"`
	Provider  string    `json:"provider,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Cause     error     `json:"-"`
}

func (e *WizardError) Error() string {
	return fmt.Sprintf("WizardError[%s]: %s", e.Category, e.Message)
}

func (e *WizardError) Unwrap() error { return e.Cause }

// WithProvider returns a copy tagged with the provider key the failure
// originated from.
func (e *WizardError) WithProvider(provider string) *WizardError {
	out := *e
	out.Provider = provider
	return &out
}

// New creates a WizardError with the default retryability for the category.
func New(category Category, message string) *WizardError {
	return &WizardError{
		Category:  category,
		Message:   message,
		Retryable: defaultRetryable(category),
		Timestamp: time.Now().UTC(),
	}
}

// Wrap creates a WizardError around a raw cause.
func Wrap(category Category, message string, cause error) *WizardError {
	e := New(category, message)
	e.Cause = cause
	return e
}

func defaultRetryable(category Category) bool {
	switch category {
	case CategoryNetwork, CategoryTimeout, CategoryRateLimit, CategoryInternal:
		return true
	default:
		return false
	}
}

func defaultAction(category Category) string {
	switch category {
	case CategoryNetwork:
		return "Check your connection and try again"
	case CategoryAuth:
		return "Check the API key in settings"
	case CategoryOAuth:
		return "Sign in again to refresh access"
	case CategoryRateLimit:
		return "Wait a moment before retrying"
	case CategoryTimeout:
		return "Try again"
	case CategoryAPIError:
		return "The provider rejected the request; try again later"
	case CategoryValidation:
		return "Review the request and correct it"
	case CategoryFileSystem:
		return "Check file permissions and disk space"
	default:
		return "Try again"
	}
}

// ErrCircuitOpen is the synthetic error returned when a provider's circuit
// breaker short-circuits a call. It is deliberately non-retryable so the UI
// can distinguish "provider is down, wait for cooldown" from "this call
// failed, try again".
var ErrCircuitOpen = &WizardError{
	Category:  CategoryAPIError,
	Message:   "provider temporarily unavailable: circuit breaker is open",
	Action:    "Wait for the provider to recover or switch providers",
	Retryable: false,
	Timestamp: time.Time{},
}

// IsCircuitOpen reports whether err is the breaker's synthetic open error.
func IsCircuitOpen(err error) bool {
	var we *WizardError
	if errors.As(err, &we) {
		return we == ErrCircuitOpen || (we.Category == CategoryAPIError && we.Message == ErrCircuitOpen.Message)
	}
	return false
}

// CountsTowardBreaker reports whether a classified failure should feed a
// provider's consecutive-failure budget. Validation failures are caller bugs,
// not provider degradation, and the breaker's own synthetic error must never
// re-trip the breaker.
func CountsTowardBreaker(e *WizardError) bool {
	if e == nil {
		return false
	}
	if e.Category == CategoryValidation {
		return false
	}
	return !IsCircuitOpen(e)
}
