// internal/providers/provider.go

// Package providers implements the closed set of AI text-generation
// backends behind one capability interface. The orchestrator never inspects
// provider identity beyond key lookup.
package providers

import (
	"context"

	"sitewizard/internal/models"
)

// Provider keys. The set is closed; the orchestrator registry is keyed by
// these.
const (
	KeyAnthropic = "anthropic"
	KeyOpenAI    = "openai"
	KeyGoogle    = "google"
)

// SendOptions are the per-call generation knobs.
type SendOptions struct {
	MaxTokens   int
	Temperature float32
}

func (o SendOptions) maxTokensOrDefault() int {
	if o.MaxTokens <= 0 {
		return 2048
	}
	return o.MaxTokens
}

// StreamEvent is one element of a streaming reply. A stream delivers zero or
// more token events followed by exactly one terminal event: Done=true on
// success or Err set on failure.
type StreamEvent struct {
	Token string
	Err   error
	Done  bool
}

// Client is the uniform capability interface over one backend. All methods
// honor context cancellation; raw SDK errors pass through untouched for the
// classifier.
type Client interface {
	Name() string
	SendMessage(ctx context.Context, messages []models.Message, systemPrompt string, opts SendOptions) (string, error)
	StreamMessage(ctx context.Context, messages []models.Message, systemPrompt string, opts SendOptions) (<-chan StreamEvent, error)
	ValidateAPIKey(ctx context.Context) error
}

// emit sends an event unless the consumer has gone away. Abandonment is
// "stop observing", not a server-side abort.
func emit(ctx context.Context, ch chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
