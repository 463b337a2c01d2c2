// internal/providers/anthropic.go
package providers

import (
	"context"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"sitewizard/internal/models"
)

const defaultAnthropicModel = "claude-3-5-sonnet-latest"

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey),
		model:  model,
	}
}

func (c *AnthropicClient) Name() string { return KeyAnthropic }

func (c *AnthropicClient) SendMessage(ctx context.Context, messages []models.Message, systemPrompt string, opts SendOptions) (string, error) {
	resp, err := c.client.CreateMessages(ctx, c.buildRequest(messages, systemPrompt, opts))
	if err != nil {
		return "", err
	}
	return resp.GetFirstContentText(), nil
}

func (c *AnthropicClient) StreamMessage(ctx context.Context, messages []models.Message, systemPrompt string, opts SendOptions) (<-chan StreamEvent, error) {
	events := make(chan StreamEvent, 16)

	go func() {
		defer close(events)
		_, err := c.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
			MessagesRequest: c.buildRequest(messages, systemPrompt, opts),
			OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
				if data.Delta.Text != nil {
					emit(ctx, events, StreamEvent{Token: *data.Delta.Text})
				}
			},
		})
		if err != nil {
			emit(ctx, events, StreamEvent{Err: err})
			return
		}
		emit(ctx, events, StreamEvent{Done: true})
	}()

	return events, nil
}

func (c *AnthropicClient) ValidateAPIKey(ctx context.Context) error {
	_, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage("ping")},
		MaxTokens: 1,
	})
	return err
}

func (c *AnthropicClient) buildRequest(messages []models.Message, systemPrompt string, opts SendOptions) anthropic.MessagesRequest {
	req := anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		Messages:  convertAnthropicMessages(messages),
		MaxTokens: opts.maxTokensOrDefault(),
		System:    systemPrompt,
	}
	if opts.Temperature > 0 {
		t := opts.Temperature
		req.Temperature = &t
	}
	return req
}

func convertAnthropicMessages(messages []models.Message) []anthropic.Message {
	out := make([]anthropic.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case models.RoleAssistant:
			out = append(out, anthropic.NewAssistantTextMessage(m.Content))
		default:
			// System content rides in MessagesRequest.System; anything else
			// is presented as the user.
			out = append(out, anthropic.NewUserTextMessage(m.Content))
		}
	}
	return out
}
