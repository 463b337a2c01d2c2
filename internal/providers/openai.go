// internal/providers/openai.go
package providers

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"sitewizard/internal/models"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIClient talks to the OpenAI chat completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	if model == "" {
		model = defaultOpenAIModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *OpenAIClient) Name() string { return KeyOpenAI }

func (c *OpenAIClient) SendMessage(ctx context.Context, messages []models.Message, systemPrompt string, opts SendOptions) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(messages, systemPrompt, opts))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) StreamMessage(ctx context.Context, messages []models.Message, systemPrompt string, opts SendOptions) (<-chan StreamEvent, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.buildRequest(messages, systemPrompt, opts))
	if err != nil {
		return nil, err
	}

	events := make(chan StreamEvent, 16)
	go func() {
		defer close(events)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				emit(ctx, events, StreamEvent{Done: true})
				return
			}
			if err != nil {
				emit(ctx, events, StreamEvent{Err: err})
				return
			}
			if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
				if !emit(ctx, events, StreamEvent{Token: resp.Choices[0].Delta.Content}) {
					return
				}
			}
		}
	}()

	return events, nil
}

func (c *OpenAIClient) ValidateAPIKey(ctx context.Context) error {
	_, err := c.client.ListModels(ctx)
	return err
}

func (c *OpenAIClient) buildRequest(messages []models.Message, systemPrompt string, opts SendOptions) openai.ChatCompletionRequest {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		converted = append(converted, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    converted,
		MaxTokens:   opts.maxTokensOrDefault(),
		Temperature: opts.Temperature,
	}
}
