// internal/providers/google.go
package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	genai "google.golang.org/genai"

	wizerrors "sitewizard/internal/common/errors"
	"sitewizard/internal/models"
)

const defaultGoogleModel = "gemini-2.0-flash"

// GoogleAuthMode selects how the Gemini client authenticates.
type GoogleAuthMode string

const (
	GoogleAuthAPIKey GoogleAuthMode = "api_key"
	GoogleAuthOAuth  GoogleAuthMode = "oauth"
)

// GoogleClient talks to the Gemini API, either with an API key or with
// OAuth bearer tokens obtained out of band.
type GoogleClient struct {
	client   *genai.Client
	model    string
	authMode GoogleAuthMode
	tokens   *models.OAuthTokens
}

func NewGoogleClient(ctx context.Context, apiKey, model string, authMode GoogleAuthMode, tokens *models.OAuthTokens) (*GoogleClient, error) {
	if model == "" {
		model = defaultGoogleModel
	}
	if authMode == "" {
		authMode = GoogleAuthAPIKey
	}

	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	switch authMode {
	case GoogleAuthAPIKey:
		cfg.APIKey = apiKey
	case GoogleAuthOAuth:
		if tokens == nil {
			return nil, wizerrors.New(wizerrors.CategoryOAuth, "google oauth mode requires stored tokens")
		}
		cfg.HTTPClient = &http.Client{
			Transport: &bearerTransport{token: tokens.AccessToken},
			Timeout:   60 * time.Second,
		}
	default:
		return nil, errors.New("providers: unknown google auth mode " + string(authMode))
	}

	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &GoogleClient{client: cli, model: model, authMode: authMode, tokens: tokens}, nil
}

func (c *GoogleClient) Name() string { return KeyGoogle }

// checkOAuth rejects calls up front when the stored bearer token is past
// its expiry, so the caller gets an actionable oauth error instead of a
// generic 401 from the API.
func (c *GoogleClient) checkOAuth() error {
	if c.authMode == GoogleAuthOAuth && c.tokens.Expired(time.Now()) {
		return wizerrors.NewOAuthExpired(KeyGoogle)
	}
	return nil
}

func (c *GoogleClient) SendMessage(ctx context.Context, messages []models.Message, systemPrompt string, opts SendOptions) (string, error) {
	if err := c.checkOAuth(); err != nil {
		return "", err
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, convertGoogleContents(messages), c.buildConfig(systemPrompt, opts))
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (c *GoogleClient) StreamMessage(ctx context.Context, messages []models.Message, systemPrompt string, opts SendOptions) (<-chan StreamEvent, error) {
	if err := c.checkOAuth(); err != nil {
		return nil, err
	}

	events := make(chan StreamEvent, 16)
	go func() {
		defer close(events)
		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, convertGoogleContents(messages), c.buildConfig(systemPrompt, opts)) {
			if err != nil {
				emit(ctx, events, StreamEvent{Err: err})
				return
			}
			if text := resp.Text(); text != "" {
				if !emit(ctx, events, StreamEvent{Token: text}) {
					return
				}
			}
		}
		emit(ctx, events, StreamEvent{Done: true})
	}()

	return events, nil
}

func (c *GoogleClient) ValidateAPIKey(ctx context.Context) error {
	if err := c.checkOAuth(); err != nil {
		return err
	}
	_, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: "ping"}}, Role: genai.RoleUser}},
		&genai.GenerateContentConfig{MaxOutputTokens: 1},
	)
	return err
}

func (c *GoogleClient) buildConfig(systemPrompt string, opts SendOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(opts.maxTokensOrDefault()),
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	}
	if opts.Temperature > 0 {
		t := opts.Temperature
		cfg.Temperature = &t
	}
	return cfg
}

func convertGoogleContents(messages []models.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}
	return out
}

// bearerTransport injects a static OAuth bearer token into every request.
type bearerTransport struct {
	token string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.token)
	return http.DefaultTransport.RoundTrip(clone)
}
