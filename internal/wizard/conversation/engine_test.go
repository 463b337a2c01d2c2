// internal/wizard/conversation/engine_test.go
package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wizerrors "sitewizard/internal/common/errors"
	"sitewizard/internal/common/logger"
	"sitewizard/internal/models"
	"sitewizard/internal/providers"
)

type fakeSender struct {
	replies []string
	stream  []providers.StreamEvent
	err     error
	calls   int
}

func (f *fakeSender) SendMessage(ctx context.Context, provider string, messages []models.Message, systemPrompt string, opts providers.SendOptions) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[f.calls]
	f.calls++
	return reply, nil
}

func (f *fakeSender) StreamMessage(ctx context.Context, provider string, messages []models.Message, systemPrompt string, opts providers.SendOptions) (<-chan providers.StreamEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan providers.StreamEvent, len(f.stream))
	for _, ev := range f.stream {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func newTestEngine(sender Sender) *Engine {
	return NewEngine(sender, "anthropic", logger.NewNoOpLogger())
}

const validBriefJSON = `{
  "purpose": "sell handmade pottery",
  "audience": "home decor shoppers",
  "contentTypes": ["Product"],
  "taxonomies": ["Collection"],
  "features": ["online store"],
  "recommendedPlugins": [{"slug": "woocommerce", "name": "WooCommerce", "reason": "online store"}]
}`

func TestProcessTurnParsesQuestionAndQuickReplies(t *testing.T) {
	sender := &fakeSender{replies: []string{
		"What kind of site do you want to build?\n" +
			"QUICK_REPLIES: A blog | An online store | A portfolio\n" +
			`UNDERSTANDING: {"purpose":"","audience":"","contentTypes":[],"features":[]}`,
	}}
	e := newTestEngine(sender)
	state := e.Start()
	require.Equal(t, models.PhaseNotStarted, state.Phase)

	reply, err := e.ProcessTurn(context.Background(), state, "Hi, I need a website")
	require.NoError(t, err)

	assert.Equal(t, models.PhaseInProgress, state.Phase)
	assert.False(t, reply.Completed)
	assert.Equal(t, "What kind of site do you want to build?", reply.Question)
	assert.Equal(t, []string{"A blog", "An online store", "A portfolio"}, reply.QuickReplies)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, models.RoleUser, state.Messages[0].Role)
	assert.Equal(t, models.RoleAssistant, state.Messages[1].Role)
}

func TestProcessTurnUpdatesUnderstanding(t *testing.T) {
	sender := &fakeSender{replies: []string{
		"Who is the site for?\n" +
			`UNDERSTANDING: {"purpose":"sell pottery","contentTypes":["Product"]}`,
	}}
	e := newTestEngine(sender)
	state := e.Start()

	_, err := e.ProcessTurn(context.Background(), state, "I sell pottery")
	require.NoError(t, err)

	assert.Equal(t, "sell pottery", state.Understanding.Purpose)
	assert.Equal(t, []string{"Product"}, state.Understanding.ContentTypes)
	// Two facets filled.
	assert.Equal(t, 55, state.Understanding.Confidence)
}

func TestProcessTurnCompletesOnValidBrief(t *testing.T) {
	sender := &fakeSender{replies: []string{
		"Great, I have everything I need.\nSITE_BRIEF_READY\n```json\n" + validBriefJSON + "\n```",
	}}
	e := newTestEngine(sender)
	state := e.Start()

	reply, err := e.ProcessTurn(context.Background(), state, "That is all")
	require.NoError(t, err)

	assert.True(t, reply.Completed)
	assert.True(t, state.Completed)
	assert.Equal(t, models.PhaseCompleted, state.Phase)
	assert.Equal(t, 100, state.Understanding.Confidence)

	require.NotNil(t, state.Brief)
	assert.Equal(t, "sell handmade pottery", state.Brief.Purpose)
	assert.Equal(t, []string{"Product"}, state.Brief.ContentTypes)
	require.Len(t, state.Brief.RecommendedPlugins, 1)
	assert.Equal(t, "woocommerce", state.Brief.RecommendedPlugins[0].Slug)
}

func TestProcessTurnMalformedBriefStaysInProgress(t *testing.T) {
	cases := []struct {
		name  string
		reply string
	}{
		{"truncated json", "SITE_BRIEF_READY\n{\"purpose\": \"sell pottery\", \"contentTypes\": [\"Pro"},
		{"missing required field", `SITE_BRIEF_READY {"audience": "shoppers"}`},
		{"wrong types", `SITE_BRIEF_READY {"purpose": "x", "contentTypes": "not-an-array"}`},
		{"no json at all", "SITE_BRIEF_READY and that is my final answer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{replies: []string{tc.reply, "What else should I know?"}}
			e := newTestEngine(sender)
			state := e.Start()

			_, err := e.ProcessTurn(context.Background(), state, "done")
			require.Error(t, err)
			var werr *wizerrors.WizardError
			require.ErrorAs(t, err, &werr)
			assert.Equal(t, wizerrors.CategoryValidation, werr.Category)

			assert.False(t, state.Completed)
			assert.Equal(t, models.PhaseInProgress, state.Phase)
			assert.Nil(t, state.Brief)

			// The dialogue continues after the parse failure.
			reply, err := e.ProcessTurn(context.Background(), state, "let me rephrase")
			require.NoError(t, err)
			assert.Equal(t, "What else should I know?", reply.Question)
		})
	}
}

func TestProcessTurnRejectsCompletedConversation(t *testing.T) {
	sender := &fakeSender{replies: []string{"SITE_BRIEF_READY " + validBriefJSON}}
	e := newTestEngine(sender)
	state := e.Start()

	_, err := e.ProcessTurn(context.Background(), state, "done")
	require.NoError(t, err)
	require.True(t, state.Completed)

	_, err = e.ProcessTurn(context.Background(), state, "one more thing")
	require.Error(t, err)
	var werr *wizerrors.WizardError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, wizerrors.CategoryValidation, werr.Category)
}

func TestProcessTurnPropagatesProviderError(t *testing.T) {
	sender := &fakeSender{err: wizerrors.New(wizerrors.CategoryNetwork, "connection refused")}
	e := newTestEngine(sender)
	state := e.Start()

	_, err := e.ProcessTurn(context.Background(), state, "hello")
	require.Error(t, err)
	// The failed turn is rolled back so a retry does not duplicate the input.
	require.Empty(t, state.Messages)

	sender.err = nil
	sender.replies = []string{"What kind of site do you want to build?"}
	_, err = e.ProcessTurn(context.Background(), state, "hello")
	require.NoError(t, err)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, models.RoleUser, state.Messages[0].Role)
	assert.Equal(t, "hello", state.Messages[0].Content)
	assert.Equal(t, models.RoleAssistant, state.Messages[1].Role)
}

func TestProcessTurnStreamDeliversTokens(t *testing.T) {
	sender := &fakeSender{stream: []providers.StreamEvent{
		{Token: "What pages "},
		{Token: "do you need?"},
		{Done: true},
	}}
	e := newTestEngine(sender)
	state := e.Start()

	var streamed string
	reply, err := e.ProcessTurnStream(context.Background(), state, "hello", func(tok string) {
		streamed += tok
	})
	require.NoError(t, err)

	assert.Equal(t, "What pages do you need?", streamed)
	assert.Equal(t, "What pages do you need?", reply.Question)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "What pages do you need?", state.Messages[1].Content)
}

func TestProcessTurnStreamCompletion(t *testing.T) {
	sender := &fakeSender{stream: []providers.StreamEvent{
		{Token: "SITE_BRIEF_READY\n"},
		{Token: validBriefJSON},
		{Done: true},
	}}
	e := newTestEngine(sender)
	state := e.Start()

	reply, err := e.ProcessTurnStream(context.Background(), state, "all set", nil)
	require.NoError(t, err)
	assert.True(t, reply.Completed)
	assert.True(t, state.Completed)
}

func TestProcessTurnStreamError(t *testing.T) {
	sender := &fakeSender{stream: []providers.StreamEvent{
		{Token: "What "},
		{Err: wizerrors.New(wizerrors.CategoryTimeout, "deadline exceeded")},
	}}
	e := newTestEngine(sender)
	state := e.Start()

	_, err := e.ProcessTurnStream(context.Background(), state, "hello", nil)
	require.Error(t, err)
	assert.False(t, state.Completed)
	// The failed turn is rolled back; a resubmit will not duplicate it.
	assert.Empty(t, state.Messages)
}
