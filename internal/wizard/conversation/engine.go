// internal/wizard/conversation/engine.go
package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	wizerrors "sitewizard/internal/common/errors"
	"sitewizard/internal/common/logger"
	"sitewizard/internal/models"
	"sitewizard/internal/providers"
)

const systemPrompt = `You are a website discovery assistant. Ask the user one
question at a time to learn what site they want: its purpose, audience,
content types, taxonomies, and desired features. Keep questions short and
conversational.

After your question you may add one line of tappable suggestions:
QUICK_REPLIES: first option | second option | third option

You may also add one line summarizing what you know so far as compact JSON:
UNDERSTANDING: {"purpose":"...","audience":"...","contentTypes":[],"features":[]}

When you are confident you understand the site, stop asking questions and
reply with the word SITE_BRIEF_READY followed by a single JSON object:
{"purpose":"...","audience":"...","contentTypes":[...],"taxonomies":[...],
"features":[...],"recommendedPlugins":[{"slug":"...","name":"...","reason":"..."}]}`

// Sender is the slice of the orchestrator the engine needs.
type Sender interface {
	SendMessage(ctx context.Context, provider string, messages []models.Message, systemPrompt string, opts providers.SendOptions) (string, error)
	StreamMessage(ctx context.Context, provider string, messages []models.Message, systemPrompt string, opts providers.SendOptions) (<-chan providers.StreamEvent, error)
}

// Engine drives the multi-turn discovery dialogue. Turns within one engine
// are strictly sequential; the mutex rejects overlap instead of queueing it.
type Engine struct {
	sender   Sender
	provider string
	log      logger.Logger

	mu     sync.Mutex
	inTurn bool
}

func NewEngine(sender Sender, provider string, log logger.Logger) *Engine {
	return &Engine{sender: sender, provider: provider, log: log}
}

// Start creates a fresh conversation. Nothing is sent to the provider until
// the first turn.
func (e *Engine) Start() *models.ConversationState {
	return &models.ConversationState{
		ID:    uuid.NewString(),
		Phase: models.PhaseNotStarted,
	}
}

// ProcessTurn appends the user's message, asks the provider for the next
// reply, and folds the result into the conversation state. A malformed
// completion payload never completes the conversation; the caller gets a
// recoverable validation error and the dialogue stays open.
func (e *Engine) ProcessTurn(ctx context.Context, state *models.ConversationState, userInput string) (*models.TurnReply, error) {
	release, err := e.beginTurn(state)
	if err != nil {
		return nil, err
	}
	defer release()

	state.Phase = models.PhaseInProgress
	appendMessage(state, models.RoleUser, userInput)

	reply, err := e.sender.SendMessage(ctx, e.provider, state.Messages, systemPrompt, providers.SendOptions{})
	if err != nil {
		trimLastUserMessage(state)
		return nil, err
	}
	return e.absorbReply(state, reply)
}

// ProcessTurnStream is ProcessTurn with incremental delivery: each token is
// handed to onToken as it arrives, then the assembled reply goes through the
// same completion parse. Cancelling ctx abandons the stream; no further
// callbacks fire.
func (e *Engine) ProcessTurnStream(ctx context.Context, state *models.ConversationState, userInput string, onToken func(string)) (*models.TurnReply, error) {
	release, err := e.beginTurn(state)
	if err != nil {
		return nil, err
	}
	defer release()

	state.Phase = models.PhaseInProgress
	appendMessage(state, models.RoleUser, userInput)

	events, err := e.sender.StreamMessage(ctx, e.provider, state.Messages, systemPrompt, providers.SendOptions{})
	if err != nil {
		trimLastUserMessage(state)
		return nil, err
	}

	var sb strings.Builder
	for ev := range events {
		select {
		case <-ctx.Done():
			trimLastUserMessage(state)
			return nil, wizerrors.Classify(ctx.Err())
		default:
		}
		switch {
		case ev.Err != nil:
			trimLastUserMessage(state)
			return nil, ev.Err
		case ev.Done:
			return e.absorbReply(state, sb.String())
		default:
			sb.WriteString(ev.Token)
			if onToken != nil {
				onToken(ev.Token)
			}
		}
	}
	trimLastUserMessage(state)
	return nil, wizerrors.New(wizerrors.CategoryInternal, "stream ended without terminal event")
}

func (e *Engine) beginTurn(state *models.ConversationState) (func(), error) {
	if state.Completed {
		return nil, wizerrors.New(wizerrors.CategoryValidation, "conversation already completed")
	}
	e.mu.Lock()
	if e.inTurn {
		e.mu.Unlock()
		return nil, wizerrors.New(wizerrors.CategoryValidation, "previous turn still in flight")
	}
	e.inTurn = true
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		e.inTurn = false
		e.mu.Unlock()
	}, nil
}

func (e *Engine) absorbReply(state *models.ConversationState, reply string) (*models.TurnReply, error) {
	appendMessage(state, models.RoleAssistant, reply)

	if strings.Contains(reply, completionMarker) {
		brief, werr := parseBrief(reply)
		if werr != nil {
			e.log.WithError(werr).Warn("completion payload rejected, conversation stays open", map[string]interface{}{
				"conversation": state.ID,
			})
			return nil, werr
		}
		state.Brief = brief
		state.Completed = true
		state.Phase = models.PhaseCompleted
		state.Understanding = models.Understanding{
			Confidence:   100,
			Purpose:      brief.Purpose,
			Audience:     brief.Audience,
			ContentTypes: brief.ContentTypes,
			Features:     brief.Features,
		}
		e.log.Info("conversation completed", map[string]interface{}{
			"conversation": state.ID,
			"turns":        len(state.Messages),
		})
		return &models.TurnReply{Completed: true}, nil
	}

	question, quickReplies, upd := parseTurn(reply)
	if upd != nil {
		mergeUnderstanding(&state.Understanding, upd)
	}
	state.Understanding.Confidence = scoreUnderstanding(state.Understanding)
	return &models.TurnReply{Question: question, QuickReplies: quickReplies}, nil
}

func appendMessage(state *models.ConversationState, role models.Role, content string) {
	state.Messages = append(state.Messages, models.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// trimLastUserMessage undoes the append for a turn that got no reply, so the
// caller can resubmit the same input without duplicating it in history.
func trimLastUserMessage(state *models.ConversationState) {
	n := len(state.Messages)
	if n > 0 && state.Messages[n-1].Role == models.RoleUser {
		state.Messages = state.Messages[:n-1]
	}
}

// mergeUnderstanding folds a per-turn update into the running summary.
// Updates only add; an empty field never erases prior knowledge.
func mergeUnderstanding(dst *models.Understanding, upd *models.Understanding) {
	if upd.Purpose != "" {
		dst.Purpose = upd.Purpose
	}
	if upd.Audience != "" {
		dst.Audience = upd.Audience
	}
	if len(upd.ContentTypes) > 0 {
		dst.ContentTypes = upd.ContentTypes
	}
	if len(upd.Features) > 0 {
		dst.Features = upd.Features
	}
}

// scoreUnderstanding maps filled facets to a 0-95 confidence; only a
// validated completion payload reaches 100.
func scoreUnderstanding(u models.Understanding) int {
	score := 15
	if u.Purpose != "" {
		score += 20
	}
	if u.Audience != "" {
		score += 20
	}
	if len(u.ContentTypes) > 0 {
		score += 20
	}
	if len(u.Features) > 0 {
		score += 20
	}
	if score > 95 {
		score = 95
	}
	return score
}
