// internal/wizard/options/engine.go
package options

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"sitewizard/internal/common/logger"
	"sitewizard/internal/models"
	"sitewizard/internal/providers"
)

const systemPrompt = `You suggest website wizard options. Given the question
key, the user's prior answers, and optional design analysis, reply with a
single JSON object and nothing else:
{"additions":[{"label":"...","value":"...","contextHint":"...","confidence":0.8,
"structureMapping":{"plugins":[],"pages":[],"postTypes":[],"taxonomies":[]}}],
"removals":["value"],"defaults":["value"],"hint":"...",
"pluginRecommendations":[{"slug":"...","name":"...","reason":"..."}]}
Only suggest options relevant to this specific site.`

// Sender is the slice of the orchestrator the engine needs.
type Sender interface {
	SendMessage(ctx context.Context, provider string, messages []models.Message, systemPrompt string, opts providers.SendOptions) (string, error)
}

// QuestionOptions is the merged option set for one wizard question.
type QuestionOptions struct {
	Question models.QuestionKey          `json:"question"`
	Options  []models.EnhancedChipOption `json:"options"`
	Defaults []string                    `json:"defaults,omitempty"`
	Hint     string                      `json:"hint,omitempty"`
	// Degraded is set when enhancement failed and only base options are
	// shown. Non-blocking; the wizard proceeds regardless.
	Degraded bool `json:"degraded,omitempty"`
}

// Engine fetches AI option enhancements per fixed wizard question, caches
// them for the session, and accumulates plugin recommendations for the
// final synthesis. A provider failure degrades to base options and never
// blocks the wizard.
type Engine struct {
	sender   Sender
	provider string
	log      logger.Logger

	mu          sync.Mutex
	cache       map[models.QuestionKey]*QuestionOptions
	accumulated []models.PluginRecommendation
}

func NewEngine(sender Sender, provider string, log logger.Logger) *Engine {
	return &Engine{
		sender:   sender,
		provider: provider,
		log:      log,
		cache:    make(map[models.QuestionKey]*QuestionOptions),
	}
}

// OptionsForQuestion returns the merged option set for one question. The
// first visit calls the provider; revisits are served from the session
// cache and never re-fetch.
func (e *Engine) OptionsForQuestion(ctx context.Context, question models.QuestionKey, answers *models.WizardAnswers, figma *models.FigmaAnalysis) *QuestionOptions {
	e.mu.Lock()
	if cached, ok := e.cache[question]; ok {
		e.mu.Unlock()
		return cached
	}
	e.mu.Unlock()

	result, recs := e.fetch(ctx, question, answers, figma)

	e.mu.Lock()
	defer e.mu.Unlock()
	if cached, ok := e.cache[question]; ok {
		// A concurrent first visit won the race; keep its result and drop
		// the loser's recommendations along with the rest of its fetch.
		return cached
	}
	e.cache[question] = result
	e.accumulated = append(e.accumulated, recs...)
	return result
}

func (e *Engine) fetch(ctx context.Context, question models.QuestionKey, answers *models.WizardAnswers, figma *models.FigmaAnalysis) (*QuestionOptions, []models.PluginRecommendation) {
	reply, err := e.sender.SendMessage(ctx, e.provider,
		[]models.Message{{Role: models.RoleUser, Content: buildContext(question, answers, figma)}},
		systemPrompt, providers.SendOptions{})
	if err != nil {
		// Failure already landed in the orchestrator's last-error slot;
		// here it only downgrades the option set.
		e.log.WithError(err).Warn("option enhancement failed, serving base options", map[string]interface{}{
			"question": string(question),
		})
		return &QuestionOptions{Question: question, Options: BaseOptions(question), Degraded: true}, nil
	}

	var enh models.OptionEnhancement
	if uerr := json.Unmarshal(extractJSON(reply), &enh); uerr != nil {
		e.log.WithError(uerr).Warn("option enhancement unparseable, serving base options", map[string]interface{}{
			"question": string(question),
		})
		return &QuestionOptions{Question: question, Options: BaseOptions(question), Degraded: true}, nil
	}

	return merge(question, enh), enh.PluginRecommendations
}

// merge applies an enhancement to a question's base options: removals hide
// base values, additions append unless the value already exists, defaults
// mark matching options recommended.
func merge(question models.QuestionKey, enh models.OptionEnhancement) *QuestionOptions {
	removed := make(map[string]bool, len(enh.Removals))
	for _, v := range enh.Removals {
		removed[v] = true
	}

	seen := make(map[string]bool)
	var opts []models.EnhancedChipOption
	for _, o := range BaseOptions(question) {
		if removed[o.Value] {
			continue
		}
		seen[o.Value] = true
		opts = append(opts, o)
	}
	for _, o := range enh.Additions {
		if o.Value == "" || seen[o.Value] {
			continue
		}
		seen[o.Value] = true
		o.Source = models.OptionSourceAI
		if o.ID == "" {
			o.ID = "ai-" + string(question) + "-" + uuid.NewString()[:8]
		}
		opts = append(opts, o)
	}

	var defaults []string
	for _, v := range enh.Defaults {
		if !seen[v] {
			continue
		}
		defaults = append(defaults, v)
		for i := range opts {
			if opts[i].Value == v {
				opts[i].Recommended = true
			}
		}
	}

	return &QuestionOptions{
		Question: question,
		Options:  opts,
		Defaults: defaults,
		Hint:     enh.Hint,
	}
}

// AccumulatedPlugins returns a copy of every plugin recommendation gathered
// across the session's dynamic-options calls.
func (e *Engine) AccumulatedPlugins() []models.PluginRecommendation {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.PluginRecommendation, len(e.accumulated))
	copy(out, e.accumulated)
	return out
}

// Reset drops the session cache and accumulated recommendations.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[models.QuestionKey]*QuestionOptions)
	e.accumulated = nil
}

// buildContext assembles the prompt context: site identity, prior answers,
// and the design analysis summary when present.
func buildContext(question models.QuestionKey, answers *models.WizardAnswers, figma *models.FigmaAnalysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n", question)
	if answers != nil {
		if answers.SiteName != "" {
			fmt.Fprintf(&sb, "Site name: %s\n", answers.SiteName)
		}
		if answers.SiteDescription != "" {
			fmt.Fprintf(&sb, "Site description: %s\n", answers.SiteDescription)
		}
		for _, key := range models.AllQuestions {
			if key == question {
				continue
			}
			if text := answers.Text[key]; text != "" {
				fmt.Fprintf(&sb, "Answer for %s: %s\n", key, text)
			}
			if sel := answers.Selected(key); len(sel) > 0 {
				fmt.Fprintf(&sb, "Selections for %s: %s\n", key, strings.Join(sel, ", "))
			}
		}
	}
	if figma != nil {
		fmt.Fprintf(&sb, "Design file: %s\n", figma.FileName)
		if len(figma.Pages) > 0 {
			fmt.Fprintf(&sb, "Design pages: %s\n", strings.Join(figma.Pages, ", "))
		}
		if len(figma.DesignTokens.Colors) > 0 {
			fmt.Fprintf(&sb, "Design colors: %d tokens\n", len(figma.DesignTokens.Colors))
		}
	}
	return sb.String()
}

// extractJSON strips markdown fences and leading prose so the enhancement
// body can be unmarshaled directly.
func extractJSON(reply string) []byte {
	reply = strings.ReplaceAll(reply, "```json", "")
	reply = strings.ReplaceAll(reply, "```", "")
	if idx := strings.IndexByte(reply, '{'); idx >= 0 {
		reply = reply[idx:]
	}
	return []byte(strings.TrimSpace(reply))
}
