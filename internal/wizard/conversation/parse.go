// internal/wizard/conversation/parse.go
package conversation

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	wizerrors "sitewizard/internal/common/errors"
	"sitewizard/internal/models"
)

// completionMarker is the sentinel the model is instructed to emit, followed
// by the structured brief, once discovery is done.
const completionMarker = "SITE_BRIEF_READY"

const (
	quickRepliesPrefix  = "QUICK_REPLIES:"
	understandingPrefix = "UNDERSTANDING:"
)

// briefSchema is the shape the completion payload must satisfy before the
// conversation is allowed to complete. Parsing fails closed: anything that
// does not validate leaves the conversation in progress.
const briefSchema = `{
  "type": "object",
  "required": ["purpose", "contentTypes"],
  "properties": {
    "purpose":      {"type": "string", "minLength": 1},
    "audience":     {"type": "string"},
    "contentTypes": {"type": "array", "items": {"type": "string"}},
    "taxonomies":   {"type": "array", "items": {"type": "string"}},
    "features":     {"type": "array", "items": {"type": "string"}},
    "recommendedPlugins": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["slug", "name"],
        "properties": {
          "slug":   {"type": "string", "minLength": 1},
          "name":   {"type": "string", "minLength": 1},
          "reason": {"type": "string"}
        }
      }
    }
  }
}`

var briefSchemaLoader = gojsonschema.NewStringLoader(briefSchema)

// parseBrief runs the two-phase completion parse: locate the marker, then
// strict-parse and schema-validate the JSON that follows it.
func parseBrief(reply string) (*models.SiteBrief, *wizerrors.WizardError) {
	_, after, found := strings.Cut(reply, completionMarker)
	if !found {
		return nil, wizerrors.New(wizerrors.CategoryValidation, "completion marker not present")
	}

	raw, err := firstJSONObject(after)
	if err != nil {
		return nil, wizerrors.Wrap(wizerrors.CategoryValidation, "completion payload is not valid JSON", err)
	}

	result, err := gojsonschema.Validate(briefSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, wizerrors.Wrap(wizerrors.CategoryValidation, "completion payload validation failed", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, wizerrors.New(wizerrors.CategoryValidation, "completion payload rejected: "+strings.Join(msgs, "; "))
	}

	var brief models.SiteBrief
	if err := json.Unmarshal(raw, &brief); err != nil {
		return nil, wizerrors.Wrap(wizerrors.CategoryValidation, "completion payload decode failed", err)
	}
	return &brief, nil
}

// firstJSONObject extracts the first JSON object embedded in text, tolerating
// markdown code fences and surrounding prose.
func firstJSONObject(text string) (json.RawMessage, error) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	idx := strings.IndexByte(text, '{')
	if idx < 0 {
		return nil, wizerrors.New(wizerrors.CategoryValidation, "no JSON object found after marker")
	}

	dec := json.NewDecoder(strings.NewReader(text[idx:]))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// parseTurn splits a non-completion reply into the next question, optional
// quick replies, and an optional understanding update. Unparseable trailer
// lines are ignored rather than failing the turn.
func parseTurn(reply string) (question string, quickReplies []string, upd *models.Understanding) {
	var questionLines []string
	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, quickRepliesPrefix):
			for _, part := range strings.Split(strings.TrimPrefix(trimmed, quickRepliesPrefix), "|") {
				if p := strings.TrimSpace(part); p != "" {
					quickReplies = append(quickReplies, p)
				}
			}
		case strings.HasPrefix(trimmed, understandingPrefix):
			var u models.Understanding
			if err := json.Unmarshal([]byte(strings.TrimPrefix(trimmed, understandingPrefix)), &u); err == nil {
				upd = &u
			}
		default:
			questionLines = append(questionLines, line)
		}
	}
	question = strings.TrimSpace(strings.Join(questionLines, "\n"))
	return question, quickReplies, upd
}
