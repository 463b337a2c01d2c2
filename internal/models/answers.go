// internal/models/answers.go
package models

// QuestionKey identifies one of the five fixed wizard questions.
type QuestionKey string

const (
	QuestionSitePurpose     QuestionKey = "sitePurpose"
	QuestionContentCreators QuestionKey = "contentCreators"
	QuestionVisitorActions  QuestionKey = "visitorActions"
	QuestionRequiredPages   QuestionKey = "requiredPages"
	QuestionDesignStyle     QuestionKey = "designStyle"
)

// AllQuestions lists the fixed questions in presentation order.
var AllQuestions = []QuestionKey{
	QuestionSitePurpose,
	QuestionContentCreators,
	QuestionVisitorActions,
	QuestionRequiredPages,
	QuestionDesignStyle,
}

// WizardAnswers maps fixed question keys to free-text or ordered
// multi-select values, plus the site identity fields collected at entry.
// It is mutated incrementally and survives until an explicit restart.
type WizardAnswers struct {
	SiteName        string                   `json:"siteName,omitempty"`
	SiteDescription string                   `json:"siteDescription,omitempty"`
	Text            map[QuestionKey]string   `json:"text,omitempty"`
	Selections      map[QuestionKey][]string `json:"selections,omitempty"`
}

func NewWizardAnswers() *WizardAnswers {
	return &WizardAnswers{
		Text:       make(map[QuestionKey]string),
		Selections: make(map[QuestionKey][]string),
	}
}

// SetText records a free-text answer.
func (a *WizardAnswers) SetText(key QuestionKey, value string) {
	if a.Text == nil {
		a.Text = make(map[QuestionKey]string)
	}
	a.Text[key] = value
}

// SetSelections records an ordered multi-select answer, replacing any
// previous value for the question.
func (a *WizardAnswers) SetSelections(key QuestionKey, values []string) {
	if a.Selections == nil {
		a.Selections = make(map[QuestionKey][]string)
	}
	out := make([]string, len(values))
	copy(out, values)
	a.Selections[key] = out
}

// Selected returns the ordered selections for a question, never nil.
func (a *WizardAnswers) Selected(key QuestionKey) []string {
	if a == nil || a.Selections == nil {
		return nil
	}
	return a.Selections[key]
}
