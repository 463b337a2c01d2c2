// internal/models/options.go
package models

// OptionSource tags where a chip option came from.
type OptionSource string

const (
	OptionSourceBase OptionSource = "base"
	OptionSourceAI   OptionSource = "ai"
)

// EnhancedChipOption is one selectable wizard choice. Value is the unique
// key within a question's merged option set; AI additions must never repeat
// a base value.
type EnhancedChipOption struct {
	ID               string            `json:"id"`
	Label            string            `json:"label"`
	Value            string            `json:"value"`
	Source           OptionSource      `json:"source"`
	ContextHint      string            `json:"contextHint,omitempty"`
	Recommended      bool              `json:"recommended,omitempty"`
	Confidence       *float64          `json:"confidence,omitempty"`
	StructureMapping *StructureMapping `json:"structureMapping,omitempty"`
}

// StructureMapping links an option to the concrete structure elements it
// implies when selected.
type StructureMapping struct {
	Plugins    []string          `json:"plugins,omitempty"`
	Pages      []string          `json:"pages,omitempty"`
	PostTypes  []PostTypeMapping `json:"postTypes,omitempty"`
	Taxonomies []string          `json:"taxonomies,omitempty"`
}

// PostTypeMapping is the option-level shorthand for a custom post type.
type PostTypeMapping struct {
	Slug   string   `json:"slug"`
	Name   string   `json:"name"`
	Fields []string `json:"fields,omitempty"`
}

// OptionEnhancement is a provider's answer for one question: suggested
// additions, base values to hide, values to pre-select, and plugin
// recommendations accumulated for the final synthesis.
type OptionEnhancement struct {
	Additions             []EnhancedChipOption   `json:"additions"`
	Removals              []string               `json:"removals,omitempty"`
	Defaults              []string               `json:"defaults,omitempty"`
	Hint                  string                 `json:"hint,omitempty"`
	PluginRecommendations []PluginRecommendation `json:"pluginRecommendations,omitempty"`
}
