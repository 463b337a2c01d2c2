// internal/models/structure.go
package models

// SectionStatus tracks each structure section independently.
type SectionStatus string

const (
	SectionReady   SectionStatus = "ready"
	SectionPending SectionStatus = "pending"
	SectionError   SectionStatus = "error"
)

// SiteStructure is the deterministic synthesis output handed to site
// provisioning. Built once per wizard completion; rebuilding from the same
// inputs yields a structurally identical value.
type SiteStructure struct {
	Content  ContentSection  `json:"content"`
	Design   DesignSection   `json:"design"`
	Features FeaturesSection `json:"features"`
}

type ContentSection struct {
	Status    SectionStatus `json:"status"`
	PostTypes []PostType    `json:"postTypes"`
	Pages     []Page        `json:"pages"`
	Menus     []Menu        `json:"menus"`
}

type DesignSection struct {
	Status SectionStatus `json:"status"`
	Theme  Theme         `json:"theme"`
}

type FeaturesSection struct {
	Status  SectionStatus          `json:"status"`
	Plugins []PluginRecommendation `json:"plugins"`
}

// PostType is a custom content type with its custom fields.
type PostType struct {
	Slug   string  `json:"slug"`
	Name   string  `json:"name"`
	Plural string  `json:"plural,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

type Field struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Page struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Menu groups ordered items; item URL is the de-duplication key within a
// menu.
type Menu struct {
	Slug  string     `json:"slug"`
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

type MenuItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Order int    `json:"order"`
}

// Theme carries the child-theme identity and any design tokens imported
// from the design tool.
type Theme struct {
	ChildThemeName string        `json:"childThemeName"`
	BaseTheme      string        `json:"baseTheme,omitempty"`
	Tokens         *DesignTokens `json:"tokens,omitempty"`
}

// PluginRecommendation is one plugin nomination; Slug is the
// de-duplication key across the whole structure.
type PluginRecommendation struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
	Required   bool   `json:"required"`
	Confidence int    `json:"confidence"`
}
