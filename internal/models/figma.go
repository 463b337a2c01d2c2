// internal/models/figma.go
package models

// DesignTokens are the theme primitives importable from the design tool.
type DesignTokens struct {
	Colors       map[string]string `json:"colors,omitempty"`
	Typography   map[string]string `json:"typography,omitempty"`
	Spacing      map[string]string `json:"spacing,omitempty"`
	BorderRadius map[string]string `json:"borderRadius,omitempty"`
}

// FigmaAnalysis is the design-tool payload consumed as optional context by
// the dynamic-options engine and forwarded opaquely to provisioning.
type FigmaAnalysis struct {
	FileName     string       `json:"fileName"`
	DesignTokens DesignTokens `json:"designTokens"`
	Pages        []string     `json:"pages,omitempty"`
}

// FigmaRateLimit mirrors the design tool's 429 payload; it is surfaced to
// the UI unmodified.
type FigmaRateLimit struct {
	RetryAfter  int    `json:"retryAfter"`
	PlanTier    string `json:"planTier,omitempty"`
	UpgradeLink string `json:"upgradeLink,omitempty"`
}
