// internal/wizard/synthesis/synthesizer.go

// Package synthesis turns the finished wizard state into the final site
// structure. Synthesize is a pure function: no AI calls, no clock, no
// randomness, so re-running it over identical inputs yields an identical
// structure.
package synthesis

import (
	"strings"

	"sitewizard/internal/models"
)

const (
	acfSlug       = "advanced-custom-fields"
	baseTheme     = "twentytwentyfour"
	fallbackTheme = "custom-site-theme"
)

// Keyword sets for rule-based content-type inference. Evaluation order is
// fixed: team rule first, then portfolio, then the generic fallback.
var (
	teamSignals      = []string{"team", "contributors", "members", "staff", "authors", "writers"}
	portfolioSignals = []string{"just-me", "portfolio", "projects", "project", "showcase", "freelance"}
)

// Synthesize builds the site structure from the wizard answers, the
// enhanced options the user selected, and the plugin recommendations
// accumulated across the session. Design tokens, when present, are copied
// into the theme.
func Synthesize(answers *models.WizardAnswers, selected []models.EnhancedChipOption, accumulated []models.PluginRecommendation, figma *models.FigmaAnalysis) models.SiteStructure {
	postTypes := inferPostTypes(answers, selected)
	pages, menus := buildNavigation(answers, selected)
	plugins := assemblePlugins(selected, accumulated, postTypes)

	return models.SiteStructure{
		Content: models.ContentSection{
			Status:    models.SectionReady,
			PostTypes: postTypes,
			Pages:     pages,
			Menus:     menus,
		},
		Design: models.DesignSection{
			Status: models.SectionReady,
			Theme:  buildTheme(answers, figma),
		},
		Features: models.FeaturesSection{
			Status:  models.SectionReady,
			Plugins: plugins,
		},
	}
}

// inferPostTypes applies the keyword rules over the creator/visitor answers,
// then folds in post-type mappings from selected AI options. When nothing
// matched at all, one generic fallback type with no fields is emitted.
func inferPostTypes(answers *models.WizardAnswers, selected []models.EnhancedChipOption) []models.PostType {
	signals := collectSignals(answers)

	var out []models.PostType
	seen := make(map[string]bool)

	if matchesAny(signals, teamSignals) {
		seen["team-member"] = true
		out = append(out, models.PostType{
			Slug:   "team-member",
			Name:   "Team Member",
			Plural: "Team Members",
			Fields: []models.Field{
				{Key: "role", Name: "Role", Type: "text"},
				{Key: "photo", Name: "Photo", Type: "image"},
				{Key: "bio", Name: "Bio", Type: "textarea"},
			},
		})
	}
	if matchesAny(signals, portfolioSignals) {
		seen["project"] = true
		out = append(out, models.PostType{
			Slug:   "project",
			Name:   "Project",
			Plural: "Projects",
			Fields: []models.Field{
				{Key: "client", Name: "Client", Type: "text"},
				{Key: "project_url", Name: "Project URL", Type: "url"},
				{Key: "gallery", Name: "Gallery", Type: "gallery"},
			},
		})
	}

	for _, opt := range selected {
		if opt.Source != models.OptionSourceAI || opt.StructureMapping == nil {
			continue
		}
		for _, pt := range opt.StructureMapping.PostTypes {
			if pt.Slug == "" || seen[pt.Slug] {
				continue
			}
			seen[pt.Slug] = true
			mapped := models.PostType{Slug: pt.Slug, Name: pt.Name, Plural: pt.Name + "s"}
			for _, f := range pt.Fields {
				mapped.Fields = append(mapped.Fields, models.Field{
					Key:  slugifyUnder(f),
					Name: titleCase(f),
					Type: "text",
				})
			}
			out = append(out, mapped)
		}
	}

	if len(out) == 0 {
		out = append(out, models.PostType{Slug: "article", Name: "Article", Plural: "Articles"})
	}
	return out
}

// buildNavigation assembles the page list and the single primary menu:
// a synthetic Home item at order 0, the required pages in user-selection
// order, then AI-suggested pages appended, de-duplicated by URL.
func buildNavigation(answers *models.WizardAnswers, selected []models.EnhancedChipOption) ([]models.Page, []models.Menu) {
	var pages []models.Page
	var items []models.MenuItem
	seenURL := map[string]bool{"/": true}

	items = append(items, models.MenuItem{Title: "Home", URL: "/", Order: 0})

	hasRequired := false
	for _, slug := range answers.Selected(models.QuestionRequiredPages) {
		slug = slugify(slug)
		if slug == "" || seenURL["/"+slug] {
			continue
		}
		hasRequired = true
		seenURL["/"+slug] = true
		pages = append(pages, models.Page{Slug: slug, Title: titleCase(slug)})
		items = append(items, models.MenuItem{Title: titleCase(slug), URL: "/" + slug, Order: len(items)})
	}

	hasAIPages := false
	for _, opt := range selected {
		if opt.Source != models.OptionSourceAI || opt.StructureMapping == nil {
			continue
		}
		for _, raw := range opt.StructureMapping.Pages {
			slug := slugify(raw)
			if slug == "" || seenURL["/"+slug] {
				continue
			}
			hasAIPages = true
			seenURL["/"+slug] = true
			pages = append(pages, models.Page{Slug: slug, Title: titleCase(slug)})
			items = append(items, models.MenuItem{Title: titleCase(slug), URL: "/" + slug, Order: len(items)})
		}
	}

	if !hasRequired && !hasAIPages {
		return pages, nil
	}
	return pages, []models.Menu{{Slug: "primary", Name: "Primary Navigation", Items: items}}
}

// assemblePlugins builds the de-duplicated plugin list: AI-option mappings
// first, accumulated session recommendations merged last, and the ACF entry
// prepended whenever any post type carries fields.
func assemblePlugins(selected []models.EnhancedChipOption, accumulated []models.PluginRecommendation, postTypes []models.PostType) []models.PluginRecommendation {
	var out []models.PluginRecommendation
	seen := make(map[string]bool)

	for _, opt := range selected {
		if opt.Source != models.OptionSourceAI || opt.StructureMapping == nil {
			continue
		}
		for _, slug := range opt.StructureMapping.Plugins {
			slug = slugify(slug)
			if slug == "" || seen[slug] {
				continue
			}
			seen[slug] = true
			out = append(out, models.PluginRecommendation{
				Slug:       slug,
				Name:       titleCase(slug),
				Reason:     "Supports selected option: " + opt.Label,
				Confidence: optionConfidence(opt),
			})
		}
	}

	for _, rec := range accumulated {
		slug := slugify(rec.Slug)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		merged := rec
		merged.Slug = slug
		merged.Confidence = 85
		out = append(out, merged)
	}

	if anyFields(postTypes) && !seen[acfSlug] {
		out = append([]models.PluginRecommendation{{
			Slug:       acfSlug,
			Name:       "Advanced Custom Fields",
			Reason:     "Custom post type fields need ACF to exist",
			Required:   true,
			Confidence: 100,
		}}, out...)
	}
	return out
}

func optionConfidence(opt models.EnhancedChipOption) int {
	if opt.Confidence == nil {
		return 80
	}
	return int(*opt.Confidence*100 + 0.5)
}

func anyFields(postTypes []models.PostType) bool {
	for _, pt := range postTypes {
		if len(pt.Fields) > 0 {
			return true
		}
	}
	return false
}

func buildTheme(answers *models.WizardAnswers, figma *models.FigmaAnalysis) models.Theme {
	name := fallbackTheme
	if slug := slugify(answers.SiteName); slug != "" {
		name = slug + "-theme"
	}
	theme := models.Theme{ChildThemeName: name, BaseTheme: baseTheme}
	if figma != nil {
		tokens := figma.DesignTokens
		theme.Tokens = &tokens
	}
	return theme
}

// collectSignals lowercases and tokenizes the creator/visitor answers.
func collectSignals(answers *models.WizardAnswers) map[string]bool {
	signals := make(map[string]bool)
	add := func(raw string) {
		for _, tok := range strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
			return r == ' ' || r == ',' || r == '.' || r == ';'
		}) {
			signals[tok] = true
		}
	}
	if answers == nil {
		return signals
	}
	for _, key := range []models.QuestionKey{models.QuestionContentCreators, models.QuestionVisitorActions} {
		add(answers.Text[key])
		for _, sel := range answers.Selected(key) {
			signals[strings.ToLower(sel)] = true
			add(sel)
		}
	}
	return signals
}

func matchesAny(signals map[string]bool, keywords []string) bool {
	for _, kw := range keywords {
		if signals[kw] {
			return true
		}
	}
	return false
}

// slugify lowercases and collapses non-alphanumerics into single hyphens.
func slugify(s string) string {
	var sb strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			sb.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(sb.String(), "-")
}

func slugifyUnder(s string) string {
	return strings.ReplaceAll(slugify(s), "-", "_")
}

// titleCase converts a slug to a display title, e.g. "case-studies" to
// "Case Studies".
func titleCase(slug string) string {
	parts := strings.Split(slugify(slug), "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
