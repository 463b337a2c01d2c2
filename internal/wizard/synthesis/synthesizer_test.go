// internal/wizard/synthesis/synthesizer_test.go
package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitewizard/internal/models"
)

func floatPtr(f float64) *float64 { return &f }

func aiOption(label string, mapping *models.StructureMapping, confidence *float64) models.EnhancedChipOption {
	return models.EnhancedChipOption{
		ID:               "ai-" + label,
		Label:            label,
		Value:            label,
		Source:           models.OptionSourceAI,
		Confidence:       confidence,
		StructureMapping: mapping,
	}
}

func TestSynthesizeIsIdempotent(t *testing.T) {
	answers := models.NewWizardAnswers()
	answers.SiteName = "Potters Guild"
	answers.SetSelections(models.QuestionContentCreators, []string{"team"})
	answers.SetSelections(models.QuestionRequiredPages, []string{"about", "contact"})

	selected := []models.EnhancedChipOption{
		aiOption("Ticketing", &models.StructureMapping{
			Plugins: []string{"the-events-calendar"},
			Pages:   []string{"events"},
		}, floatPtr(0.9)),
	}
	accumulated := []models.PluginRecommendation{
		{Slug: "wordpress-seo", Name: "Yoast SEO", Reason: "discoverability"},
	}

	first := Synthesize(answers, selected, accumulated, nil)
	second := Synthesize(answers, selected, accumulated, nil)
	assert.Equal(t, first, second)
}

func TestSynthesizeFallbackScenario(t *testing.T) {
	answers := models.NewWizardAnswers()
	answers.SiteName = "My Test Site"

	got := Synthesize(answers, nil, nil, nil)

	assert.Equal(t, "my-test-site-theme", got.Design.Theme.ChildThemeName)
	require.Len(t, got.Content.PostTypes, 1)
	assert.Empty(t, got.Content.PostTypes[0].Fields)
	assert.Equal(t, models.SectionReady, got.Features.Status)
	assert.Empty(t, got.Content.Menus)
	assert.Empty(t, got.Features.Plugins)
}

func TestSynthesizeRequiredPagesMenu(t *testing.T) {
	answers := models.NewWizardAnswers()
	answers.SetSelections(models.QuestionRequiredPages, []string{"about", "contact", "faq"})

	got := Synthesize(answers, nil, nil, nil)

	require.Len(t, got.Content.Menus, 1)
	menu := got.Content.Menus[0]
	assert.Equal(t, "primary", menu.Slug)
	require.Len(t, menu.Items, 4)
	assert.Equal(t, "Home", menu.Items[0].Title)
	assert.Equal(t, "/", menu.Items[0].URL)
	assert.Equal(t, 0, menu.Items[0].Order)
	assert.Equal(t, "About", menu.Items[1].Title)
	assert.Equal(t, "/about", menu.Items[1].URL)
	assert.Equal(t, "/contact", menu.Items[2].URL)
	assert.Equal(t, "/faq", menu.Items[3].URL)

	require.Len(t, got.Content.Pages, 3)
	assert.Equal(t, "about", got.Content.Pages[0].Slug)
}

func TestSynthesizeTeamRule(t *testing.T) {
	answers := models.NewWizardAnswers()
	answers.SetText(models.QuestionContentCreators, "our whole team writes posts")

	got := Synthesize(answers, nil, nil, nil)

	require.Len(t, got.Content.PostTypes, 1)
	pt := got.Content.PostTypes[0]
	assert.Equal(t, "team-member", pt.Slug)
	assert.Equal(t, "Team Member", pt.Name)
	assert.NotEmpty(t, pt.Fields)
}

func TestSynthesizePortfolioRule(t *testing.T) {
	answers := models.NewWizardAnswers()
	answers.SetSelections(models.QuestionContentCreators, []string{"just-me"})

	got := Synthesize(answers, nil, nil, nil)

	require.Len(t, got.Content.PostTypes, 1)
	assert.Equal(t, "project", got.Content.PostTypes[0].Slug)
	assert.NotEmpty(t, got.Content.PostTypes[0].Fields)
}

func TestSynthesizeRuleOrderTeamBeforePortfolio(t *testing.T) {
	answers := models.NewWizardAnswers()
	answers.SetText(models.QuestionContentCreators, "a team building a portfolio")

	got := Synthesize(answers, nil, nil, nil)

	require.Len(t, got.Content.PostTypes, 2)
	assert.Equal(t, "team-member", got.Content.PostTypes[0].Slug)
	assert.Equal(t, "project", got.Content.PostTypes[1].Slug)
}

func TestSynthesizeACFInvariant(t *testing.T) {
	answers := models.NewWizardAnswers()
	answers.SetSelections(models.QuestionContentCreators, []string{"team"})

	accumulated := []models.PluginRecommendation{
		{Slug: "wordpress-seo", Name: "Yoast SEO", Reason: "discoverability"},
	}
	got := Synthesize(answers, nil, accumulated, nil)

	require.NotEmpty(t, got.Features.Plugins)
	acf := got.Features.Plugins[0]
	assert.Equal(t, "advanced-custom-fields", acf.Slug)
	assert.True(t, acf.Required)
}

func TestSynthesizeACFNotDuplicated(t *testing.T) {
	answers := models.NewWizardAnswers()
	answers.SetSelections(models.QuestionContentCreators, []string{"team"})

	selected := []models.EnhancedChipOption{
		aiOption("Custom fields", &models.StructureMapping{
			Plugins: []string{"advanced-custom-fields"},
		}, nil),
	}
	got := Synthesize(answers, selected, nil, nil)

	count := 0
	for _, p := range got.Features.Plugins {
		if p.Slug == "advanced-custom-fields" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSynthesizePluginDeduplication(t *testing.T) {
	selected := []models.EnhancedChipOption{
		aiOption("Contact form", &models.StructureMapping{Plugins: []string{"contact-form-7"}}, nil),
		aiOption("Another form", &models.StructureMapping{Plugins: []string{"contact-form-7"}}, nil),
	}
	accumulated := []models.PluginRecommendation{
		{Slug: "contact-form-7", Name: "Contact Form 7", Reason: "forms"},
	}

	got := Synthesize(models.NewWizardAnswers(), selected, accumulated, nil)

	count := 0
	for _, p := range got.Features.Plugins {
		if p.Slug == "contact-form-7" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSynthesizeConfidenceMapping(t *testing.T) {
	selected := []models.EnhancedChipOption{
		aiOption("Events", &models.StructureMapping{Plugins: []string{"the-events-calendar"}}, floatPtr(0.75)),
		aiOption("Forms", &models.StructureMapping{Plugins: []string{"contact-form-7"}}, nil),
	}
	accumulated := []models.PluginRecommendation{
		{Slug: "wordpress-seo", Name: "Yoast SEO", Reason: "discoverability", Confidence: 40},
	}

	got := Synthesize(models.NewWizardAnswers(), selected, accumulated, nil)

	bySlug := make(map[string]models.PluginRecommendation)
	for _, p := range got.Features.Plugins {
		bySlug[p.Slug] = p
	}
	assert.Equal(t, 75, bySlug["the-events-calendar"].Confidence)
	assert.Equal(t, 80, bySlug["contact-form-7"].Confidence)
	// Accumulated recommendations always merge at 85.
	assert.Equal(t, 85, bySlug["wordpress-seo"].Confidence)
	assert.Contains(t, bySlug["the-events-calendar"].Reason, "Events")
}

func TestSynthesizeBaseOptionsContributeNothing(t *testing.T) {
	selected := []models.EnhancedChipOption{
		{
			ID:     "base-actions-buy",
			Label:  "Buy something",
			Value:  "buy",
			Source: models.OptionSourceBase,
			StructureMapping: &models.StructureMapping{
				Plugins: []string{"woocommerce"},
				Pages:   []string{"shop"},
			},
		},
	}

	got := Synthesize(models.NewWizardAnswers(), selected, nil, nil)

	assert.Empty(t, got.Features.Plugins)
	assert.Empty(t, got.Content.Pages)
}

func TestSynthesizeMenuDeduplication(t *testing.T) {
	answers := models.NewWizardAnswers()
	answers.SetSelections(models.QuestionRequiredPages, []string{"testimonials"})

	selected := []models.EnhancedChipOption{
		aiOption("Social proof", &models.StructureMapping{Pages: []string{"testimonials"}}, nil),
	}

	got := Synthesize(answers, selected, nil, nil)

	require.Len(t, got.Content.Menus, 1)
	count := 0
	for _, item := range got.Content.Menus[0].Items {
		if item.URL == "/testimonials" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	require.Len(t, got.Content.Pages, 1)
}

func TestSynthesizeAIPagesAppendAfterRequired(t *testing.T) {
	answers := models.NewWizardAnswers()
	answers.SetSelections(models.QuestionRequiredPages, []string{"about"})

	selected := []models.EnhancedChipOption{
		aiOption("Case studies", &models.StructureMapping{Pages: []string{"case-studies"}}, nil),
	}

	got := Synthesize(answers, selected, nil, nil)

	require.Len(t, got.Content.Menus, 1)
	items := got.Content.Menus[0].Items
	require.Len(t, items, 3)
	assert.Equal(t, "/about", items[1].URL)
	assert.Equal(t, "/case-studies", items[2].URL)
	assert.Equal(t, "Case Studies", items[2].Title)
	assert.Equal(t, 2, items[2].Order)
}

func TestSynthesizeFigmaTokens(t *testing.T) {
	figma := &models.FigmaAnalysis{
		FileName: "brand",
		DesignTokens: models.DesignTokens{
			Colors:     map[string]string{"primary": "#112233"},
			Typography: map[string]string{"body": "Inter"},
		},
	}

	got := Synthesize(models.NewWizardAnswers(), nil, nil, figma)

	require.NotNil(t, got.Design.Theme.Tokens)
	assert.Equal(t, "#112233", got.Design.Theme.Tokens.Colors["primary"])
	assert.Equal(t, "custom-site-theme", got.Design.Theme.ChildThemeName)
}

func TestSynthesizeAIPostTypeMapping(t *testing.T) {
	selected := []models.EnhancedChipOption{
		aiOption("Recipes", &models.StructureMapping{
			PostTypes: []models.PostTypeMapping{
				{Slug: "recipe", Name: "Recipe", Fields: []string{"prep time", "servings"}},
			},
		}, nil),
	}

	got := Synthesize(models.NewWizardAnswers(), selected, nil, nil)

	require.Len(t, got.Content.PostTypes, 1)
	pt := got.Content.PostTypes[0]
	assert.Equal(t, "recipe", pt.Slug)
	require.Len(t, pt.Fields, 2)
	assert.Equal(t, "prep_time", pt.Fields[0].Key)
	assert.Equal(t, "Prep Time", pt.Fields[0].Name)

	// Mapped fields trigger the ACF invariant too.
	require.NotEmpty(t, got.Features.Plugins)
	assert.Equal(t, "advanced-custom-fields", got.Features.Plugins[0].Slug)
}
