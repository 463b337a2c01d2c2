// internal/wizard/options/base_options.go
package options

import "sitewizard/internal/models"

// baseOptions are the static chips shown for each fixed wizard question
// before any AI enhancement arrives. Values are the dedup keys for merging.
var baseOptions = map[models.QuestionKey][]models.EnhancedChipOption{
	models.QuestionSitePurpose: {
		{ID: "base-purpose-blog", Label: "Share articles and news", Value: "blog", Source: models.OptionSourceBase},
		{ID: "base-purpose-business", Label: "Present my business", Value: "business", Source: models.OptionSourceBase},
		{ID: "base-purpose-store", Label: "Sell products online", Value: "store", Source: models.OptionSourceBase},
		{ID: "base-purpose-portfolio", Label: "Show my work", Value: "portfolio", Source: models.OptionSourceBase},
		{ID: "base-purpose-community", Label: "Build a community", Value: "community", Source: models.OptionSourceBase},
	},
	models.QuestionContentCreators: {
		{ID: "base-creators-me", Label: "Just me", Value: "just-me", Source: models.OptionSourceBase},
		{ID: "base-creators-team", Label: "A small team", Value: "team", Source: models.OptionSourceBase},
		{ID: "base-creators-contributors", Label: "Invited contributors", Value: "contributors", Source: models.OptionSourceBase},
		{ID: "base-creators-members", Label: "Registered members", Value: "members", Source: models.OptionSourceBase},
	},
	models.QuestionVisitorActions: {
		{ID: "base-actions-read", Label: "Read content", Value: "read", Source: models.OptionSourceBase},
		{ID: "base-actions-contact", Label: "Contact me", Value: "contact", Source: models.OptionSourceBase},
		{ID: "base-actions-buy", Label: "Buy something", Value: "buy", Source: models.OptionSourceBase},
		{ID: "base-actions-subscribe", Label: "Subscribe to updates", Value: "subscribe", Source: models.OptionSourceBase},
		{ID: "base-actions-book", Label: "Book an appointment", Value: "book", Source: models.OptionSourceBase},
	},
	models.QuestionRequiredPages: {
		{ID: "base-pages-about", Label: "About", Value: "about", Source: models.OptionSourceBase},
		{ID: "base-pages-contact", Label: "Contact", Value: "contact", Source: models.OptionSourceBase},
		{ID: "base-pages-services", Label: "Services", Value: "services", Source: models.OptionSourceBase},
		{ID: "base-pages-faq", Label: "FAQ", Value: "faq", Source: models.OptionSourceBase},
		{ID: "base-pages-blog", Label: "Blog", Value: "blog", Source: models.OptionSourceBase},
	},
	models.QuestionDesignStyle: {
		{ID: "base-style-minimal", Label: "Minimal and clean", Value: "minimal", Source: models.OptionSourceBase},
		{ID: "base-style-bold", Label: "Bold and colorful", Value: "bold", Source: models.OptionSourceBase},
		{ID: "base-style-classic", Label: "Classic and serious", Value: "classic", Source: models.OptionSourceBase},
		{ID: "base-style-playful", Label: "Playful and friendly", Value: "playful", Source: models.OptionSourceBase},
	},
}

// BaseOptions returns a copy of the static chips for one question.
func BaseOptions(question models.QuestionKey) []models.EnhancedChipOption {
	src := baseOptions[question]
	out := make([]models.EnhancedChipOption, len(src))
	copy(out, src)
	return out
}
