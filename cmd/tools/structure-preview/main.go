// cmd/tools/structure-preview/main.go

// structure-preview synthesizes a site structure from a wizard-state JSON
// file and prints the result, so the deterministic rules can be inspected
// without running a session.
//
// Usage:
//
//	structure-preview -input wizard-state.json
//	structure-preview -input wizard-state.json -section features
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"sitewizard/internal/models"
	"sitewizard/internal/wizard/synthesis"
)

type wizardState struct {
	Answers     *models.WizardAnswers         `json:"answers"`
	Selected    []models.EnhancedChipOption   `json:"selected,omitempty"`
	Accumulated []models.PluginRecommendation `json:"accumulated,omitempty"`
	Figma       *models.FigmaAnalysis         `json:"figma,omitempty"`
}

func main() {
	input := flag.String("input", "", "Path to wizard-state JSON file")
	section := flag.String("section", "", "Print only one section: content, design, or features")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: -input is required")
		flag.Usage()
		os.Exit(1)
	}

	raw, err := os.ReadFile(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *input, err)
		os.Exit(1)
	}

	var state wizardState
	if err := json.Unmarshal(raw, &state); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", *input, err)
		os.Exit(1)
	}
	if state.Answers == nil {
		state.Answers = models.NewWizardAnswers()
	}

	structure := synthesis.Synthesize(state.Answers, state.Selected, state.Accumulated, state.Figma)

	var out interface{} = structure
	switch *section {
	case "":
	case "content":
		out = structure.Content
	case "design":
		out = structure.Design
	case "features":
		out = structure.Features
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown section %q\n", *section)
		os.Exit(1)
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(encoded))
}
