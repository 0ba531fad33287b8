package service

import (
	"fmt"
	"slices"
)

var defaultSuggestions = []string{
	"What's the PTO policy for this year?",
	"How do I submit an expense report?",
	"Where can I find client onboarding templates?",
	"What are the healthcare enrollment deadlines?",
}

// SuggestionsFor returns follow-up prompts for a conversation in the project
// named projectName, or the general prompts when projectName is empty.
func SuggestionsFor(projectName string) []string {
	if projectName == "" {
		return slices.Clone(defaultSuggestions)
	}
	name := projectName
	return []string{
		fmt.Sprintf("What files are in the %s project?", name),
		fmt.Sprintf("Add a new file to %s", name),
		fmt.Sprintf("What conversations are related to %s?", name),
		fmt.Sprintf("How can I organize %s better?", name),
	}
}
