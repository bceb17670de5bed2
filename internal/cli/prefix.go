// Package cli provides terminal infrastructure for verso.
package cli

import (
	"fmt"
	"strings"
)

// normalizeChoice folds case and treats spaces and underscores as hyphens,
// so "Whole Bean" and "whole_bean" both name "whole-bean".
func normalizeChoice(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "-", "_", "-").Replace(s)
}

// MatchChoice finds a unique choice from an abbreviation.
// kind names the choice in error messages, e.g. "size" or "grind".
// Returns the matched choice or an error if ambiguous or no match.
func MatchChoice(kind, input string, choices []string) (string, error) {
	want := normalizeChoice(input)
	if want == "" {
		return "", &ArgError{Arg: kind, Value: input, Message: "must not be empty"}
	}

	// First check for exact match
	for _, c := range choices {
		if normalizeChoice(c) == want {
			return c, nil
		}
	}

	// Check for prefix match
	var matches []string
	for _, c := range choices {
		if strings.HasPrefix(normalizeChoice(c), want) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return "", &ArgError{
			Arg:     kind,
			Value:   input,
			Message: fmt.Sprintf("expected one of %s", strings.Join(choices, ", ")),
		}
	case 1:
		return matches[0], nil
	default:
		return "", &ArgError{
			Arg:     kind,
			Value:   input,
			Message: fmt.Sprintf("ambiguous, matches %s", strings.Join(matches, ", ")),
		}
	}
}
