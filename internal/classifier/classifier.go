// Package classifier flags ingredient input that is unlikely to produce a
// useful analysis. The rules are cheap front-line heuristics; the scoring
// backend stays the authority on whether input is analyzable.
package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule identifies which heuristic produced a verdict
type Rule int

const (
	RuleNone Rule = iota
	RuleTooShort
	RuleSingleShortToken
	RuleGenericCategory
	RuleNoSpecificity
)

var (
	typeSuggestions    = []string{"brand name", "specific type", "ingredients list"}
	varietySuggestions = []string{"brand name", "specific variety", "ingredients"}

	genericCategory = regexp.MustCompile(`(?i)^(cereal|bread|meat|cheese|fruit|vegetable|snack|drink|beverage|food|item|product|ingredient)$`)
	possessiveBrand = regexp.MustCompile(`[A-Z][A-Za-z]*['’]s\b`)
	digit           = regexp.MustCompile(`[0-9]`)
	descriptiveTerm = regexp.MustCompile(`(?i)\b(organic|natural|whole|reduced|low|high|free|no)\b`)
)

// Verdict is the classifier output
type Verdict struct {
	IsVague     bool     `json:"is_vague"`
	Suggestions []string `json:"suggestions"`
	Rule        Rule     `json:"rule"`
}

// Primary returns the first two suggestions, which are the ones shown to users
func (v Verdict) Primary() (string, string) {
	var first, second string
	if len(v.Suggestions) > 0 {
		first = v.Suggestions[0]
	}
	if len(v.Suggestions) > 1 {
		second = v.Suggestions[1]
	}
	return first, second
}

// Classify labels input as vague or not. Rules apply in order and the first match wins.
func Classify(input string) Verdict {
	s := strings.TrimSpace(input)
	length := utf8.RuneCountInString(s)
	tokens := len(strings.Fields(s))

	switch {
	case length < 10:
		return vague(RuleTooShort, typeSuggestions)
	case tokens == 1 && length < 20:
		return vague(RuleSingleShortToken, varietySuggestions)
	case genericCategory.MatchString(s):
		return vague(RuleGenericCategory, typeSuggestions)
	case !hasSpecificity(s, tokens) && tokens <= 2:
		return vague(RuleNoSpecificity, varietySuggestions)
	}

	return Verdict{Suggestions: defaultSuggestions(typeSuggestions)}
}

// hasSpecificity reports whether any signal suggests the input names a concrete product
func hasSpecificity(s string, tokens int) bool {
	return possessiveBrand.MatchString(s) ||
		tokens >= 3 ||
		digit.MatchString(s) ||
		descriptiveTerm.MatchString(s)
}

func vague(rule Rule, suggestions []string) Verdict {
	return Verdict{IsVague: true, Suggestions: defaultSuggestions(suggestions), Rule: rule}
}

func defaultSuggestions(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
