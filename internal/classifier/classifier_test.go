package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedVague bool
		expectedRule  Rule
		expectedFirst string
		expectedSec   string
	}{
		{
			name:          "short input",
			input:         "eggs",
			expectedVague: true,
			expectedRule:  RuleTooShort,
			expectedFirst: "brand name",
			expectedSec:   "specific type",
		},
		{
			name:          "generic category caught by length first",
			input:         "cereal",
			expectedVague: true,
			expectedRule:  RuleTooShort,
			expectedFirst: "brand name",
			expectedSec:   "specific type",
		},
		{
			name:          "single long-ish token",
			input:         "snackfoodproduct",
			expectedVague: true,
			expectedRule:  RuleSingleShortToken,
			expectedFirst: "brand name",
			expectedSec:   "specific variety",
		},
		{
			name:          "two plain words without signals",
			input:         "chicken nuggets",
			expectedVague: true,
			expectedRule:  RuleNoSpecificity,
			expectedFirst: "brand name",
			expectedSec:   "specific variety",
		},
		{
			name:          "possessive brand with three tokens",
			input:         "Cap'n Crunch Original",
			expectedVague: false,
		},
		{
			name:          "possessive brand with two tokens",
			input:         "Kellogg's Cornflakes",
			expectedVague: false,
		},
		{
			name:          "descriptive term",
			input:         "organic milk",
			expectedVague: false,
		},
		{
			name:          "descriptive term is case-insensitive",
			input:         "LOW sodium",
			expectedVague: false,
		},
		{
			name:          "three tokens",
			input:         "bacon, lettuce, tomato",
			expectedVague: false,
		},
		{
			name:          "contains digit",
			input:         "cola 330ml",
			expectedVague: false,
		},
		{
			name:          "long single token without signals",
			input:         "supercalifragilisticexpialidocious",
			expectedVague: true,
			expectedRule:  RuleNoSpecificity,
			expectedFirst: "brand name",
			expectedSec:   "specific variety",
		},
		{
			name:          "long single token with digit",
			input:         "multigrainloaf12grains",
			expectedVague: false,
		},
		{
			name:          "surrounding whitespace is trimmed",
			input:         "   eggs    ",
			expectedVague: true,
			expectedRule:  RuleTooShort,
			expectedFirst: "brand name",
			expectedSec:   "specific type",
		},
		{
			name:          "descriptive term must be a whole word",
			input:         "snowy peaches",
			expectedVague: true,
			expectedRule:  RuleNoSpecificity,
			expectedFirst: "brand name",
			expectedSec:   "specific variety",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Classify(tt.input)

			assert.Equal(t, tt.expectedVague, verdict.IsVague)
			if !tt.expectedVague {
				assert.Equal(t, RuleNone, verdict.Rule)
				return
			}

			assert.Equal(t, tt.expectedRule, verdict.Rule)
			first, second := verdict.Primary()
			assert.Equal(t, tt.expectedFirst, first)
			assert.Equal(t, tt.expectedSec, second)
		})
	}
}

func TestClassify_RuneLength(t *testing.T) {
	// nine runes, more than ten bytes
	assert.Equal(t, RuleTooShort, Classify("crème brû").Rule)
}

func TestClassify_SuggestionsAreCopies(t *testing.T) {
	v := Classify("eggs")
	v.Suggestions[0] = "mutated"

	assert.Equal(t, "brand name", Classify("eggs").Suggestions[0])
}

func TestVerdict_Primary(t *testing.T) {
	first, second := Verdict{}.Primary()
	assert.Empty(t, first)
	assert.Empty(t, second)

	first, second = Verdict{Suggestions: []string{"only"}}.Primary()
	assert.Equal(t, "only", first)
	assert.Empty(t, second)
}
