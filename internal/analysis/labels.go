package analysis

import "strings"

// Tone is the tint applied to a NOVA cell
type Tone string

const (
	ToneGreen  Tone = "green"
	ToneYellow Tone = "yellow"
	ToneOrange Tone = "orange"
	ToneRed    Tone = "red"
	ToneNone   Tone = "none"
)

var novaLabels = map[string]string{
	"1": "1 - Unprocessed",
	"2": "2 - Processed Ingredients",
	"3": "3 - Processed Foods",
	"4": "4 - Ultra-processed",
}

var novaTones = map[string]Tone{
	"1": ToneGreen,
	"2": ToneYellow,
	"3": ToneOrange,
	"4": ToneRed,
}

// NovaLabel maps a NOVA group to its display label. Unknown groups render as
// "Group <v>" and a missing group as "N/A".
func NovaLabel(group *string) string {
	if group == nil {
		return "N/A"
	}
	if label, ok := novaLabels[*group]; ok {
		return label
	}
	return "Group " + *group
}

// NovaTone maps a NOVA group to its cell tint
func NovaTone(group *string) Tone {
	if group == nil {
		return ToneNone
	}
	if tone, ok := novaTones[*group]; ok {
		return tone
	}
	return ToneNone
}

// RiskBadge maps a free-form risk level to the badge text
func RiskBadge(level string) string {
	normalized := strings.ToLower(level)
	switch {
	case strings.Contains(normalized, "low"):
		return "Low Risk"
	case strings.Contains(normalized, "medium"):
		return "Medium Risk"
	case strings.Contains(normalized, "high"):
		return "High Risk"
	default:
		return level
	}
}
