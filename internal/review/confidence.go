package review

import (
	"math"
	"strings"
)

// Adjustment magnitudes stacked onto base confidence. Every matching
// adjustment applies; the sum is clamped to [0, 1].
const (
	adjTheological    = -0.20
	adjCultural       = -0.15
	adjAmbiguous      = -0.15
	adjMissingContext = -0.10
	adjRareFeature    = -0.10
	adjEdgeCase       = -0.12

	boostCorpusValidated = 0.05
	boostClearContext    = 0.05
)

// CalculateConfidence scores one field: base confidence plus every
// matching contextual adjustment. Adjustments are additive, so their
// order never affects the result.
func CalculateConfidence(field, value string, ctx Context) float64 {
	confidence := BaseConfidence(field, value)

	// Theological interpretation required.
	if (field == "Number" || field == "Person") &&
		(value == "Trial" || value == "First Inclusive") &&
		strings.Contains(ctx.String("verse_ref"), "GEN.001.026") {
		confidence += adjTheological
	}

	// Speaker demographics unclear.
	switch field {
	case "Speaker's Age", "Speaker-Listener Age", "Speaker's Attitude":
		if !ctx.Bool("speaker_clear") {
			confidence += adjMissingContext
		}
		if !ctx.Bool("has_dialogue") {
			confidence += adjCultural
		}
	}

	// Ambiguous antecedent.
	if field == "Participant Tracking" || field == "NounListIndex" {
		if !ctx.Bool("antecedent_clear") {
			confidence += adjAmbiguous
		}
	}

	// Time granularity unclear; boundary values also need a clear
	// chronology.
	if field == "Time" {
		if !ctx.Bool("temporal_markers") {
			confidence += adjAmbiguous
		}
		switch value {
		case "Earlier Today", "A Week Ago", "A Month Ago":
			if !ctx.Bool("chronology_clear") {
				confidence += adjAmbiguous
			}
		}
	}

	// Rare grammatical feature.
	if rareNumbers[value] {
		confidence += adjRareFeature
	}

	// Spatial deixis unclear.
	if field == "Proximity" && !ctx.Bool("spatial_context_clear") {
		confidence += adjAmbiguous
	}

	// Illocutionary force edge cases.
	if field == "Illocutionary Force" {
		if value == "Rhetorical Question" {
			confidence += adjEdgeCase
		}
		if ctx.Bool("indirect_speech_act") {
			confidence += adjAmbiguous
		}
	}

	// Boosts for validated or unambiguous context.
	if ctx.Bool("corpus_validated") {
		confidence += boostCorpusValidated
	}
	if ctx.Bool("clear_context") {
		confidence += boostClearContext
	}

	return clamp(confidence)
}

func clamp(c float64) float64 {
	return math.Max(0, math.Min(1, c))
}

// RequiresReview reports whether a confidence falls below the review
// threshold.
func RequiresReview(confidence, threshold float64) bool {
	return confidence < threshold
}

// Category labels confidence bands for reporting.
type Category string

const (
	CategoryHigh    Category = "high"   // >= 0.95
	CategoryMedium  Category = "medium" // >= 0.80
	CategoryLow     Category = "low"    // >= 0.60
	CategoryVeryLow Category = "very_low"
)

// ConfidenceCategory buckets a confidence value for display.
func ConfidenceCategory(confidence float64) Category {
	switch {
	case confidence >= 0.95:
		return CategoryHigh
	case confidence >= 0.80:
		return CategoryMedium
	case confidence >= 0.60:
		return CategoryLow
	default:
		return CategoryVeryLow
	}
}
