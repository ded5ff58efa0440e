package review

import "strings"

// Reason classifies why a field needs human review. The string values
// appear verbatim in annotated YAML, reports, and summary breakdowns.
type Reason string

const (
	ReasonLowConfidence  Reason = "low_confidence"
	ReasonTheological    Reason = "theological_interpretation"
	ReasonCultural       Reason = "cultural_context"
	ReasonAmbiguousRef   Reason = "ambiguous_reference"
	ReasonTemporal       Reason = "temporal_ambiguity"
	ReasonMultipleValid  Reason = "multiple_valid_interpretations"
	ReasonRareFeature    Reason = "rare_feature"
	ReasonMissingContext Reason = "missing_context"
	ReasonEdgeCase       Reason = "edge_case"
	ReasonCorpusMismatch Reason = "corpus_mismatch"
)

// AllReasons returns every review reason.
func AllReasons() []Reason {
	return []Reason{
		ReasonLowConfidence,
		ReasonTheological,
		ReasonCultural,
		ReasonAmbiguousRef,
		ReasonTemporal,
		ReasonMultipleValid,
		ReasonRareFeature,
		ReasonMissingContext,
		ReasonEdgeCase,
		ReasonCorpusMismatch,
	}
}

// ValidReason reports whether s is a known review reason.
func ValidReason(s string) bool {
	for _, r := range AllReasons() {
		if s == string(r) {
			return true
		}
	}
	return false
}

// noReviewConfidence is the classifier's own bound: at or above it a
// field never routes to review, independent of the configured threshold.
const noReviewConfidence = 0.95

// DetermineReason classifies why a field needs review. Rules are checked
// in priority order and the first match wins. ok is false when the
// confidence clears the no-review bound.
func DetermineReason(field, value string, confidence float64, ctx Context) (Reason, bool) {
	if confidence >= noReviewConfidence {
		return "", false
	}

	// Theological interpretation, or a rare number outside the known
	// theological passages.
	if field == "Number" && (value == "Trial" || value == "Quadrial") {
		if strings.Contains(ctx.String("verse_ref"), "GEN.001.026") {
			return ReasonTheological, true
		}
		return ReasonRareFeature, true
	}
	if field == "Person" && value == "First Inclusive" && ctx.Bool("theological_content") {
		return ReasonTheological, true
	}

	// Alternates the generator itself proposed.
	if field == "Alternative Analysis" || field == "Vocabulary Alternate" {
		return ReasonMultipleValid, true
	}

	// Speaker demographics.
	if field == "Speaker's Age" || field == "Speaker-Listener Age" {
		if !ctx.Bool("speaker_clear") {
			return ReasonMissingContext, true
		}
		return ReasonCultural, true
	}
	if field == "Speaker's Attitude" {
		return ReasonCultural, true
	}

	// Unclear reference.
	if field == "Participant Tracking" && !ctx.Bool("antecedent_clear") {
		return ReasonAmbiguousRef, true
	}
	if field == "NounListIndex" && ctx.Bool("multiple_antecedents") {
		return ReasonAmbiguousRef, true
	}
	if field == "Proximity" && !ctx.Bool("spatial_context_clear") {
		return ReasonAmbiguousRef, true
	}

	// Boundary time references without a clear chronology.
	if field == "Time" && !ctx.Bool("chronology_clear") {
		switch value {
		case "Earlier Today", "Yesterday", "A Week Ago":
			return ReasonTemporal, true
		}
	}

	// Pragmatic edge cases.
	if field == "Rhetorical Question" {
		return ReasonEdgeCase, true
	}
	if field == "Illocutionary Force" && ctx.Bool("indirect_speech_act") {
		return ReasonEdgeCase, true
	}

	// Sense assignment always needs a lexicon check.
	if field == "LexicalSense" {
		return ReasonLowConfidence, true
	}

	// Dialogue participants without marked dialogue.
	if (field == "Speaker" || field == "Listener") && !ctx.Bool("has_dialogue") {
		return ReasonMissingContext, true
	}

	// Corpus disagreement.
	if ctx.Bool("corpus_mismatch") {
		return ReasonCorpusMismatch, true
	}

	// Any remaining rare number value.
	if rareNumbers[value] {
		return ReasonRareFeature, true
	}

	return ReasonLowConfidence, true
}
