package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineReason_AbstainsAtHighConfidence(t *testing.T) {
	_, ok := DetermineReason("Part", "Noun", 0.99, nil)
	assert.False(t, ok)

	// The bound is inclusive.
	_, ok = DetermineReason("Part", "Noun", 0.95, nil)
	assert.False(t, ok)

	_, ok = DetermineReason("Part", "Noun", 0.9499, nil)
	assert.True(t, ok)
}

func TestDetermineReason_TheologicalBeatsRareFeature(t *testing.T) {
	reason, ok := DetermineReason("Number", "Trial", 0.45, theologicalContext())
	require.True(t, ok)
	assert.Equal(t, ReasonTheological, reason)

	// Same value outside the flagged passage is merely rare.
	reason, ok = DetermineReason("Number", "Trial", 0.65, Context{})
	require.True(t, ok)
	assert.Equal(t, ReasonRareFeature, reason)

	reason, ok = DetermineReason("Number", "Quadrial", 0.60, theologicalContext())
	require.True(t, ok)
	assert.Equal(t, ReasonTheological, reason)
}

func TestDetermineReason_FirstInclusive(t *testing.T) {
	reason, ok := DetermineReason("Person", "First Inclusive", 0.55, Context{"theological_content": true})
	require.True(t, ok)
	assert.Equal(t, ReasonTheological, reason)

	// Without the theological flag nothing else matches First Inclusive.
	reason, ok = DetermineReason("Person", "First Inclusive", 0.55, Context{})
	require.True(t, ok)
	assert.Equal(t, ReasonLowConfidence, reason)
}

func TestDetermineReason_GeneratorAlternates(t *testing.T) {
	reason, ok := DetermineReason("Alternative Analysis", "clause-2", 0.60, nil)
	require.True(t, ok)
	assert.Equal(t, ReasonMultipleValid, reason)

	reason, ok = DetermineReason("Vocabulary Alternate", "simple", 0.70, nil)
	require.True(t, ok)
	assert.Equal(t, ReasonMultipleValid, reason)
}

func TestDetermineReason_SpeakerDemographics(t *testing.T) {
	// Unclear speaker takes priority over the cultural reading.
	reason, ok := DetermineReason("Speaker's Age", "Adult", 0.57, Context{"speaker_clear": false})
	require.True(t, ok)
	assert.Equal(t, ReasonMissingContext, reason)

	reason, ok = DetermineReason("Speaker's Age", "Adult", 0.67, Context{"speaker_clear": true})
	require.True(t, ok)
	assert.Equal(t, ReasonCultural, reason)

	reason, ok = DetermineReason("Speaker's Attitude", "Pleased", 0.60, Context{"speaker_clear": true})
	require.True(t, ok)
	assert.Equal(t, ReasonCultural, reason)
}

func TestDetermineReason_AmbiguousReference(t *testing.T) {
	cases := []struct {
		field string
		value string
		ctx   Context
	}{
		{"Participant Tracking", "Routine", Context{}},
		{"NounListIndex", "2", Context{"multiple_antecedents": true}},
		{"Proximity", "Near Speaker", Context{}},
	}
	for _, tc := range cases {
		reason, ok := DetermineReason(tc.field, tc.value, 0.70, tc.ctx)
		require.True(t, ok, tc.field)
		assert.Equal(t, ReasonAmbiguousRef, reason, tc.field)
	}

	// A tracked participant with a clear antecedent falls through.
	reason, ok := DetermineReason("Participant Tracking", "Routine", 0.85, Context{"antecedent_clear": true})
	require.True(t, ok)
	assert.Equal(t, ReasonLowConfidence, reason)
}

func TestDetermineReason_TemporalBoundaries(t *testing.T) {
	for _, value := range []string{"Earlier Today", "Yesterday", "A Week Ago"} {
		reason, ok := DetermineReason("Time", value, 0.50, Context{})
		require.True(t, ok, value)
		assert.Equal(t, ReasonTemporal, reason, value)
	}

	// The classifier's boundary set differs from the calculator's: a
	// month back is not in it.
	reason, ok := DetermineReason("Time", "A Month Ago", 0.50, Context{})
	require.True(t, ok)
	assert.Equal(t, ReasonLowConfidence, reason)

	// A clear chronology defuses the boundary.
	reason, ok = DetermineReason("Time", "Yesterday", 0.80, Context{"chronology_clear": true})
	require.True(t, ok)
	assert.Equal(t, ReasonLowConfidence, reason)
}

func TestDetermineReason_EdgeCases(t *testing.T) {
	reason, ok := DetermineReason("Rhetorical Question", "Yes-No", 0.75, nil)
	require.True(t, ok)
	assert.Equal(t, ReasonEdgeCase, reason)

	reason, ok = DetermineReason("Illocutionary Force", "Suggestion", 0.75, Context{"indirect_speech_act": true})
	require.True(t, ok)
	assert.Equal(t, ReasonEdgeCase, reason)

	reason, ok = DetermineReason("Illocutionary Force", "Suggestion", 0.90, Context{})
	require.True(t, ok)
	assert.Equal(t, ReasonLowConfidence, reason)
}

func TestDetermineReason_LexicalSenseBeatsCorpusMismatch(t *testing.T) {
	reason, ok := DetermineReason("LexicalSense", "make-A", 0.65, Context{"corpus_mismatch": true})
	require.True(t, ok)
	assert.Equal(t, ReasonLowConfidence, reason)
}

func TestDetermineReason_DialogueParticipants(t *testing.T) {
	reason, ok := DetermineReason("Speaker", "God", 0.73, Context{})
	require.True(t, ok)
	assert.Equal(t, ReasonMissingContext, reason)

	// With dialogue marked, the corpus signal gets its turn.
	reason, ok = DetermineReason("Speaker", "God", 0.73, Context{
		"has_dialogue":    true,
		"corpus_mismatch": true,
	})
	require.True(t, ok)
	assert.Equal(t, ReasonCorpusMismatch, reason)
}

func TestDetermineReason_CorpusMismatch(t *testing.T) {
	reason, ok := DetermineReason("Aspect", "Perfective", 0.90, Context{"corpus_mismatch": true})
	require.True(t, ok)
	assert.Equal(t, ReasonCorpusMismatch, reason)
}

func TestDetermineReason_RareValueFallback(t *testing.T) {
	// Rare values on fields outside the Number rule land in the generic
	// rare-feature bucket.
	reason, ok := DetermineReason("Clusivity", "Trial", 0.88, Context{})
	require.True(t, ok)
	assert.Equal(t, ReasonRareFeature, reason)

	reason, ok = DetermineReason("Number", "Paucal", 0.65, Context{})
	require.True(t, ok)
	assert.Equal(t, ReasonRareFeature, reason)
}

func TestDetermineReason_Fallback(t *testing.T) {
	reason, ok := DetermineReason("Mood", "Indicative", 0.88, Context{})
	require.True(t, ok)
	assert.Equal(t, ReasonLowConfidence, reason)

	// The fallback holds even above the 0.80 band.
	reason, ok = DetermineReason("Degree", "Comparative", 0.92, Context{})
	require.True(t, ok)
	assert.Equal(t, ReasonLowConfidence, reason)
}

func TestValidReason(t *testing.T) {
	assert.True(t, ValidReason("theological_interpretation"))
	assert.True(t, ValidReason("rare_feature"))
	assert.False(t, ValidReason("Theological"))
	assert.False(t, ValidReason(""))
}
