package review

// Tier buckets annotation fields by how deterministic their generation is.
type Tier string

const (
	Tier1 Tier = "tier_1" // syntactic, nearly deterministic
	Tier2 Tier = "tier_2" // context-dependent
	Tier3 Tier = "tier_3" // interpretive
)

// AllTiers returns the tiers from most to least deterministic.
func AllTiers() []Tier {
	return []Tier{Tier1, Tier2, Tier3}
}

// defaultBaseConfidence applies to fields the generator has no track
// record for.
const defaultBaseConfidence = 0.75

// baseConfidence is the generator's starting confidence per field, before
// contextual adjustments. Rare grammatical numbers carry their own
// Number-<value> entries.
var baseConfidence = map[string]float64{
	// Syntactic and structural fields.
	"Constituent":             1.00,
	"Part":                    0.99,
	"NounListIndex":           0.99,
	"SemanticComplexityLevel": 1.00,
	"Clusivity":               0.98,
	"Number":                  0.97,
	"Sequence":                0.98,
	"Implicit":                0.98,
	"Relativized":             0.99,
	"Aspect":                  0.98,
	"Discourse Genre":         0.98,

	// Context-dependent discourse fields.
	"Participant Tracking": 0.85,
	"Speaker Demographics": 0.88,
	"Speaker":              0.88,
	"Listener":             0.88,
	"Speaker's Attitude":   0.85,
	"Speaker's Age":        0.82,
	"Speaker-Listener Age": 0.83,
	"Proximity":            0.82,
	"Time":                 0.80,
	"Illocutionary Force":  0.90,
	"Semantic Role":        0.87,
	"Topic NP":             0.86,
	"Polarity":             0.95,
	"Mood":                 0.88,
	"Surface Realization":  0.90,
	"Type":                 0.89,
	"Usage":                0.90,
	"Degree":               0.92,
	"Adjective Degree":     0.98,

	// Rare grammatical numbers.
	"Number-Trial":    0.75,
	"Number-Quadrial": 0.70,

	// Interpretive fields.
	"LexicalSense":         0.65,
	"Vocabulary Alternate": 0.70,
	"Alternative Analysis": 0.60,
	"Rhetorical Question":  0.75,
	"Salience Band":        0.78,
	"Location":             0.80,
	"Implicit Information": 0.72,
}

var fieldTiers = map[string]Tier{
	"Constituent":             Tier1,
	"Part":                    Tier1,
	"NounListIndex":           Tier1,
	"SemanticComplexityLevel": Tier1,
	"Clusivity":               Tier1,
	"Number":                  Tier1,
	"Sequence":                Tier1,
	"Relativized":             Tier1,
	"Aspect":                  Tier1,
	"Discourse Genre":         Tier1,
	"Adjective Degree":        Tier1,
	"Implicit":                Tier1,
	"Polarity":                Tier1,

	"Participant Tracking": Tier2,
	"Speaker":              Tier2,
	"Listener":             Tier2,
	"Speaker's Attitude":   Tier2,
	"Speaker's Age":        Tier2,
	"Speaker-Listener Age": Tier2,
	"Proximity":            Tier2,
	"Time":                 Tier2,
	"Illocutionary Force":  Tier2,
	"Semantic Role":        Tier2,
	"Topic NP":             Tier2,
	"Mood":                 Tier2,
	"Surface Realization":  Tier2,
	"Type":                 Tier2,
	"Usage":                Tier2,
	"Degree":               Tier2,

	"LexicalSense":         Tier3,
	"Vocabulary Alternate": Tier3,
	"Alternative Analysis": Tier3,
	"Rhetorical Question":  Tier3,
	"Salience Band":        Tier3,
	"Location":             Tier3,
	"Implicit Information": Tier3,
}

// rareNumbers are grammatical numbers attested in so few languages that
// every occurrence deserves a second look.
var rareNumbers = map[string]bool{
	"Trial":    true,
	"Quadrial": true,
	"Paucal":   true,
}

// BaseConfidence returns the starting confidence for a field before any
// contextual adjustment. Number with a rare value resolves through the
// value-specific entry.
func BaseConfidence(field, value string) float64 {
	if field == "Number" && rareNumbers[value] {
		if c, ok := baseConfidence["Number-"+value]; ok {
			return c
		}
		return defaultBaseConfidence
	}
	if c, ok := baseConfidence[field]; ok {
		return c
	}
	return defaultBaseConfidence
}

// FeatureTier buckets a field by generation reliability. Unknown fields
// land in tier 2.
func FeatureTier(field string) Tier {
	if t, ok := fieldTiers[field]; ok {
		return t
	}
	return Tier2
}
