package review

import "strings"

// defaultNote is the last-resort template when a reason has no matching
// entry.
const defaultNote = "Review needed for {field_name} = {field_value}."

// noteTemplates holds reviewer guidance per reason. Lookup tries the
// exact "<field>-<value>" key, then the field name, then the reason's
// default entry. Placeholders expand from the field and context.
var noteTemplates = map[Reason]map[string]string{
	ReasonTheological: {
		"Number-Trial":           "Trial number (exactly 3) in {verse_ref} assumes Trinity interpretation of 'Let us make'. Alternative interpretations: pluralis maiestatis (royal we) or divine council. Verify with theological commentary and original language analysis.",
		"Person-First Inclusive": "First Inclusive in {verse_ref} assumes Trinity members addressing each other (all included). Depends on Trial number interpretation and theological framework.",
		"default":                "This field requires theological interpretation. Verify with theological commentary for {verse_ref}.",
	},
	ReasonCultural: {
		"Speaker's Age":        "Age estimate '{field_value}' is based on narrative context. Cultural and historical context may affect age category assignment. Verify with broader narrative analysis.",
		"Speaker's Attitude":   "Attitude '{field_value}' is based on tone and word choice. Cultural norms for expressing {field_value_lower} may vary. Verify appropriateness for target languages.",
		"Speaker-Listener Age": "Relative age '{field_value}' may affect honorific language choice. Verify speaker and listener identities from narrative context.",
		"default":              "This field depends on cultural context. Verify interpretation for {verse_ref}.",
	},
	ReasonAmbiguousRef: {
		"Participant Tracking": "Participant tracking '{field_value}' assignment unclear. Multiple possible antecedents or unclear discourse flow. Check entity tracking across verse boundaries.",
		"NounListIndex":        "Entity reference unclear. {ambiguity_note}. Verify discourse entity tracking.",
		"Proximity":            "Proximity '{field_value}' unclear from context. Spatial or temporal reference may be ambiguous. Check narrative perspective and deixis.",
		"default":              "Reference is ambiguous. Verify intended referent from discourse context.",
	},
	ReasonTemporal: {
		"Time":    "Time reference '{field_value}' is on a boundary case. Narrative chronology may need verification. Check for temporal markers in surrounding context.",
		"default": "Temporal reference is ambiguous. Verify timing from narrative context.",
	},
	ReasonMultipleValid: {
		"Alternative Analysis": "Multiple valid linguistic analyses exist for this clause. TBTA provides alternatives: {field_value}. Choose based on target language requirements.",
		"Vocabulary Alternate": "TBTA provides {field_value} for different complexity levels. Choose based on target audience (simple vocabulary for oral contexts, complex for literate audiences).",
		"default":              "Multiple valid interpretations exist. Choose based on translation goals and target language.",
	},
	ReasonRareFeature: {
		"Number-Trial":    "Trial number is rare (found in <10 languages). Verify count is exactly 3 entities, not generic plural. Languages with trial: Kilivila, Larike, Marshallese, Biak, etc.",
		"Number-Quadrial": "Quadrial number is very rare. Verify count is exactly 4 entities. Languages with quadrial: Sursurunga, Marshallese.",
		"Number-Paucal":   "Paucal number ('a few', typically 3-5) is rare. Verify count is small but plural. Languages with paucal: Murrinh-patha, Lihir, Sursurunga.",
		"default":         "Rare feature: {field_name} = {field_value}. Verify usage is appropriate and not an error.",
	},
	ReasonMissingContext: {
		"Speaker's Age":        "Speaker age '{field_value}' cannot be determined from immediate context. Check broader narrative for speaker identity and life stage.",
		"Speaker-Listener Age": "Relative age '{field_value}' unclear from context. Verify speaker and listener identities, then determine age relationship.",
		"Speaker":              "Speaker identity '{field_value}' unclear. Verify from dialogue markers and narrative context.",
		"Listener":             "Listener identity '{field_value}' unclear. Verify from dialogue markers and narrative context.",
		"default":              "Insufficient context to determine {field_name}. Verify from broader discourse context.",
	},
	ReasonEdgeCase: {
		"Rhetorical Question": "Rhetorical question with value '{field_value}'. Verify pragmatic interpretation and expected answer.",
		"Illocutionary Force": "Speech act '{field_value}' may be indirect. Verify illocutionary force from context and pragmatic interpretation.",
		"default":             "Edge case detected for {field_name} = {field_value}. Verify interpretation.",
	},
	ReasonCorpusMismatch: {
		"default": "eBible corpus translations use unexpected form. {corpus_note}.",
	},
	ReasonLowConfidence: {
		"LexicalSense": "Lexical sense '{field_value}' requires sense-distinguished lexicon. Verify sense assignment with lexicographical resources.",
		"default":      "Low confidence ({confidence}) for {field_name} = {field_value}. Verify from source data and context.",
	},
}

// ReviewNotes renders reviewer guidance for a field flagged with reason.
func ReviewNotes(field, value string, reason Reason, ctx Context) string {
	templates := noteTemplates[reason]
	tmpl, ok := templates[field+"-"+value]
	if !ok {
		tmpl, ok = templates[field]
	}
	if !ok {
		tmpl, ok = templates["default"]
	}
	if !ok {
		tmpl = defaultNote
	}
	return expandNote(tmpl, field, value, ctx)
}

func expandNote(tmpl, field, value string, ctx Context) string {
	r := strings.NewReplacer(
		"{field_name}", field,
		"{field_value}", value,
		"{field_value_lower}", strings.ToLower(value),
		"{verse_ref}", ctx.String("verse_ref"),
		"{ambiguity_note}", ctx.Text("ambiguity_note", "Multiple possible referents"),
		"{corpus_note}", ctx.Text("corpus_note", "Verify expected usage pattern"),
		"{confidence}", ctx.Text("confidence", "N/A"),
	)
	return r.Replace(tmpl)
}
