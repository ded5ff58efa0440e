package review

import (
	"math"
	"strings"
	"time"
)

// Status tracks a flagged field through the human review workflow. The
// scoring engine only ever writes pending; the four terminal statuses are
// reached through reviewer decisions.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCorrected Status = "corrected"
	StatusRejected  Status = "rejected"
	StatusSkipped   Status = "skipped"
)

// AllStatuses returns every review status.
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusApproved,
		StatusCorrected,
		StatusRejected,
		StatusSkipped,
	}
}

// ValidStatus reports whether s is a known review status.
func ValidStatus(s string) bool {
	for _, st := range AllStatuses() {
		if s == string(st) {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends the review workflow.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusCorrected, StatusRejected, StatusSkipped:
		return true
	}
	return false
}

// DefaultThreshold routes fields to review when confidence falls below it.
const DefaultThreshold = 0.95

// Metadata is the per-field review record. A field at or above the review
// threshold carries only its confidence; everything else stays zero.
type Metadata struct {
	Confidence  float64
	NeedsReview bool
	Reason      Reason
	Notes       string
	Status      Status
	ReviewedBy  string
	ReviewedAt  *time.Time
}

// BuildMetadata assembles the review record for a scored field. The
// stored confidence is rounded to two decimals. When a threshold stricter
// than the classifier's own bound forces review on a field the classifier
// abstained from, the record falls back to low_confidence with no notes.
func BuildMetadata(field, value string, confidence float64, ctx Context, threshold float64) Metadata {
	md := Metadata{Confidence: round2(confidence)}
	if !RequiresReview(confidence, threshold) {
		return md
	}
	md.NeedsReview = true
	md.Status = StatusPending
	reason, ok := DetermineReason(field, value, confidence, ctx)
	if !ok {
		md.Reason = ReasonLowConfidence
		return md
	}
	md.Reason = reason
	md.Notes = ReviewNotes(field, value, reason, ctx)
	return md
}

// ReviewField scores a single field and assembles its review record.
func ReviewField(field, value string, ctx Context, threshold float64) Metadata {
	return BuildMetadata(field, value, CalculateConfidence(field, value, ctx), ctx, threshold)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100 // 2 decimal places
}

// Metadata sits beside its field under underscore-prefixed keys embedding
// the field name, so several leaf fields in one container never collide:
// Number gets _Number_confidence, _Number_needs_review, and so on.
const (
	metaPrefix = "_"

	SuffixConfidence  = "confidence"
	SuffixNeedsReview = "needs_review"
	SuffixReason      = "review_reason"
	SuffixNotes       = "review_notes"
	SuffixStatus      = "review_status"
	SuffixReviewedBy  = "reviewed_by"
	SuffixReviewedAt  = "reviewed_at"
)

var metaSuffixes = []string{
	SuffixConfidence,
	SuffixNeedsReview,
	SuffixReason,
	SuffixNotes,
	SuffixStatus,
	SuffixReviewedBy,
	SuffixReviewedAt,
}

// MetaKey builds the tree key holding one metadata suffix of a field.
func MetaKey(field, suffix string) string {
	return metaPrefix + field + "_" + suffix
}

// IsMetaKey reports whether a tree key belongs to review metadata rather
// than annotation content.
func IsMetaKey(key string) bool {
	return strings.HasPrefix(key, metaPrefix)
}

// SplitMetaKey parses a metadata key back into field name and suffix.
func SplitMetaKey(key string) (field, suffix string, ok bool) {
	if !strings.HasPrefix(key, metaPrefix) {
		return "", "", false
	}
	body := key[len(metaPrefix):]
	for _, s := range metaSuffixes {
		if strings.HasSuffix(body, "_"+s) {
			return body[:len(body)-len(s)-1], s, true
		}
	}
	return "", "", false
}
