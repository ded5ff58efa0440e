// Package workflow applies reviewer decisions to flagged annotation
// fields, both in stored review items and in annotated trees.
package workflow

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/glossa-project/tbta-review/internal/review"
)

// Decision records a reviewer's verdict on a flagged field.
type Decision struct {
	Status         review.Status `json:"status"`
	ReviewedBy     string        `json:"reviewed_by"`
	CorrectedValue string        `json:"corrected_value,omitempty"`
	DecidedAt      time.Time     `json:"decided_at"`
}

// Validate checks that the decision is well formed: a terminal status,
// a named reviewer, and a replacement value if and only if the field is
// being corrected.
func (d Decision) Validate() error {
	if !review.ValidStatus(string(d.Status)) {
		return eris.Errorf("workflow: unknown status %q", d.Status)
	}
	if !d.Status.Terminal() {
		return eris.Errorf("workflow: status %q is not a decision", d.Status)
	}
	if d.ReviewedBy == "" {
		return eris.New("workflow: reviewed_by is required")
	}
	if d.Status == review.StatusCorrected && d.CorrectedValue == "" {
		return eris.New("workflow: corrected decision requires a corrected value")
	}
	if d.Status != review.StatusCorrected && d.CorrectedValue != "" {
		return eris.Errorf("workflow: corrected value not allowed for status %q", d.Status)
	}
	return nil
}

// ValidateTransition checks that a status change is legal. Flagged
// fields start pending and move to exactly one terminal status; once
// decided they stay decided.
func ValidateTransition(from, to review.Status) error {
	if from != review.StatusPending {
		return eris.Errorf("workflow: cannot transition from %q, already decided", from)
	}
	if !to.Terminal() {
		return eris.Errorf("workflow: cannot transition to %q", to)
	}
	return nil
}
