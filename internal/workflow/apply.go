package workflow

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/glossa-project/tbta-review/internal/review"
	"github.com/glossa-project/tbta-review/internal/tree"
)

// ApplyToTree records a decision on the flagged field at path inside an
// annotated tree. The path addresses the field itself, for example
// "clauses[0].children[1].Number". Status, reviewer, and timestamp land
// in the field's metadata keys; a corrected decision also replaces the
// field value.
func ApplyToTree(root *tree.Node, path string, d Decision) error {
	if err := d.Validate(); err != nil {
		return err
	}

	node, field, err := tree.Resolve(root, path)
	if err != nil {
		return eris.Wrapf(err, "workflow: resolve %s", path)
	}

	flagged, ok := node.Get(review.MetaKey(field, review.SuffixNeedsReview))
	if !ok {
		return eris.Errorf("workflow: field %s at %s is not flagged for review", field, path)
	}
	if b, _ := flagged.AsBool(); !b {
		return eris.Errorf("workflow: field %s at %s is not flagged for review", field, path)
	}

	current := review.Status(node.Text(review.MetaKey(field, review.SuffixStatus)))
	if err := ValidateTransition(current, d.Status); err != nil {
		return eris.Wrapf(err, "workflow: %s", path)
	}

	decidedAt := d.DecidedAt
	if decidedAt.IsZero() {
		decidedAt = time.Now().UTC()
	}

	node.Set(review.MetaKey(field, review.SuffixStatus), tree.String(string(d.Status)))
	node.Set(review.MetaKey(field, review.SuffixReviewedBy), tree.String(d.ReviewedBy))
	node.Set(review.MetaKey(field, review.SuffixReviewedAt), tree.String(decidedAt.UTC().Format(time.RFC3339)))

	if d.Status == review.StatusCorrected {
		node.Set(field, tree.String(d.CorrectedValue))
	}
	return nil
}
