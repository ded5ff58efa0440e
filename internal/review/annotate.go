package review

import (
	"github.com/glossa-project/tbta-review/internal/tree"
)

// DefaultSkipFields are the structural keys an annotator never treats as
// leaf annotations.
func DefaultSkipFields() []string {
	return []string{"children", "clauses", "verse", "source", "version"}
}

// Annotator decorates annotation trees with per-field review metadata.
type Annotator struct {
	threshold  float64
	skipFields map[string]bool
}

// NewAnnotator builds an annotator. A non-positive threshold falls back
// to DefaultThreshold and an empty skip list to DefaultSkipFields.
func NewAnnotator(threshold float64, skipFields []string) *Annotator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if len(skipFields) == 0 {
		skipFields = DefaultSkipFields()
	}
	skip := make(map[string]bool, len(skipFields))
	for _, f := range skipFields {
		skip[f] = true
	}
	return &Annotator{threshold: threshold, skipFields: skip}
}

// Threshold returns the review threshold the annotator scores against.
func (a *Annotator) Threshold() float64 { return a.threshold }

// Annotate returns a copy of root with review metadata beside every leaf
// field. The input tree is never modified. Underscore-prefixed keys pass
// through untouched, so annotating an already-annotated tree changes
// nothing and reviewer decisions recorded in the tree survive a re-run.
func (a *Annotator) Annotate(root *tree.Node, ctx Context) *tree.Node {
	if root == nil {
		return tree.NewNode()
	}
	return a.annotateNode(root, ctx)
}

func (a *Annotator) annotateNode(n *tree.Node, ctx Context) *tree.Node {
	out := tree.NewNode()
	for _, key := range n.Keys() {
		v, _ := n.Get(key)

		// Metadata from an earlier pass stays as-is.
		if IsMetaKey(key) {
			out.Set(key, v)
			continue
		}

		if a.skipFields[key] {
			if (key == "children" || key == "clauses") && v.Kind() == tree.KindList {
				out.Set(key, a.annotateList(v.List(), ctx))
			} else {
				out.Set(key, v)
			}
			continue
		}

		// Nested values under non-structural keys are opaque.
		if v.Kind() != tree.KindScalar {
			out.Set(key, v)
			continue
		}

		a.annotateField(out, key, v, ctx)
	}
	return out
}

func (a *Annotator) annotateList(items []tree.Value, ctx Context) tree.Value {
	out := make([]tree.Value, 0, len(items))
	for _, item := range items {
		if child := item.Node(); child != nil {
			out = append(out, tree.Nested(a.annotateNode(child, ctx)))
			continue
		}
		out = append(out, item)
	}
	return tree.List(out...)
}

func (a *Annotator) annotateField(out *tree.Node, field string, v tree.Value, ctx Context) {
	md := ReviewField(field, v.Text(), ctx, a.threshold)

	out.Set(field, v)
	out.Set(MetaKey(field, SuffixConfidence), tree.Float(md.Confidence))
	if !md.NeedsReview {
		return
	}
	out.Set(MetaKey(field, SuffixNeedsReview), tree.Bool(true))
	out.Set(MetaKey(field, SuffixReason), tree.String(string(md.Reason)))
	if md.Notes != "" {
		out.Set(MetaKey(field, SuffixNotes), tree.String(md.Notes))
	}
	out.Set(MetaKey(field, SuffixStatus), tree.String(string(md.Status)))
	out.Set(MetaKey(field, SuffixReviewedBy), tree.Null())
	out.Set(MetaKey(field, SuffixReviewedAt), tree.Null())
}
