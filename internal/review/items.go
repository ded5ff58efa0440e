package review

import (
	"fmt"
	"time"

	"github.com/glossa-project/tbta-review/internal/tree"
)

// Item is one review-needing field lifted out of an annotated tree. Path
// uses dotted keys with bracketed list indices and ends in the field name,
// e.g. "clauses[0].children[1].Number".
type Item struct {
	Path       string     `json:"path"`
	Field      string     `json:"field"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
	Reason     Reason     `json:"reason"`
	Notes      string     `json:"notes,omitempty"`
	Status     Status     `json:"status"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// ExtractItems returns every flagged field of an annotated tree in
// document order.
func ExtractItems(root *tree.Node) []Item {
	var items []Item
	extractNode(root, "", &items)
	return items
}

func extractNode(n *tree.Node, path string, items *[]Item) {
	if n == nil {
		return
	}
	for _, key := range n.Keys() {
		v, _ := n.Get(key)

		if field, suffix, ok := SplitMetaKey(key); ok {
			if suffix == SuffixNeedsReview {
				if b, _ := v.AsBool(); b {
					*items = append(*items, itemAt(n, path, field))
				}
			}
			continue
		}

		childPath := key
		if path != "" {
			childPath = path + "." + key
		}
		extractValue(v, childPath, items)
	}
}

func extractValue(v tree.Value, path string, items *[]Item) {
	switch v.Kind() {
	case tree.KindNode:
		extractNode(v.Node(), path, items)
	case tree.KindList:
		for i, el := range v.List() {
			extractValue(el, fmt.Sprintf("%s[%d]", path, i), items)
		}
	}
}

func itemAt(n *tree.Node, path, field string) Item {
	fieldPath := field
	if path != "" {
		fieldPath = path + "." + field
	}
	item := Item{
		Path:   fieldPath,
		Field:  field,
		Value:  n.Text(field),
		Reason: Reason(n.Text(MetaKey(field, SuffixReason))),
		Notes:  n.Text(MetaKey(field, SuffixNotes)),
		Status: Status(n.Text(MetaKey(field, SuffixStatus))),
	}
	if c, ok := n.Float(MetaKey(field, SuffixConfidence)); ok {
		item.Confidence = c
	}
	if by := n.Text(MetaKey(field, SuffixReviewedBy)); by != "" {
		item.ReviewedBy = by
	}
	if at := n.Text(MetaKey(field, SuffixReviewedAt)); at != "" {
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			item.ReviewedAt = &t
		}
	}
	return item
}

// FilterNeedsReview prunes an annotated tree to its review-bearing
// content. A node survives when it carries an explicit needs_review
// marker or when a descendant reached through children/clauses lists
// does. Kept nodes retain all of their own keys; structural lists keep
// only their review-bearing elements and disappear when empty. Returns an
// empty tree when nothing needs review.
func FilterNeedsReview(root *tree.Node) *tree.Node {
	filtered, ok := filterNode(root)
	if !ok {
		return tree.NewNode()
	}
	return filtered
}

func filterNode(n *tree.Node) (*tree.Node, bool) {
	if n == nil {
		return nil, false
	}
	out := tree.NewNode()
	keep := false

	for _, key := range n.Keys() {
		v, _ := n.Get(key)

		if _, suffix, ok := SplitMetaKey(key); ok && suffix == SuffixNeedsReview {
			if b, _ := v.AsBool(); b {
				keep = true
			}
		}

		if (key == "children" || key == "clauses") && v.Kind() == tree.KindList {
			kept := make([]tree.Value, 0, len(v.List()))
			for _, el := range v.List() {
				child := el.Node()
				if child == nil {
					continue
				}
				if sub, ok := filterNode(child); ok {
					kept = append(kept, tree.Nested(sub))
				}
			}
			if len(kept) > 0 {
				out.Set(key, tree.List(kept...))
				keep = true
			}
			continue
		}

		out.Set(key, v)
	}

	if !keep {
		return nil, false
	}
	return out, true
}
