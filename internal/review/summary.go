package review

import (
	"github.com/glossa-project/tbta-review/internal/tree"
)

// Summary aggregates review statistics over one annotated tree.
type Summary struct {
	TotalFields    int            `json:"total_fields"`
	NeedsReview    int            `json:"needs_review"`
	HighConfidence int            `json:"high_confidence"`
	ByStatus       map[Status]int `json:"by_status,omitempty"`
	ByReason       map[Reason]int `json:"by_reason,omitempty"`
}

// Summarize walks every node of an annotated tree. Each per-field
// confidence marker counts one field; flagged fields also tally their
// reason and status.
func Summarize(root *tree.Node) Summary {
	s := Summary{
		ByStatus: make(map[Status]int),
		ByReason: make(map[Reason]int),
	}
	summarizeNode(root, &s)
	return s
}

func summarizeNode(n *tree.Node, s *Summary) {
	if n == nil {
		return
	}
	for _, key := range n.Keys() {
		v, _ := n.Get(key)

		if field, suffix, ok := SplitMetaKey(key); ok && suffix == SuffixConfidence {
			s.TotalFields++
			if n.Bool(MetaKey(field, SuffixNeedsReview)) {
				s.NeedsReview++
				if r := n.Text(MetaKey(field, SuffixReason)); r != "" {
					s.ByReason[Reason(r)]++
				}
				if st := n.Text(MetaKey(field, SuffixStatus)); st != "" {
					s.ByStatus[Status(st)]++
				}
			} else {
				s.HighConfidence++
			}
		}

		summarizeValue(v, s)
	}
}

func summarizeValue(v tree.Value, s *Summary) {
	switch v.Kind() {
	case tree.KindNode:
		summarizeNode(v.Node(), s)
	case tree.KindList:
		for _, item := range v.List() {
			summarizeValue(item, s)
		}
	}
}
