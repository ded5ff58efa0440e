// Package report renders annotated trees and review items for human
// reviewers: a plain-text report, terminal tables, and CSV/XLSX exports.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/glossa-project/tbta-review/internal/review"
	"github.com/glossa-project/tbta-review/internal/tree"
)

const rule = 70

// Text generates the human-readable review report for an annotated tree.
// The threshold is the one the tree was annotated with and only affects
// the report labels.
func Text(root *tree.Node, threshold float64) string {
	s := review.Summarize(root)
	items := review.ExtractItems(root)

	verse := root.Text("verse")
	if verse == "" {
		verse = "N/A"
	}
	pct := fmt.Sprintf("%.0f%%", threshold*100)

	var b strings.Builder
	bar := strings.Repeat("=", rule)

	b.WriteString(bar + "\n")
	b.WriteString("TBTA REVIEW REPORT\n")
	b.WriteString(bar + "\n")
	fmt.Fprintf(&b, "Verse: %s\n\n", verse)

	fmt.Fprintf(&b, "Total Fields Annotated: %d\n", s.TotalFields)
	if s.TotalFields > 0 {
		fmt.Fprintf(&b, "High Confidence (>=%s): %d (%.1f%%)\n",
			pct, s.HighConfidence, float64(s.HighConfidence)/float64(s.TotalFields)*100)
		fmt.Fprintf(&b, "Needs Review (<%s):    %d (%.1f%%)\n",
			pct, s.NeedsReview, float64(s.NeedsReview)/float64(s.TotalFields)*100)
	}
	b.WriteString("\n")

	b.WriteString("Review Status:\n")
	fmt.Fprintf(&b, "  - Pending:   %d\n", s.ByStatus[review.StatusPending])
	fmt.Fprintf(&b, "  - Approved:  %d\n", s.ByStatus[review.StatusApproved])
	fmt.Fprintf(&b, "  - Corrected: %d\n", s.ByStatus[review.StatusCorrected])
	fmt.Fprintf(&b, "  - Rejected:  %d\n", s.ByStatus[review.StatusRejected])
	fmt.Fprintf(&b, "  - Skipped:   %d\n", s.ByStatus[review.StatusSkipped])
	b.WriteString("\n")

	if len(s.ByReason) > 0 {
		b.WriteString("Review Reasons:\n")
		for _, rc := range sortedReasons(s.ByReason) {
			fmt.Fprintf(&b, "  - %s: %d\n", rc.reason, rc.count)
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("-", rule) + "\n")

	if len(items) > 0 {
		fmt.Fprintf(&b, "Items Needing Review (%d):\n\n", len(items))
		for i, it := range items {
			fmt.Fprintf(&b, "%d. %s = %s\n", i+1, it.Field, it.Value)
			fmt.Fprintf(&b, "   Confidence: %v\n", it.Confidence)
			fmt.Fprintf(&b, "   Reason: %s\n", it.Reason)
			for _, note := range strings.Split(it.Notes, ". ") {
				note = strings.TrimSpace(note)
				if note != "" {
					fmt.Fprintf(&b, "   Note: %s\n", note)
				}
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(bar + "\n")
	return b.String()
}

type reasonCount struct {
	reason review.Reason
	count  int
}

// sortedReasons orders the breakdown by count descending, then by reason
// so equal counts render deterministically.
func sortedReasons(byReason map[review.Reason]int) []reasonCount {
	out := make([]reasonCount, 0, len(byReason))
	for r, c := range byReason {
		out = append(out, reasonCount{reason: r, count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].reason < out[j].reason
	})
	return out
}
