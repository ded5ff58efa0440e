package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/glossa-project/tbta-review/internal/review"
)

// WriteItemsCSV writes review items as CSV.
func WriteItemsCSV(items []review.Item, w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, it := range items {
		rec := []string{
			it.Path,
			it.Field,
			it.Value,
			strconv.FormatFloat(it.Confidence, 'f', 2, 64),
			string(it.Reason),
			it.Notes,
			string(it.Status),
			it.ReviewedBy,
			formatReviewedAt(it.ReviewedAt),
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrapf(err, "report: write csv row %s", it.Path)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}
