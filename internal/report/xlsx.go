package report

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/glossa-project/tbta-review/internal/review"
)

var exportHeader = []string{
	"Path", "Field", "Value", "Confidence", "Reason", "Notes",
	"Status", "Reviewed By", "Reviewed At",
}

// WriteItemsXLSX writes review items to an XLSX workbook at path.
func WriteItemsXLSX(items []review.Item, path string) error {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Review Items")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range exportHeader {
		header.AddCell().SetString(h)
	}

	for _, it := range items {
		row := sheet.AddRow()
		row.AddCell().SetString(it.Path)
		row.AddCell().SetString(it.Field)
		row.AddCell().SetString(it.Value)
		row.AddCell().SetFloat(it.Confidence)
		row.AddCell().SetString(string(it.Reason))
		row.AddCell().SetString(it.Notes)
		row.AddCell().SetString(string(it.Status))
		row.AddCell().SetString(it.ReviewedBy)
		row.AddCell().SetString(formatReviewedAt(it.ReviewedAt))
	}

	return eris.Wrapf(wb.Save(path), "report: write xlsx %s", path)
}

func formatReviewedAt(at *time.Time) string {
	if at == nil {
		return ""
	}
	return at.UTC().Format(time.RFC3339)
}
