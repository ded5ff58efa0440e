package report

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/glossa-project/tbta-review/internal/review"
)

// ItemsTable renders review items as a terminal table.
func ItemsTable(items []review.Item) string {
	rows := make([][]string, 0, len(items))
	for i, it := range items {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			it.Path,
			it.Value,
			fmt.Sprintf("%.2f", it.Confidence),
			string(it.Reason),
			string(it.Status),
		})
	}
	return renderTable(
		[]string{"#", "Path", "Value", "Confidence", "Reason", "Status"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

// SummaryTable renders a review summary as a terminal table.
func SummaryTable(s review.Summary) string {
	rows := [][]string{
		{"Total Fields", fmt.Sprintf("%d", s.TotalFields)},
		{"High Confidence", fmt.Sprintf("%d", s.HighConfidence)},
		{"Needs Review", fmt.Sprintf("%d", s.NeedsReview)},
	}
	for _, st := range review.AllStatuses() {
		if c, ok := s.ByStatus[st]; ok {
			rows = append(rows, []string{"Status: " + string(st), fmt.Sprintf("%d", c)})
		}
	}
	for _, rc := range sortedReasons(s.ByReason) {
		rows = append(rows, []string{"Reason: " + string(rc.reason), fmt.Sprintf("%d", rc.count)})
	}
	return renderTable(
		[]string{"Metric", "Count"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if isTerminal(os.Stdout) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
