package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/glossa-project/tbta-review/internal/report"
	"github.com/glossa-project/tbta-review/internal/review"
	"github.com/glossa-project/tbta-review/internal/tree"
)

var (
	itemsStatus string
	itemsReason string
	itemsFormat string
)

var itemsCmd = &cobra.Command{
	Use:   "items <annotated.yaml>",
	Short: "List the review items of an annotated tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if itemsStatus != "" && !review.ValidStatus(itemsStatus) {
			return eris.Errorf("unknown status %q", itemsStatus)
		}
		if itemsReason != "" && !review.ValidReason(itemsReason) {
			return eris.Errorf("unknown reason %q", itemsReason)
		}

		root, err := tree.Load(args[0])
		if err != nil {
			return err
		}

		items := filterItems(review.ExtractItems(root), itemsStatus, itemsReason)
		if len(items) == 0 {
			fmt.Fprintln(os.Stderr, "No review items found.")
			return nil
		}

		switch itemsFormat {
		case "table":
			fmt.Println(report.ItemsTable(items))
			return nil
		case "csv":
			return report.WriteItemsCSV(items, os.Stdout)
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		default:
			return eris.Errorf("unknown format %q (want table, csv, or json)", itemsFormat)
		}
	},
}

func init() {
	itemsCmd.Flags().StringVar(&itemsStatus, "status", "", "filter by review status (pending, approved, corrected, rejected, skipped)")
	itemsCmd.Flags().StringVar(&itemsReason, "reason", "", "filter by review reason (e.g. theological_interpretation)")
	itemsCmd.Flags().StringVar(&itemsFormat, "format", "table", "output format: table, csv, or json")
	rootCmd.AddCommand(itemsCmd)
}

// filterItems keeps items matching status and reason, empty meaning any.
func filterItems(items []review.Item, status, reason string) []review.Item {
	out := make([]review.Item, 0, len(items))
	for _, it := range items {
		if status != "" && string(it.Status) != status {
			continue
		}
		if reason != "" && string(it.Reason) != reason {
			continue
		}
		out = append(out, it)
	}
	return out
}
