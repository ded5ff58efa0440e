package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glossa-project/tbta-review/internal/report"
	"github.com/glossa-project/tbta-review/internal/review"
	"github.com/glossa-project/tbta-review/internal/tree"
)

var summaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary <annotated.yaml>",
	Short: "Summarize review metadata in an annotated tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := tree.Load(args[0])
		if err != nil {
			return err
		}
		s := review.Summarize(root)

		if summaryJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}
		fmt.Println(report.SummaryTable(s))
		return nil
	},
}

func init() {
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(summaryCmd)
}
