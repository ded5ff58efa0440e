package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/glossa-project/tbta-review/internal/report"
	"github.com/glossa-project/tbta-review/internal/review"
	"github.com/glossa-project/tbta-review/internal/tree"
)

var (
	reportFormat string
	reportOut    string
)

var reportCmd = &cobra.Command{
	Use:   "report <annotated.yaml>",
	Short: "Generate a review report from an annotated tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := tree.Load(args[0])
		if err != nil {
			return err
		}

		switch reportFormat {
		case "text":
			text := report.Text(root, cfg.Review.Threshold)
			if reportOut == "" {
				fmt.Print(text)
				return nil
			}
			if err := os.WriteFile(reportOut, []byte(text), 0o644); err != nil {
				return eris.Wrapf(err, "write report %s", reportOut)
			}
		case "csv":
			items := review.ExtractItems(root)
			if reportOut == "" {
				return report.WriteItemsCSV(items, os.Stdout)
			}
			f, err := os.Create(reportOut)
			if err != nil {
				return eris.Wrapf(err, "create %s", reportOut)
			}
			defer f.Close() //nolint:errcheck
			if err := report.WriteItemsCSV(items, f); err != nil {
				return err
			}
		case "xlsx":
			if reportOut == "" {
				return eris.New("--out is required for xlsx output")
			}
			if err := report.WriteItemsXLSX(review.ExtractItems(root), reportOut); err != nil {
				return err
			}
		default:
			return eris.Errorf("unknown format %q (want text, csv, or xlsx)", reportFormat)
		}

		zap.L().Info("report written",
			zap.String("file", reportOut),
			zap.String("format", reportFormat),
		)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "text", "output format: text, csv, or xlsx")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output path (default stdout; required for xlsx)")
	rootCmd.AddCommand(reportCmd)
}
