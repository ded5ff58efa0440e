package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/glossa-project/tbta-review/internal/review"
	"github.com/glossa-project/tbta-review/internal/store"
	"github.com/glossa-project/tbta-review/internal/tree"
	"github.com/glossa-project/tbta-review/internal/workflow"
)

var (
	reviewBy        string
	reviewValue     string
	reviewSyncStore bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Record reviewer decisions on flagged fields",
	Long:  "Applies approve/correct/reject/skip decisions to flagged fields in an annotated YAML file, and optionally to the matching stored review item.",
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <file> <path>",
	Short: "Approve a flagged field value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyFileDecision(cmd.Context(), args[0], args[1], review.StatusApproved)
	},
}

var reviewCorrectCmd = &cobra.Command{
	Use:   "correct <file> <path>",
	Short: "Replace a flagged field value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyFileDecision(cmd.Context(), args[0], args[1], review.StatusCorrected)
	},
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject <file> <path>",
	Short: "Reject a flagged field value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyFileDecision(cmd.Context(), args[0], args[1], review.StatusRejected)
	},
}

var reviewSkipCmd = &cobra.Command{
	Use:   "skip <file> <path>",
	Short: "Skip a flagged field",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return applyFileDecision(cmd.Context(), args[0], args[1], review.StatusSkipped)
	},
}

func init() {
	reviewCmd.PersistentFlags().StringVar(&reviewBy, "by", "", "reviewer identifier (required)")
	reviewCmd.PersistentFlags().BoolVar(&reviewSyncStore, "sync-store", false, "also update the matching stored review item")
	_ = reviewCmd.MarkPersistentFlagRequired("by")

	reviewCorrectCmd.Flags().StringVar(&reviewValue, "value", "", "replacement value (required)")
	_ = reviewCorrectCmd.MarkFlagRequired("value")

	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewCorrectCmd)
	reviewCmd.AddCommand(reviewRejectCmd)
	reviewCmd.AddCommand(reviewSkipCmd)
	rootCmd.AddCommand(reviewCmd)
}

// applyFileDecision records a decision on the flagged field at path
// inside the annotated file, writing the tree back in place.
func applyFileDecision(ctx context.Context, file, path string, status review.Status) error {
	d := workflow.Decision{
		Status:     status,
		ReviewedBy: reviewBy,
		DecidedAt:  time.Now().UTC(),
	}
	if status == review.StatusCorrected {
		d.CorrectedValue = reviewValue
	}
	if err := d.Validate(); err != nil {
		return err
	}

	root, err := tree.Load(file)
	if err != nil {
		return err
	}
	if err := workflow.ApplyToTree(root, path, d); err != nil {
		return err
	}
	if err := tree.Save(file, root); err != nil {
		return err
	}

	zap.L().Info("decision recorded",
		zap.String("file", file),
		zap.String("path", path),
		zap.String("status", string(status)),
		zap.String("by", reviewBy),
	)

	if !reviewSyncStore {
		return nil
	}
	return syncStoredItem(ctx, root.Text("verse"), path, d)
}

// syncStoredItem mirrors a file decision onto the matching item of the
// verse's most recent stored run. A missing run or item is logged, not
// fatal: the file already holds the decision.
func syncStoredItem(ctx context.Context, verse, path string, d workflow.Decision) error {
	if verse == "" {
		return eris.New("sync-store: annotated file has no verse key")
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	runs, err := st.ListRuns(ctx, store.RunFilter{Verse: verse, Limit: 1})
	if err != nil {
		return eris.Wrap(err, "sync-store: list runs")
	}
	if len(runs) == 0 {
		zap.L().Warn("sync-store: no stored run for verse", zap.String("verse", verse))
		return nil
	}

	items, err := st.ListItems(ctx, store.ItemFilter{RunID: runs[0].ID})
	if err != nil {
		return eris.Wrap(err, "sync-store: list items")
	}
	for _, it := range items {
		if it.Path != path {
			continue
		}
		if _, err := st.ApplyDecision(ctx, it.ID, d); err != nil {
			return eris.Wrapf(err, "sync-store: item %s", it.ID)
		}
		zap.L().Info("stored item updated",
			zap.String("run", runs[0].ID),
			zap.String("item", it.ID),
		)
		return nil
	}

	zap.L().Warn("sync-store: no stored item matches path",
		zap.String("run", runs[0].ID),
		zap.String("path", path),
	)
	return nil
}
