package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/glossa-project/tbta-review/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tbta-review",
	Short: "Confidence scoring and review routing for TBTA annotation trees",
	Long:  "Scores machine-generated linguistic annotations, flags low-confidence fields with reasons and reviewer guidance, and tracks reviewer decisions across files, a store, and an HTTP API.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
