package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/glossa-project/tbta-review/internal/report"
	"github.com/glossa-project/tbta-review/internal/review"
	"github.com/glossa-project/tbta-review/internal/store"
	"github.com/glossa-project/tbta-review/internal/tree"
)

var (
	annotateContextFile string
	annotateCtxPairs    []string
	annotateOutDir      string
	annotateSave        bool
	annotateThreshold   float64
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <file|dir>...",
	Short: "Score annotation trees and flag fields for review",
	Long:  "Loads machine-generated annotation trees, attaches a confidence score to every leaf field, and flags fields below the review threshold with a reason and reviewer guidance. Outputs <name>.reviewed.yaml beside each input.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("annotate"); err != nil {
			return err
		}

		files, err := collectTreeFiles(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return eris.New("no annotation files found")
		}

		baseCtx, err := loadContext(annotateContextFile, annotateCtxPairs)
		if err != nil {
			return err
		}

		threshold := cfg.Review.Threshold
		if annotateThreshold > 0 {
			threshold = annotateThreshold
		}
		annotator := review.NewAnnotator(threshold, cfg.Review.SkipFields)

		if annotateOutDir != "" {
			if err := os.MkdirAll(annotateOutDir, 0o755); err != nil {
				return eris.Wrapf(err, "create out dir %s", annotateOutDir)
			}
		}

		var st store.Store
		if annotateSave {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}
		}

		zap.L().Info("annotating",
			zap.Int("files", len(files)),
			zap.Float64("threshold", annotator.Threshold()),
			zap.Int("concurrency", cfg.Annotate.MaxConcurrent),
		)

		results := make([]annotateResult, len(files))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Annotate.MaxConcurrent)

		for i, path := range files {
			g.Go(func() error {
				res, err := annotateFile(gctx, annotator, st, baseCtx, path)
				if err != nil {
					return eris.Wrapf(err, "annotate %s", path)
				}
				results[i] = *res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, res := range results {
			fmt.Printf("%s -> %s\n", res.in, res.out)
			if res.runID != "" {
				fmt.Printf("run: %s\n", res.runID)
			}
			fmt.Println(report.SummaryTable(res.summary))
		}
		return nil
	},
}

func init() {
	annotateCmd.Flags().StringVar(&annotateContextFile, "context-file", "", "YAML file of context signals (dialogue flags, corpus notes)")
	annotateCmd.Flags().StringArrayVar(&annotateCtxPairs, "ctx", nil, "context entry as key=value, repeatable; bool and int literals keep their type")
	annotateCmd.Flags().StringVar(&annotateOutDir, "out-dir", "", "directory for reviewed output (default: beside each input)")
	annotateCmd.Flags().BoolVar(&annotateSave, "save", false, "record the run and its review items in the store")
	annotateCmd.Flags().Float64Var(&annotateThreshold, "threshold", 0, "review threshold override (default from config)")
	rootCmd.AddCommand(annotateCmd)
}

type annotateResult struct {
	in      string
	out     string
	runID   string
	summary review.Summary
}

// annotateFile scores one tree and writes the reviewed copy. A non-nil
// store also gets a run record with the extracted review items.
func annotateFile(ctx context.Context, a *review.Annotator, st store.Store, baseCtx review.Context, path string) (*annotateResult, error) {
	root, err := tree.Load(path)
	if err != nil {
		return nil, err
	}

	// Each file gets its own context copy so trees from different verses
	// don't share a verse_ref.
	fileCtx := make(review.Context, len(baseCtx)+1)
	for k, v := range baseCtx {
		fileCtx[k] = v
	}
	if _, ok := fileCtx["verse_ref"]; !ok {
		if verse := root.Text("verse"); verse != "" {
			fileCtx["verse_ref"] = verse
		}
	}

	annotated := a.Annotate(root, fileCtx)
	summary := review.Summarize(annotated)

	out := reviewedPath(path, annotateOutDir)
	if err := tree.Save(out, annotated); err != nil {
		return nil, err
	}

	res := &annotateResult{in: path, out: out, summary: summary}

	if st != nil {
		run, err := st.CreateRun(ctx, annotated.Text("verse"), path, a.Threshold(), summary)
		if err != nil {
			return nil, err
		}
		items := review.ExtractItems(annotated)
		if _, err := st.SaveItems(ctx, run.ID, items); err != nil {
			return nil, err
		}
		res.runID = run.ID
		zap.L().Info("run saved",
			zap.String("run", run.ID),
			zap.String("verse", run.Verse),
			zap.Int("items", len(items)),
		)
	}

	zap.L().Info("annotated",
		zap.String("file", path),
		zap.Int("fields", summary.TotalFields),
		zap.Int("needs_review", summary.NeedsReview),
	)
	return res, nil
}

// collectTreeFiles expands the file and directory arguments into a list
// of YAML inputs. Directories are walked recursively; reviewed outputs
// from earlier passes are skipped so a directory can be re-annotated in
// place.
func collectTreeFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "stat %s", arg)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isTreeFile(path) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, eris.Wrapf(err, "walk %s", arg)
		}
	}
	return files, nil
}

func isTreeFile(path string) bool {
	ext := filepath.Ext(path)
	if ext != ".yaml" && ext != ".yml" {
		return false
	}
	base := strings.TrimSuffix(filepath.Base(path), ext)
	return !strings.HasSuffix(base, ".reviewed")
}

// reviewedPath derives the output path for an input tree:
// trees/gen-1-26.yaml becomes trees/gen-1-26.reviewed.yaml.
func reviewedPath(in, outDir string) string {
	base := filepath.Base(in)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext) + ".reviewed" + ext
	if outDir != "" {
		return filepath.Join(outDir, name)
	}
	return filepath.Join(filepath.Dir(in), name)
}

// loadContext merges the context file with --ctx overrides, overrides
// winning.
func loadContext(path string, pairs []string) (review.Context, error) {
	ctx := review.Context{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrap(err, "read context file")
		}
		if err := yaml.Unmarshal(data, &ctx); err != nil {
			return nil, eris.Wrapf(err, "parse context file %s", path)
		}
	}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, eris.Errorf("invalid --ctx entry %q, want key=value", pair)
		}
		ctx[key] = parseCtxValue(raw)
	}
	return ctx, nil
}

// parseCtxValue types a --ctx literal: ints first so "0" and "1" stay
// numeric, then bools, then plain strings.
func parseCtxValue(raw string) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
