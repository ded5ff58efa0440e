//go:build !integration

package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossa-project/tbta-review/internal/config"
	"github.com/glossa-project/tbta-review/internal/review"
	"github.com/glossa-project/tbta-review/internal/store"
	"github.com/glossa-project/tbta-review/internal/tree"
)

// annotateSample writes the fixture, annotates it in place of the CLI,
// and returns the reviewed file path.
func annotateSample(t *testing.T) string {
	t.Helper()
	path := writeSampleTree(t)
	annotator := review.NewAnnotator(0.95, nil)
	res, err := annotateFile(context.Background(), annotator, nil, review.Context{}, path)
	require.NoError(t, err)
	return res.out
}

func setReviewer(t *testing.T, by string) {
	t.Helper()
	orig := reviewBy
	reviewBy = by
	t.Cleanup(func() { reviewBy = orig })
}

func TestApplyFileDecision_Approve(t *testing.T) {
	file := annotateSample(t)
	setReviewer(t, "mt")

	err := applyFileDecision(context.Background(), file, "clauses[0].children[0].Number", review.StatusApproved)
	require.NoError(t, err)

	root, err := tree.Load(file)
	require.NoError(t, err)
	node, _, err := tree.Resolve(root, "clauses[0].children[0].Number")
	require.NoError(t, err)

	assert.Equal(t, "approved", node.Text(review.MetaKey("Number", review.SuffixStatus)))
	assert.Equal(t, "mt", node.Text(review.MetaKey("Number", review.SuffixReviewedBy)))

	at := node.Text(review.MetaKey("Number", review.SuffixReviewedAt))
	_, err = time.Parse(time.RFC3339, at)
	assert.NoError(t, err)
}

func TestApplyFileDecision_Correct(t *testing.T) {
	file := annotateSample(t)
	setReviewer(t, "mt")

	origValue := reviewValue
	reviewValue = "Plural"
	t.Cleanup(func() { reviewValue = origValue })

	err := applyFileDecision(context.Background(), file, "clauses[0].children[0].Number", review.StatusCorrected)
	require.NoError(t, err)

	root, err := tree.Load(file)
	require.NoError(t, err)
	node, _, err := tree.Resolve(root, "clauses[0].children[0].Number")
	require.NoError(t, err)

	assert.Equal(t, "Plural", node.Text("Number"))
	assert.Equal(t, "corrected", node.Text(review.MetaKey("Number", review.SuffixStatus)))
}

func TestApplyFileDecision_NotFlagged(t *testing.T) {
	file := annotateSample(t)
	setReviewer(t, "mt")

	err := applyFileDecision(context.Background(), file, "clauses[0].Constituent", review.StatusApproved)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not flagged")
}

func TestApplyFileDecision_MissingReviewer(t *testing.T) {
	file := annotateSample(t)
	setReviewer(t, "")

	err := applyFileDecision(context.Background(), file, "clauses[0].children[0].Number", review.StatusApproved)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reviewed_by is required")
}

func TestApplyFileDecision_AlreadyDecided(t *testing.T) {
	file := annotateSample(t)
	setReviewer(t, "mt")

	ctx := context.Background()
	require.NoError(t, applyFileDecision(ctx, file, "clauses[0].Time", review.StatusApproved))

	err := applyFileDecision(ctx, file, "clauses[0].Time", review.StatusRejected)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already decided")
}

func TestApplyFileDecision_SyncStore(t *testing.T) {
	ctx := context.Background()
	path := writeSampleTree(t)
	dsn := filepath.Join(t.TempDir(), "sync.db")

	// Annotate with a store so the run and items exist to sync against.
	st, err := store.NewSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))

	annotator := review.NewAnnotator(0.95, nil)
	res, err := annotateFile(ctx, annotator, st, review.Context{}, path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// The review command opens the store through the global config.
	cfg = &config.Config{
		Store: config.StoreConfig{Driver: "sqlite", DatabaseURL: dsn},
	}
	setReviewer(t, "mt")
	origSync := reviewSyncStore
	reviewSyncStore = true
	t.Cleanup(func() { reviewSyncStore = origSync })

	itemPath := "clauses[0].children[0].Number"
	require.NoError(t, applyFileDecision(ctx, res.out, itemPath, review.StatusApproved))

	st, err = store.NewSQLite(dsn)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	items, err := st.ListItems(ctx, store.ItemFilter{RunID: res.runID})
	require.NoError(t, err)

	var found bool
	for _, it := range items {
		if it.Path != itemPath {
			continue
		}
		found = true
		assert.Equal(t, review.StatusApproved, it.Status)
		assert.Equal(t, "mt", it.ReviewedBy)
	}
	assert.True(t, found, "stored item for %s not updated", itemPath)
}
