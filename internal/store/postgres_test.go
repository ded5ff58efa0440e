package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossa-project/tbta-review/internal/review"
	"github.com/glossa-project/tbta-review/internal/workflow"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var itemCols = []string{
	"id", "run_id", "path", "field", "value", "confidence",
	"reason", "notes", "status", "reviewed_by", "reviewed_at", "corrected_value",
}

func pendingItemRow() *pgxmock.Rows {
	return pgxmock.NewRows(itemCols).AddRow(
		"item-1", "run-1", "clauses[0].Time", "Time", "Earlier Today", 0.50,
		"temporal_ambiguity", "Relative time reference.", "pending", "", (*time.Time)(nil), "",
	)
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "GEN.001.026", "gen-1-26.yaml", 0.95, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), "GEN.001.026", "gen-1-26.yaml", 0.95, sampleSummary())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "GEN.001.026", run.Verse)
	assert.Equal(t, sampleSummary(), run.Summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	createdAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, verse, source, threshold, summary, created_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "verse", "source", "threshold", "summary", "created_at"}).
			AddRow("run-1", "GEN.001.026", "gen-1-26.yaml", 0.95,
				[]byte(`{"total_fields":3,"needs_review":2,"high_confidence":1}`), createdAt))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "GEN.001.026", run.Verse)
	assert.Equal(t, 3, run.Summary.TotalFields)
	assert.Equal(t, 2, run.Summary.NeedsReview)
	assert.True(t, run.CreatedAt.Equal(createdAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, verse, source, threshold, summary, created_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveItems_CopyProtocol(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"review_items"}, itemColumns).WillReturnResult(3)

	n, err := s.SaveItems(context.Background(), "run-1", sampleItems())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveItems_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	n, err := s.SaveItems(context.Background(), "run-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetItem_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM review_items WHERE id = \$1`).
		WithArgs("missing-item").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetItem(context.Background(), "missing-item")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListItems_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM review_items WHERE true AND run_id = \$1 AND status = \$2`).
		WithArgs("run-1", "pending", 500).
		WillReturnRows(pendingItemRow())

	items, err := s.ListItems(context.Background(), ItemFilter{RunID: "run-1", Status: review.StatusPending})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "clauses[0].Time", items[0].Path)
	assert.Equal(t, review.ReasonTemporal, items[0].Reason)
	assert.Nil(t, items[0].ReviewedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListItems_FilterByVerse(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM review_items WHERE true AND run_id IN \(SELECT id FROM runs WHERE verse = \$1\)`).
		WithArgs("GEN.001.026", 500).
		WillReturnRows(pendingItemRow())

	items, err := s.ListItems(context.Background(), ItemFilter{Verse: "GEN.001.026"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "run-1", items[0].RunID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ApplyDecision_Approve(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	decidedAt := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE review_items SET status = \$1, reviewed_by = \$2, reviewed_at = \$3, corrected_value = \$4 WHERE id = \$5 AND status = \$6`).
		WithArgs("approved", "mt", decidedAt, "", "item-1", "pending").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	at := decidedAt
	mock.ExpectQuery(`FROM review_items WHERE id = \$1`).
		WithArgs("item-1").
		WillReturnRows(pgxmock.NewRows(itemCols).AddRow(
			"item-1", "run-1", "clauses[0].Time", "Time", "Earlier Today", 0.50,
			"temporal_ambiguity", "Relative time reference.", "approved", "mt", &at, "",
		))

	updated, err := s.ApplyDecision(context.Background(), "item-1", workflow.Decision{
		Status:     review.StatusApproved,
		ReviewedBy: "mt",
		DecidedAt:  decidedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, review.StatusApproved, updated.Status)
	assert.Equal(t, "mt", updated.ReviewedBy)
	require.NotNil(t, updated.ReviewedAt)
	assert.True(t, updated.ReviewedAt.Equal(decidedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ApplyDecision_AlreadyDecided(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE review_items SET status = \$1`).
		WithArgs("rejected", "jb", pgxmock.AnyArg(), "", "item-1", "pending").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	mock.ExpectQuery(`FROM review_items WHERE id = \$1`).
		WithArgs("item-1").
		WillReturnRows(pgxmock.NewRows(itemCols).AddRow(
			"item-1", "run-1", "clauses[0].Time", "Time", "Earlier Today", 0.50,
			"temporal_ambiguity", "Relative time reference.", "approved", "mt", &at, "",
		))

	_, err := s.ApplyDecision(context.Background(), "item-1", workflow.Decision{
		Status:     review.StatusRejected,
		ReviewedBy: "jb",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyDecided))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ApplyDecision_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE review_items SET status = \$1`).
		WithArgs("approved", "mt", pgxmock.AnyArg(), "", "missing-item", "pending").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	mock.ExpectQuery(`FROM review_items WHERE id = \$1`).
		WithArgs("missing-item").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.ApplyDecision(context.Background(), "missing-item", workflow.Decision{
		Status:     review.StatusApproved,
		ReviewedBy: "mt",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ApplyDecision_InvalidDecision(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	_, err := s.ApplyDecision(context.Background(), "item-1", workflow.Decision{
		Status:     review.StatusCorrected,
		ReviewedBy: "mt",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrected value")
	assert.NoError(t, mock.ExpectationsWereMet())
}
