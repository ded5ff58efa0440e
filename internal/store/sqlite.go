package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/glossa-project/tbta-review/internal/review"
	"github.com/glossa-project/tbta-review/internal/workflow"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	verse      TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	threshold  REAL NOT NULL,
	summary    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS review_items (
	id              TEXT PRIMARY KEY,
	run_id          TEXT NOT NULL REFERENCES runs(id),
	position        INTEGER NOT NULL DEFAULT 0,
	path            TEXT NOT NULL,
	field           TEXT NOT NULL,
	value           TEXT NOT NULL,
	confidence      REAL NOT NULL,
	reason          TEXT NOT NULL,
	notes           TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'pending',
	reviewed_by     TEXT NOT NULL DEFAULT '',
	reviewed_at     DATETIME,
	corrected_value TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_verse ON runs(verse);
CREATE INDEX IF NOT EXISTS idx_review_items_run_id ON review_items(run_id);
CREATE INDEX IF NOT EXISTS idx_review_items_status ON review_items(status);
CREATE INDEX IF NOT EXISTS idx_review_items_reason ON review_items(reason);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, verse, source string, threshold float64, summary review.Summary) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal summary")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, verse, source, threshold, summary, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, verse, source, threshold, string(summaryJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &Run{
		ID:        id,
		Verse:     verse,
		Source:    source,
		Threshold: threshold,
		Summary:   summary,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, verse, source, threshold, summary, created_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row, runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, verse, source, threshold, summary, created_at FROM runs WHERE 1=1`
	var args []any

	if filter.Verse != "" {
		query += ` AND verse = ?`
		args = append(args, filter.Verse)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows, "")
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveItems(ctx context.Context, runID string, items []review.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO review_items (id, run_id, position, path, field, value, confidence, reason, notes, status, reviewed_by, reviewed_at, corrected_value)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert item")
	}
	defer stmt.Close()

	for i, it := range items {
		var reviewedAt any
		if it.ReviewedAt != nil {
			reviewedAt = it.ReviewedAt.UTC()
		}
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), runID, i, it.Path, it.Field, it.Value,
			it.Confidence, string(it.Reason), it.Notes, string(it.Status),
			it.ReviewedBy, reviewedAt, "",
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert item %s", it.Path)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit items")
	}
	return len(items), nil
}

func (s *SQLiteStore) GetItem(ctx context.Context, itemID string) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, run_id, path, field, value, confidence, reason, notes, status, reviewed_by, reviewed_at, corrected_value
		 FROM review_items WHERE id = ?`,
		itemID,
	)
	return scanItem(row, itemID)
}

func (s *SQLiteStore) ListItems(ctx context.Context, filter ItemFilter) ([]Item, error) {
	query := `SELECT id, run_id, path, field, value, confidence, reason, notes, status, reviewed_by, reviewed_at, corrected_value
		 FROM review_items WHERE 1=1`
	var args []any

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.Verse != "" {
		query += ` AND run_id IN (SELECT id FROM runs WHERE verse = ?)`
		args = append(args, filter.Verse)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Reason != "" {
		query += ` AND reason = ?`
		args = append(args, string(filter.Reason))
	}
	query += ` ORDER BY run_id, position`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list items")
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows, "")
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list items iterate")
}

func (s *SQLiteStore) ApplyDecision(ctx context.Context, itemID string, d workflow.Decision) (*Item, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	decidedAt := d.DecidedAt
	if decidedAt.IsZero() {
		decidedAt = time.Now().UTC()
	}

	// The status guard makes pending-to-terminal the only transition
	// that can match.
	res, err := s.db.ExecContext(ctx,
		`UPDATE review_items SET status = ?, reviewed_by = ?, reviewed_at = ?, corrected_value = ? WHERE id = ? AND status = ?`,
		string(d.Status), d.ReviewedBy, decidedAt.UTC(), d.CorrectedValue, itemID, string(review.StatusPending),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: apply decision %s", itemID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		if _, err := s.GetItem(ctx, itemID); err != nil {
			return nil, err
		}
		return nil, eris.Wrapf(ErrAlreadyDecided, "sqlite: item %s", itemID)
	}
	return s.GetItem(ctx, itemID)
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable, runID string) (*Run, error) {
	var r Run
	var summaryJSON string

	err := row.Scan(&r.ID, &r.Verse, &r.Source, &r.Threshold, &summaryJSON, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(summaryJSON), &r.Summary); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal summary")
	}
	return &r, nil
}

func scanItem(row scannable, itemID string) (*Item, error) {
	var it Item
	var reason, status string
	var reviewedAt sql.NullTime

	err := row.Scan(&it.ID, &it.RunID, &it.Path, &it.Field, &it.Value, &it.Confidence,
		&reason, &it.Notes, &status, &it.ReviewedBy, &reviewedAt, &it.CorrectedValue)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: item %s", itemID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan item")
	}

	it.Reason = review.Reason(reason)
	it.Status = review.Status(status)
	if reviewedAt.Valid {
		at := reviewedAt.Time.UTC()
		it.ReviewedAt = &at
	}
	return &it, nil
}
