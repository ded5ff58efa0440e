package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/glossa-project/tbta-review/internal/db"
	"github.com/glossa-project/tbta-review/internal/review"
	"github.com/glossa-project/tbta-review/internal/workflow"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":     `INSERT INTO runs (id, verse, source, threshold, summary, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"get_run":        `SELECT id, verse, source, threshold, summary, created_at FROM runs WHERE id = $1`,
	"get_item":       `SELECT id, run_id, path, field, value, confidence, reason, notes, status, reviewed_by, reviewed_at, corrected_value FROM review_items WHERE id = $1`,
	"apply_decision": `UPDATE review_items SET status = $1, reviewed_by = $2, reviewed_at = $3, corrected_value = $4 WHERE id = $5 AND status = $6`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	verse      TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	threshold  DOUBLE PRECISION NOT NULL,
	summary    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS review_items (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id          TEXT NOT NULL REFERENCES runs(id),
	position        INTEGER NOT NULL DEFAULT 0,
	path            TEXT NOT NULL,
	field           TEXT NOT NULL,
	value           TEXT NOT NULL,
	confidence      DOUBLE PRECISION NOT NULL,
	reason          TEXT NOT NULL,
	notes           TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'pending',
	reviewed_by     TEXT NOT NULL DEFAULT '',
	reviewed_at     TIMESTAMPTZ,
	corrected_value TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_verse ON runs(verse);
CREATE INDEX IF NOT EXISTS idx_review_items_run_id ON review_items(run_id);
CREATE INDEX IF NOT EXISTS idx_review_items_status ON review_items(status);
CREATE INDEX IF NOT EXISTS idx_review_items_reason ON review_items(reason);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, verse, source string, threshold float64, summary review.Summary) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal summary")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, verse, source, threshold, summary, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, verse, source, threshold, summaryJSON, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	var r Run
	var summaryJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, verse, source, threshold, summary, created_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Verse, &r.Source, &r.Threshold, &summaryJSON, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: run %s", runID)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if err := json.Unmarshal(summaryJSON, &r.Summary); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal summary")
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, verse, source, threshold, summary, created_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Verse != "" {
		query += fmt.Sprintf(` AND verse = $%d`, argIdx)
		args = append(args, filter.Verse)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var summaryJSON []byte

		if err := rows.Scan(&r.ID, &r.Verse, &r.Source, &r.Threshold, &summaryJSON, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(summaryJSON, &r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

var itemColumns = []string{
	"id", "run_id", "position", "path", "field", "value", "confidence",
	"reason", "notes", "status", "reviewed_by", "reviewed_at", "corrected_value",
}

func (s *PostgresStore) SaveItems(ctx context.Context, runID string, items []review.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(items))
	for i, it := range items {
		var reviewedAt *time.Time
		if it.ReviewedAt != nil {
			at := it.ReviewedAt.UTC()
			reviewedAt = &at
		}
		rows = append(rows, []any{
			uuid.New().String(), runID, i, it.Path, it.Field, it.Value,
			it.Confidence, string(it.Reason), it.Notes, string(it.Status),
			it.ReviewedBy, reviewedAt, "",
		})
	}

	n, err := db.CopyFrom(ctx, s.pool, "review_items", itemColumns, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: save items for run %s", runID)
	}
	return int(n), nil
}

func (s *PostgresStore) GetItem(ctx context.Context, itemID string) (*Item, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, run_id, path, field, value, confidence, reason, notes, status, reviewed_by, reviewed_at, corrected_value
		 FROM review_items WHERE id = $1`,
		itemID,
	)
	return scanPgItem(row, itemID)
}

func (s *PostgresStore) ListItems(ctx context.Context, filter ItemFilter) ([]Item, error) {
	query := `SELECT id, run_id, path, field, value, confidence, reason, notes, status, reviewed_by, reviewed_at, corrected_value
		 FROM review_items WHERE true`
	args := []any{}
	argIdx := 1

	if filter.RunID != "" {
		query += fmt.Sprintf(` AND run_id = $%d`, argIdx)
		args = append(args, filter.RunID)
		argIdx++
	}
	if filter.Verse != "" {
		query += fmt.Sprintf(` AND run_id IN (SELECT id FROM runs WHERE verse = $%d)`, argIdx)
		args = append(args, filter.Verse)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Reason != "" {
		query += fmt.Sprintf(` AND reason = $%d`, argIdx)
		args = append(args, string(filter.Reason))
		argIdx++
	}
	query += ` ORDER BY run_id, position`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list items")
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanPgItem(rows, "")
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list items iterate")
}

func (s *PostgresStore) ApplyDecision(ctx context.Context, itemID string, d workflow.Decision) (*Item, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	decidedAt := d.DecidedAt
	if decidedAt.IsZero() {
		decidedAt = time.Now().UTC()
	}

	// The status guard makes pending-to-terminal the only transition
	// that can match.
	tag, err := s.pool.Exec(ctx,
		`UPDATE review_items SET status = $1, reviewed_by = $2, reviewed_at = $3, corrected_value = $4 WHERE id = $5 AND status = $6`,
		string(d.Status), d.ReviewedBy, decidedAt.UTC(), d.CorrectedValue, itemID, string(review.StatusPending),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: apply decision %s", itemID)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetItem(ctx, itemID); err != nil {
			return nil, err
		}
		return nil, eris.Wrapf(ErrAlreadyDecided, "postgres: item %s", itemID)
	}
	return s.GetItem(ctx, itemID)
}

type pgScannable interface {
	Scan(dest ...any) error
}

func scanPgItem(row pgScannable, itemID string) (*Item, error) {
	var it Item
	var reason, status string
	var reviewedAt *time.Time

	err := row.Scan(&it.ID, &it.RunID, &it.Path, &it.Field, &it.Value, &it.Confidence,
		&reason, &it.Notes, &status, &it.ReviewedBy, &reviewedAt, &it.CorrectedValue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: item %s", itemID)
		}
		return nil, eris.Wrap(err, "postgres: scan item")
	}

	it.Reason = review.Reason(reason)
	it.Status = review.Status(status)
	if reviewedAt != nil {
		at := reviewedAt.UTC()
		it.ReviewedAt = &at
	}
	return &it, nil
}
