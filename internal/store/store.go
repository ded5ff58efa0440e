package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/glossa-project/tbta-review/internal/review"
	"github.com/glossa-project/tbta-review/internal/workflow"
)

// ErrNotFound is returned when a run or review item does not exist.
var ErrNotFound = eris.New("store: not found")

// ErrAlreadyDecided is returned when a decision lands on an item that
// has already left pending.
var ErrAlreadyDecided = eris.New("store: item already decided")

// Run records one annotation pass over a verse tree.
type Run struct {
	ID        string         `json:"id"`
	Verse     string         `json:"verse"`
	Source    string         `json:"source"`
	Threshold float64        `json:"threshold"`
	Summary   review.Summary `json:"summary"`
	CreatedAt time.Time      `json:"created_at"`
}

// Item is a stored review item tied to its run. A corrected decision
// keeps the machine value in Value and the reviewer's replacement in
// CorrectedValue.
type Item struct {
	ID    string `json:"id"`
	RunID string `json:"run_id"`
	review.Item
	CorrectedValue string `json:"corrected_value,omitempty"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Verse  string `json:"verse,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ItemFilter specifies criteria for listing review items. Verse matches
// through the item's run.
type ItemFilter struct {
	RunID  string        `json:"run_id,omitempty"`
	Verse  string        `json:"verse,omitempty"`
	Status review.Status `json:"status,omitempty"`
	Reason review.Reason `json:"reason,omitempty"`
	Limit  int           `json:"limit,omitempty"`
	Offset int           `json:"offset,omitempty"`
}

// Store defines the persistence interface for annotation runs and their
// review items.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, verse, source string, threshold float64, summary review.Summary) (*Run, error)
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	// Review items
	SaveItems(ctx context.Context, runID string, items []review.Item) (int, error)
	GetItem(ctx context.Context, itemID string) (*Item, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]Item, error)
	ApplyDecision(ctx context.Context, itemID string, d workflow.Decision) (*Item, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
