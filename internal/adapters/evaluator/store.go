// Package evaluator defines the metrics-store collaborator the reward engine
// reads from, keyed by run.
package evaluator

import (
	"context"

	"github.com/quorumlab/rubric/internal/domain/model"
)

// Store provides per-run access to rosters and metrics snapshots. The reward
// engine treats its contents as read-only; writes happen between cycles when
// the surrounding benchmark finalizes metrics.
type Store interface {
	// PutRoster registers or replaces the roster for a run.
	PutRoster(ctx context.Context, runID string, roster model.Roster) error

	// PutSnapshot replaces the run's metrics snapshot wholesale. Partial
	// updates are not supported; a cycle never observes a mix of old and
	// new metrics.
	PutSnapshot(ctx context.Context, runID string, snap model.MetricsSnapshot) error

	// Roster returns the roster for a run.
	// Returns ErrRunNotFound if the run is unknown.
	Roster(ctx context.Context, runID string) (model.Roster, error)

	// Snapshot returns the latest metrics snapshot for a run.
	// Returns ErrRunNotFound if the run is unknown or has no snapshot yet.
	Snapshot(ctx context.Context, runID string) (model.MetricsSnapshot, error)

	// Runs returns the number of runs tracked.
	Runs(ctx context.Context) int
}
