package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/sigtrack/internal/track"
)

// runLedger is the read side of the run ledger the guard consults.
// Satisfied by *store.Store and *store.Tx.
type runLedger interface {
	HasRun(ctx context.Context, date time.Time) (bool, error)
}

// RunGuard decides whether a day's commit executes the write path.
// It is side-effect free; the ledger entry is written by the orchestrator.
type RunGuard struct{}

// ShouldWrite returns ModeReplay iff a ledger entry exists for the date and
// force is false. Otherwise it returns ModeWrite.
func (RunGuard) ShouldWrite(ctx context.Context, ledger runLedger, date time.Time, force bool) (track.Mode, error) {
	committed, err := ledger.HasRun(ctx, date)
	if err != nil {
		return "", fmt.Errorf("run guard: %w", err)
	}
	if committed && !force {
		return track.ModeReplay, nil
	}
	return track.ModeWrite, nil
}
