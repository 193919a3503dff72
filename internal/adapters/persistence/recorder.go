package persistence

import (
	"context"
	"log"

	"github.com/ajvierra/quartermaster/internal/application/common"
)

// Recorder consumes job-finished notifications and writes history rows.
// It is a one-directional collaborator: failures are logged, never fed
// back into orchestration.
type Recorder struct {
	history *GormJobHistoryRepository
}

// NewRecorder creates a notification recorder
func NewRecorder(history *GormJobHistoryRepository) *Recorder {
	return &Recorder{history: history}
}

// Run subscribes to the bus and records events until ctx is cancelled
func (r *Recorder) Run(ctx context.Context, bus *common.Bus) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			finished, isFinished := ev.(common.JobFinished)
			if !isFinished {
				continue
			}

			rec := JobRecord{
				JobID:     finished.JobID.String(),
				Kind:      finished.Kind,
				Container: finished.Container,
				Slot:      finished.Slot,
				Duration:  finished.Duration,
				Error:     finished.Err,
			}
			if err := r.history.Record(ctx, rec); err != nil {
				log.Printf("[job-history] failed to record job %s: %v", rec.JobID, err)
			}
		}
	}
}
