package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ajvierra/quartermaster/internal/domain/shared"
)

// JobRecord is one completed job as stored in history
type JobRecord struct {
	JobID      string
	Kind       string
	Container  string
	Slot       int
	Duration   time.Duration
	Error      string
	FinishedAt time.Time
}

// GormJobHistoryRepository stores completed-job records for operators and
// statistics. Written from notifications only; scheduling never reads it.
type GormJobHistoryRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormJobHistoryRepository creates a job history repository. If clock
// is nil, RealClock is used.
func NewGormJobHistoryRepository(db *gorm.DB, clock shared.Clock) *GormJobHistoryRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormJobHistoryRepository{db: db, clock: clock}
}

// Record appends one completed job
func (r *GormJobHistoryRepository) Record(ctx context.Context, rec JobRecord) error {
	if rec.JobID == "" {
		return fmt.Errorf("job ID cannot be empty")
	}
	finishedAt := rec.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = r.clock.Now()
	}

	model := JobRecordModel{
		JobID:      rec.JobID,
		Kind:       rec.Kind,
		Container:  rec.Container,
		Slot:       rec.Slot,
		DurationMS: rec.Duration.Milliseconds(),
		Error:      rec.Error,
		FinishedAt: finishedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}
	return nil
}

// Recent returns up to limit most recently finished jobs, newest first
func (r *GormJobHistoryRepository) Recent(ctx context.Context, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var models []JobRecordModel
	if err := r.db.WithContext(ctx).
		Order("finished_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load job history: %w", err)
	}

	records := make([]JobRecord, 0, len(models))
	for _, m := range models {
		records = append(records, JobRecord{
			JobID:      m.JobID,
			Kind:       m.Kind,
			Container:  m.Container,
			Slot:       m.Slot,
			Duration:   time.Duration(m.DurationMS) * time.Millisecond,
			Error:      m.Error,
			FinishedAt: m.FinishedAt,
		})
	}
	return records, nil
}
