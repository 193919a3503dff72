package persistence

import (
	"time"

	"gorm.io/gorm"
)

// ContainerModel represents the containers table: the last discovered
// topology snapshot. Read by operators and the CLI, never by scheduling.
type ContainerModel struct {
	Name         string    `gorm:"column:name;primaryKey;not null"`
	Role         string    `gorm:"column:role;not null"`
	Capacity     int       `gorm:"column:capacity;not null"`
	DiscoveredAt time.Time `gorm:"column:discovered_at;not null"`
}

func (ContainerModel) TableName() string {
	return "containers"
}

// JobRecordModel represents the job_records table: one row per completed
// job, written from notifications
type JobRecordModel struct {
	ID         int       `gorm:"column:id;primaryKey;autoIncrement"`
	JobID      string    `gorm:"column:job_id;not null"`
	Kind       string    `gorm:"column:kind;not null"`
	Container  string    `gorm:"column:container"`
	Slot       int       `gorm:"column:slot"`
	DurationMS int64     `gorm:"column:duration_ms"`
	Error      string    `gorm:"column:error;type:text"`
	FinishedAt time.Time `gorm:"column:finished_at;not null"`
}

func (JobRecordModel) TableName() string {
	return "job_records"
}

// Migrate creates or updates the persistence schema
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ContainerModel{},
		&JobRecordModel{},
	)
}
