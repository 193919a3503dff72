package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ajvierra/quartermaster/internal/domain/inventory"
	"github.com/ajvierra/quartermaster/internal/domain/shared"
)

// GormTopologyRepository persists discovered container topology snapshots
type GormTopologyRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormTopologyRepository creates a topology repository. If clock is
// nil, RealClock is used.
func NewGormTopologyRepository(db *gorm.DB, clock shared.Clock) *GormTopologyRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormTopologyRepository{db: db, clock: clock}
}

// Save replaces the stored snapshot with the given container list
func (r *GormTopologyRepository) Save(ctx context.Context, containers []*inventory.Container) error {
	now := r.clock.Now()

	models := make([]ContainerModel, 0, len(containers))
	for _, c := range containers {
		models = append(models, ContainerModel{
			Name:         c.Name(),
			Role:         string(c.Role()),
			Capacity:     c.Capacity(),
			DiscoveredAt: now,
		})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ContainerModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear topology snapshot: %w", err)
		}
		if len(models) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&models).Error; err != nil {
			return fmt.Errorf("failed to save topology snapshot: %w", err)
		}
		return nil
	})
}

// TopologyEntry is one stored container row
type TopologyEntry struct {
	Name         string
	Role         string
	Capacity     int
	DiscoveredAt time.Time
}

// Load returns the stored snapshot in name order
func (r *GormTopologyRepository) Load(ctx context.Context) ([]TopologyEntry, error) {
	var models []ContainerModel
	if err := r.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load topology snapshot: %w", err)
	}

	entries := make([]TopologyEntry, 0, len(models))
	for _, m := range models {
		entries = append(entries, TopologyEntry{
			Name:         m.Name,
			Role:         m.Role,
			Capacity:     m.Capacity,
			DiscoveredAt: m.DiscoveredAt,
		})
	}
	return entries, nil
}
