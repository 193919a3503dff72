package discovery

import (
	"context"
	"fmt"
	"log"

	"github.com/ajvierra/quartermaster/internal/adapters/simworld"
	"github.com/ajvierra/quartermaster/internal/domain/inventory"
	"github.com/ajvierra/quartermaster/internal/infrastructure/config"
)

// TopologySaver persists a discovered topology snapshot. Optional; a nil
// saver disables persistence.
type TopologySaver interface {
	Save(ctx context.Context, containers []*inventory.Container) error
}

// SimProvider discovers containers declared in configuration against a
// simulated world, creating chests that do not exist yet. The returned
// list order follows the declaration order and stays stable across
// rescans.
type SimProvider struct {
	world *simworld.World
	specs []config.ContainerSpec
	saver TopologySaver
}

// NewSimProvider creates a discovery provider over a simulated world
func NewSimProvider(world *simworld.World, specs []config.ContainerSpec, saver TopologySaver) *SimProvider {
	return &SimProvider{world: world, specs: specs, saver: saver}
}

// Discover builds the ordered container list from the declared topology
func (p *SimProvider) Discover(ctx context.Context) ([]*inventory.Container, error) {
	containers := make([]*inventory.Container, 0, len(p.specs))

	for _, spec := range p.specs {
		chest, ok := p.world.Chest(spec.Name)
		if !ok {
			created, err := p.world.CreateChest(spec.Name, spec.Capacity)
			if err != nil {
				return nil, fmt.Errorf("failed to create chest %s: %w", spec.Name, err)
			}
			chest = created
		}

		container, err := inventory.NewContainer(spec.Name, inventory.Role(spec.Role), spec.Capacity, chest)
		if err != nil {
			return nil, fmt.Errorf("invalid container spec %s: %w", spec.Name, err)
		}
		containers = append(containers, container)
	}

	if p.saver != nil {
		if err := p.saver.Save(ctx, containers); err != nil {
			log.Printf("[discovery] failed to persist topology snapshot: %v", err)
		}
	}

	return containers, nil
}

// Revalidate checks whether the container's backing chest is still
// reachable
func (p *SimProvider) Revalidate(ctx context.Context, c *inventory.Container) bool {
	_, err := c.Handle().Size(ctx)
	return err == nil
}

// Interface check
var _ inventory.Provider = (*SimProvider)(nil)
