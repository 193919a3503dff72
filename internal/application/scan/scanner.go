package scan

import (
	"context"

	"github.com/ajvierra/quartermaster/internal/domain/inventory"
)

// Usage summarizes slot occupancy for one container
type Usage struct {
	Capacity int
	Used     int
	Free     int
	Items    int // total item count across all slots
}

// Scanner reads the live slot contents of a single container. Reads may
// fail when a container leaves the world mid-scan; the scanner reports
// that as an explicit unavailable result so callers can skip the container
// for the current pass without aborting the whole job.
type Scanner struct{}

// NewScanner creates a container scanner
func NewScanner() *Scanner {
	return &Scanner{}
}

// Usage performs one full slot-range read and returns occupancy counters.
// ok is false when the container is unavailable.
func (s *Scanner) Usage(ctx context.Context, c *inventory.Container) (Usage, bool) {
	contents, ok := s.List(ctx, c)
	if !ok {
		return Usage{}, false
	}

	u := Usage{Capacity: c.Capacity()}
	for _, stack := range contents {
		u.Used++
		u.Items += stack.Count
	}
	u.Free = u.Capacity - u.Used
	return u, true
}

// List returns the full slot contents keyed by slot index. ok is false
// when the container is unavailable.
func (s *Scanner) List(ctx context.Context, c *inventory.Container) (map[int]*inventory.ItemStack, bool) {
	contents, err := c.Handle().List(ctx)
	if err != nil {
		return nil, false
	}

	// drop zero-count stacks so callers can treat presence as occupancy
	result := make(map[int]*inventory.ItemStack, len(contents))
	for slot, stack := range contents {
		if stack != nil && stack.Count > 0 {
			result[slot] = stack
		}
	}
	return result, true
}

// ItemCount returns the total item count in a container. ok is false when
// the container is unavailable.
func (s *Scanner) ItemCount(ctx context.Context, c *inventory.Container) (int, bool) {
	u, ok := s.Usage(ctx, c)
	if !ok {
		return 0, false
	}
	return u.Items, true
}
