package compact

import (
	"context"

	"github.com/ajvierra/quartermaster/internal/application/scan"
	"github.com/ajvierra/quartermaster/internal/domain/inventory"
	"github.com/ajvierra/quartermaster/pkg/utils"
)

// DefaultMaxPasses bounds the compaction fixed-point iteration
const DefaultMaxPasses = 10

// Result reports the outcome of one compaction run. Sorted=false after the
// pass bound is not an error; the caller may re-enqueue the container.
type Result struct {
	Sorted bool
	Passes int
	Moves  int
}

// Compactor repacks one container in place: gaps are eliminated by moving
// whole stacks down, and compatible stacks are optionally merged.
//
// The only transfer primitive available is "move one stack, find out
// afterward how much actually moved" - transfers can be partially refused,
// so a single global sort pass cannot be assumed atomic. Compaction is
// therefore a bounded iteration of local moves: each pass performs at most
// one gap-fill move, re-scans, and repeats until a pass makes no moves or
// the pass bound is hit.
type Compactor struct {
	scanner   *scan.Scanner
	maxPasses int
}

// NewCompactor creates a compactor. maxPasses <= 0 selects the default.
func NewCompactor(scanner *scan.Scanner, maxPasses int) *Compactor {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	return &Compactor{scanner: scanner, maxPasses: maxPasses}
}

// Compact runs the bounded fixed-point iteration against one container
func (c *Compactor) Compact(ctx context.Context, cont *inventory.Container, consolidate bool) (Result, error) {
	res := Result{}

	for pass := 1; pass <= c.maxPasses; pass++ {
		res.Passes = pass

		moves, err := c.pass(ctx, cont, consolidate)
		if err != nil {
			return res, err
		}
		res.Moves += moves

		if moves == 0 {
			res.Sorted = true
			return res, nil
		}
	}

	// pass bound reached without convergence: re-queueable, not an error
	return res, nil
}

// pass performs one compaction pass: a single gap-fill move if the
// container has an internal gap, otherwise (when requested) a full
// consolidation sub-pass.
func (c *Compactor) pass(ctx context.Context, cont *inventory.Container, consolidate bool) (int, error) {
	contents, ok := c.scanner.List(ctx, cont)
	if !ok {
		return 0, &inventory.ErrContainerUnavailable{Name: cont.Name()}
	}

	capacity := cont.Capacity()

	// lowest-indexed empty slot
	empty := 0
	for slot := 1; slot <= capacity; slot++ {
		if contents[slot] == nil {
			empty = slot
			break
		}
	}

	if empty != 0 && empty < capacity {
		// next occupied slot after the gap; moving one whole stack per
		// pass bounds the work and tolerates partially refused transfers
		for slot := empty + 1; slot <= capacity; slot++ {
			stack := contents[slot]
			if stack == nil {
				continue
			}

			moved, err := cont.Handle().Push(ctx, cont.Handle(), slot, empty, stack.Count)
			if err != nil {
				return 0, &inventory.ErrContainerUnavailable{Name: cont.Name()}
			}
			if moved > 0 {
				return 1, nil
			}
			return 0, nil
		}
	}

	// container is left-packed
	if consolidate {
		return c.consolidate(ctx, cont)
	}
	return 0, nil
}

// consolidate merges mergeable stacks into lower slots, re-scanning until a
// full scan performs zero moves
func (c *Compactor) consolidate(ctx context.Context, cont *inventory.Container) (int, error) {
	capacity := cont.Capacity()
	total := 0

	for {
		contents, ok := c.scanner.List(ctx, cont)
		if !ok {
			return total, &inventory.ErrContainerUnavailable{Name: cont.Name()}
		}

		moves := 0
		for i := 1; i <= capacity; i++ {
			dst := contents[i]
			if dst == nil || dst.IsFull() {
				continue
			}

			for j := i + 1; j <= capacity; j++ {
				src := contents[j]
				if src == nil || !dst.Mergeable(src) {
					continue
				}

				amount := utils.Min(dst.FreeSpace(), src.Count)
				if amount <= 0 {
					continue
				}

				moved, err := cont.Handle().Push(ctx, cont.Handle(), j, i, amount)
				if err != nil {
					return total, &inventory.ErrContainerUnavailable{Name: cont.Name()}
				}
				if moved == 0 {
					continue
				}

				moves++
				dst.Count += moved
				src.Count -= moved
				if src.Count <= 0 {
					delete(contents, j)
				}
				if dst.IsFull() {
					break
				}
			}
		}

		total += moves
		if moves == 0 {
			return total, nil
		}
	}
}
