package deposit

import (
	"context"

	"github.com/ajvierra/quartermaster/internal/application/scan"
	"github.com/ajvierra/quartermaster/internal/domain/inventory"
	"github.com/ajvierra/quartermaster/pkg/utils"
)

// Router moves as much of the input receptacle's contents as possible into
// one destination storage container per call. The orchestrator calls it
// once per queued storage container until the input drains or no container
// accepts more.
//
// For each input slot the router runs two phases: stack-first (top up
// existing mergeable stacks) and then first-empty-slot for the remainder.
// Partial success is reported identically to full success; the driving
// loop measures true progress by re-scanning the input's item count, since
// the transfer primitive's own success signal is unreliable in isolation.
type Router struct {
	scanner *scan.Scanner
}

// NewRouter creates a deposit router
func NewRouter(scanner *scan.Scanner) *Router {
	return &Router{scanner: scanner}
}

// Deposit routes items from input into dest. Returns whether at least one
// item moved.
func (r *Router) Deposit(ctx context.Context, input, dest *inventory.Container) (bool, error) {
	source, ok := r.scanner.List(ctx, input)
	if !ok {
		return false, &inventory.ErrContainerUnavailable{Name: input.Name()}
	}
	targets, ok := r.scanner.List(ctx, dest)
	if !ok {
		return false, &inventory.ErrContainerUnavailable{Name: dest.Name()}
	}

	movedAny := false

	for srcSlot := 1; srcSlot <= input.Capacity(); srcSlot++ {
		stack := source[srcSlot]
		if stack == nil {
			continue
		}
		remaining := stack.Count

		// phase 1: top up existing mergeable stacks. Items with a stack
		// limit of 1 can never merge, so they skip straight to phase 2.
		if stack.MaxStack > 1 {
			for destSlot := 1; destSlot <= dest.Capacity() && remaining > 0; destSlot++ {
				target := targets[destSlot]
				if target == nil || target.IsFull() || !stack.Mergeable(target) {
					continue
				}

				want := utils.Min(target.FreeSpace(), remaining)
				moved, err := input.Handle().Push(ctx, dest.Handle(), srcSlot, destSlot, want)
				if err != nil {
					return movedAny, &inventory.ErrContainerUnavailable{Name: dest.Name()}
				}
				if moved > 0 {
					movedAny = true
					remaining -= moved
					target.Count += moved
				}
			}
		}

		// phase 2: first genuinely empty slot takes the remainder
		if remaining > 0 {
			for destSlot := 1; destSlot <= dest.Capacity(); destSlot++ {
				if targets[destSlot] != nil {
					continue
				}

				moved, err := input.Handle().Push(ctx, dest.Handle(), srcSlot, destSlot, remaining)
				if err != nil {
					return movedAny, &inventory.ErrContainerUnavailable{Name: dest.Name()}
				}
				if moved > 0 {
					movedAny = true
					placed := stack.Clone()
					placed.Count = moved
					targets[destSlot] = placed
					break
				}
			}
		}

		// a slot with a remainder after both phases is left as-is
	}

	return movedAny, nil
}
