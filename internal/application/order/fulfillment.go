package order

import (
	"context"

	"github.com/ajvierra/quartermaster/internal/application/scan"
	"github.com/ajvierra/quartermaster/internal/domain/inventory"
	"github.com/ajvierra/quartermaster/pkg/utils"
)

// Result reports moved vs requested for one order. Partial fulfillment
// (Moved < Requested) is a reported outcome, not an error.
type Result struct {
	ItemID    string
	Requested int
	Moved     int
}

// Remaining returns how many requested items could not be fulfilled
func (r Result) Remaining() int {
	return r.Requested - r.Moved
}

// Fulfiller withdraws a requested quantity of one item from the storage
// pool into the output receptacle. Containers are searched in discovery
// order; the search stops as soon as the request is satisfied or every
// container is exhausted.
type Fulfiller struct {
	scanner *scan.Scanner
}

// NewFulfiller creates an order fulfiller
func NewFulfiller(scanner *scan.Scanner) *Fulfiller {
	return &Fulfiller{scanner: scanner}
}

// Fulfill moves up to amount items matching itemID from the storage
// containers into output. Unavailable containers are skipped for this
// pass.
func (f *Fulfiller) Fulfill(
	ctx context.Context,
	storage []*inventory.Container,
	output *inventory.Container,
	itemID string,
	amount int,
) (Result, error) {
	res := Result{ItemID: itemID, Requested: amount}
	if output == nil {
		return res, &inventory.ErrNoOutputConfigured{}
	}
	if amount <= 0 {
		return res, nil
	}

	remaining := amount

	for _, cont := range storage {
		contents, ok := f.scanner.List(ctx, cont)
		if !ok {
			continue
		}

		for slot := 1; slot <= cont.Capacity() && remaining > 0; slot++ {
			stack := contents[slot]
			if stack == nil || stack.ItemID != itemID {
				continue
			}

			want := utils.Min(remaining, stack.Count)
			moved := f.deliver(ctx, cont, output, slot, stack, want)
			res.Moved += moved
			remaining -= moved
		}

		if remaining == 0 {
			break
		}
	}

	return res, nil
}

// deliver pushes items from one storage slot into the output receptacle,
// preferring an existing mergeable stack over an empty slot. The output is
// re-scanned per delivery because its contents change between moves.
func (f *Fulfiller) deliver(
	ctx context.Context,
	src, output *inventory.Container,
	srcSlot int,
	stack *inventory.ItemStack,
	want int,
) int {
	outContents, ok := f.scanner.List(ctx, output)
	if !ok {
		return 0
	}

	moved := 0

	if stack.MaxStack > 1 {
		for outSlot := 1; outSlot <= output.Capacity() && moved < want; outSlot++ {
			target := outContents[outSlot]
			if target == nil || target.IsFull() || !stack.Mergeable(target) {
				continue
			}

			amount := utils.Min(target.FreeSpace(), want-moved)
			n, err := src.Handle().Push(ctx, output.Handle(), srcSlot, outSlot, amount)
			if err != nil {
				return moved
			}
			moved += n
			target.Count += n
		}
	}

	for outSlot := 1; outSlot <= output.Capacity() && moved < want; outSlot++ {
		if outContents[outSlot] != nil {
			continue
		}

		n, err := src.Handle().Push(ctx, output.Handle(), srcSlot, outSlot, want-moved)
		if err != nil {
			return moved
		}
		if n > 0 {
			placed := stack.Clone()
			placed.Count = n
			outContents[outSlot] = placed
			moved += n
		}
	}

	return moved
}
