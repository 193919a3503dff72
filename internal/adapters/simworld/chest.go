package simworld

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ajvierra/quartermaster/internal/domain/inventory"
	"github.com/ajvierra/quartermaster/pkg/utils"
)

// AcceptFunc caps how many items a destination slot accepts for one move.
// Used to inject partial transfers and rejections in tests; nil accepts
// everything the slot has room for.
type AcceptFunc func(toSlot, amount int) int

// Chest is an in-memory slotted container implementing the inventory
// Handle capability. It reproduces the awkward contract of real-world
// transfer peripherals: moves may be partially refused and the only
// truthful signal is the returned moved count.
type Chest struct {
	name string

	mu          sync.Mutex
	slots       []*inventory.ItemStack // index i holds slot i+1
	unavailable bool
	acceptFn    AcceptFunc

	limiter *rate.Limiter // shared world-wide transfer pacing, may be nil
}

// NewChest creates an empty chest with the given slot capacity
func NewChest(name string, capacity int, limiter *rate.Limiter) (*Chest, error) {
	if name == "" {
		return nil, fmt.Errorf("chest name cannot be empty")
	}
	if capacity < 1 {
		return nil, fmt.Errorf("chest capacity must be at least 1")
	}

	return &Chest{
		name:    name,
		slots:   make([]*inventory.ItemStack, capacity),
		limiter: limiter,
	}, nil
}

// Name returns the chest's stable name
func (c *Chest) Name() string { return c.name }

// Size returns the slot capacity
func (c *Chest) Size(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unavailable {
		return 0, &inventory.ErrContainerUnavailable{Name: c.name}
	}
	return len(c.slots), nil
}

// List returns a copy of the current slot contents keyed by slot index
func (c *Chest) List(ctx context.Context) (map[int]*inventory.ItemStack, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unavailable {
		return nil, &inventory.ErrContainerUnavailable{Name: c.name}
	}

	contents := make(map[int]*inventory.ItemStack)
	for i, stack := range c.slots {
		if stack != nil && stack.Count > 0 {
			contents[i+1] = stack.Clone()
		}
	}
	return contents, nil
}

// Push moves up to amount items from fromSlot of this chest into toSlot of
// dest, returning how many were actually accepted. Zero accepted is not an
// error: callers are expected to re-measure by scanning.
func (c *Chest) Push(ctx context.Context, dest inventory.Handle, fromSlot, toSlot, amount int) (int, error) {
	target, ok := dest.(*Chest)
	if !ok {
		return 0, fmt.Errorf("cannot push into foreign handle %T", dest)
	}
	if amount <= 0 {
		return 0, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, err
		}
	}

	c.lockPair(target)
	defer c.unlockPair(target)

	if c.unavailable {
		return 0, &inventory.ErrContainerUnavailable{Name: c.name}
	}
	if target.unavailable {
		return 0, &inventory.ErrContainerUnavailable{Name: target.name}
	}
	if fromSlot < 1 || fromSlot > len(c.slots) {
		return 0, &inventory.ErrInvalidSlot{Container: c.name, Slot: fromSlot, Capacity: len(c.slots)}
	}
	if toSlot < 1 || toSlot > len(target.slots) {
		return 0, &inventory.ErrInvalidSlot{Container: target.name, Slot: toSlot, Capacity: len(target.slots)}
	}
	if c == target && fromSlot == toSlot {
		return 0, nil
	}

	src := c.slots[fromSlot-1]
	if src == nil || src.Count == 0 {
		return 0, nil
	}

	amount = utils.Min(amount, src.Count)
	dst := target.slots[toSlot-1]

	var accept int
	switch {
	case dst == nil:
		accept = utils.Min(amount, src.MaxStack)
	case dst.Mergeable(src):
		accept = utils.Min(amount, dst.FreeSpace())
	default:
		accept = 0
	}

	if target.acceptFn != nil {
		accept = utils.Clamp(target.acceptFn(toSlot, accept), 0, accept)
	}
	if accept <= 0 {
		return 0, nil
	}

	if dst == nil {
		placed := src.Clone()
		placed.Count = accept
		target.slots[toSlot-1] = placed
	} else {
		dst.Count += accept
	}

	src.Count -= accept
	if src.Count == 0 {
		c.slots[fromSlot-1] = nil
	}

	return accept, nil
}

// lockPair acquires both chest locks in a stable order so concurrent
// cross-chest moves cannot deadlock
func (c *Chest) lockPair(other *Chest) {
	if c == other {
		c.mu.Lock()
		return
	}
	if c.name < other.name {
		c.mu.Lock()
		other.mu.Lock()
	} else {
		other.mu.Lock()
		c.mu.Lock()
	}
}

func (c *Chest) unlockPair(other *Chest) {
	c.mu.Unlock()
	if c != other {
		other.mu.Unlock()
	}
}

// Test and fixture helpers

// SetStack places a stack directly into a slot, bypassing the transfer
// rules
func (c *Chest) SetStack(slot int, stack *inventory.ItemStack) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if slot < 1 || slot > len(c.slots) {
		return &inventory.ErrInvalidSlot{Container: c.name, Slot: slot, Capacity: len(c.slots)}
	}
	if stack == nil {
		c.slots[slot-1] = nil
		return nil
	}
	c.slots[slot-1] = stack.Clone()
	return nil
}

// StackAt returns a copy of the stack in a slot, or nil if empty
func (c *Chest) StackAt(slot int) *inventory.ItemStack {
	c.mu.Lock()
	defer c.mu.Unlock()

	if slot < 1 || slot > len(c.slots) {
		return nil
	}
	if c.slots[slot-1] == nil {
		return nil
	}
	return c.slots[slot-1].Clone()
}

// TotalItems returns the summed item count across all slots
func (c *Chest) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, stack := range c.slots {
		if stack != nil {
			total += stack.Count
		}
	}
	return total
}

// SetUnavailable simulates the chest leaving the world
func (c *Chest) SetUnavailable(unavailable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.unavailable = unavailable
}

// SetAcceptFunc installs a transfer-acceptance cap for failure injection
func (c *Chest) SetAcceptFunc(fn AcceptFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.acceptFn = fn
}

// Interface check
var _ inventory.Handle = (*Chest)(nil)
