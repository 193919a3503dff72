package inventory

import "fmt"

// ItemStack represents the contents of a single container slot: a count of
// identical items up to the per-type stack limit. The metadata tag carries
// item state (damage, enchantments, brand, ...); an empty tag means the
// item has no attached state.
type ItemStack struct {
	ItemID      string
	DisplayName string
	Count       int
	MaxStack    int
	Tag         string // empty = unspecified
}

// NewItemStack creates a new item stack with validation
func NewItemStack(itemID, displayName string, count, maxStack int, tag string) (*ItemStack, error) {
	if itemID == "" {
		return nil, fmt.Errorf("item ID cannot be empty")
	}
	if maxStack < 1 {
		return nil, fmt.Errorf("max stack size must be at least 1")
	}
	if count < 0 {
		return nil, fmt.Errorf("item count cannot be negative")
	}
	if count > maxStack {
		return nil, fmt.Errorf("item count %d exceeds max stack size %d", count, maxStack)
	}

	return &ItemStack{
		ItemID:      itemID,
		DisplayName: displayName,
		Count:       count,
		MaxStack:    maxStack,
		Tag:         tag,
	}, nil
}

// Mergeable reports whether two stacks are eligible to combine.
//
// Tag matching is deliberately asymmetric: an unspecified tag acts as a
// wildcard, so an untagged stack merges with a tagged one and vice versa.
// Only two stacks carrying different non-empty tags are kept apart.
// Narrowing this to exact-match under-consolidates; ignoring tags entirely
// over-merges visually distinct items.
func (s *ItemStack) Mergeable(other *ItemStack) bool {
	if other == nil {
		return false
	}
	if s.ItemID != other.ItemID {
		return false
	}
	if s.Tag == "" || other.Tag == "" {
		return true
	}
	return s.Tag == other.Tag
}

// FreeSpace returns how many more items fit into this stack
func (s *ItemStack) FreeSpace() int {
	free := s.MaxStack - s.Count
	if free < 0 {
		return 0
	}
	return free
}

// IsFull reports whether the stack is at its per-type limit
func (s *ItemStack) IsFull() bool {
	return s.Count >= s.MaxStack
}

// Clone returns an independent copy of the stack
func (s *ItemStack) Clone() *ItemStack {
	c := *s
	return &c
}

func (s *ItemStack) String() string {
	if s.Tag != "" {
		return fmt.Sprintf("%s x%d [%s]", s.ItemID, s.Count, s.Tag)
	}
	return fmt.Sprintf("%s x%d", s.ItemID, s.Count)
}
