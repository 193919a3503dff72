package helpers

import (
	"testing"

	"github.com/ajvierra/quartermaster/internal/adapters/simworld"
	"github.com/ajvierra/quartermaster/internal/domain/inventory"
)

// NewChest creates an unthrottled chest for testing
func NewChest(t *testing.T, name string, capacity int) *simworld.Chest {
	chest, err := simworld.NewChest(name, capacity, nil)
	if err != nil {
		t.Fatalf("failed to create chest %s: %v", name, err)
	}
	return chest
}

// NewContainer wraps a fresh chest in a container with the given role
func NewContainer(t *testing.T, name string, role inventory.Role, capacity int) (*inventory.Container, *simworld.Chest) {
	chest := NewChest(t, name, capacity)
	container, err := inventory.NewContainer(name, role, capacity, chest)
	if err != nil {
		t.Fatalf("failed to create container %s: %v", name, err)
	}
	return container, chest
}

// Stack builds an item stack, failing the test on invalid input
func Stack(t *testing.T, itemID string, count, maxStack int) *inventory.ItemStack {
	return TaggedStack(t, itemID, count, maxStack, "")
}

// TaggedStack builds an item stack carrying a metadata tag
func TaggedStack(t *testing.T, itemID string, count, maxStack int, tag string) *inventory.ItemStack {
	stack, err := inventory.NewItemStack(itemID, itemID, count, maxStack, tag)
	if err != nil {
		t.Fatalf("failed to create stack %s: %v", itemID, err)
	}
	return stack
}
