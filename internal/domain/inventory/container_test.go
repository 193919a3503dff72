package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajvierra/quartermaster/internal/domain/inventory"
)

// stubHandle satisfies the Handle capability without a backing world
type stubHandle struct{}

func (s *stubHandle) Size(ctx context.Context) (int, error) { return 27, nil }
func (s *stubHandle) List(ctx context.Context) (map[int]*inventory.ItemStack, error) {
	return map[int]*inventory.ItemStack{}, nil
}
func (s *stubHandle) Push(ctx context.Context, dest inventory.Handle, fromSlot, toSlot, amount int) (int, error) {
	return 0, nil
}

func TestNewContainer_Valid(t *testing.T) {
	c, err := inventory.NewContainer("depot-1", inventory.RoleStorage, 27, &stubHandle{})

	require.NoError(t, err)
	assert.Equal(t, "depot-1", c.Name())
	assert.Equal(t, inventory.RoleStorage, c.Role())
	assert.Equal(t, 27, c.Capacity())
	assert.NotNil(t, c.Handle())
}

func TestNewContainer_Invalid(t *testing.T) {
	handle := &stubHandle{}

	_, err := inventory.NewContainer("", inventory.RoleStorage, 27, handle)
	assert.Error(t, err, "empty name")

	_, err = inventory.NewContainer("depot-1", inventory.Role("weird"), 27, handle)
	assert.Error(t, err, "unknown role")

	_, err = inventory.NewContainer("depot-1", inventory.RoleStorage, 0, handle)
	assert.Error(t, err, "zero capacity")

	_, err = inventory.NewContainer("depot-1", inventory.RoleStorage, 27, nil)
	assert.Error(t, err, "nil handle")
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, inventory.RoleInput.Valid())
	assert.True(t, inventory.RoleOutput.Valid())
	assert.True(t, inventory.RoleStorage.Valid())
	assert.False(t, inventory.Role("buffer").Valid())
}
