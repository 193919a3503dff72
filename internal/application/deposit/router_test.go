package deposit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajvierra/quartermaster/internal/application/deposit"
	"github.com/ajvierra/quartermaster/internal/application/scan"
	"github.com/ajvierra/quartermaster/internal/domain/inventory"
	"github.com/ajvierra/quartermaster/test/helpers"
)

func newRouter() *deposit.Router {
	return deposit.NewRouter(scan.NewScanner())
}

func TestDeposit_StackFirstThenEmptySlot(t *testing.T) {
	input, inChest := helpers.NewContainer(t, "input", inventory.RoleInput, 9)
	dest, destChest := helpers.NewContainer(t, "depot-1", inventory.RoleStorage, 9)

	// 70 items arrive; the existing stack has room for 54, the rest
	// goes to the first empty slot
	require.NoError(t, inChest.SetStack(1, helpers.Stack(t, "stone", 64, 64)))
	require.NoError(t, inChest.SetStack(2, helpers.Stack(t, "stone", 6, 64)))
	require.NoError(t, destChest.SetStack(1, helpers.Stack(t, "stone", 10, 64)))

	moved, err := newRouter().Deposit(context.Background(), input, dest)

	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 0, inChest.TotalItems(), "input fully drained")
	assert.Equal(t, 80, destChest.TotalItems())
	assert.Equal(t, 64, destChest.StackAt(1).Count, "existing stack topped up first")
	assert.Equal(t, 16, destChest.StackAt(2).Count, "remainder in first empty slot")
}

func TestDeposit_ConservesItems(t *testing.T) {
	input, inChest := helpers.NewContainer(t, "input", inventory.RoleInput, 9)
	dest, destChest := helpers.NewContainer(t, "depot-1", inventory.RoleStorage, 9)

	require.NoError(t, inChest.SetStack(1, helpers.Stack(t, "stone", 40, 64)))
	require.NoError(t, inChest.SetStack(2, helpers.Stack(t, "dirt", 25, 64)))
	require.NoError(t, destChest.SetStack(5, helpers.Stack(t, "stone", 60, 64)))
	before := inChest.TotalItems() + destChest.TotalItems()

	_, err := newRouter().Deposit(context.Background(), input, dest)

	require.NoError(t, err)
	assert.Equal(t, before, inChest.TotalItems()+destChest.TotalItems())
}

func TestDeposit_UnstackableSkipsMergePhase(t *testing.T) {
	input, inChest := helpers.NewContainer(t, "input", inventory.RoleInput, 9)
	dest, destChest := helpers.NewContainer(t, "depot-1", inventory.RoleStorage, 9)

	// max stack of 1 can never merge; each item needs its own empty slot
	require.NoError(t, inChest.SetStack(1, helpers.TaggedStack(t, "sword", 1, 1, "damage=3")))
	require.NoError(t, destChest.SetStack(1, helpers.TaggedStack(t, "sword", 1, 1, "damage=3")))

	moved, err := newRouter().Deposit(context.Background(), input, dest)

	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 0, inChest.TotalItems())
	assert.Equal(t, 1, destChest.StackAt(1).Count, "existing stack untouched")
	assert.NotNil(t, destChest.StackAt(2), "item placed in first empty slot")
}

func TestDeposit_NothingMovableReportsFalse(t *testing.T) {
	input, inChest := helpers.NewContainer(t, "input", inventory.RoleInput, 9)
	dest, destChest := helpers.NewContainer(t, "depot-1", inventory.RoleStorage, 2)

	// destination completely full with a foreign item
	require.NoError(t, inChest.SetStack(1, helpers.Stack(t, "stone", 10, 64)))
	require.NoError(t, destChest.SetStack(1, helpers.Stack(t, "dirt", 64, 64)))
	require.NoError(t, destChest.SetStack(2, helpers.Stack(t, "dirt", 64, 64)))

	moved, err := newRouter().Deposit(context.Background(), input, dest)

	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 10, inChest.TotalItems(), "input untouched")
}

func TestDeposit_EmptyInputReportsFalse(t *testing.T) {
	input, _ := helpers.NewContainer(t, "input", inventory.RoleInput, 9)
	dest, _ := helpers.NewContainer(t, "depot-1", inventory.RoleStorage, 9)

	moved, err := newRouter().Deposit(context.Background(), input, dest)

	require.NoError(t, err)
	assert.False(t, moved)
}

func TestDeposit_PartialDrainWhenDestinationFills(t *testing.T) {
	input, inChest := helpers.NewContainer(t, "input", inventory.RoleInput, 9)
	dest, destChest := helpers.NewContainer(t, "depot-1", inventory.RoleStorage, 1)

	require.NoError(t, inChest.SetStack(1, helpers.Stack(t, "stone", 64, 64)))
	require.NoError(t, inChest.SetStack(2, helpers.Stack(t, "stone", 64, 64)))

	moved, err := newRouter().Deposit(context.Background(), input, dest)

	require.NoError(t, err)
	assert.True(t, moved, "partial success is still success")
	assert.Equal(t, 64, destChest.TotalItems())
	assert.Equal(t, 64, inChest.TotalItems(), "undeliverable remainder stays in the input")
}

func TestDeposit_TagWildcardMergesIntoTaggedStack(t *testing.T) {
	input, inChest := helpers.NewContainer(t, "input", inventory.RoleInput, 9)
	dest, destChest := helpers.NewContainer(t, "depot-1", inventory.RoleStorage, 9)

	require.NoError(t, inChest.SetStack(1, helpers.TaggedStack(t, "potion", 4, 16, "")))
	require.NoError(t, destChest.SetStack(1, helpers.TaggedStack(t, "potion", 10, 16, "effect=speed")))

	moved, err := newRouter().Deposit(context.Background(), input, dest)

	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 14, destChest.StackAt(1).Count)
	assert.Equal(t, 0, inChest.TotalItems())
}

func TestDeposit_UnavailableDestination(t *testing.T) {
	input, inChest := helpers.NewContainer(t, "input", inventory.RoleInput, 9)
	dest, destChest := helpers.NewContainer(t, "depot-1", inventory.RoleStorage, 9)

	require.NoError(t, inChest.SetStack(1, helpers.Stack(t, "stone", 10, 64)))
	destChest.SetUnavailable(true)

	_, err := newRouter().Deposit(context.Background(), input, dest)

	var unavailable *inventory.ErrContainerUnavailable
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "depot-1", unavailable.Name)
}
