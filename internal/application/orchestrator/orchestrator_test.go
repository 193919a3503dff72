package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajvierra/quartermaster/internal/adapters/discovery"
	"github.com/ajvierra/quartermaster/internal/adapters/simworld"
	"github.com/ajvierra/quartermaster/internal/application/common"
	"github.com/ajvierra/quartermaster/internal/application/orchestrator"
	"github.com/ajvierra/quartermaster/internal/domain/inventory"
	"github.com/ajvierra/quartermaster/internal/infrastructure/config"
	"github.com/ajvierra/quartermaster/test/helpers"
)

func fastConfig() orchestrator.Config {
	return orchestrator.Config{
		TickInterval:     5 * time.Millisecond,
		DetectorInterval: 10 * time.Millisecond,
		ReloadInterval:   20 * time.Millisecond,
		RecalcInterval:   20 * time.Millisecond,
	}
}

func depotSpecs() []config.ContainerSpec {
	return []config.ContainerSpec{
		{Name: "input", Role: "input", Capacity: 9},
		{Name: "output", Role: "output", Capacity: 9},
		{Name: "depot-1", Role: "storage", Capacity: 9},
		{Name: "depot-2", Role: "storage", Capacity: 9},
	}
}

// startDepot discovers a fresh in-memory depot and runs the orchestrator
// until the test ends
func startDepot(t *testing.T) (*orchestrator.Orchestrator, *simworld.World) {
	t.Helper()

	world := simworld.NewWorld(0, 0)
	provider := discovery.NewSimProvider(world, depotSpecs(), nil)

	orch, err := orchestrator.New(context.Background(), provider, common.NewBus(), nil, fastConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = orch.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("orchestrator did not stop")
		}
	})

	return orch, world
}

func chest(t *testing.T, world *simworld.World, name string) *simworld.Chest {
	t.Helper()
	c, ok := world.Chest(name)
	require.True(t, ok, "chest %s must exist", name)
	return c
}

func TestRun_DepositDrainsInputIntoStorage(t *testing.T) {
	orch, world := startDepot(t)
	input := chest(t, world, "input")
	require.NoError(t, input.SetStack(1, helpers.Stack(t, "stone", 64, 64)))
	require.NoError(t, input.SetStack(2, helpers.Stack(t, "dirt", 20, 64)))

	orch.RequestDeposit()

	require.Eventually(t, func() bool {
		return input.TotalItems() == 0
	}, 5*time.Second, 10*time.Millisecond, "input should drain")

	total := chest(t, world, "depot-1").TotalItems() + chest(t, world, "depot-2").TotalItems()
	assert.Equal(t, 84, total, "deposit conserves items")

	require.Eventually(t, func() bool {
		records := orch.Aggregates()
		sum := 0
		for _, rec := range records {
			sum += rec.Count
		}
		return sum == 84
	}, 5*time.Second, 10*time.Millisecond, "aggregate view should catch up")
}

func TestRun_OrderDeliversToOutput(t *testing.T) {
	orch, world := startDepot(t)
	require.NoError(t, chest(t, world, "depot-1").SetStack(1, helpers.Stack(t, "stone", 50, 64)))
	output := chest(t, world, "output")

	accepted := orch.RequestOrder("stone", 30)
	require.True(t, accepted)

	require.Eventually(t, func() bool {
		return output.TotalItems() == 30
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 20, chest(t, world, "depot-1").TotalItems())
}

func TestRun_SortPacksScatteredContainer(t *testing.T) {
	orch, world := startDepot(t)
	depot := chest(t, world, "depot-1")
	require.NoError(t, depot.SetStack(2, helpers.Stack(t, "stone", 10, 64)))
	require.NoError(t, depot.SetStack(5, helpers.Stack(t, "stone", 5, 64)))
	require.NoError(t, depot.SetStack(8, helpers.Stack(t, "dirt", 3, 64)))

	orch.RequestSort(true)

	require.Eventually(t, func() bool {
		first := depot.StackAt(1)
		second := depot.StackAt(2)
		return first != nil && first.Count == 15 &&
			second != nil && second.ItemID == "dirt" &&
			depot.StackAt(5) == nil && depot.StackAt(8) == nil
	}, 5*time.Second, 10*time.Millisecond, "stacks merge and pack left")
	assert.Equal(t, 18, depot.TotalItems())
}

func TestRun_StuckDetectorForcesDeposit(t *testing.T) {
	_, world := startDepot(t)
	input := chest(t, world, "input")
	require.NoError(t, input.SetStack(1, helpers.Stack(t, "stone", 40, 64)))

	// no deposit is requested; only the detector can move these items
	require.Eventually(t, func() bool {
		return input.TotalItems() == 0
	}, 5*time.Second, 10*time.Millisecond, "detector should force a deposit cycle")
}

func TestRun_InfeasibleOrderCompletesPartially(t *testing.T) {
	orch, world := startDepot(t)
	require.NoError(t, chest(t, world, "depot-1").SetStack(1, helpers.Stack(t, "stone", 4, 64)))
	output := chest(t, world, "output")

	require.True(t, orch.RequestOrder("stone", 100))

	require.Eventually(t, func() bool {
		return output.TotalItems() == 4
	}, 5*time.Second, 10*time.Millisecond, "shortage delivers what exists")
}

func TestDiscovery_RolesAndOrder(t *testing.T) {
	world := simworld.NewWorld(0, 0)
	provider := discovery.NewSimProvider(world, depotSpecs(), nil)

	containers, err := provider.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, containers, 4)
	assert.Equal(t, inventory.RoleInput, containers[0].Role())
	assert.Equal(t, inventory.RoleOutput, containers[1].Role())
	assert.Equal(t, "depot-1", containers[2].Name())

	// chests were created in the world
	_, ok := world.Chest("depot-2")
	assert.True(t, ok)
}
