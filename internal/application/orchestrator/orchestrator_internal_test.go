package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajvierra/quartermaster/internal/adapters/simworld"
	"github.com/ajvierra/quartermaster/internal/application/common"
	"github.com/ajvierra/quartermaster/internal/domain/inventory"
	"github.com/ajvierra/quartermaster/internal/domain/scheduling"
)

// fakeProvider serves a fixed container list
type fakeProvider struct {
	containers []*inventory.Container
}

func (p *fakeProvider) Discover(ctx context.Context) ([]*inventory.Container, error) {
	return p.containers, nil
}

func (p *fakeProvider) Revalidate(ctx context.Context, c *inventory.Container) bool {
	_, err := c.Handle().Size(ctx)
	return err == nil
}

type fixture struct {
	orch    *Orchestrator
	bus     *common.Bus
	input   *simworld.Chest
	output  *simworld.Chest
	storage []*simworld.Chest
}

// newFixture builds an orchestrator over one input, one output and the
// given number of storage chests, each with 9 slots
func newFixture(t *testing.T, storageCount int, cfg Config) *fixture {
	t.Helper()

	f := &fixture{bus: common.NewBus()}
	var containers []*inventory.Container

	add := func(name string, role inventory.Role) *simworld.Chest {
		chest, err := simworld.NewChest(name, 9, nil)
		require.NoError(t, err)
		cont, err := inventory.NewContainer(name, role, 9, chest)
		require.NoError(t, err)
		containers = append(containers, cont)
		return chest
	}

	f.input = add("input", inventory.RoleInput)
	f.output = add("output", inventory.RoleOutput)
	for i := 0; i < storageCount; i++ {
		name := "depot-" + string(rune('1'+i))
		f.storage = append(f.storage, add(name, inventory.RoleStorage))
	}

	orch, err := New(context.Background(), &fakeProvider{containers: containers}, f.bus, nil, cfg)
	require.NoError(t, err)
	f.orch = orch
	return f
}

func setStack(t *testing.T, chest *simworld.Chest, slot int, itemID string, count, maxStack int) {
	t.Helper()
	stack, err := inventory.NewItemStack(itemID, itemID, count, maxStack, "")
	require.NoError(t, err)
	require.NoError(t, chest.SetStack(slot, stack))
}

func TestNew_DuplicateInputRoleRejected(t *testing.T) {
	var containers []*inventory.Container
	for _, name := range []string{"in-1", "in-2", "depot-1"} {
		chest, err := simworld.NewChest(name, 9, nil)
		require.NoError(t, err)
		role := inventory.RoleInput
		if name == "depot-1" {
			role = inventory.RoleStorage
		}
		cont, err := inventory.NewContainer(name, role, 9, chest)
		require.NoError(t, err)
		containers = append(containers, cont)
	}

	_, err := New(context.Background(), &fakeProvider{containers: containers}, nil, nil, Config{})

	var dup *inventory.ErrDuplicateRole
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, inventory.RoleInput, dup.Role)
}

func TestNew_NoStorageIsFatal(t *testing.T) {
	chest, err := simworld.NewChest("input", 9, nil)
	require.NoError(t, err)
	cont, err := inventory.NewContainer("input", inventory.RoleInput, 9, chest)
	require.NoError(t, err)

	_, err = New(context.Background(), &fakeProvider{containers: []*inventory.Container{cont}}, nil, nil, Config{})

	var noStorage *inventory.ErrNoStorageContainers
	assert.ErrorAs(t, err, &noStorage)
}

func TestQueueSort_SkipsEmptyContainers(t *testing.T) {
	f := newFixture(t, 2, Config{})
	setStack(t, f.storage[0], 1, "stone", 10, 64)
	// storage[1] left empty

	queued := f.orch.QueueSort(context.Background(), false)

	assert.Equal(t, 1, queued)
	assert.Equal(t, 1, f.orch.QueueDepths()[scheduling.KindSort])
}

func TestQueueSort_InFlightGuardBlocksDuplicate(t *testing.T) {
	f := newFixture(t, 1, Config{})
	setStack(t, f.storage[0], 1, "stone", 10, 64)

	first := f.orch.QueueSort(context.Background(), false)
	second := f.orch.QueueSort(context.Background(), false)

	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second, "container already has a job in flight")
	assert.Equal(t, 1, f.orch.QueueDepths()[scheduling.KindSort])
}

func TestQueueDeposit_OneJobPerStorageContainer(t *testing.T) {
	f := newFixture(t, 3, Config{})

	queued, err := f.orch.QueueDeposit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, queued)
	assert.Equal(t, 3, f.orch.QueueDepths()[scheduling.KindDeposit])
}

func TestDispatchOnce_AtMostOnePerQueue(t *testing.T) {
	f := newFixture(t, 3, Config{})
	setStack(t, f.storage[0], 1, "stone", 10, 64)
	setStack(t, f.storage[1], 1, "dirt", 10, 64)

	ctx := context.Background()
	f.orch.QueueSort(ctx, false)                  // 2 sort jobs
	_, err := f.orch.QueueDeposit(ctx)            // 3 deposit jobs (guard skips the 2 sorting containers)
	require.NoError(t, err)
	f.orch.QueueOrder("stone", 5)

	before := f.orch.QueueDepths()
	dispatched := f.orch.dispatchOnce()
	after := f.orch.QueueDepths()

	assert.Equal(t, 3, dispatched, "one job from each non-empty queue")
	assert.Equal(t, before[scheduling.KindSort]-1, after[scheduling.KindSort])
	assert.Equal(t, before[scheduling.KindDeposit]-1, after[scheduling.KindDeposit])
	assert.Equal(t, before[scheduling.KindOrder]-1, after[scheduling.KindOrder])
}

func TestReload_DeduplicatesByItemDisplayNameAndTag(t *testing.T) {
	f := newFixture(t, 2, Config{})
	setStack(t, f.storage[0], 1, "stone", 30, 64)
	setStack(t, f.storage[1], 4, "stone", 12, 64)
	setStack(t, f.storage[0], 2, "dirt", 7, 64)

	f.orch.reload(context.Background())

	records := f.orch.Aggregates()
	require.Len(t, records, 2)
	// sorted by item ID
	assert.Equal(t, "dirt", records[0].ItemID)
	assert.Equal(t, 7, records[0].Count)
	assert.Equal(t, "stone", records[1].ItemID)
	assert.Equal(t, 42, records[1].Count)
	assert.Equal(t, 2, records[1].Stacks)
}

func TestReload_DistinctTagsStaySeparate(t *testing.T) {
	f := newFixture(t, 1, Config{})
	speed, err := inventory.NewItemStack("potion", "potion", 3, 16, "effect=speed")
	require.NoError(t, err)
	leap, err := inventory.NewItemStack("potion", "potion", 5, 16, "effect=leap")
	require.NoError(t, err)
	require.NoError(t, f.storage[0].SetStack(1, speed))
	require.NoError(t, f.storage[0].SetStack(2, leap))

	f.orch.reload(context.Background())

	records := f.orch.Aggregates()
	require.Len(t, records, 2, "the aggregate key includes the tag")
}

func TestReload_PublishesStockDeltasAndIndexRebuilt(t *testing.T) {
	f := newFixture(t, 1, Config{})
	events, unsubscribe := f.bus.Subscribe()
	defer unsubscribe()

	setStack(t, f.storage[0], 1, "stone", 30, 64)
	f.orch.reload(context.Background())

	require.NoError(t, f.storage[0].SetStack(1, nil))
	f.orch.reload(context.Background())

	var deltas []common.StockDelta
	var rebuilds int
	for drained := false; !drained; {
		select {
		case ev := <-events:
			switch e := ev.(type) {
			case common.StockDelta:
				deltas = append(deltas, e)
			case common.IndexRebuilt:
				rebuilds++
			}
		default:
			drained = true
		}
	}

	require.Len(t, deltas, 2)
	assert.Equal(t, 30, deltas[0].Delta, "initial appearance")
	assert.Equal(t, -30, deltas[1].Delta, "full withdrawal")
	assert.Equal(t, "stone", deltas[1].ItemID)
	assert.Equal(t, 2, rebuilds)
}

func TestRecalculate_SpaceSnapshot(t *testing.T) {
	f := newFixture(t, 3, Config{})
	// storage[0]: full, storage[1]: partial, storage[2]: empty
	for slot := 1; slot <= 9; slot++ {
		setStack(t, f.storage[0], slot, "stone", 64, 64)
	}
	setStack(t, f.storage[1], 1, "dirt", 10, 64)

	f.orch.recalculate(context.Background())

	space := f.orch.Space()
	assert.Equal(t, 17, space.EmptySlots, "8 in the partial chest, 9 in the empty one")
	assert.Equal(t, 1, space.FullContainers)
	assert.Equal(t, 1, space.PartContainers)
}

func TestCheckStuck_FiresAfterThresholdThenDisarms(t *testing.T) {
	f := newFixture(t, 1, Config{StuckThreshold: 3})
	ctx := context.Background()

	setStack(t, f.input, 1, "stone", 40, 64)
	f.orch.recalculate(ctx) // storage empty: plenty of space

	events, unsubscribe := f.bus.Subscribe()
	defer unsubscribe()

	f.orch.checkStuck(ctx)
	f.orch.checkStuck(ctx)
	assert.Equal(t, 0, f.orch.QueueDepths()[scheduling.KindDeposit],
		"below the threshold nothing fires")

	f.orch.checkStuck(ctx)
	assert.Equal(t, 1, f.orch.QueueDepths()[scheduling.KindDeposit],
		"third unchanged check force-queues a deposit")

	var stuck *common.DepositStuck
	for drained := false; !drained; {
		select {
		case ev := <-events:
			if e, ok := ev.(common.DepositStuck); ok {
				stuck = &e
			}
		default:
			drained = true
		}
	}
	require.NotNil(t, stuck)
	assert.Equal(t, 40, stuck.InputCount)
	assert.Equal(t, 3, stuck.Checks)

	// the queued deposit disarms the detector entirely
	f.orch.checkStuck(ctx)
	f.orch.checkStuck(ctx)
	f.orch.checkStuck(ctx)
	assert.Equal(t, 1, f.orch.QueueDepths()[scheduling.KindDeposit],
		"no second trigger while a deposit is in flight")
}

func TestCheckStuck_ResetOnCountChange(t *testing.T) {
	f := newFixture(t, 1, Config{StuckThreshold: 3})
	ctx := context.Background()
	f.orch.recalculate(ctx)

	setStack(t, f.input, 1, "stone", 40, 64)
	f.orch.checkStuck(ctx)
	f.orch.checkStuck(ctx)

	// the input is making progress; the streak starts over
	setStack(t, f.input, 1, "stone", 30, 64)
	f.orch.checkStuck(ctx)
	f.orch.checkStuck(ctx)
	assert.Equal(t, 0, f.orch.QueueDepths()[scheduling.KindDeposit])

	f.orch.checkStuck(ctx)
	assert.Equal(t, 1, f.orch.QueueDepths()[scheduling.KindDeposit])
}

func TestCheckStuck_EmptyInputDoesNotArm(t *testing.T) {
	f := newFixture(t, 1, Config{StuckThreshold: 3})
	ctx := context.Background()
	f.orch.recalculate(ctx)

	for i := 0; i < 5; i++ {
		f.orch.checkStuck(ctx)
	}
	assert.Equal(t, 0, f.orch.QueueDepths()[scheduling.KindDeposit])
}

func TestCheckStuck_NoSpaceSuppressesTrigger(t *testing.T) {
	f := newFixture(t, 1, Config{StuckThreshold: 3})
	ctx := context.Background()

	setStack(t, f.input, 1, "stone", 40, 64)
	for slot := 1; slot <= 9; slot++ {
		setStack(t, f.storage[0], slot, "dirt", 64, 64)
	}
	f.orch.recalculate(ctx)

	for i := 0; i < 6; i++ {
		f.orch.checkStuck(ctx)
	}
	assert.Equal(t, 0, f.orch.QueueDepths()[scheduling.KindDeposit],
		"a full pool has nowhere to deposit; forcing a cycle would spin")
}

// captureLogger records every line logged through the context logger
type captureLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *captureLogger) Log(level, message string, metadata map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+" "+message)
}

func (l *captureLogger) logged() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func TestExecute_LogsThroughContextLogger(t *testing.T) {
	f := newFixture(t, 1, Config{})
	setStack(t, f.input, 1, "stone", 10, 64)

	logger := &captureLogger{}
	ctx := common.WithLogger(context.Background(), logger)

	err := f.orch.Execute(ctx, scheduling.NewDepositJob(f.orch.storage[0]))
	require.NoError(t, err)
	err = f.orch.Execute(ctx, scheduling.NewSortJob(f.orch.storage[0], true))
	require.NoError(t, err)
	f.orch.reload(ctx)

	entries := logger.logged()
	assert.Contains(t, entries, "INFO Deposit pass finished")
	assert.Contains(t, entries, "INFO Compaction finished")
	assert.Contains(t, entries, "DEBUG Aggregate item view rebuilt")
}

func TestExecute_UnavailableContainerIsReportedNotFatal(t *testing.T) {
	f := newFixture(t, 1, Config{})
	setStack(t, f.storage[0], 1, "stone", 10, 64)
	f.storage[0].SetUnavailable(true)

	events, unsubscribe := f.bus.Subscribe()
	defer unsubscribe()

	job := scheduling.NewSortJob(f.orch.storage[0], false)
	err := f.orch.Execute(context.Background(), job)

	require.NoError(t, err, "unavailability is an event, not a job failure")

	var reported bool
	for drained := false; !drained; {
		select {
		case ev := <-events:
			if _, ok := ev.(common.ContainerUnavailable); ok {
				reported = true
			}
		default:
			drained = true
		}
	}
	assert.True(t, reported)
}
