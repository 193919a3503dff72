package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ajvierra/quartermaster/internal/application/common"
	"github.com/ajvierra/quartermaster/internal/application/compact"
	"github.com/ajvierra/quartermaster/internal/application/deposit"
	"github.com/ajvierra/quartermaster/internal/application/order"
	"github.com/ajvierra/quartermaster/internal/application/scan"
	"github.com/ajvierra/quartermaster/internal/application/worker"
	"github.com/ajvierra/quartermaster/internal/domain/inventory"
	"github.com/ajvierra/quartermaster/internal/domain/scheduling"
	"github.com/ajvierra/quartermaster/internal/domain/shared"
)

// Config tunes the orchestrator's loops and bounds
type Config struct {
	PoolSize         int
	TickInterval     time.Duration
	DetectorInterval time.Duration
	ReloadInterval   time.Duration
	RecalcInterval   time.Duration
	StuckThreshold   int
	MaxPasses        int
	OrderBuffer      int
}

// withDefaults fills unset fields
func (c Config) withDefaults() Config {
	if c.PoolSize <= 0 {
		c.PoolSize = worker.DefaultSlots
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 500 * time.Millisecond
	}
	if c.DetectorInterval <= 0 {
		c.DetectorInterval = 2 * time.Second
	}
	if c.ReloadInterval <= 0 {
		c.ReloadInterval = 30 * time.Second
	}
	if c.RecalcInterval <= 0 {
		c.RecalcInterval = 10 * time.Second
	}
	if c.StuckThreshold <= 0 {
		c.StuckThreshold = 3
	}
	if c.MaxPasses <= 0 {
		c.MaxPasses = compact.DefaultMaxPasses
	}
	if c.OrderBuffer <= 0 {
		c.OrderBuffer = 64
	}
	return c
}

type orderRequest struct {
	itemID string
	amount int
}

// Orchestrator owns the four job queues, the aggregate views and the
// control loops that feed the worker pool. All queue and view mutation
// happens under its mutex; triggers arrive as messages on coalescing
// channels so a request fired multiple times before being consumed still
// causes exactly one action.
//
// Structural invariant: at most one container-scoped job (sort, reformat,
// deposit) is queued or running per container at any time, enforced by the
// in-flight guard at enqueue.
type Orchestrator struct {
	cfg   Config
	clock shared.Clock
	bus   *common.Bus

	provider  inventory.Provider
	scanner   *scan.Scanner
	compactor *compact.Compactor
	router    *deposit.Router
	fulfiller *order.Fulfiller
	pool      *worker.Pool

	// immutable for the orchestrator's lifetime (re-validated, not
	// re-created, on rescans)
	containers []*inventory.Container
	input      *inventory.Container
	output     *inventory.Container
	storage    []*inventory.Container

	mu             sync.Mutex
	queues         map[scheduling.JobKind][]*scheduling.Job
	inFlight       map[string]bool
	depositsActive int
	aggregates     []inventory.AggregateItemRecord
	space          inventory.SpaceSnapshot
	prevRecords    map[string]inventory.AggregateItemRecord

	// trigger channels; all but orderCh coalesce
	sortCh     chan bool
	depositCh  chan struct{}
	reformatCh chan struct{}
	orderCh    chan orderRequest
	reloadCh   chan struct{}
	recalcCh   chan struct{}
	rescanCh   chan struct{}

	// stuck-state detector state, touched only by the detector loop
	lastInputCount  int
	unchangedChecks int
}

// New discovers the container topology and builds a ready-to-run
// orchestrator. Finding no storage containers at all is the only fatal
// misconfiguration.
func New(
	ctx context.Context,
	provider inventory.Provider,
	bus *common.Bus,
	clock shared.Clock,
	cfg Config,
) (*Orchestrator, error) {
	if provider == nil {
		return nil, fmt.Errorf("container provider cannot be nil")
	}
	if bus == nil {
		bus = common.NewBus()
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}
	cfg = cfg.withDefaults()

	containers, err := provider.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("container discovery failed: %w", err)
	}

	scanner := scan.NewScanner()
	o := &Orchestrator{
		cfg:        cfg,
		clock:      clock,
		bus:        bus,
		provider:   provider,
		scanner:    scanner,
		compactor:  compact.NewCompactor(scanner, cfg.MaxPasses),
		router:     deposit.NewRouter(scanner),
		fulfiller:  order.NewFulfiller(scanner),
		containers: containers,
		queues: map[scheduling.JobKind][]*scheduling.Job{
			scheduling.KindSort:     nil,
			scheduling.KindDeposit:  nil,
			scheduling.KindReformat: nil,
			scheduling.KindOrder:    nil,
		},
		inFlight:       make(map[string]bool),
		prevRecords:    make(map[string]inventory.AggregateItemRecord),
		sortCh:         make(chan bool, 1),
		depositCh:      make(chan struct{}, 1),
		reformatCh:     make(chan struct{}, 1),
		orderCh:        make(chan orderRequest, cfg.OrderBuffer),
		reloadCh:       make(chan struct{}, 1),
		recalcCh:       make(chan struct{}, 1),
		rescanCh:       make(chan struct{}, 1),
		lastInputCount: -1,
	}

	if err := o.classify(containers); err != nil {
		return nil, err
	}
	if len(o.storage) == 0 {
		return nil, &inventory.ErrNoStorageContainers{}
	}

	pool, err := worker.NewPool(cfg.PoolSize, o, clock, o.onJobStart, o.onJobFinish)
	if err != nil {
		return nil, err
	}
	o.pool = pool

	return o, nil
}

// classify splits the discovered list by role and enforces that input and
// output are held by at most one container each
func (o *Orchestrator) classify(containers []*inventory.Container) error {
	for _, c := range containers {
		switch c.Role() {
		case inventory.RoleInput:
			if o.input != nil {
				return &inventory.ErrDuplicateRole{Role: inventory.RoleInput, First: o.input.Name(), Other: c.Name()}
			}
			o.input = c
		case inventory.RoleOutput:
			if o.output != nil {
				return &inventory.ErrDuplicateRole{Role: inventory.RoleOutput, First: o.output.Name(), Other: c.Name()}
			}
			o.output = c
		case inventory.RoleStorage:
			o.storage = append(o.storage, c)
		}
	}
	return nil
}

// Enqueue operations. Callable at any time; the in-flight guard makes them
// idempotent-safe for container-scoped jobs.

// QueueSort pushes a sort job for every storage container that currently
// has any occupied slot
func (o *Orchestrator) QueueSort(ctx context.Context, consolidate bool) int {
	queued := 0
	for _, c := range o.storage {
		usage, ok := o.scanner.Usage(ctx, c)
		if !ok {
			o.bus.Publish(common.ContainerUnavailable{Container: c.Name(), JobKind: string(scheduling.KindSort)})
			continue
		}
		if usage.Used == 0 {
			continue
		}
		if o.push(scheduling.NewSortJob(c, consolidate)) {
			queued++
		}
	}
	return queued
}

// QueueDeposit pushes one deposit job per storage container. Requires an
// input receptacle.
func (o *Orchestrator) QueueDeposit(ctx context.Context) (int, error) {
	if o.input == nil {
		return 0, &inventory.ErrNoInputConfigured{}
	}

	queued := 0
	for _, c := range o.storage {
		if o.push(scheduling.NewDepositJob(c)) {
			queued++
		}
	}
	return queued, nil
}

// QueueReformat is QueueSort with consolidation forced on
func (o *Orchestrator) QueueReformat(ctx context.Context) int {
	queued := 0
	for _, c := range o.storage {
		usage, ok := o.scanner.Usage(ctx, c)
		if !ok {
			o.bus.Publish(common.ContainerUnavailable{Container: c.Name(), JobKind: string(scheduling.KindReformat)})
			continue
		}
		if usage.Used == 0 {
			continue
		}
		if o.push(scheduling.NewReformatJob(c)) {
			queued++
		}
	}
	return queued
}

// QueueOrder pushes an order job regardless of current stock; infeasible
// orders fail at execution time with a partial or zero moved count
func (o *Orchestrator) QueueOrder(itemID string, amount int) {
	o.push(scheduling.NewOrderJob(itemID, amount))
}

// push appends a job to its queue, applying the per-container
// single-flight guard for container-scoped jobs
func (o *Orchestrator) push(job *scheduling.Job) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if name := job.ContainerName(); name != "" {
		if o.inFlight[name] {
			return false
		}
		o.inFlight[name] = true
	}
	if job.Kind == scheduling.KindDeposit {
		o.depositsActive++
	}

	o.queues[job.Kind] = append(o.queues[job.Kind], job)
	return true
}

// dispatchOnce pops at most one job from each of the four queues, round
// robin by queue, and submits them to the pool. This bounds dispatch
// latency to four submissions per tick regardless of queue depth.
func (o *Orchestrator) dispatchOnce() int {
	o.mu.Lock()
	var jobs []*scheduling.Job
	for _, kind := range scheduling.Kinds() {
		q := o.queues[kind]
		if len(q) == 0 {
			continue
		}
		jobs = append(jobs, q[0])
		o.queues[kind] = q[1:]
	}
	o.mu.Unlock()

	for _, job := range jobs {
		o.pool.Submit(job)
	}
	return len(jobs)
}

// Execute runs one job. This is the closed dispatch over the job sum type
// invoked from worker pool slots.
func (o *Orchestrator) Execute(ctx context.Context, job *scheduling.Job) error {
	switch job.Kind {
	case scheduling.KindSort, scheduling.KindReformat:
		return o.executeSort(ctx, job)
	case scheduling.KindDeposit:
		return o.executeDeposit(ctx, job)
	case scheduling.KindOrder:
		return o.executeOrder(ctx, job)
	default:
		return fmt.Errorf("unknown job kind: %s", job.Kind)
	}
}

func (o *Orchestrator) executeSort(ctx context.Context, job *scheduling.Job) error {
	res, err := o.compactor.Compact(ctx, job.Container, job.Consolidate)
	o.signalRecalc()
	o.signalReload()

	if err != nil {
		if _, unavailable := err.(*inventory.ErrContainerUnavailable); unavailable {
			o.bus.Publish(common.ContainerUnavailable{Container: job.ContainerName(), JobKind: string(job.Kind)})
			return nil
		}
		return err
	}
	if !res.Sorted {
		log.Printf("[orchestrator] %s did not converge for %s in %d passes; re-queueable",
			job.Kind, job.ContainerName(), res.Passes)
	}

	logger := common.LoggerFromContext(ctx)
	logger.Log("INFO", "Compaction finished", map[string]interface{}{
		"container": job.ContainerName(),
		"passes":    res.Passes,
		"moves":     res.Moves,
		"sorted":    res.Sorted,
	})
	return nil
}

func (o *Orchestrator) executeDeposit(ctx context.Context, job *scheduling.Job) error {
	if o.input == nil {
		return &inventory.ErrNoInputConfigured{}
	}

	movedAny, err := o.router.Deposit(ctx, o.input, job.Container)
	o.signalReload()

	if err != nil {
		if _, unavailable := err.(*inventory.ErrContainerUnavailable); unavailable {
			o.bus.Publish(common.ContainerUnavailable{Container: job.ContainerName(), JobKind: string(job.Kind)})
			return nil
		}
		return err
	}

	logger := common.LoggerFromContext(ctx)
	logger.Log("INFO", "Deposit pass finished", map[string]interface{}{
		"container": job.ContainerName(),
		"moved_any": movedAny,
	})

	o.bus.Publish(common.DepositResult{Container: job.ContainerName(), MovedAny: movedAny})
	return nil
}

func (o *Orchestrator) executeOrder(ctx context.Context, job *scheduling.Job) error {
	res, err := o.fulfiller.Fulfill(ctx, o.storage, o.output, job.ItemID, job.Amount)
	o.signalReload()
	if err != nil {
		return err
	}

	logger := common.LoggerFromContext(ctx)
	logger.Log("INFO", "Order executed", map[string]interface{}{
		"item_id":   res.ItemID,
		"requested": res.Requested,
		"moved":     res.Moved,
	})

	o.bus.Publish(common.OrderCompleted{ItemID: res.ItemID, Requested: res.Requested, Moved: res.Moved})
	return nil
}

// pool callbacks

func (o *Orchestrator) onJobStart(job *scheduling.Job, slot int) {
	o.bus.Publish(common.JobStarted{
		JobID:     job.ID,
		Kind:      string(job.Kind),
		Slot:      slot,
		Container: job.ContainerName(),
	})
}

func (o *Orchestrator) onJobFinish(job *scheduling.Job, slot int, d time.Duration, err error) {
	o.mu.Lock()
	if name := job.ContainerName(); name != "" {
		delete(o.inFlight, name)
	}
	if job.Kind == scheduling.KindDeposit {
		o.depositsActive--
	}
	o.mu.Unlock()

	finished := common.JobFinished{
		JobID:     job.ID,
		Kind:      string(job.Kind),
		Slot:      slot,
		Container: job.ContainerName(),
		Duration:  d,
	}
	if err != nil {
		finished.Err = err.Error()
	}
	o.bus.Publish(finished)
}

// depositInFlight reports whether any deposit job is queued or running
func (o *Orchestrator) depositInFlight() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.depositsActive > 0
}

// signalReload requests a reload; multiple signals before the reload loop
// wakes coalesce into one pass
func (o *Orchestrator) signalReload() {
	select {
	case o.reloadCh <- struct{}{}:
	default:
	}
}

// signalRecalc requests a space recalculation, coalescing like signalReload
func (o *Orchestrator) signalRecalc() {
	select {
	case o.recalcCh <- struct{}{}:
	default:
	}
}

// Read-only queries. All results are snapshot copies.

// Aggregates returns the current aggregate item view
func (o *Orchestrator) Aggregates() []inventory.AggregateItemRecord {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]inventory.AggregateItemRecord, len(o.aggregates))
	copy(out, o.aggregates)
	return out
}

// Space returns the current space snapshot
func (o *Orchestrator) Space() inventory.SpaceSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.space
}

// PoolStatus returns per-slot worker pool status
func (o *Orchestrator) PoolStatus() []worker.SlotStatus {
	return o.pool.Status()
}

// QueueDepths returns the current depth of each job queue
func (o *Orchestrator) QueueDepths() map[scheduling.JobKind]int {
	o.mu.Lock()
	defer o.mu.Unlock()

	depths := make(map[scheduling.JobKind]int, len(o.queues))
	for kind, q := range o.queues {
		depths[kind] = len(q)
	}
	return depths
}

// Containers returns the discovered container list
func (o *Orchestrator) Containers() []*inventory.Container {
	out := make([]*inventory.Container, len(o.containers))
	copy(out, o.containers)
	return out
}

// Input returns the input receptacle, or nil if none is configured
func (o *Orchestrator) Input() *inventory.Container { return o.input }

// Output returns the output receptacle, or nil if none is configured
func (o *Orchestrator) Output() *inventory.Container { return o.output }

// rescan re-verifies liveness of every discovered container. Containers
// are never re-created; unreachable ones are reported and skipped by the
// per-pass scans until they return.
func (o *Orchestrator) rescan(ctx context.Context) {
	for _, c := range o.containers {
		if !o.provider.Revalidate(ctx, c) {
			log.Printf("[orchestrator] container %s unreachable on rescan", c.Name())
			o.bus.Publish(common.ContainerUnavailable{Container: c.Name(), JobKind: "rescan"})
		}
	}
}
