package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ajvierra/quartermaster/internal/domain/scheduling"
	"github.com/ajvierra/quartermaster/internal/domain/shared"
)

// DefaultSlots is the number of concurrent execution slots
const DefaultSlots = 16

// Executor runs one job to completion. The pool has no knowledge of
// inventory semantics; the owner supplies the dispatch over job kinds.
type Executor interface {
	Execute(ctx context.Context, job *scheduling.Job) error
}

// SlotStatus describes one pool slot for observability
type SlotStatus struct {
	Slot      int
	Active    bool
	Kind      scheduling.JobKind
	JobID     uuid.UUID
	Container string
}

type slot struct {
	active    bool
	done      bool
	job       *scheduling.Job
	err       error
	startedAt time.Time
}

// Pool is a bounded set of concurrent execution slots fed from a single
// unbounded FIFO. Submit is non-blocking and guarantees eventual, not
// immediate, execution. No priority between job kinds: first submitted,
// first assigned, subject to slot availability.
//
// The owner must call Tick periodically: it reaps finished slots and
// advances pending work into idle slots. A job that fails or panics is
// caught at the pool boundary, reported through the finish callback, and
// its slot freed; other jobs are unaffected.
type Pool struct {
	mu      sync.Mutex
	slots   []slot
	pending []*scheduling.Job

	executor Executor
	clock    shared.Clock

	// observational callbacks, invoked from Tick (never concurrently)
	onStart  func(job *scheduling.Job, slot int)
	onFinish func(job *scheduling.Job, slot int, d time.Duration, err error)
}

// NewPool creates a pool with the given number of slots. Callbacks may be
// nil. If clock is nil, RealClock is used.
func NewPool(
	size int,
	executor Executor,
	clock shared.Clock,
	onStart func(job *scheduling.Job, slot int),
	onFinish func(job *scheduling.Job, slot int, d time.Duration, err error),
) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1")
	}
	if executor == nil {
		return nil, fmt.Errorf("executor cannot be nil")
	}
	if clock == nil {
		clock = shared.NewRealClock()
	}

	return &Pool{
		slots:    make([]slot, size),
		executor: executor,
		clock:    clock,
		onStart:  onStart,
		onFinish: onFinish,
	}, nil
}

// Submit enqueues a job for execution and returns immediately. There is no
// queue depth limit; the orchestrator's enqueue gating bounds growth
// operationally.
func (p *Pool) Submit(job *scheduling.Job) {
	if job == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = append(p.pending, job)
}

// Tick reaps slots whose work has finished, then advances queued jobs into
// idle slots. Returns the number of jobs started this tick.
func (p *Pool) Tick(ctx context.Context) int {
	type finished struct {
		job      *scheduling.Job
		slot     int
		duration time.Duration
		err      error
	}
	type started struct {
		job  *scheduling.Job
		slot int
	}

	var reaped []finished
	var launched []started

	// jobs execute detached from the tick context: cancelling the dispatch
	// loop must never interrupt work already in flight
	runCtx := context.WithoutCancel(ctx)

	p.mu.Lock()
	now := p.clock.Now()

	for i := range p.slots {
		s := &p.slots[i]
		if s.active && s.done {
			reaped = append(reaped, finished{
				job:      s.job,
				slot:     i,
				duration: now.Sub(s.startedAt),
				err:      s.err,
			})
			*s = slot{}
		}
	}

	for i := range p.slots {
		if len(p.pending) == 0 {
			break
		}
		s := &p.slots[i]
		if s.active {
			continue
		}

		job := p.pending[0]
		p.pending = p.pending[1:]

		s.active = true
		s.done = false
		s.job = job
		s.startedAt = now

		launched = append(launched, started{job: job, slot: i})
		go p.run(runCtx, job, i)
	}
	p.mu.Unlock()

	for _, f := range reaped {
		if f.err != nil {
			log.Printf("[worker-pool] job %s (%s) failed after %s: %v",
				f.job.ID, f.job.Kind, f.duration, f.err)
		}
		if p.onFinish != nil {
			p.onFinish(f.job, f.slot, f.duration, f.err)
		}
	}
	for _, s := range launched {
		if p.onStart != nil {
			p.onStart(s.job, s.slot)
		}
	}

	return len(launched)
}

// run executes a job in its own goroutine and marks the slot done.
// The slot is reaped on a later Tick.
func (p *Pool) run(ctx context.Context, job *scheduling.Job, idx int) {
	err := p.safeExecute(ctx, job)

	p.mu.Lock()
	defer p.mu.Unlock()

	s := &p.slots[idx]
	if s.active && s.job == job {
		s.done = true
		s.err = err
	}
}

// safeExecute converts a panic inside a job into an error so one faulty
// job cannot take down the pool
func (p *Pool) safeExecute(ctx context.Context, job *scheduling.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.ID, r)
		}
	}()

	return p.executor.Execute(ctx, job)
}

// Shutdown discards pending jobs and waits for active slots to run to
// completion. In-flight jobs are never interrupted.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	p.pending = nil
	p.mu.Unlock()

	for {
		p.Tick(ctx)
		if p.Idle() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// Status returns a snapshot of every slot
func (p *Pool) Status() []SlotStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SlotStatus, len(p.slots))
	for i := range p.slots {
		s := &p.slots[i]
		statuses[i] = SlotStatus{Slot: i, Active: s.active}
		if s.active && s.job != nil {
			statuses[i].Kind = s.job.Kind
			statuses[i].JobID = s.job.ID
			statuses[i].Container = s.job.ContainerName()
		}
	}
	return statuses
}

// ActiveCount returns the number of slots currently running a job
func (p *Pool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := 0
	for i := range p.slots {
		if p.slots[i].active && !p.slots[i].done {
			count++
		}
	}
	return count
}

// PendingCount returns the number of submitted jobs not yet assigned
func (p *Pool) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.pending)
}

// Idle reports whether no job is running or pending
func (p *Pool) Idle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) > 0 {
		return false
	}
	for i := range p.slots {
		if p.slots[i].active {
			return false
		}
	}
	return true
}
