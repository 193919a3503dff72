package common

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a fire-and-forget notification emitted by the orchestrator and
// consumed by collaborators (metrics, persistence, UI). No collaborator
// response ever feeds back into scheduling decisions.
type Event interface {
	EventName() string
}

// JobStarted is emitted when a worker slot picks up a job
type JobStarted struct {
	JobID     uuid.UUID
	Kind      string
	Slot      int
	Container string
}

func (JobStarted) EventName() string { return "job.started" }

// JobFinished is emitted when a job completes, successfully or not
type JobFinished struct {
	JobID     uuid.UUID
	Kind      string
	Slot      int
	Container string
	Duration  time.Duration
	Err       string
}

func (JobFinished) EventName() string { return "job.finished" }

// DepositResult reports the outcome of one deposit job
type DepositResult struct {
	Container string
	MovedAny  bool
}

func (DepositResult) EventName() string { return "deposit.result" }

// OrderCompleted reports moved vs requested for one order job. Partial
// fulfillment is an outcome, not an error.
type OrderCompleted struct {
	ItemID    string
	Requested int
	Moved     int
}

func (OrderCompleted) EventName() string { return "order.completed" }

// IndexRebuilt is emitted after a full reload pass
type IndexRebuilt struct {
	UniqueItems int
	TotalStacks int
	TotalItems  int
}

func (IndexRebuilt) EventName() string { return "index.rebuilt" }

// StockDelta reports an item-count change observed between reloads
type StockDelta struct {
	ItemID      string
	DisplayName string
	Tag         string
	Delta       int
}

func (StockDelta) EventName() string { return "stock.delta" }

// DepositStuck is emitted when the stuck-state detector force-triggers a
// fresh deposit cycle
type DepositStuck struct {
	InputCount int
	Checks     int
}

func (DepositStuck) EventName() string { return "deposit.stuck" }

// ContainerUnavailable is emitted when a container is skipped for a cycle
type ContainerUnavailable struct {
	Container string
	JobKind   string
}

func (ContainerUnavailable) EventName() string { return "container.unavailable" }

// Bus is a minimal pub/sub fan-out for events. Sends are non-blocking: a
// subscriber whose buffer is full misses the event rather than stalling the
// orchestrator.
type Bus struct {
	mu          sync.Mutex
	subscribers []chan Event
}

// NewBus creates an empty event bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a buffered event channel and an unsubscribe function.
// The channel is closed on unsubscribe.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 64)
	b.subscribers = append(b.subscribers, ch)

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		for i, sub := range b.subscribers {
			if sub == ch {
				b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
				break
			}
		}
		close(ch)
	}

	return ch, unsubscribe
}

// Publish delivers the event to every subscriber without blocking
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}
