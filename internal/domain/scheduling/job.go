package scheduling

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ajvierra/quartermaster/internal/domain/inventory"
)

// JobKind identifies one of the four job classes
type JobKind string

const (
	KindSort     JobKind = "sort"
	KindDeposit  JobKind = "deposit"
	KindReformat JobKind = "reformat"
	KindOrder    JobKind = "order"
)

// Kinds lists all job kinds in dispatch order
func Kinds() []JobKind {
	return []JobKind{KindSort, KindDeposit, KindReformat, KindOrder}
}

// Job is one unit of queued work. It is a tagged variant over the four job
// kinds: sort/reformat/deposit carry a container, order carries an
// (item identity, amount) pair. Executors dispatch on Kind with a closed
// switch rather than an opaque callable.
type Job struct {
	ID   uuid.UUID
	Kind JobKind

	// Container payload (sort, reformat, deposit)
	Container   *inventory.Container
	Consolidate bool

	// Order payload
	ItemID string
	Amount int
}

// NewSortJob creates a sort job for one storage container
func NewSortJob(c *inventory.Container, consolidate bool) *Job {
	return &Job{ID: uuid.New(), Kind: KindSort, Container: c, Consolidate: consolidate}
}

// NewDepositJob creates a deposit job draining the input receptacle into
// one storage container
func NewDepositJob(c *inventory.Container) *Job {
	return &Job{ID: uuid.New(), Kind: KindDeposit, Container: c}
}

// NewReformatJob creates a sort job with consolidation forced on
func NewReformatJob(c *inventory.Container) *Job {
	return &Job{ID: uuid.New(), Kind: KindReformat, Container: c, Consolidate: true}
}

// NewOrderJob creates an order-fulfillment job. Infeasible orders are
// allowed to enqueue; they fail (partially or fully) at execution time.
func NewOrderJob(itemID string, amount int) *Job {
	return &Job{ID: uuid.New(), Kind: KindOrder, ItemID: itemID, Amount: amount}
}

// ContainerName returns the payload container name, or "" for order jobs
func (j *Job) ContainerName() string {
	if j.Container == nil {
		return ""
	}
	return j.Container.Name()
}

func (j *Job) String() string {
	switch j.Kind {
	case KindOrder:
		return fmt.Sprintf("Job[%s, %s x%d]", j.Kind, j.ItemID, j.Amount)
	default:
		return fmt.Sprintf("Job[%s, %s]", j.Kind, j.ContainerName())
	}
}
