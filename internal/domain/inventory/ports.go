package inventory

import "context"

// Handle is the capability interface for slot-level operations against one
// physical container. Implementations are selected by the discovery
// provider per backing technology; callers never probe for capabilities at
// runtime.
//
// Transfers are not reliable: Push may move fewer items than requested, or
// zero, without a distinguishing error. Callers must re-measure by scanning
// rather than trusting the return value in isolation.
type Handle interface {
	// Size returns the slot capacity of the container
	Size(ctx context.Context) (int, error)

	// List returns the current slot contents, keyed by slot index
	// (1..capacity). Empty slots are absent from the map.
	List(ctx context.Context) (map[int]*ItemStack, error)

	// Push moves up to amount items from fromSlot of this container into
	// toSlot of dest. Returns the number of items actually accepted.
	// dest may be the container itself for internal repacking moves.
	Push(ctx context.Context, dest Handle, fromSlot, toSlot, amount int) (int, error)
}

// Provider is the discovery collaborator boundary: it produces the ordered
// container list once at startup and re-verifies liveness on demand.
// Containers are re-validated, not re-created, on rescans.
type Provider interface {
	// Discover returns all containers in a stable order
	Discover(ctx context.Context) ([]*Container, error)

	// Revalidate checks whether a previously discovered container is still
	// reachable in the world
	Revalidate(ctx context.Context, c *Container) bool
}
