package inventory

import "fmt"

// ErrContainerUnavailable indicates a container was removed or disconnected
// mid-operation. Callers skip the container for the current pass instead of
// aborting the whole job.
type ErrContainerUnavailable struct {
	Name string
}

func (e *ErrContainerUnavailable) Error() string {
	return fmt.Sprintf("container unavailable: %s", e.Name)
}

// ErrNoInputConfigured indicates no input receptacle is configured
type ErrNoInputConfigured struct{}

func (e *ErrNoInputConfigured) Error() string {
	return "no input receptacle configured"
}

// ErrNoOutputConfigured indicates no output receptacle is configured
type ErrNoOutputConfigured struct{}

func (e *ErrNoOutputConfigured) Error() string {
	return "no output receptacle configured"
}

// ErrNoStorageContainers indicates discovery found no storage containers.
// This is the only fatal startup condition.
type ErrNoStorageContainers struct{}

func (e *ErrNoStorageContainers) Error() string {
	return "no storage containers discovered"
}

// ErrDuplicateRole indicates more than one container claimed an exclusive
// role (input or output)
type ErrDuplicateRole struct {
	Role  Role
	First string
	Other string
}

func (e *ErrDuplicateRole) Error() string {
	return fmt.Sprintf("role %s claimed by both %s and %s", e.Role, e.First, e.Other)
}

// ErrInvalidSlot indicates a slot index outside 1..capacity
type ErrInvalidSlot struct {
	Container string
	Slot      int
	Capacity  int
}

func (e *ErrInvalidSlot) Error() string {
	return fmt.Sprintf("invalid slot %d for container %s (capacity %d)", e.Slot, e.Container, e.Capacity)
}
