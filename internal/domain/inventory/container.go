package inventory

import "fmt"

// Role describes what a container is used for within the depot
type Role string

const (
	// RoleInput is the receptacle items arrive in before distribution
	RoleInput Role = "input"
	// RoleOutput is the receptacle fulfilled orders are delivered to
	RoleOutput Role = "output"
	// RoleStorage is a pooled storage container
	RoleStorage Role = "storage"
)

// Valid reports whether the role is one of the known values
func (r Role) Valid() bool {
	switch r {
	case RoleInput, RoleOutput, RoleStorage:
		return true
	}
	return false
}

// Container is a slotted, physically-addressed storage object discovered at
// startup and held for the process lifetime. Slots are numbered 1..Capacity
// and are never addressed by identity across containers: contents change
// between scans, so all cross-container matching goes through a fresh scan.
type Container struct {
	name     string
	role     Role
	capacity int
	handle   Handle
}

// NewContainer creates a container entity with validation
func NewContainer(name string, role Role, capacity int, handle Handle) (*Container, error) {
	if name == "" {
		return nil, fmt.Errorf("container name cannot be empty")
	}
	if !role.Valid() {
		return nil, fmt.Errorf("invalid container role: %q", role)
	}
	if capacity < 1 {
		return nil, fmt.Errorf("container capacity must be at least 1")
	}
	if handle == nil {
		return nil, fmt.Errorf("container handle cannot be nil")
	}

	return &Container{
		name:     name,
		role:     role,
		capacity: capacity,
		handle:   handle,
	}, nil
}

func (c *Container) Name() string   { return c.name }
func (c *Container) Role() Role     { return c.role }
func (c *Container) Capacity() int  { return c.capacity }
func (c *Container) Handle() Handle { return c.handle }

func (c *Container) String() string {
	return fmt.Sprintf("Container[%s, role=%s, slots=%d]", c.name, c.role, c.capacity)
}
