package simworld

import (
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// World is a registry of simulated chests sharing one transfer rate
// limiter, mirroring how a real peripheral bus serializes slot operations.
type World struct {
	mu      sync.Mutex
	chests  map[string]*Chest
	limiter *rate.Limiter
}

// NewWorld creates a world. transferRate <= 0 disables pacing (tests).
func NewWorld(transferRate float64, burst int) *World {
	var limiter *rate.Limiter
	if transferRate > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(transferRate), burst)
	}
	return &World{
		chests:  make(map[string]*Chest),
		limiter: limiter,
	}
}

// CreateChest adds a new chest to the world
func (w *World) CreateChest(name string, capacity int) (*Chest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.chests[name]; exists {
		return nil, fmt.Errorf("chest already exists: %s", name)
	}

	chest, err := NewChest(name, capacity, w.limiter)
	if err != nil {
		return nil, err
	}
	w.chests[name] = chest
	return chest, nil
}

// Chest looks up a chest by name
func (w *World) Chest(name string) (*Chest, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	chest, ok := w.chests[name]
	return chest, ok
}

// Names returns all chest names
func (w *World) Names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.chests))
	for name := range w.chests {
		names = append(names, name)
	}
	return names
}
