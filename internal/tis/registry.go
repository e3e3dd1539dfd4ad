package tis

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps device-association keys to chips. The bus frameworks
// serialize probe and remove for a given device, but different buses may
// tear down concurrently at unload, so the table carries its own lock.
type Registry struct {
	mu    sync.Mutex
	chips map[string]*Chip
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{chips: make(map[string]*Chip)}
}

// Register associates key with chip. Registering a key twice is a
// logic error in the caller.
func (r *Registry) Register(key string, chip *Chip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.chips[key]; exists {
		return fmt.Errorf("%w: %q", ErrChipRegistered, key)
	}
	r.chips[key] = chip
	return nil
}

// Unregister removes the association for key and returns the chip.
// After Unregister returns, no new registry-visible operations can be
// issued against the chip.
func (r *Registry) Unregister(key string) (*Chip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chip, ok := r.chips[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrChipNotFound, key)
	}
	delete(r.chips, key)
	return chip, nil
}

// Chip returns the chip registered under key.
func (r *Registry) Chip(key string) (*Chip, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chip, ok := r.chips[key]
	return chip, ok
}

// Len returns the number of registered chips.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chips)
}

// Keys returns the registered device keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.chips))
	for key := range r.chips {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
