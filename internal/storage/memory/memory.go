// Package memory implements an in-memory durable slot.
// Contents live only as long as the process; it backs memory-only operation.
package memory

import "sync"

// Slots provides an in-memory implementation of cart.Slot.
type Slots struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// New creates an empty set of slots.
func New() *Slots {
	return &Slots{slots: make(map[string][]byte)}
}

// Get returns a copy of the slot contents.
func (s *Slots) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.slots[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Set stores a copy of data under key.
func (s *Slots) Set(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = append([]byte(nil), data...)
	return nil
}

// Delete removes a slot.
func (s *Slots) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, key)
	return nil
}
