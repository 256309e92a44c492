package server

import "sync"

type attrKey struct {
	destination string
	endpoint    uint16
	attribute   uint32
}

// Store holds attribute values keyed by destination, endpoint and
// attribute id. Values are whatever JSON type the attribute carries
// (bool for on-off, numbers for the timer attributes).
type Store struct {
	mu    sync.RWMutex
	attrs map[attrKey]any
}

func NewStore() *Store {
	return &Store{attrs: make(map[attrKey]any)}
}

func (s *Store) Set(destination string, endpoint uint16, attribute uint32, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs[attrKey{destination, endpoint, attribute}] = value
}

func (s *Store) Get(destination string, endpoint uint16, attribute uint32) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.attrs[attrKey{destination, endpoint, attribute}]
	return v, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attrs)
}
