package salesrecon

import "sync"

// Store is an append-only, concurrency-safe map. Entries are never evicted.
type Store[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// NewStore builds an empty store.
func NewStore[V any]() *Store[V] {
	return &Store[V]{items: make(map[string]V)}
}

// Get returns the value for key and whether it was present.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Has reports whether key is present.
func (s *Store[V]) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Put stores value under key unless the key is already present. The first
// value written wins and it reports whether value was stored.
func (s *Store[V]) Put(key string, value V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = value
	return true
}

// Len returns the number of entries.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Caches groups the three reference stores used during one viewing session.
// Pass the same value to the Fetcher and Enricher; tests build their own.
type Caches struct {
	Products    *Store[Product]
	Departments *Store[Department]
	Orders      *Store[Order]
}

// NewCaches returns empty caches.
func NewCaches() *Caches {
	return &Caches{
		Products:    NewStore[Product](),
		Departments: NewStore[Department](),
		Orders:      NewStore[Order](),
	}
}
