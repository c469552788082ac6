package store

import (
	"fmt"
	"sync"

	"github.com/heysubinoy/pyazkv/pkg/kv"
)

// MemStore is an in-memory implementation of the kv.Store interface.
// Every operation holds a single mutex for the duration of the map access,
// so reads and writes are serialized with respect to each other.
//
// If a panic escapes the critical section the store is marked unavailable
// and every later call fails with kv.ErrStoreUnavailable.
type MemStore struct {
	mu       sync.Mutex
	data     map[string]string
	poisoned bool
}

// Compile-time check to ensure MemStore implements kv.Store.
var _ kv.Store = (*MemStore)(nil)

// NewMemStore creates and returns a new MemStore instance.
func NewMemStore() *MemStore {
	return &MemStore{
		data: make(map[string]string),
	}
}

// Get retrieves a value by key from the store.
func (s *MemStore) Get(key string) (string, error) {
	var (
		val string
		ok  bool
	)
	err := s.locked(func(data map[string]string) {
		val, ok = data[key]
	})
	if err != nil {
		return "", err
	}
	if !ok {
		return "", kv.ErrNotFound
	}
	return val, nil
}

// Set stores a key-value pair in the store. The last writer wins.
func (s *MemStore) Set(key, value string) error {
	return s.locked(func(data map[string]string) {
		data[key] = value
	})
}

// Len returns the number of keys currently stored.
func (s *MemStore) Len() (int, error) {
	var n int
	err := s.locked(func(data map[string]string) {
		n = len(data)
	})
	return n, err
}

// Available reports whether the store can still serve operations.
func (s *MemStore) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.poisoned
}

// locked runs fn with exclusive access to the map. The mutex is released on
// every exit path; a panic inside fn poisons the store instead of crashing
// the caller.
func (s *MemStore) locked(fn func(data map[string]string)) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return kv.ErrStoreUnavailable
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			err = fmt.Errorf("%w: critical section aborted: %v", kv.ErrStoreUnavailable, r)
		}
	}()

	fn(s.data)
	return nil
}
