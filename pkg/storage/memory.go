package storage

import (
	"encoding/json"
	"sync"

	"github.com/smileworks/clinic-core/pkg/types"
)

// MemoryStore is an in-process Store keeping collections as marshaled
// JSON blobs. It is the default backend and the one tests use.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Load decodes the stored collection into v. A missing collection
// leaves v untouched.
func (s *MemoryStore) Load(collection string, v interface{}) error {
	s.mu.RLock()
	blob, ok := s.blobs[collection]
	s.mu.RUnlock()

	if !ok || len(blob) == 0 {
		return nil
	}

	if err := json.Unmarshal(blob, v); err != nil {
		return types.NewStorageError(types.ErrCodeStorageCorrupt, "stored collection "+collection+" is not valid JSON", err)
	}
	return nil
}

// Save replaces the stored collection with the marshaled form of v
func (s *MemoryStore) Save(collection string, v interface{}) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return types.NewStorageError(types.ErrCodeStorageCorrupt, "failed to marshal collection "+collection, err)
	}

	s.mu.Lock()
	s.blobs[collection] = blob
	s.mu.Unlock()
	return nil
}

// SeedRaw stores a raw JSON blob without validation. Tests use it to
// simulate partially corrupt persisted state.
func (s *MemoryStore) SeedRaw(collection string, blob []byte) {
	s.mu.Lock()
	s.blobs[collection] = blob
	s.mu.Unlock()
}

// MemorySession is an in-process Session implementation
type MemorySession struct {
	mu      sync.RWMutex
	current *types.User
}

// NewMemorySession creates a session with no authenticated actor
func NewMemorySession() *MemorySession {
	return &MemorySession{}
}

// Current returns the authenticated actor, or nil
func (s *MemorySession) Current() *types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetCurrent records the authenticated actor
func (s *MemorySession) SetCurrent(u *types.User) {
	s.mu.Lock()
	s.current = u
	s.mu.Unlock()
}

// Clear logs the current actor out
func (s *MemorySession) Clear() {
	s.SetCurrent(nil)
}
