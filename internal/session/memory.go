package session

import (
	"context" // Store interface
	"sync"    // Guards the map
	"time"    // Expiry
)

// MemoryStore keeps session records in process memory. Used when no Redis
// address is configured and in tests; sessions do not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex             // Guards records
	records map[string]memoryEntry // Keyed by session id
	now     func() time.Time       // Clock, replaced in tests
}

type memoryEntry struct {
	rec     Record    // Stored record
	expires time.Time // Absolute expiry
}

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryEntry), now: time.Now}
}

// Save stores rec until ttl elapses
func (s *MemoryStore) Save(_ context.Context, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = memoryEntry{rec: rec, expires: s.now().Add(ttl)}
	return nil
}

// Load fetches the record for id, treating expired records as absent
func (s *MemoryStore) Load(_ context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.records[id]
	if !ok {
		return Record{}, ErrNoSession
	}
	if !s.now().Before(entry.expires) {
		delete(s.records, id) // Evict lazily
		return Record{}, ErrNoSession
	}
	return entry.rec, nil
}

// Delete removes the record for id
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// Len reports how many records are held, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
