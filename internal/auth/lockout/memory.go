package lockout

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count       int
	lockedUntil time.Time
	expiresAt   time.Time
}

// MemoryStore keeps attempt counters in process memory. State is per instance
// and lost on restart; deployments with more than one replica should use the
// Redis store instead.
type MemoryStore struct {
	mu          sync.Mutex
	entries     map[string]*memoryEntry
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time
}

// NewMemoryStore returns an in-memory Store locking a key for lockout after
// maxAttempts consecutive failures.
func NewMemoryStore(maxAttempts int, lockout time.Duration) *MemoryStore {
	return &MemoryStore{
		entries:     make(map[string]*memoryEntry),
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
	}
}

func (s *MemoryStore) CheckLocked(ctx context.Context, key string) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.get(key)
	if e == nil {
		return false, 0, nil
	}
	if wait := e.lockedUntil.Sub(s.now()); wait > 0 {
		return true, wait, nil
	}
	return false, 0, nil
}

func (s *MemoryStore) RecordFailure(ctx context.Context, key string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e := s.get(key)
	if e == nil {
		e = &memoryEntry{}
		s.entries[key] = e
	}
	if e.lockedUntil.After(now) {
		return e.lockedUntil, nil
	}
	e.count++
	e.expiresAt = now.Add(attemptMemory(s.lockout))
	s.scheduleEviction(key, attemptMemory(s.lockout))
	if e.count >= s.maxAttempts {
		e.count = 0
		e.lockedUntil = now.Add(s.lockout)
		e.expiresAt = e.lockedUntil.Add(attemptMemory(s.lockout))
		return e.lockedUntil, nil
	}
	return time.Time{}, nil
}

func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// get returns the live entry for key, dropping it lazily when expired.
// Callers must hold s.mu.
func (s *MemoryStore) get(key string) *memoryEntry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if s.now().After(e.expiresAt) && !e.lockedUntil.After(s.now()) {
		delete(s.entries, key)
		return nil
	}
	return e
}

// scheduleEviction drops the entry after d unless it was refreshed in the
// meantime. Keeps the map from growing without bound under random emails.
func (s *MemoryStore) scheduleEviction(key string, d time.Duration) {
	time.AfterFunc(d+time.Second, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if e, ok := s.entries[key]; ok && s.now().After(e.expiresAt) {
			delete(s.entries, key)
		}
	})
}
