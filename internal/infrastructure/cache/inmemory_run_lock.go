package cache

import (
	"context"
	"sync"
	"time"

	syncapp "github.com/shopsync/backend/internal/application/sync"
)

// lockEntry represents a held lock with expiration
type lockEntry struct {
	expiresAt time.Time
}

// InMemoryRunLock implements RunLock using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryRunLock struct {
	mu    sync.Mutex
	locks map[string]lockEntry
}

// NewInMemoryRunLock creates a new in-memory run lock
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{
		locks: make(map[string]lockEntry),
	}
}

// Acquire attempts to take the named lock with a TTL
// Returns true if the lock was taken, false if another holder has it
func (l *InMemoryRunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, exists := l.locks[key]; exists {
		if time.Now().Before(e.expiresAt) {
			return false, nil // Held by another run
		}
		// Lock exists but expired, will be overwritten
	}

	l.locks[key] = lockEntry{
		expiresAt: time.Now().Add(ttl),
	}

	return true, nil
}

// Release frees the named lock
// Releasing a lock that is not held is not an error
func (l *InMemoryRunLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, key)
	return nil
}

// Size returns the number of held locks (for testing/monitoring)
func (l *InMemoryRunLock) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// Ensure InMemoryRunLock implements RunLock
var _ syncapp.RunLock = (*InMemoryRunLock)(nil)
