package auth

import (
	"context"
	"sync"
	"time"
)

// Revocations is the logout denylist. A revoked token ID only needs to be
// remembered until the token would have expired on its own.
//
// Implementations: MemoryRevocations (single process) and
// cache.RedisRevocations (shared across replicas).
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevocations keeps revoked token IDs in a map. Expired entries are
// dropped on the next Revoke.
type MemoryRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

var _ Revocations = (*MemoryRevocations)(nil)

// NewMemoryRevocations creates an empty in-process denylist.
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke records tokenID until expiresAt. Already-expired tokens are ignored.
func (m *MemoryRevocations) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, id)
		}
	}
	if expiresAt.After(now) {
		m.entries[tokenID] = expiresAt
	}
	return nil
}

// IsRevoked reports whether tokenID is on the denylist and not yet expired.
func (m *MemoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.entries[tokenID]
	return ok && exp.After(m.now()), nil
}

// Len returns the number of tracked entries, expired or not.
func (m *MemoryRevocations) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
