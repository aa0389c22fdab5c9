package auth

import (
	"context"
	"sync"
	"time"
)

// DefaultRevocationTTL bounds how long a logout is remembered for tokens
// that carry no exp claim.
const DefaultRevocationTTL = 24 * time.Hour

// RevocationChecker is consulted by RoleGate.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RevocationStore records logged-out tokens until they would have expired.
type RevocationStore interface {
	RevocationChecker
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	Close() error
}

// revocationTTL is how long a revocation must be kept for a token.
func revocationTTL(expiresAt, now time.Time) time.Duration {
	if expiresAt.IsZero() {
		return DefaultRevocationTTL
	}
	return expiresAt.Sub(now)
}

type revocationEntry struct {
	ExpiresAt time.Time
}

// MemoryRevocationStore keeps revoked token hashes in memory with periodic
// cleanup of entries past their expiry. Used when no Redis is configured.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]revocationEntry // token hash -> entry
	done    chan struct{}
	once    sync.Once
}

// NewMemoryRevocationStore creates a store and starts a background goroutine
// that cleans up expired entries every 5 minutes.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	s := &MemoryRevocationStore{
		entries: make(map[string]revocationEntry),
		done:    make(chan struct{}),
	}
	go s.cleanupLoop(5 * time.Minute)
	return s
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	now := time.Now()
	ttl := revocationTTL(expiresAt, now)
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[TokenKey(token)] = revocationEntry{ExpiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[TokenKey(token)]
	if !ok {
		return false, nil
	}
	return time.Now().Before(e.ExpiresAt), nil
}

// Count returns the number of tracked revocations.
func (s *MemoryRevocationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (s *MemoryRevocationStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *MemoryRevocationStore) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup(time.Now())
		}
	}
}

func (s *MemoryRevocationStore) cleanup(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		if now.After(e.ExpiresAt) {
			delete(s.entries, key)
		}
	}
}
