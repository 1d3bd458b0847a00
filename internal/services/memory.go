package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

type commitmentEntry struct {
	secret    string
	expiresAt time.Time
}

// MemoryCommitmentStore keeps pending seeds in process. Suitable for a
// single node and for tests; production deployments use Redis.
type MemoryCommitmentStore struct {
	mu      sync.Mutex
	entries map[string]commitmentEntry
	ttl     time.Duration
}

func NewMemoryCommitmentStore(ttl time.Duration) *MemoryCommitmentStore {
	return &MemoryCommitmentStore{
		entries: make(map[string]commitmentEntry),
		ttl:     ttl,
	}
}

func (s *MemoryCommitmentStore) Issue(ctx context.Context) (string, error) {
	secret, hash, err := newServerSeed()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.entries[hash] = commitmentEntry{
		secret:    secret,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Unlock()

	return hash, nil
}

func (s *MemoryCommitmentStore) Consume(ctx context.Context, commitmentHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[commitmentHash]
	if !ok {
		return "", ErrNotFound
	}
	delete(s.entries, commitmentHash)

	if time.Now().After(entry.expiresAt) {
		return "", ErrNotFound
	}

	return entry.secret, nil
}

// Sweep drops expired entries; run periodically from main.
func (s *MemoryCommitmentStore) Sweep() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for hash, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, hash)
		}
	}
}

// newServerSeed draws a 32-byte secret and returns it with its
// SHA-256 commitment, both hex encoded.
func newServerSeed() (secret, hash string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("failed to generate server seed: %v", err)
	}

	secret = hex.EncodeToString(bytes)
	sum := sha256.Sum256([]byte(secret))
	return secret, hex.EncodeToString(sum[:]), nil
}

// HashSeed recomputes the commitment for a revealed seed. Exposed so
// players and the orchestrator use the same definition.
func HashSeed(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// MemorySpentTicketRegistry is the in-process replay guard counterpart.
type MemorySpentTicketRegistry struct {
	mu    sync.Mutex
	spent map[string]time.Time
	ttl   time.Duration
}

func NewMemorySpentTicketRegistry(ttl time.Duration) *MemorySpentTicketRegistry {
	return &MemorySpentTicketRegistry{
		spent: make(map[string]time.Time),
		ttl:   ttl,
	}
}

func (r *MemorySpentTicketRegistry) MarkSpent(ctx context.Context, ticketID string) (bool, error) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if expiry, ok := r.spent[ticketID]; ok && now.Before(expiry) {
		return false, nil
	}
	r.spent[ticketID] = now.Add(r.ttl)
	return true, nil
}

func (r *MemorySpentTicketRegistry) Sweep() {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, expiry := range r.spent {
		if now.After(expiry) {
			delete(r.spent, id)
		}
	}
}
