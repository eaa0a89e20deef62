// Package session binds a signed client cookie to a server-side session
// record kept in a pluggable Store.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"member-ledger/internal/models"
)

// ErrNotFound is returned by a Store when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Store persists session payloads under opaque tokens until a fixed expiry.
type Store interface {
	Save(ctx context.Context, token string, user models.SessionUser, expiresAt time.Time) error
	Load(ctx context.Context, token string) (*models.SessionUser, error)
	Delete(ctx context.Context, token string) error
	// Purge removes expired sessions and returns how many were removed.
	Purge(ctx context.Context) (int64, error)
}

type memoryEntry struct {
	user      models.SessionUser
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Sessions do not survive restarts.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry), now: time.Now}
}

// SetClock replaces the store's time source.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Save(_ context.Context, token string, user models.SessionUser, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = memoryEntry{user: user, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, token string) (*models.SessionUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok || !e.expiresAt.After(s.now()) {
		return nil, ErrNotFound
	}
	user := e.user
	return &user, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *MemoryStore) Purge(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var n int64
	for token, e := range s.sessions {
		if !e.expiresAt.After(now) {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
