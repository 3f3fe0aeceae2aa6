package session

import (
	"context"
	"sync"
	"time"

	"github.com/ytget/yt-audio-bot/internal/model"
)

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	ttl      time.Duration
	tokens   tokenSource
	now      func() time.Time
}

// NewMemoryStore creates an in-memory store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Put replaces the user's session with a new one holding results
func (m *MemoryStore) Put(_ context.Context, user int64, query string, results []model.SearchResult) (*Session, error) {
	now := m.now()
	session := &Session{
		User:      user,
		Token:     m.tokens.next(now),
		Query:     query,
		Results:   append([]model.SearchResult(nil), results...),
		CreatedAt: now,
	}

	m.mu.Lock()
	m.sessions[user] = session
	m.mu.Unlock()

	return session, nil
}

// Validate returns the session if token still refers to it
func (m *MemoryStore) Validate(_ context.Context, user int64, token string) (*Session, error) {
	m.mu.RLock()
	session, exists := m.sessions[user]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrSessionExpired
	}
	if err := check(session, token, m.now(), m.ttl); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the user's current session
func (m *MemoryStore) Get(_ context.Context, user int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[user]
	if !exists {
		return nil, ErrNoSession
	}
	return session, nil
}

// Clear removes the user's session
func (m *MemoryStore) Clear(_ context.Context, user int64) error {
	m.mu.Lock()
	delete(m.sessions, user)
	m.mu.Unlock()
	return nil
}

// Sweep removes expired sessions and returns how many were removed
func (m *MemoryStore) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for user, session := range m.sessions {
		if session.Expired(now, m.ttl) {
			delete(m.sessions, user)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
