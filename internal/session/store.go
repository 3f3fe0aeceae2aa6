// Package session keeps each user's latest search results and decides
// whether a button press still refers to them.
package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/ytget/yt-audio-bot/internal/model"
)

// DefaultTTL is how long a search session accepts button presses
const DefaultTTL = time.Hour

// TokenBase is the radix session tokens are printed in
const TokenBase = 36

var (
	// ErrSessionExpired is returned for a press after the session window
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionSuperseded is returned for a press on an older search
	ErrSessionSuperseded = errors.New("session superseded")

	// ErrNoSession is returned when the user has no stored search
	ErrNoSession = errors.New("no session")
)

// Session is one user's most recent search
type Session struct {
	User      int64                `json:"user"`
	Token     string               `json:"token"`
	Query     string               `json:"query,omitempty"`
	Results   []model.SearchResult `json:"results"`
	CreatedAt time.Time            `json:"created_at"`
}

// Expired reports whether the session is older than ttl at now
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.CreatedAt) > ttl
}

// Result returns the entry at index
func (s *Session) Result(index int) (model.SearchResult, bool) {
	if index < 0 || index >= len(s.Results) {
		return model.SearchResult{}, false
	}
	return s.Results[index], true
}

// Store holds one session per user. Put replaces a user's session as a whole.
type Store interface {
	Put(ctx context.Context, user int64, query string, results []model.SearchResult) (*Session, error)
	Validate(ctx context.Context, user int64, token string) (*Session, error)
	Get(ctx context.Context, user int64) (*Session, error)
	Clear(ctx context.Context, user int64) error
}

// check applies the validity rules to a stored session. Expiry wins over
// a token mismatch.
func check(s *Session, token string, now time.Time, ttl time.Duration) error {
	if s.Expired(now, ttl) {
		return ErrSessionExpired
	}
	if s.Token != token {
		return ErrSessionSuperseded
	}
	return nil
}

// tokenSource mints strictly increasing tokens from the clock
type tokenSource struct {
	mu   sync.Mutex
	last int64
}

func (t *tokenSource) next(now time.Time) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := now.UnixNano()
	if n <= t.last {
		n = t.last + 1
	}
	t.last = n
	return strconv.FormatInt(n, TokenBase)
}
