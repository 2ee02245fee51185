package auth

import (
	"sync"
	"time"
)

// TokenStore holds the Spotify access and refresh tokens for the current
// user. It is passed by reference to the API client so tests can substitute
// their own implementation.
type TokenStore interface {
	// Tokens returns the current access and refresh tokens. An empty access
	// token means the unauthenticated state.
	Tokens() (access, refresh string)

	// ExpiresAt returns when the access token expires, or the zero time
	// when the expiry is unknown.
	ExpiresAt() time.Time

	// SetAccessToken replaces the access token, keeping the refresh token.
	// Called after a successful refresh.
	SetAccessToken(access string, ttl time.Duration)

	// SetTokens replaces both tokens. Called after the initial exchange.
	SetTokens(access, refresh string, ttl time.Duration)

	// Clear removes both tokens, returning the store to the
	// unauthenticated state. Safe to call repeatedly.
	Clear()
}

// MemoryStore is an in-memory TokenStore. Concurrent refreshes race by
// design: both hold the same still-valid refresh token, so last write wins.
type MemoryStore struct {
	mu        sync.RWMutex
	access    string
	refresh   string
	expiresAt time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Tokens returns the stored access and refresh tokens.
func (s *MemoryStore) Tokens() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, s.refresh
}

// ExpiresAt returns when the access token expires, or the zero time if the
// expiry is unknown.
func (s *MemoryStore) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// SetAccessToken replaces the access token.
func (s *MemoryStore) SetAccessToken(access string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.expiresAt = expiry(ttl)
}

// SetTokens replaces both tokens.
func (s *MemoryStore) SetTokens(access, refresh string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	s.refresh = refresh
	s.expiresAt = expiry(ttl)
}

// Clear removes both tokens.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
	s.expiresAt = time.Time{}
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

var _ TokenStore = (*MemoryStore)(nil)
