package api

import (
	"log/slog"
	"sync"
)

// Session holds the bearer token sent with every backend request. It is
// shared between the client and whatever refreshes or persists the token.
type Session struct {
	mu           sync.RWMutex
	token        string
	onInvalidate []func()
}

// NewSession creates a session for token. An empty token means logged out.
func NewSession(token string) *Session {
	return &Session{token: token}
}

// Token returns the current bearer token
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken replaces the bearer token, for example after a refresh
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Valid reports whether a token is present
func (s *Session) Valid() bool {
	return s.Token() != ""
}

// OnInvalidate registers fn to run after the session is invalidated
func (s *Session) OnInvalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInvalidate = append(s.onInvalidate, fn)
}

// Invalidate clears the token and runs the registered hooks. Hooks only run
// on the transition from valid to invalid.
func (s *Session) Invalidate() {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.token = ""
	hooks := append([]func(){}, s.onInvalidate...)
	s.mu.Unlock()

	slog.Info("session_invalidated")
	for _, fn := range hooks {
		fn()
	}
}
