package server

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chazu/sprat/vm"
)

var (
	errWorkerStopped   = errors.New("server is shutting down")
	errSessionNotFound = errors.New("session not found")
)

// Session is a workspace with its own top-level scope. Definitions made in
// a session are invisible to other sessions but all of them see the
// program loaded at startup.
type Session struct {
	ID       string
	Name     string
	Scope    *vm.Env
	LastUsed time.Time
}

// SessionStore manages workspace sessions. Scopes are created on the VM
// goroutine; the store itself is safe for concurrent use.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	nextID   atomic.Uint64
	limit    int
}

// NewSessionStore creates a session store holding at most limit sessions;
// zero means no limit.
func NewSessionStore(limit int) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		limit:    limit,
	}
}

// Create registers a session around scope.
func (s *SessionStore) Create(name string, scope *vm.Env) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limit > 0 && len(s.sessions) >= s.limit {
		return nil, fmt.Errorf("session limit of %d reached", s.limit)
	}
	session := &Session{
		ID:       fmt.Sprintf("s-%d", s.nextID.Add(1)),
		Name:     name,
		Scope:    scope,
		LastUsed: time.Now(),
	}
	s.sessions[session.ID] = session
	return session, nil
}

// Get retrieves a session by ID and marks it used.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if ok {
		session.LastUsed = time.Now()
	}
	return session, ok
}

// Destroy removes a session. It reports whether the session existed.
func (s *SessionStore) Destroy(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than ttl and returns how many it
// removed.
func (s *SessionStore) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, session := range s.sessions {
		if session.LastUsed.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// StartSweeper runs Sweep every interval until the returned function is
// called.
func (s *SessionStore) StartSweeper(interval, ttl time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(ttl); n > 0 {
					log.Infof("expired %d idle session(s)", n)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}
