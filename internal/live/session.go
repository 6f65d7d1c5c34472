// Package live runs builder sessions over WebSocket. Each session holds a
// definition under edit and the values typed into its preview; every edit
// sends back a freshly derived schema and preview.
package live

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/formbuilder/internal/field"
	"github.com/matthewbaird/formbuilder/internal/preview"
)

// Session holds per-connection builder state.
type Session struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`

	mu         sync.Mutex
	definition field.Definition
	state      *preview.State
}

// NewSession creates a session editing def.
func NewSession(def field.Definition) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		LastActiveAt: now,
		definition:   def.Clone(),
		state:        preview.NewState(),
	}
}

// Touch updates the last activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	s.LastActiveAt = time.Now()
	s.mu.Unlock()
}

// Definition returns a copy of the definition under edit.
func (s *Session) Definition() field.Definition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.definition.Clone()
}

// Edit replaces the definition with the result of fn. The definition is left
// unchanged when fn fails.
func (s *Session) Edit(fn func(field.Definition) (field.Definition, error)) (field.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.definition.Clone())
	if err != nil {
		return s.definition.Clone(), err
	}
	next.UpdatedAt = time.Now().UTC()
	s.definition = next
	s.LastActiveAt = time.Now()
	return next.Clone(), nil
}

// WithState runs fn with the preview state and the current definition.
func (s *Session) WithState(fn func(def field.Definition, st *preview.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.definition, s.state)
	s.LastActiveAt = time.Now()
}

// Reset replaces the definition and clears the preview state.
func (s *Session) Reset(def field.Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.definition = def.Clone()
	s.state = preview.NewState()
	s.LastActiveAt = time.Now()
}

// IsExpired returns true if the session has exceeded the given max age.
func (s *Session) IsExpired(maxAge time.Duration) bool {
	return maxAge > 0 && time.Since(s.CreatedAt) > maxAge
}

// IsIdle returns true if the session has been idle longer than the timeout.
func (s *Session) IsIdle(timeout time.Duration) bool {
	s.mu.Lock()
	last := s.LastActiveAt
	s.mu.Unlock()
	return timeout > 0 && time.Since(last) > timeout
}

// Manager handles session creation, lookup, and cleanup.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxAge      time.Duration
	idleTimeout time.Duration
}

// NewManager creates a session manager with the given timeouts. A zero
// timeout disables that check.
func NewManager(maxAge, idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		maxAge:      maxAge,
		idleTimeout: idleTimeout,
	}
}

// Create creates a new session editing def and returns it.
func (m *Manager) Create(def field.Definition) *Session {
	s := NewSession(def)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get retrieves a session by ID. Returns nil if not found or expired.
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout) {
		m.Remove(id)
		return nil
	}
	return s
}

// Remove deletes a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup removes all expired and idle sessions.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.IsExpired(m.maxAge) || s.IsIdle(m.idleTimeout) {
			delete(m.sessions, id)
		}
	}
}

// Run calls Cleanup every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Cleanup()
		}
	}
}
