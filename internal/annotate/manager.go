package annotate

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound marks a lookup for an unknown or expired session id.
var ErrSessionNotFound = errors.New("Session not found")

// Manager hands out and resolves annotation sessions. Sessions live until
// the process exits.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns an empty session registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create registers a fresh session and returns it.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s
}

// Get resolves a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}
