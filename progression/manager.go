// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package progression

import (
	"errors"
	"sync"

	"github.com/ragaudit/rag-audit/catalog"
)

// ErrNoSession means the audit has no active editing session.
var ErrNoSession = errors.New("audit has no active session")

// Manager tracks the one live session per audit. Navigating away keeps
// the session (and its drafts) intact; returning to the audit finds it
// again.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Start returns the audit's session, creating it with a snapshot of the
// template on first call. Calling Start again for the same audit
// returns the existing session with drafts intact.
func (m *Manager) Start(auditID string, tpl catalog.Template) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[auditID]; ok {
		return s
	}
	s := NewSession(auditID, tpl)
	m.sessions[auditID] = s
	return s
}

// Get returns the audit's session if one has been started.
func (m *Manager) Get(auditID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[auditID]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// End discards the audit's session. Called after audit completion.
func (m *Manager) End(auditID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, auditID)
}
