package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/echukwudebere/kachifo/models"
)

// SystemPrompt anchors every session. It survives history eviction.
const SystemPrompt = "You are Kachifo, a friendly assistant that surfaces trending topics and answers follow-up questions about them."

type session struct {
	turns    []models.Turn
	lastKind models.InputKind
	lastSeen time.Time
}

// Manager keeps per-session conversation history in memory. Histories are
// capped FIFO over non-system turns and sessions vanish after sitting
// idle past the TTL. Expiry is lazy: stale sessions are dropped when
// touched, plus a sweep whenever a new session is created.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	cap      int
	idleTTL  time.Duration
	now      func() time.Time
}

func NewManager(cap int, idleTTL time.Duration) *Manager {
	if cap <= 0 {
		cap = 20
	}
	if idleTTL <= 0 {
		idleTTL = 24 * time.Hour
	}
	return &Manager{
		sessions: make(map[string]*session),
		cap:      cap,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Ensure returns a live session id: the given one if it exists (or is
// usable as a new id), a fresh uuid when id is empty. New sessions start
// with the pinned system turn.
func (m *Manager) Ensure(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if id == "" {
		id = uuid.NewString()
	}
	s := m.liveLocked(id, now)
	if s == nil {
		m.sweepLocked(now)
		s = &session{turns: []models.Turn{{Role: models.RoleSystem, Content: SystemPrompt, At: now}}}
		m.sessions[id] = s
	}
	s.lastSeen = now
	return id
}

// Append adds a turn to the session, evicting the oldest non-system turn
// once the cap is exceeded. Unknown or expired sessions are ignored.
func (m *Manager) Append(id, role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	s := m.liveLocked(id, now)
	if s == nil {
		return
	}
	s.turns = append(s.turns, models.Turn{Role: role, Content: content, At: now})
	// Index 0 is the system turn; cap applies to the rest.
	for len(s.turns)-1 > m.cap {
		s.turns = append(s.turns[:1], s.turns[2:]...)
	}
	s.lastSeen = now
}

// History returns a copy of the session's turns, system turn first.
func (m *Manager) History(id string) ([]models.Turn, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.liveLocked(id, m.now())
	if s == nil {
		return nil, false
	}
	s.lastSeen = m.now()
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out, true
}

// SetLastKind records the routing of the session's latest input so short
// follow-ups can inherit it.
func (m *Manager) SetLastKind(id string, kind models.InputKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.liveLocked(id, m.now()); s != nil {
		s.lastKind = kind
	}
}

func (m *Manager) LastKind(id string) models.InputKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.liveLocked(id, m.now()); s != nil {
		return s.lastKind
	}
	return ""
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// liveLocked returns the session if it exists and has not idled out,
// dropping it otherwise.
func (m *Manager) liveLocked(id string, now time.Time) *session {
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if now.Sub(s.lastSeen) > m.idleTTL {
		delete(m.sessions, id)
		return nil
	}
	return s
}

func (m *Manager) sweepLocked(now time.Time) {
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) > m.idleTTL {
			delete(m.sessions, id)
		}
	}
}
