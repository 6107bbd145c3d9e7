package session

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns every live session and drives their enemy turns.
type Manager struct {
	gm      GameMaster
	opts    []SessionOpt
	newRand func() *rand.Rand
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

type ManagerOpt func(*Manager)

// WithSessionOpts applies opts to every session the manager creates.
func WithSessionOpts(opts ...SessionOpt) ManagerOpt {
	return func(m *Manager) {
		m.opts = append(m.opts, opts...)
	}
}

// WithRandFactory gives each new session its own source from f.
func WithRandFactory(f func() *rand.Rand) ManagerOpt {
	return func(m *Manager) {
		m.newRand = f
	}
}

// WithManagerClock sets the time passed to each session's Tick.
func WithManagerClock(now func() time.Time) ManagerOpt {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(gm GameMaster, opts ...ManagerOpt) *Manager {
	m := &Manager{
		gm:       gm,
		now:      time.Now,
		sessions: map[string]*Session{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// NewSession creates and registers a session with a fresh id.
func (m *Manager) NewSession(opts ...SessionOpt) *Session {
	all := append([]SessionOpt{}, m.opts...)
	if m.newRand != nil {
		all = append(all, WithRand(m.newRand()))
	}
	all = append(all, opts...)

	s := NewSession(uuid.NewString(), m.gm, all...)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove closes and forgets the session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Tick resolves any enemy turn that has come due.
func (m *Manager) Tick(ctx context.Context) error {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	now := m.now()
	for _, s := range sessions {
		err := s.Tick(ctx, now)
		if err != nil {
			return err
		}
	}
	return nil
}

// Start blocks until ctx is done and then closes every session.
func (m *Manager) Start(ctx context.Context) error {
	<-ctx.Done()

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}

	slog.InfoContext(ctx, "closed all sessions")
	return nil
}
