package session

import (
	"context"
	"sort"
	"sync"
	"time"

	pkgerrors "kgview/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager keys sessions by id and drives their frame loop
type Manager struct {
	deps Dependencies

	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *zap.Logger
}

// NewManager creates a session manager
func NewManager(deps Dependencies) *Manager {
	deps = deps.withDefaults()
	return &Manager{
		deps:     deps,
		sessions: make(map[string]*Session),
		logger:   deps.Logger,
	}
}

// Create registers a new session and performs its first load. The session is
// returned even when the load fails; it is then in StateError and can Retry.
func (m *Manager) Create(ctx context.Context, opts Options) (*Session, error) {
	s, err := New(uuid.New().String(), opts, m.deps)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	live := len(m.sessions)
	m.mu.Unlock()

	m.deps.Metrics.SetLiveSessions(live)
	m.logger.Info("Session created", zap.String("sessionID", s.ID()), zap.String("mode", string(s.mode)))

	return s, s.Load(ctx)
}

// Get returns a session by id
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("session")
	}
	return s, nil
}

// List returns every session ordered by id
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID() < sessions[j].ID() })
	return sessions
}

// Close tears down one session and ends its event subscriptions
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	live := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return pkgerrors.NewNotFoundError("session")
	}
	s.Close()
	m.closeStream(id)
	m.deps.Metrics.SetLiveSessions(live)
	m.logger.Info("Session closed", zap.String("sessionID", id))
	return nil
}

// CloseAll tears down every session
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for id, s := range sessions {
		s.Close()
		m.closeStream(id)
	}
	m.deps.Metrics.SetLiveSessions(0)
}

func (m *Manager) closeStream(id string) {
	if m.deps.Streams != nil {
		m.deps.Streams.Close(id)
	}
}

// ReconfigureAll queues a parameter change on every session
func (m *Manager) ReconfigureAll(req ReconfigureRequest, now time.Time) {
	for _, s := range m.List() {
		if err := s.Reconfigure(req, now); err != nil {
			m.logger.Warn("Reconfigure rejected", zap.String("sessionID", s.ID()), zap.Error(err))
		}
	}
}

// TickAll advances every session by one frame
func (m *Manager) TickAll(ctx context.Context, now time.Time) {
	for _, s := range m.List() {
		if _, err := s.Tick(ctx, now); err != nil && err != ErrClosed {
			m.logger.Warn("Tick failed", zap.String("sessionID", s.ID()), zap.Error(err))
		}
	}
}

// Run ticks every session on interval until ctx is cancelled
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.deps.Config.FrameBudget
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("Frame loop started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Frame loop stopped")
			return
		case <-ticker.C:
			m.TickAll(ctx, m.deps.Clock())
		}
	}
}
