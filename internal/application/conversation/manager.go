package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// ---------------------------------------------------------------------------
// Persistence contract
// ---------------------------------------------------------------------------

// SnapshotStore persists session snapshots across process restarts. Load
// returns ErrCodeSessionNotFound for unknown ids.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, id string) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// SessionOptions carries optional session attributes.
type SessionOptions struct {
	Name      string
	CompanyID string
	UserID    string
}

// ---------------------------------------------------------------------------
// Manager
// ---------------------------------------------------------------------------

// Manager owns the live sessions of the process.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	settings Settings
	store    SnapshotStore
	logger   logging.Logger
	now      func() time.Time
	newID    func() string
	observe  func(active int)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSnapshotStore enables persistence.
func WithSnapshotStore(store SnapshotStore) ManagerOption {
	return func(m *Manager) { m.store = store }
}

// WithClock overrides time.Now for sessions created by the manager.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides the session and turn id generator.
func WithIDGenerator(gen func() string) ManagerOption {
	return func(m *Manager) { m.newID = gen }
}

// WithActiveSessionObserver is called with the live session count after
// every change.
func WithActiveSessionObserver(fn func(active int)) ManagerOption {
	return func(m *Manager) { m.observe = fn }
}

// NewManager returns a Manager. Zero settings fields take defaults.
func NewManager(settings Settings, logger logging.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	m := &Manager{
		sessions: make(map[string]*Session),
		settings: settings.withDefaults(),
		logger:   logger.Named("conversation"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Settings returns the effective settings.
func (m *Manager) Settings() Settings { return m.settings }

// InitializeSession creates an active session and starts its cleanup timer.
func (m *Manager) InitializeSession(opts SessionOptions) *Session {
	s := newSession(m.newID(), opts.Name, opts.CompanyID, opts.UserID, m.settings, m.now, m.newID)
	m.register(s)
	m.logger.Info("session started", logging.String("session_id", s.id), logging.String("name", opts.Name))
	return s
}

func (m *Manager) register(s *Session) {
	m.startCleanup(s)
	m.mu.Lock()
	m.sessions[s.id] = s
	n := len(m.sessions)
	m.mu.Unlock()
	m.notify(n)
}

func (m *Manager) startCleanup(s *Session) {
	s.startCleanup(func(removed, archived int) {
		if removed > 0 || archived > 0 {
			m.logger.Debug("session cleanup",
				logging.String("session_id", s.id),
				logging.Int("removed_entities", removed),
				logging.Int("archived_turns", archived))
		}
	})
}

func (m *Manager) notify(active int) {
	if m.observe != nil {
		m.observe(active)
	}
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail("id=" + id)
	}
	return s, nil
}

// Resume returns the live session or restores it from the snapshot store.
func (m *Manager) Resume(ctx context.Context, id string) (*Session, error) {
	if s, err := m.Get(id); err == nil {
		return s, nil
	}
	if m.store == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail("id=" + id)
	}
	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.Status == StatusCompleted {
		return nil, errors.New(errors.ErrCodeSessionClosed, "session is completed").WithDetail("id=" + id)
	}

	// Re-check and insert under one lock so concurrent resumes of the same
	// id share a single *Session.
	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return s, nil
	}
	s := sessionFromSnapshot(snap, m.settings, m.now, m.newID)
	m.startCleanup(s)
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()
	m.notify(n)

	m.logger.Info("session resumed", logging.String("session_id", id), logging.Int("turns", len(snap.Turns)))
	return s, nil
}

// Persist writes the session snapshot. Without a store it is a no-op.
func (m *Manager) Persist(ctx context.Context, s *Session) error {
	if m.store == nil || s == nil {
		return nil
	}
	if err := m.store.Save(ctx, s.Snapshot()); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to persist session")
	}
	return nil
}

// Pause marks a session paused; the next turn reactivates it.
func (m *Manager) Pause(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.setStatus(StatusPaused)
	return nil
}

// End completes a session, stops its cleanup timer, drops its snapshot and
// forgets it.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return errors.New(errors.ErrCodeSessionNotFound, "session not found").WithDetail("id=" + id)
	}
	m.notify(n)

	s.stopCleanup()
	s.setStatus(StatusCompleted)
	m.logger.Info("session ended", logging.String("session_id", id), logging.Int("turns", len(s.Turns())))
	if m.store == nil {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to drop session snapshot")
	}
	return nil
}

// ActiveCount is the number of live sessions.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops every cleanup timer. Sessions stay readable.
func (m *Manager) Close() {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()
	for _, s := range sessions {
		s.stopCleanup()
	}
}

//Personal.AI order the ending
