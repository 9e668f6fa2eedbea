package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitty/internal/calculator"
	"github.com/mmynk/splitty/internal/metrics"
	"github.com/mmynk/splitty/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrForbidden       = errors.New("session belongs to another user")
)

// Manager keeps the live sessions of all users in memory.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	idleTimeout time.Duration
}

// NewManager creates a manager that evicts sessions idle for longer than
// idleTimeout. A zero timeout disables eviction.
func NewManager(idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
	}
}

// Create starts an empty session for ownerID.
func (m *Manager) Create(ownerID string) *Session {
	s := newSession(uuid.New().String(), ownerID)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	metrics.SessionOpened()
	slog.Debug("Session created", "session_id", s.ID, "user_id", ownerID)
	return s
}

// Get returns the session with the given id if ownerID owns it.
func (m *Manager) Get(ownerID, id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	s.touch()
	return s, nil
}

// Resume opens a new session seeded with a saved bill.
func (m *Manager) Resume(ownerID string, bill *models.SavedBill) (*Session, *calculator.Result, error) {
	if bill.OwnerID != "" && bill.OwnerID != ownerID {
		return nil, nil, ErrForbidden
	}

	s := newSession(uuid.New().String(), ownerID)
	result, err := s.Restore(bill)
	if err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	metrics.SessionOpened()
	slog.Debug("Session resumed", "session_id", s.ID, "bill_id", bill.ID, "user_id", ownerID)
	return s, result, nil
}

// Close drops a session. Closing an unknown session is a no-op.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		metrics.SessionClosed()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle since before now minus the idle timeout and
// returns how many were evicted.
func (m *Manager) Sweep(now time.Time) int {
	if m.idleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-m.idleTimeout)

	m.mu.Lock()
	var evicted int
	for id, s := range m.sessions {
		if s.LastUsed().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	m.mu.Unlock()

	for i := 0; i < evicted; i++ {
		metrics.SessionClosed()
	}
	if evicted > 0 {
		slog.Info("Evicted idle sessions", "count", evicted)
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}
