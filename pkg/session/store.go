package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ExclusiveAccount/shastra-shield/pkg/config"
)

// DefaultIdleTimeout is how long an untouched session is kept
const DefaultIdleTimeout = 30 * time.Minute

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Store keeps sessions in memory, keyed by handle. Nothing survives a restart.
// Sessions are only stored once added; idle ones are dropped by Expire.
type Store struct {
	sim         config.Simulation
	logger      *logrus.Logger
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithIdleTimeout sets how long a session may go untouched before Expire drops it.
// A non-positive timeout keeps sessions until the process exits.
func WithIdleTimeout(d time.Duration) StoreOption {
	return func(st *Store) { st.idleTimeout = d }
}

// WithStoreClock replaces the clock used for idle tracking
func WithStoreClock(now func() time.Time) StoreOption {
	return func(st *Store) { st.now = now }
}

// NewStore creates an empty session store
func NewStore(sim config.Simulation, logger *logrus.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = logrus.New()
	}

	st := &Store{
		sim:         sim,
		logger:      logger,
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// New returns a fresh session that is not yet stored
func (st *Store) New() *Session {
	return New(st.sim)
}

// Add stores s. Adding a stored session only refreshes its idle timer.
func (st *Store) Add(s *Session) {
	st.mu.Lock()
	_, existed := st.sessions[s.ID()]
	st.sessions[s.ID()] = &entry{session: s, lastSeen: st.now()}
	st.mu.Unlock()

	if !existed {
		st.logger.WithField("session", s.ID()).Debug("Stored session")
	}
}

// Get returns the session for id and refreshes its idle timer
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[id]
	if !ok || st.expired(e) {
		return nil, ErrSessionNotFound
	}
	e.lastSeen = st.now()
	return e.session, nil
}

// Expire drops every session idle for longer than the idle timeout and
// returns how many were removed
func (st *Store) Expire() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, e := range st.sessions {
		if st.expired(e) {
			delete(st.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		st.logger.WithField("count", removed).Debug("Expired idle sessions")
	}
	return removed
}

// Run calls Expire every interval until ctx is done
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if st.idleTimeout <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Expire()
		}
	}
}

// Len returns the number of stored sessions
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// expired must be called with mu held
func (st *Store) expired(e *entry) bool {
	return st.idleTimeout > 0 && st.now().Sub(e.lastSeen) > st.idleTimeout
}
