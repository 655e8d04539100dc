// Package memory provides an in-process session store for local
// development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/placepilot/placepilot/internal/adapters/storage/keylock"
	"github.com/placepilot/placepilot/internal/domain"
	"github.com/placepilot/placepilot/internal/observability"
)

// Store keeps sessions in a map guarded by a per-user lock. Get
// acquires the user's lock and holds it until Commit, so two turns for
// the same user never interleave.
type Store struct {
	mu          sync.RWMutex
	sessions    map[domain.UserID]*domain.Session
	locks       *keylock.Locker
	idleTimeout time.Duration
	now         func() time.Time
}

func New(idleTimeout time.Duration) *Store {
	return &Store{
		sessions:    make(map[domain.UserID]*domain.Session),
		locks:       keylock.New(),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Get returns the user's session, creating a fresh one on first
// contact. A session idle past the timeout comes back with its flow
// reset; saved location and history survive.
func (s *Store) Get(ctx context.Context, userID domain.UserID) (*domain.Session, error) {
	if err := s.locks.Acquire(ctx, string(userID)); err != nil {
		return nil, err
	}

	s.mu.RLock()
	stored, ok := s.sessions[userID]
	s.mu.RUnlock()

	now := s.now()
	if !ok {
		return domain.NewSession(userID, now), nil
	}

	sess := stored.Clone()
	if sess.Expired(now, s.idleTimeout) && sess.FlowActive() {
		observability.LoggerFromContext(ctx).Info("expiring idle flow",
			"user_id", userID, "flow", sess.ActiveFlow)
		sess.ResetFlow()
	}
	return sess, nil
}

// Commit stores the session and releases the user's lock.
func (s *Store) Commit(_ context.Context, userID domain.UserID, sess *domain.Session) error {
	defer s.locks.Release(string(userID))

	s.mu.Lock()
	s.sessions[userID] = sess.Clone()
	s.mu.Unlock()
	return nil
}
