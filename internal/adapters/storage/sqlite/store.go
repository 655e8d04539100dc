// Package sqlite provides a single-node durable session store backed
// by an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/placepilot/placepilot/internal/adapters/storage/keylock"
	"github.com/placepilot/placepilot/internal/domain"
	"github.com/placepilot/placepilot/internal/observability"
)

// Store persists sessions in SQLite. Per-user exclusivity is enforced
// in-process with a keyed lock; the database only provides durability.
type Store struct {
	db          *sql.DB
	locks       *keylock.Locker
	idleTimeout time.Duration
	now         func() time.Time
}

// New opens (creating if needed) the database at dbPath and prepares
// the schema.
func New(dbPath string, idleTimeout time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL keeps readers from blocking the writer.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{
		db:          db,
		locks:       keylock.New(),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		user_id TEXT PRIMARY KEY,
		active_flow TEXT NOT NULL DEFAULT '',
		stage TEXT NOT NULL DEFAULT '',
		draft_json TEXT NOT NULL DEFAULT '{}',
		location_json TEXT,
		history_json TEXT NOT NULL DEFAULT '[]',
		last_activity_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_last_activity ON sessions(last_activity_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Get acquires the user's lock and loads their session, creating a
// fresh one on first contact. An idle flow is abandoned on load.
func (s *Store) Get(ctx context.Context, userID domain.UserID) (*domain.Session, error) {
	if err := s.locks.Acquire(ctx, string(userID)); err != nil {
		return nil, err
	}

	sess, err := s.load(ctx, userID)
	if err != nil {
		// Failed loads must not leave the user locked out.
		s.locks.Release(string(userID))
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	now := s.now()
	if sess == nil {
		return domain.NewSession(userID, now), nil
	}
	if sess.Expired(now, s.idleTimeout) && sess.FlowActive() {
		observability.LoggerFromContext(ctx).Info("expiring idle flow",
			"user_id", userID, "flow", sess.ActiveFlow)
		sess.ResetFlow()
	}
	return sess, nil
}

// Commit upserts the session and releases the user's lock whether or
// not the write succeeds; a stuck lock is worse than one lost write.
func (s *Store) Commit(ctx context.Context, userID domain.UserID, sess *domain.Session) error {
	defer s.locks.Release(string(userID))

	if err := s.save(ctx, sess); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, userID domain.UserID) (*domain.Session, error) {
	query := `
		SELECT active_flow, stage, draft_json, location_json, history_json, last_activity_at
		FROM sessions WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, string(userID))

	var (
		activeFlow, stage, draftJSON, historyJSON string
		locationJSON                              sql.NullString
		lastActivity                              int64
	)
	err := row.Scan(&activeFlow, &stage, &draftJSON, &locationJSON, &historyJSON, &lastActivity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	sess := &domain.Session{
		UserID:         userID,
		ActiveFlow:     domain.FlowName(activeFlow),
		Stage:          domain.Stage(stage),
		LastActivityAt: time.Unix(lastActivity, 0),
	}
	if err := json.Unmarshal([]byte(draftJSON), &sess.Draft); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if locationJSON.Valid {
		var loc domain.Location
		if err := json.Unmarshal([]byte(locationJSON.String), &loc); err != nil {
			return nil, fmt.Errorf("decode location: %w", err)
		}
		sess.Location = &loc
	}
	if err := json.Unmarshal([]byte(historyJSON), &sess.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return sess, nil
}

func (s *Store) save(ctx context.Context, sess *domain.Session) error {
	draftJSON, err := json.Marshal(sess.Draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	historyJSON, err := json.Marshal(sess.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	var locationJSON interface{}
	if sess.Location != nil {
		b, err := json.Marshal(sess.Location)
		if err != nil {
			return fmt.Errorf("encode location: %w", err)
		}
		locationJSON = string(b)
	}

	nowUnix := s.now().Unix()
	query := `
	INSERT INTO sessions (user_id, active_flow, stage, draft_json, location_json, history_json, last_activity_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		active_flow = excluded.active_flow,
		stage = excluded.stage,
		draft_json = excluded.draft_json,
		location_json = excluded.location_json,
		history_json = excluded.history_json,
		last_activity_at = excluded.last_activity_at,
		updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		string(sess.UserID), string(sess.ActiveFlow), string(sess.Stage),
		string(draftJSON), locationJSON, string(historyJSON),
		sess.LastActivityAt.Unix(), nowUnix, nowUnix,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// CleanupExpired deletes sessions idle longer than ttl. Intended for a
// periodic maintenance goroutine, not the request path.
func (s *Store) CleanupExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	threshold := s.now().Add(-ttl).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE last_activity_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
