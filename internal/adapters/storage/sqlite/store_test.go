package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placepilot/placepilot/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "sessions.db"), 30*time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetCreatesFreshSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), sess.UserID)
	assert.False(t, sess.FlowActive())
	require.NoError(t, s.Commit(ctx, "u1", sess))
}

func TestSessionSurvivesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	sess.ActiveFlow = domain.FlowPlaceSubmission
	sess.Stage = domain.StageCategory
	sess.Draft.Location = &domain.Location{Latitude: 40.4168, Longitude: -3.7038}
	sess.Draft.Name = "Cafe Aurora"
	sess.Draft.Attributes = []string{"outdoor_seating", "wifi"}
	chain := false
	sess.Draft.Chain = &chain
	sess.Location = &domain.Location{Latitude: 40.4168, Longitude: -3.7038}
	sess.RecordTurn(domain.Turn{Summary: "gave the name", Agent: "data_management", At: time.Now()}, 20)
	require.NoError(t, s.Commit(ctx, "u1", sess))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.FlowPlaceSubmission, got.ActiveFlow)
	assert.Equal(t, domain.StageCategory, got.Stage)
	assert.Equal(t, "Cafe Aurora", got.Draft.Name)
	assert.Equal(t, []string{"outdoor_seating", "wifi"}, got.Draft.Attributes)
	require.NotNil(t, got.Draft.Chain)
	assert.False(t, *got.Draft.Chain)
	require.NotNil(t, got.Location)
	assert.InDelta(t, 40.4168, got.Location.Latitude, 1e-9)
	require.Len(t, got.History, 1)
	assert.Equal(t, "gave the name", got.History[0].Summary)
	require.NoError(t, s.Commit(ctx, "u1", got))
}

func TestIdleFlowIsResetOnGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	sess.ActiveFlow = domain.FlowPlaceSubmission
	sess.Stage = domain.StageName
	sess.Draft.Location = &domain.Location{Latitude: 1, Longitude: 2}
	sess.Location = &domain.Location{Latitude: 1, Longitude: 2}
	sess.LastActivityAt = time.Now().Add(-2 * time.Hour)
	require.NoError(t, s.Commit(ctx, "u1", sess))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.FlowActive())
	assert.Nil(t, got.Draft.Location)
	assert.NotNil(t, got.Location, "saved location survives flow expiry")
	require.NoError(t, s.Commit(ctx, "u1", got))
}

func TestGetBlocksUntilPriorCommit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Get(ctx, "u1")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		sess, err := s.Get(ctx, "u1")
		if err == nil {
			_ = s.Commit(ctx, "u1", sess)
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second Get returned while the first turn was open")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, s.Commit(ctx, "u1", first))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Get never unblocked")
	}
}

func TestCleanupExpiredRemovesOnlyStaleSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stale, err := s.Get(ctx, "stale")
	require.NoError(t, err)
	stale.LastActivityAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, s.Commit(ctx, "stale", stale))

	fresh, err := s.Get(ctx, "fresh")
	require.NoError(t, err)
	fresh.Location = &domain.Location{Latitude: 1, Longitude: 2}
	require.NoError(t, s.Commit(ctx, "fresh", fresh))

	n, err := s.CleanupExpired(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := s.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, got.Location)
	require.NoError(t, s.Commit(ctx, "fresh", got))
}
