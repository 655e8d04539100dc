package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placepilot/placepilot/internal/domain"
)

func TestGetCreatesFreshSession(t *testing.T) {
	s := New(30 * time.Minute)
	sess, err := s.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), sess.UserID)
	assert.False(t, sess.FlowActive())
	require.NoError(t, s.Commit(context.Background(), "u1", sess))
}

func TestCommitPersistsAndGetReturnsCopy(t *testing.T) {
	s := New(30 * time.Minute)
	ctx := context.Background()

	sess, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	sess.Location = &domain.Location{Latitude: 1, Longitude: 2}
	require.NoError(t, s.Commit(ctx, "u1", sess))

	// Mutating the committed pointer must not reach the store.
	sess.Location.Latitude = 99

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got.Location)
	assert.InDelta(t, 1.0, got.Location.Latitude, 1e-9)
	require.NoError(t, s.Commit(ctx, "u1", got))
}

func TestIdleFlowIsResetOnGet(t *testing.T) {
	s := New(30 * time.Minute)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	s.now = func() time.Time { return past }

	sess, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	sess.ActiveFlow = domain.FlowPlaceSubmission
	sess.Stage = domain.StageName
	sess.Draft.Location = &domain.Location{Latitude: 1, Longitude: 2}
	sess.Location = &domain.Location{Latitude: 1, Longitude: 2}
	sess.LastActivityAt = past
	require.NoError(t, s.Commit(ctx, "u1", sess))

	s.now = time.Now
	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.FlowActive(), "stale flow is abandoned")
	assert.Nil(t, got.Draft.Location, "draft is discarded with the flow")
	require.NotNil(t, got.Location, "saved location survives expiry")
	require.NoError(t, s.Commit(ctx, "u1", got))
}

func TestConcurrentTurnsForSameUserAreSerialized(t *testing.T) {
	s := New(30 * time.Minute)
	ctx := context.Background()
	const turns = 25

	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := s.Get(ctx, "u1")
			if err != nil {
				t.Error(err)
				return
			}
			sess.RecordTurn(domain.Turn{Summary: "turn", At: time.Now()}, turns+1)
			if err := s.Commit(ctx, "u1", sess); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got.History, turns, "no turn may be lost to a race")
	require.NoError(t, s.Commit(ctx, "u1", got))
}

func TestGetBlocksUntilPriorCommit(t *testing.T) {
	s := New(30 * time.Minute)
	ctx := context.Background()

	first, err := s.Get(ctx, "u1")
	require.NoError(t, err)

	blocked := make(chan struct{})
	go func() {
		sess, err := s.Get(ctx, "u1")
		if err == nil {
			_ = s.Commit(ctx, "u1", sess)
		}
		close(blocked)
	}()

	select {
	case <-blocked:
		t.Fatal("second Get returned while the first turn was still open")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, s.Commit(ctx, "u1", first))
	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatal("second Get never unblocked")
	}
}
