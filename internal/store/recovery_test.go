package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindtype-hq/mindtype/internal/assessment"
	"github.com/mindtype-hq/mindtype/internal/session"
)

type frozenClock struct{ t time.Time }

func (c *frozenClock) Now() time.Time          { return c.t }
func (c *frozenClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSessionStore() (*SessionStore, *frozenClock) {
	clock := &frozenClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	fb := NewFallback(nil, NewMemoryTier())
	return NewSessionStore(fb, nil, nil, WithStoreClock(clock.Now)), clock
}

func liveSession(id string, clock *frozenClock) *session.Session {
	return &session.Session{
		ID:           id,
		Phase:        assessment.PhaseCore,
		CreatedAt:    clock.Now(),
		LastActiveAt: clock.Now(),
		ExpiresAt:    clock.Now().Add(session.CoreTimeout),
	}
}

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	ss, clock := newTestSessionStore()

	sess := liveSession("sess-1", clock)
	sess.CoreAnswered = 2
	sess.Responses = []assessment.Response{{
		QuestionID:     "q1",
		SessionID:      "sess-1",
		QuestionType:   assessment.PhaseCore,
		ResponseType:   assessment.ResponseBinary,
		Dimension:      assessment.DimensionEI,
		SelectedOption: "A",
		Timestamp:      clock.Now(),
	}}
	require.NoError(t, ss.Save(ctx, sess))

	got, status, tier := ss.Recover(ctx, "sess-1")

	require.Equal(t, StatusRecovered, status)
	assert.Equal(t, "memory", tier)
	require.NotNil(t, got)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, 2, got.CoreAnswered)
	require.Len(t, got.Responses, 1)
	assert.Equal(t, "A", got.Responses[0].SelectedOption)
}

func TestSessionStoreSAISCompactSideRecord(t *testing.T) {
	ctx := context.Background()
	ss, clock := newTestSessionStore()

	sess := liveSession("sess-1", clock)
	sess.Phase = assessment.PhaseExtended
	sess.Methodology = assessment.MethodologySAIS
	sess.ExpiresAt = clock.Now().Add(session.ExtendedTimeout)
	a1, b1 := 4, 1
	sess.Responses = []assessment.Response{
		{
			QuestionID: "q-core-1", SessionID: "sess-1",
			QuestionType: assessment.PhaseCore, ResponseType: assessment.ResponseBinary,
			Dimension: assessment.DimensionEI, SelectedOption: "B", Timestamp: clock.Now(),
		},
		{
			QuestionID: "201", SessionID: "sess-1",
			QuestionType: assessment.PhaseExtended, ResponseType: assessment.ResponseDistribution,
			Dimension: assessment.DimensionSN, DistributionA: &a1, DistributionB: &b1,
			Timestamp: clock.Now(),
		},
	}
	require.NoError(t, ss.Save(ctx, sess))

	// The compact side record exists under its own key.
	_, _, err := ss.store.Get(ctx, saisKey("sess-1"))
	require.NoError(t, err)

	got, status, _ := ss.Recover(ctx, "sess-1")
	require.Equal(t, StatusRecovered, status)
	require.Len(t, got.Responses, 2)
	assert.Equal(t, "q-core-1", got.Responses[0].QuestionID)
	assert.Equal(t, "201", got.Responses[1].QuestionID)
	assert.Equal(t, 4, *got.Responses[1].DistributionA)
	assert.Equal(t, 1, *got.Responses[1].DistributionB)
	assert.Equal(t, assessment.DimensionSN, got.Responses[1].Dimension)
}

func TestSessionStoreSAISStaleSideRecordDropped(t *testing.T) {
	ctx := context.Background()
	ss, clock := newTestSessionStore()

	sess := liveSession("sess-1", clock)
	sess.Phase = assessment.PhaseExtended
	sess.Methodology = assessment.MethodologySAIS
	sess.ExpiresAt = clock.Now().Add(session.ExtendedTimeout)
	a, b := 3, 2
	sess.Responses = []assessment.Response{{
		QuestionID: "10", SessionID: "sess-1",
		QuestionType: assessment.PhaseExtended, ResponseType: assessment.ResponseDistribution,
		Dimension: assessment.DimensionEI, DistributionA: &a, DistributionB: &b,
		Timestamp: clock.Now(),
	}}
	require.NoError(t, ss.Save(ctx, sess))

	// Re-save with the distribution answer replaced by one whose question
	// id is not numeric, so the compact encoding is skipped entirely.
	sess.Responses = []assessment.Response{{
		QuestionID: "q-alpha", SessionID: "sess-1",
		QuestionType: assessment.PhaseExtended, ResponseType: assessment.ResponseDistribution,
		Dimension: assessment.DimensionEI, DistributionA: &a, DistributionB: &b,
		Timestamp: clock.Now(),
	}}
	require.NoError(t, ss.Save(ctx, sess))

	_, _, err := ss.store.Get(ctx, saisKey("sess-1"))
	assert.ErrorIs(t, err, ErrNotFound)

	got, status, _ := ss.Recover(ctx, "sess-1")
	require.Equal(t, StatusRecovered, status)
	require.Len(t, got.Responses, 1)
	assert.Equal(t, "q-alpha", got.Responses[0].QuestionID)
}

func TestSessionStoreExpiredIsDistinctFromNotFound(t *testing.T) {
	ctx := context.Background()
	ss, clock := newTestSessionStore()

	require.NoError(t, ss.Save(ctx, liveSession("sess-1", clock)))
	clock.Advance(session.CoreTimeout + time.Minute)

	got, status, _ := ss.Recover(ctx, "sess-1")
	assert.Equal(t, StatusExpired, status)
	assert.NotNil(t, got) // expired state is still handed back for the UI

	missing, status, _ := ss.Recover(ctx, "sess-2")
	assert.Equal(t, StatusNotFound, status)
	assert.Nil(t, missing)
}

func TestSessionStoreCorruptStateReadsAsNotFound(t *testing.T) {
	ctx := context.Background()
	ss, _ := newTestSessionStore()

	require.NoError(t, ss.store.Set(ctx, sessionKey("sess-1"), []byte("{broken")))

	got, status, _ := ss.Recover(ctx, "sess-1")
	assert.Equal(t, StatusNotFound, status)
	assert.Nil(t, got)
}

func TestSessionStoreDeleteRemovesSideRecordToo(t *testing.T) {
	ctx := context.Background()
	ss, clock := newTestSessionStore()

	sess := liveSession("sess-1", clock)
	sess.Methodology = assessment.MethodologySAIS
	a, b := 3, 2
	sess.Responses = []assessment.Response{{
		QuestionID: "201", SessionID: "sess-1",
		QuestionType: assessment.PhaseExtended, ResponseType: assessment.ResponseDistribution,
		Dimension: assessment.DimensionTF, DistributionA: &a, DistributionB: &b,
		Timestamp: clock.Now(),
	}}
	require.NoError(t, ss.Save(ctx, sess))

	deleted, err := ss.Delete(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, _, err = ss.store.Get(ctx, sessionKey("sess-1"))
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = ss.store.Get(ctx, saisKey("sess-1"))
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err = ss.Delete(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSessionStorePurgeExpired(t *testing.T) {
	ctx := context.Background()
	ss, clock := newTestSessionStore()

	expired := liveSession("sess-old", clock)
	require.NoError(t, ss.Save(ctx, expired))
	clock.Advance(session.CoreTimeout + time.Minute)

	fresh := liveSession("sess-new", clock)
	require.NoError(t, ss.Save(ctx, fresh))

	ids, err := ss.ListExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sess-old"}, ids)

	n, err := ss.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, status, _ := ss.Recover(ctx, "sess-old")
	assert.Equal(t, StatusNotFound, status)
	_, status, _ = ss.Recover(ctx, "sess-new")
	assert.Equal(t, StatusRecovered, status)
}

func TestCalcCacheContentKeying(t *testing.T) {
	cache := NewCalcCache(8)

	responses := []assessment.Response{{
		QuestionID: "q1", SessionID: "sess-1",
		ResponseType: assessment.ResponseBinary,
		Dimension:    assessment.DimensionEI, SelectedOption: "A",
	}}
	key := CalcKey("sess-1", responses, assessment.MethodologyScenarios, false)

	_, hit := cache.Get(key)
	assert.False(t, hit)

	result := assessment.Calculate("sess-1", responses, assessment.MethodologyScenarios, false)
	cache.Put(key, result)

	cached, hit := cache.Get(key)
	require.True(t, hit)
	assert.Equal(t, result, cached)

	// Any change to the payload produces a different key; a concurrent
	// writer to the same session can never surface a stale result.
	mutated := append([]assessment.Response(nil), responses...)
	mutated[0].SelectedOption = "B"
	assert.NotEqual(t, key, CalcKey("sess-1", mutated, assessment.MethodologyScenarios, false))
	assert.NotEqual(t, key, CalcKey("sess-1", responses, assessment.MethodologySAIS, false))
	assert.NotEqual(t, key, CalcKey("sess-1", responses, assessment.MethodologyScenarios, true))
	assert.NotEqual(t, key, CalcKey("sess-2", responses, assessment.MethodologyScenarios, false))
}

func TestCalcCacheEvictsOldestBeyondCapacity(t *testing.T) {
	cache := NewCalcCache(2)

	cache.Put("k1", assessment.ScoringResult{MBTIType: "INFP"})
	cache.Put("k2", assessment.ScoringResult{MBTIType: "ESFJ"})
	cache.Put("k3", assessment.ScoringResult{MBTIType: "ENTJ"})

	_, hit := cache.Get("k1")
	assert.False(t, hit)
	_, hit = cache.Get("k3")
	assert.True(t, hit)
}

func TestFileTierRoundTripAndEviction(t *testing.T) {
	ctx := context.Background()
	tier, err := NewFileTier(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, tier.Set(ctx, "session:sess-1", []byte(`{"a":1}`)))
	require.NoError(t, tier.Set(ctx, "session:sess-1:sais", []byte(`[]`)))

	got, err := tier.Get(ctx, "session:sess-1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got)

	_, err = tier.Get(ctx, "session:missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, tier.HealthCheck(ctx))

	require.NoError(t, tier.Remove(ctx, "session:sess-1"))
	_, err = tier.Get(ctx, "session:sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
	// Removing an absent key is not an error.
	require.NoError(t, tier.Remove(ctx, "session:sess-1"))
}

func TestFileTierKeysNeverCollide(t *testing.T) {
	ctx := context.Background()
	tier, err := NewFileTier(t.TempDir())
	require.NoError(t, err)

	// A session id crafted to fold into another session's side key under a
	// naive separator replacement must stay a distinct file.
	require.NoError(t, tier.Set(ctx, "session:a:sais", []byte(`[1]`)))
	require.NoError(t, tier.Set(ctx, "session:a__sais", []byte(`[2]`)))
	require.NoError(t, tier.Set(ctx, "session:a/sais", []byte(`[3]`)))

	got, err := tier.Get(ctx, "session:a:sais")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1]`), got)

	got, err = tier.Get(ctx, "session:a__sais")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[2]`), got)

	got, err = tier.Get(ctx, "session:a/sais")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[3]`), got)

	require.NoError(t, tier.Remove(ctx, "session:a__sais"))
	_, err = tier.Get(ctx, "session:a:sais")
	assert.NoError(t, err)
}
