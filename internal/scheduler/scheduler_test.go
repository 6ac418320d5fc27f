package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/antochhka/voltqueue/internal/models"
	"github.com/antochhka/voltqueue/internal/store"
	"github.com/antochhka/voltqueue/internal/store/memory"
)

func seed(t *testing.T, st *memory.Store) {
	t.Helper()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	err := st.Atomic(context.Background(), func(tx store.Tx) error {
		if err := tx.InsertSession(context.Background(), models.Session{
			UserAlias: "alice", Vehicle: "model-3", BatteryPct: 50, Station: 1, StartTime: base, PINHash: "x",
		}); err != nil {
			return err
		}
		if err := tx.InsertWaitlistEntry(context.Background(), models.WaitlistEntry{
			UserAlias: "bob", Vehicle: "leaf", BatteryPct: 30, RequestedAt: base,
		}); err != nil {
			return err
		}
		return tx.UpsertReservation(context.Background(), models.Reservation{UserAlias: "carol", GrantedAt: base})
	})
	require.NoError(t, err)
}

func counts(t *testing.T, st *memory.Store) (sessions, waitlist, reservations int) {
	t.Helper()
	err := st.Atomic(context.Background(), func(tx store.Tx) error {
		s, err := tx.Sessions(context.Background())
		if err != nil {
			return err
		}
		w, err := tx.Waitlist(context.Background())
		if err != nil {
			return err
		}
		r, err := tx.Reservations(context.Background())
		if err != nil {
			return err
		}
		sessions, waitlist, reservations = len(s), len(w), len(r)
		return nil
	})
	require.NoError(t, err)
	return sessions, waitlist, reservations
}

func TestRolloverFiresAfterHour(t *testing.T) {
	st := memory.New()
	seed(t, st)
	sched := New(st, zap.NewNop(), 20)

	now := time.Date(2026, 3, 14, 20, 5, 0, 0, time.UTC)
	fired, err := sched.MaybeRollover(context.Background(), now, false)
	require.NoError(t, err)
	assert.True(t, fired)

	sessions, waitlist, reservations := counts(t, st)
	assert.Zero(t, sessions)
	assert.Zero(t, waitlist)
	assert.Zero(t, reservations)

	archive := st.Archive()
	require.Len(t, archive, 2, "one session and one waitlist entry archived, reservations are not")
	assert.Equal(t, models.ArchiveKindSession, archive[0].Kind)
	assert.Equal(t, "alice", archive[0].UserAlias)
	assert.Equal(t, models.ArchiveKindWaitlist, archive[1].Kind)
	assert.Equal(t, "bob", archive[1].UserAlias)
	assert.Equal(t, now, archive[0].ArchivedOn)
	assert.Equal(t, archive[0].BatchID, archive[1].BatchID)
}

func TestRolloverIdempotentWithinDay(t *testing.T) {
	st := memory.New()
	seed(t, st)
	sched := New(st, zap.NewNop(), 20)

	now := time.Date(2026, 3, 14, 20, 5, 0, 0, time.UTC)
	fired, err := sched.MaybeRollover(context.Background(), now, false)
	require.NoError(t, err)
	require.True(t, fired)

	// Same calendar day, still past the hour: must be a no-op.
	later := now.Add(2 * time.Hour)
	fired, err = sched.MaybeRollover(context.Background(), later, false)
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Len(t, st.Archive(), 2, "no archive duplicates")
}

// utcMarkerStore relocates the reset marker to UTC on read, as a
// TIMESTAMPTZ column does when scanned back from Postgres.
type utcMarkerStore struct {
	inner *memory.Store
}

func (s utcMarkerStore) Atomic(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.inner.Atomic(ctx, func(tx store.Tx) error {
		return fn(utcMarkerTx{tx})
	})
}

type utcMarkerTx struct {
	store.Tx
}

func (t utcMarkerTx) ResetMarker(ctx context.Context) (time.Time, error) {
	marker, err := t.Tx.ResetMarker(ctx)
	if err != nil || marker.IsZero() {
		return marker, err
	}
	return marker.UTC(), nil
}

func TestRolloverIdempotentAcrossMarkerZones(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	st := utcMarkerStore{inner: memory.New()}
	sched := New(st, zap.NewNop(), 20)

	now := time.Date(2026, 3, 14, 20, 5, 0, 0, zone)
	fired, err := sched.MaybeRollover(context.Background(), now, false)
	require.NoError(t, err)
	require.True(t, fired)

	// Two hours later, same local calendar day: the marker read back in UTC
	// already falls on the next UTC day, which must not re-trigger.
	later := now.Add(2 * time.Hour)
	fired, err = sched.MaybeRollover(context.Background(), later, false)
	require.NoError(t, err)
	assert.False(t, fired, "second automatic rollover on the same local day")
}

func TestRolloverWaitsForHour(t *testing.T) {
	st := memory.New()
	seed(t, st)
	sched := New(st, zap.NewNop(), 20)

	now := time.Date(2026, 3, 14, 19, 59, 0, 0, time.UTC)
	fired, err := sched.MaybeRollover(context.Background(), now, false)
	require.NoError(t, err)
	assert.False(t, fired)

	sessions, _, _ := counts(t, st)
	assert.Equal(t, 1, sessions)
}

func TestRolloverNextDay(t *testing.T) {
	st := memory.New()
	sched := New(st, zap.NewNop(), 20)

	day1 := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)
	fired, err := sched.MaybeRollover(context.Background(), day1, false)
	require.NoError(t, err)
	require.True(t, fired)

	day2 := time.Date(2026, 3, 15, 20, 0, 0, 0, time.UTC)
	fired, err = sched.MaybeRollover(context.Background(), day2, false)
	require.NoError(t, err)
	assert.True(t, fired)
}

func TestForcedRolloverIgnoresSchedule(t *testing.T) {
	st := memory.New()
	seed(t, st)
	sched := New(st, zap.NewNop(), 20)

	// Morning, and again right after: force always fires.
	morning := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		fired, err := sched.MaybeRollover(context.Background(), morning, true)
		require.NoError(t, err)
		assert.True(t, fired)
	}

	sessions, waitlist, reservations := counts(t, st)
	assert.Zero(t, sessions)
	assert.Zero(t, waitlist)
	assert.Zero(t, reservations)
}

func TestEmptyRolloverArchivesNothing(t *testing.T) {
	st := memory.New()
	sched := New(st, zap.NewNop(), 20)

	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	fired, err := sched.MaybeRollover(context.Background(), now, false)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Empty(t, st.Archive())
}
