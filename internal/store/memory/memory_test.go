package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antochhka/voltqueue/internal/models"
	"github.com/antochhka/voltqueue/internal/store"
)

func TestAtomicRollback(t *testing.T) {
	st := New()
	boom := errors.New("boom")

	err := st.Atomic(context.Background(), func(tx store.Tx) error {
		require.NoError(t, tx.InsertSession(context.Background(), models.Session{Station: 1, UserAlias: "alice"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = st.Atomic(context.Background(), func(tx store.Tx) error {
		_, err := tx.SessionByStation(context.Background(), 1)
		assert.ErrorIs(t, err, store.ErrNotFound, "failed unit must leave nothing behind")
		return nil
	})
	require.NoError(t, err)
}

func TestDuplicateRules(t *testing.T) {
	st := New()

	err := st.Atomic(context.Background(), func(tx store.Tx) error {
		require.NoError(t, tx.InsertSession(context.Background(), models.Session{Station: 1, UserAlias: "alice"}))
		assert.ErrorIs(t, tx.InsertSession(context.Background(), models.Session{Station: 1, UserAlias: "bob"}), store.ErrDuplicate)

		require.NoError(t, tx.InsertWaitlistEntry(context.Background(), models.WaitlistEntry{UserAlias: "bob"}))
		assert.ErrorIs(t, tx.InsertWaitlistEntry(context.Background(), models.WaitlistEntry{UserAlias: "bob"}), store.ErrDuplicate)
		return nil
	})
	require.NoError(t, err)
}

func TestWaitlistOrderAndTiebreak(t *testing.T) {
	st := New()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	err := st.Atomic(context.Background(), func(tx store.Tx) error {
		// carol has the same timestamp as bob but joined later; dave is earlier.
		require.NoError(t, tx.InsertWaitlistEntry(context.Background(), models.WaitlistEntry{UserAlias: "bob", RequestedAt: base}))
		require.NoError(t, tx.InsertWaitlistEntry(context.Background(), models.WaitlistEntry{UserAlias: "carol", RequestedAt: base}))
		require.NoError(t, tx.InsertWaitlistEntry(context.Background(), models.WaitlistEntry{UserAlias: "dave", RequestedAt: base.Add(-time.Minute)}))

		waitlist, err := tx.Waitlist(context.Background())
		require.NoError(t, err)
		require.Len(t, waitlist, 3)
		assert.Equal(t, "dave", waitlist[0].UserAlias)
		assert.Equal(t, "bob", waitlist[1].UserAlias, "ties break by insertion order")
		assert.Equal(t, "carol", waitlist[2].UserAlias)
		return nil
	})
	require.NoError(t, err)
}

func TestUpsertReservation(t *testing.T) {
	st := New()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	err := st.Atomic(context.Background(), func(tx store.Tx) error {
		require.NoError(t, tx.UpsertReservation(context.Background(), models.Reservation{UserAlias: "bob", GrantedAt: base}))
		require.NoError(t, tx.UpsertReservation(context.Background(), models.Reservation{UserAlias: "bob", GrantedAt: base.Add(time.Minute)}))

		reservations, err := tx.Reservations(context.Background())
		require.NoError(t, err)
		require.Len(t, reservations, 1, "at most one reservation per user")
		assert.Equal(t, base.Add(time.Minute), reservations[0].GrantedAt)
		return nil
	})
	require.NoError(t, err)
}

func TestResetMarkerUnset(t *testing.T) {
	st := New()

	err := st.Atomic(context.Background(), func(tx store.Tx) error {
		marker, err := tx.ResetMarker(context.Background())
		require.NoError(t, err)
		assert.True(t, marker.IsZero())
		return nil
	})
	require.NoError(t, err)
}
