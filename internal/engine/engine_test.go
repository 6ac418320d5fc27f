package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/antochhka/voltqueue/internal/models"
	"github.com/antochhka/voltqueue/internal/pin"
	"github.com/antochhka/voltqueue/internal/registry"
	"github.com/antochhka/voltqueue/internal/store"
	"github.com/antochhka/voltqueue/internal/store/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	users    []string
}

func (n *recordingNotifier) Notify(_ context.Context, userAlias, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userAlias)
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) notifiedUsers() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.users...)
}

type failingStore struct{}

func (failingStore) Atomic(context.Context, func(tx store.Tx) error) error {
	return errors.New("connection refused")
}

func newTestEngine(t *testing.T) (*Engine, *memory.Store, *fakeClock, *recordingNotifier) {
	t.Helper()
	st := memory.New()
	clk := &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}
	eng := New(st, registry.Default(), pin.NewBcryptHasher(bcrypt.MinCost), notifier, clk, zap.NewNop(), 0)
	return eng, st, clk, notifier
}

func claim(t *testing.T, eng *Engine, user string, station int, userPIN string) *models.Session {
	t.Helper()
	session, err := eng.ClaimStation(context.Background(), ClaimInput{
		UserAlias:  user,
		Vehicle:    "model-3",
		BatteryPct: 50,
		Station:    station,
		PIN:        userPIN,
	})
	require.NoError(t, err)
	return session
}

func join(t *testing.T, eng *Engine, user string) {
	t.Helper()
	joined, err := eng.JoinWaitlist(context.Background(), JoinInput{UserAlias: user, Vehicle: "car", BatteryPct: 40})
	require.NoError(t, err)
	require.True(t, joined)
}

func TestClaimStation(t *testing.T) {
	eng, _, clk, _ := newTestEngine(t)

	session := claim(t, eng, "alice", 1, "1234")
	assert.Equal(t, 1, session.Station)
	assert.Equal(t, clk.Now(), session.StartTime)
	assert.NotEqual(t, "1234", session.PINHash)

	_, err := eng.ClaimStation(context.Background(), ClaimInput{
		UserAlias: "bob", Vehicle: "leaf", BatteryPct: 60, Station: 1, PIN: "5678",
	})
	assert.ErrorIs(t, err, ErrStationOccupied)
}

func TestClaimStationUnknownStation(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)

	_, err := eng.ClaimStation(context.Background(), ClaimInput{
		UserAlias: "alice", Station: 99, PIN: "1234", BatteryPct: 50,
	})
	assert.ErrorIs(t, err, ErrInvalidStation)
}

func TestClaimStationBatteryRange(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)

	_, err := eng.ClaimStation(context.Background(), ClaimInput{
		UserAlias: "alice", Station: 1, PIN: "1234", BatteryPct: 101,
	})
	assert.Error(t, err)
}

func TestClaimSupersedesWaitAndHold(t *testing.T) {
	eng, st, _, _ := newTestEngine(t)

	claim(t, eng, "alice", 1, "1111")
	join(t, eng, "bob")

	// Bob gets promoted when alice releases.
	_, err := eng.ReleaseStation(context.Background(), 1, "1111")
	require.NoError(t, err)

	// Bob claims directly; his reservation must be consumed.
	claim(t, eng, "bob", 2, "2222")

	err = st.Atomic(context.Background(), func(tx store.Tx) error {
		reservations, err := tx.Reservations(context.Background())
		require.NoError(t, err)
		assert.Empty(t, reservations)
		waitlist, err := tx.Waitlist(context.Background())
		require.NoError(t, err)
		assert.Empty(t, waitlist)
		return nil
	})
	require.NoError(t, err)
}

func TestClaimRace(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.ClaimStation(context.Background(), ClaimInput{
				UserAlias: string(rune('a' + i)), Vehicle: "car", BatteryPct: 50, Station: 3, PIN: "0000",
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrStationOccupied)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestJoinWaitlistIdempotent(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)

	join(t, eng, "bob")

	joined, err := eng.JoinWaitlist(context.Background(), JoinInput{UserAlias: "bob", Vehicle: "car", BatteryPct: 40})
	require.NoError(t, err)
	assert.False(t, joined, "second join must be a no-op notice")
}

func TestReleaseStationWrongPIN(t *testing.T) {
	eng, st, _, _ := newTestEngine(t)

	claim(t, eng, "alice", 1, "1234")

	_, err := eng.ReleaseStation(context.Background(), 1, "9999")
	assert.ErrorIs(t, err, ErrAuthorization)

	// The failed release must not delete the session.
	err = st.Atomic(context.Background(), func(tx store.Tx) error {
		_, err := tx.SessionByStation(context.Background(), 1)
		return err
	})
	require.NoError(t, err)
}

func TestReleaseIdleStationSameError(t *testing.T) {
	eng, _, _, _ := newTestEngine(t)

	// No session on station 2: the error must be indistinguishable from a
	// wrong PIN.
	_, err := eng.ReleaseStation(context.Background(), 2, "1234")
	assert.ErrorIs(t, err, ErrAuthorization)
}

func TestReleasePromotesFIFO(t *testing.T) {
	eng, _, clk, notifier := newTestEngine(t)

	claim(t, eng, "alice", 1, "1234")
	join(t, eng, "bob")
	clk.advance(time.Second)
	join(t, eng, "carol")

	reservation, err := eng.ReleaseStation(context.Background(), 1, "1234")
	require.NoError(t, err)
	require.NotNil(t, reservation)
	assert.Equal(t, "bob", reservation.UserAlias, "earliest joiner wins")
	assert.Equal(t, []string{"bob"}, notifier.notifiedUsers())
}

func TestReleaseEmptyWaitlist(t *testing.T) {
	eng, _, _, notifier := newTestEngine(t)

	claim(t, eng, "alice", 1, "1234")
	reservation, err := eng.ReleaseStation(context.Background(), 1, "1234")
	require.NoError(t, err)
	assert.Nil(t, reservation)
	assert.Empty(t, notifier.notifiedUsers())
}

func TestSweepExpiry(t *testing.T) {
	eng, _, clk, _ := newTestEngine(t)

	claim(t, eng, "alice", 1, "1234")
	join(t, eng, "bob")
	_, err := eng.ReleaseStation(context.Background(), 1, "1234")
	require.NoError(t, err)

	granted := clk.Now()

	// One second before expiry nothing happens.
	promoted, err := eng.SweepExpiredReservations(context.Background(), granted.Add(299*time.Second))
	require.NoError(t, err)
	assert.Empty(t, promoted)

	// At exactly the hold duration the reservation is gone.
	clk.advance(300 * time.Second)
	promoted, err = eng.SweepExpiredReservations(context.Background(), granted.Add(300*time.Second))
	require.NoError(t, err)
	assert.Empty(t, promoted, "empty waitlist, nothing to promote")
}

func TestSweepCascade(t *testing.T) {
	eng, st, clk, notifier := newTestEngine(t)

	claim(t, eng, "alice", 1, "1234")
	join(t, eng, "bob")
	_, err := eng.ReleaseStation(context.Background(), 1, "1234")
	require.NoError(t, err)
	join(t, eng, "carol")

	granted := clk.Now()
	clk.advance(301 * time.Second)

	promoted, err := eng.SweepExpiredReservations(context.Background(), granted.Add(301*time.Second))
	require.NoError(t, err)
	require.Len(t, promoted, 1)
	assert.Equal(t, "carol", promoted[0].UserAlias)
	assert.Equal(t, []string{"bob", "carol"}, notifier.notifiedUsers())

	// Carol's fresh reservation survived the sweep that created it.
	err = st.Atomic(context.Background(), func(tx store.Tx) error {
		reservations, err := tx.Reservations(context.Background())
		require.NoError(t, err)
		require.Len(t, reservations, 1)
		assert.Equal(t, "carol", reservations[0].UserAlias)
		return nil
	})
	require.NoError(t, err)
}

func TestStoreFailureIsRecoverable(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	eng := New(failingStore{}, registry.Default(), pin.NewBcryptHasher(bcrypt.MinCost), notifyNop{}, clk, zap.NewNop(), 0)

	_, err := eng.ClaimStation(context.Background(), ClaimInput{
		UserAlias: "alice", Station: 1, PIN: "1234", BatteryPct: 50,
	})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = eng.ReleaseStation(context.Background(), 1, "1234")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = eng.JoinWaitlist(context.Background(), JoinInput{UserAlias: "alice", BatteryPct: 50})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

type notifyNop struct{}

func (notifyNop) Notify(context.Context, string, string) {}
