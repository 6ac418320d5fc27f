// Package memory provides a mutex-guarded in-process Store. It backs the
// tests and the -dev mode of the service; ordering semantics match the
// Postgres implementation.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/antochhka/voltqueue/internal/models"
	"github.com/antochhka/voltqueue/internal/store"
)

// Store keeps all tables in memory. Atomic callbacks run under one lock and
// mutate a copy that replaces the live state only on success.
type Store struct {
	mu    sync.Mutex
	state state
}

type state struct {
	sessions    []models.Session
	waitlist    []models.WaitlistEntry
	resvs       []models.Reservation
	archive     []models.ArchiveRecord
	resetMarker time.Time
}

func (s state) clone() state {
	return state{
		sessions:    append([]models.Session(nil), s.sessions...),
		waitlist:    append([]models.WaitlistEntry(nil), s.waitlist...),
		resvs:       append([]models.Reservation(nil), s.resvs...),
		archive:     append([]models.ArchiveRecord(nil), s.archive...),
		resetMarker: s.resetMarker,
	}
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Atomic runs fn against a working copy and commits it if fn returns nil.
func (s *Store) Atomic(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	tx := &memTx{state: &work}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Archive returns a copy of the archived records, oldest first. Test helper.
func (s *Store) Archive() []models.ArchiveRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ArchiveRecord(nil), s.state.archive...)
}

type memTx struct {
	state *state
}

func (t *memTx) SessionByStation(_ context.Context, station int) (*models.Session, error) {
	for i := range t.state.sessions {
		if t.state.sessions[i].Station == station {
			session := t.state.sessions[i]
			return &session, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *memTx) Sessions(_ context.Context) ([]models.Session, error) {
	return append([]models.Session(nil), t.state.sessions...), nil
}

func (t *memTx) InsertSession(_ context.Context, session models.Session) error {
	for i := range t.state.sessions {
		if t.state.sessions[i].Station == session.Station {
			return store.ErrDuplicate
		}
	}
	t.state.sessions = append(t.state.sessions, session)
	return nil
}

func (t *memTx) DeleteSession(_ context.Context, station int) error {
	for i := range t.state.sessions {
		if t.state.sessions[i].Station == station {
			t.state.sessions = append(t.state.sessions[:i], t.state.sessions[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (t *memTx) Waitlist(_ context.Context) ([]models.WaitlistEntry, error) {
	out := append([]models.WaitlistEntry(nil), t.state.waitlist...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RequestedAt.Before(out[j].RequestedAt)
	})
	return out, nil
}

func (t *memTx) WaitlistEntryByUser(_ context.Context, userAlias string) (*models.WaitlistEntry, error) {
	for i := range t.state.waitlist {
		if t.state.waitlist[i].UserAlias == userAlias {
			entry := t.state.waitlist[i]
			return &entry, nil
		}
	}
	return nil, store.ErrNotFound
}

func (t *memTx) InsertWaitlistEntry(_ context.Context, entry models.WaitlistEntry) error {
	for i := range t.state.waitlist {
		if t.state.waitlist[i].UserAlias == entry.UserAlias {
			return store.ErrDuplicate
		}
	}
	t.state.waitlist = append(t.state.waitlist, entry)
	return nil
}

func (t *memTx) DeleteWaitlistEntry(_ context.Context, userAlias string) error {
	for i := range t.state.waitlist {
		if t.state.waitlist[i].UserAlias == userAlias {
			t.state.waitlist = append(t.state.waitlist[:i], t.state.waitlist[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (t *memTx) Reservations(_ context.Context) ([]models.Reservation, error) {
	return append([]models.Reservation(nil), t.state.resvs...), nil
}

func (t *memTx) UpsertReservation(_ context.Context, reservation models.Reservation) error {
	for i := range t.state.resvs {
		if t.state.resvs[i].UserAlias == reservation.UserAlias {
			t.state.resvs[i] = reservation
			return nil
		}
	}
	t.state.resvs = append(t.state.resvs, reservation)
	return nil
}

func (t *memTx) DeleteReservation(_ context.Context, userAlias string) error {
	for i := range t.state.resvs {
		if t.state.resvs[i].UserAlias == userAlias {
			t.state.resvs = append(t.state.resvs[:i], t.state.resvs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (t *memTx) AppendArchive(_ context.Context, records []models.ArchiveRecord) error {
	t.state.archive = append(t.state.archive, records...)
	return nil
}

func (t *memTx) ResetMarker(_ context.Context) (time.Time, error) {
	return t.state.resetMarker, nil
}

func (t *memTx) SetResetMarker(_ context.Context, date time.Time) error {
	t.state.resetMarker = date
	return nil
}
