// Package store defines the durable state contract the allocation engine
// runs against. Implementations must give every Atomic callback a consistent
// snapshot and commit its writes as a single unit.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/antochhka/voltqueue/internal/models"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrDuplicate indicates an insert violated a uniqueness rule, e.g. a second
// session for the same station or a second waitlist entry for the same user.
var ErrDuplicate = errors.New("store: duplicate")

// Tx exposes the table primitives within one atomic unit. The waitlist is
// always returned ordered by request time, ties preserved in insertion order.
type Tx interface {
	SessionByStation(ctx context.Context, station int) (*models.Session, error)
	Sessions(ctx context.Context) ([]models.Session, error)
	InsertSession(ctx context.Context, session models.Session) error
	DeleteSession(ctx context.Context, station int) error

	Waitlist(ctx context.Context) ([]models.WaitlistEntry, error)
	WaitlistEntryByUser(ctx context.Context, userAlias string) (*models.WaitlistEntry, error)
	InsertWaitlistEntry(ctx context.Context, entry models.WaitlistEntry) error
	DeleteWaitlistEntry(ctx context.Context, userAlias string) error

	Reservations(ctx context.Context) ([]models.Reservation, error)
	UpsertReservation(ctx context.Context, reservation models.Reservation) error
	DeleteReservation(ctx context.Context, userAlias string) error

	AppendArchive(ctx context.Context, records []models.ArchiveRecord) error

	// ResetMarker returns the date of the last completed rollover, or the
	// zero time when no rollover has happened yet.
	ResetMarker(ctx context.Context) (time.Time, error)
	SetResetMarker(ctx context.Context, date time.Time) error
}

// Store runs callbacks against durable state. A non-nil error from fn rolls
// the whole unit back; nothing partial is ever persisted.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}
