// Package engine implements station allocation: exclusive claims, the shared
// FIFO waitlist, time-boxed reservations and the expiry cascade.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/antochhka/voltqueue/internal/clock"
	"github.com/antochhka/voltqueue/internal/models"
	"github.com/antochhka/voltqueue/internal/notify"
	"github.com/antochhka/voltqueue/internal/pin"
	"github.com/antochhka/voltqueue/internal/registry"
	"github.com/antochhka/voltqueue/internal/store"
)

// DefaultHoldDuration is the validity window of a reservation.
const DefaultHoldDuration = 300 * time.Second

// Engine coordinates sessions, the waitlist and reservations through the
// store's atomic units. It keeps no state of its own.
type Engine struct {
	store    store.Store
	registry *registry.Registry
	hasher   pin.Hasher
	notifier notify.Notifier
	clock    clock.Clock
	logger   *zap.Logger
	holdFor  time.Duration
}

// New builds the engine. holdFor <= 0 falls back to DefaultHoldDuration.
func New(
	st store.Store,
	reg *registry.Registry,
	hasher pin.Hasher,
	notifier notify.Notifier,
	clk clock.Clock,
	logger *zap.Logger,
	holdFor time.Duration,
) *Engine {
	if holdFor <= 0 {
		holdFor = DefaultHoldDuration
	}
	return &Engine{
		store:    st,
		registry: reg,
		hasher:   hasher,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
		holdFor:  holdFor,
	}
}

// HoldDuration returns the configured reservation window.
func (e *Engine) HoldDuration() time.Duration {
	return e.holdFor
}

// ClaimInput carries a claim request.
type ClaimInput struct {
	UserAlias  string
	Vehicle    string
	BatteryPct int
	Station    int
	PIN        string
}

// ClaimStation starts a session on a free station. A pending reservation or
// waitlist entry of the claimant is superseded and removed in the same
// transaction. Losing a race on the station yields ErrStationOccupied.
func (e *Engine) ClaimStation(ctx context.Context, input ClaimInput) (*models.Session, error) {
	if !e.registry.Contains(input.Station) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStation, input.Station)
	}
	if input.BatteryPct < 0 || input.BatteryPct > 100 {
		return nil, fmt.Errorf("battery percentage out of range: %d", input.BatteryPct)
	}

	pinHash, err := e.hasher.Hash(input.PIN)
	if err != nil {
		return nil, err
	}

	session := models.Session{
		UserAlias:  input.UserAlias,
		Vehicle:    input.Vehicle,
		BatteryPct: input.BatteryPct,
		Station:    input.Station,
		StartTime:  e.clock.Now(),
		PINHash:    pinHash,
	}

	err = e.store.Atomic(ctx, func(tx store.Tx) error {
		if _, err := tx.SessionByStation(ctx, input.Station); err == nil {
			return ErrStationOccupied
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := tx.InsertSession(ctx, session); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrStationOccupied
			}
			return err
		}
		// Starting a session supersedes any pending wait or hold.
		if err := tx.DeleteWaitlistEntry(ctx, input.UserAlias); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := tx.DeleteReservation(ctx, input.UserAlias); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, e.mapStoreErr(err)
	}

	e.logger.Info("station claimed",
		zap.Int("station", input.Station),
		zap.String("user", input.UserAlias),
	)
	return &session, nil
}

// JoinInput carries a waitlist join request.
type JoinInput struct {
	UserAlias  string
	Vehicle    string
	BatteryPct int
}

// JoinWaitlist appends the user to the shared queue. Joining twice is a
// no-op; the second call returns joined=false with no error.
func (e *Engine) JoinWaitlist(ctx context.Context, input JoinInput) (joined bool, err error) {
	if input.BatteryPct < 0 || input.BatteryPct > 100 {
		return false, fmt.Errorf("battery percentage out of range: %d", input.BatteryPct)
	}

	entry := models.WaitlistEntry{
		UserAlias:   input.UserAlias,
		Vehicle:     input.Vehicle,
		BatteryPct:  input.BatteryPct,
		RequestedAt: e.clock.Now(),
	}

	err = e.store.Atomic(ctx, func(tx store.Tx) error {
		if _, err := tx.WaitlistEntryByUser(ctx, input.UserAlias); err == nil {
			return nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err := tx.InsertWaitlistEntry(ctx, entry); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return nil
			}
			return err
		}
		joined = true
		return nil
	})
	if err != nil {
		return false, e.mapStoreErr(err)
	}

	if joined {
		e.logger.Info("user joined waitlist", zap.String("user", input.UserAlias))
	}
	return joined, nil
}

// ReleaseStation ends the session on a station after verifying the release
// PIN. If anyone is waiting, the head of the queue is promoted to a
// reservation inside the same transaction and notified after commit.
// A wrong PIN and an idle station both fail with ErrAuthorization.
func (e *Engine) ReleaseStation(ctx context.Context, station int, suppliedPIN string) (*models.Reservation, error) {
	if !e.registry.Contains(station) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStation, station)
	}

	var promoted *models.Reservation
	err := e.store.Atomic(ctx, func(tx store.Tx) error {
		promoted = nil

		session, err := tx.SessionByStation(ctx, station)
		if errors.Is(err, store.ErrNotFound) {
			return ErrAuthorization
		}
		if err != nil {
			return err
		}
		if err := e.hasher.Compare(session.PINHash, suppliedPIN); err != nil {
			return ErrAuthorization
		}
		if err := tx.DeleteSession(ctx, station); err != nil {
			return err
		}

		reservation, err := e.promoteHead(ctx, tx)
		if err != nil {
			return err
		}
		promoted = reservation
		return nil
	})
	if err != nil {
		return nil, e.mapStoreErr(err)
	}

	e.logger.Info("station released", zap.Int("station", station))
	if promoted != nil {
		e.notifyReserved(ctx, promoted.UserAlias)
	}
	return promoted, nil
}

// SweepExpiredReservations drops every reservation older than the hold
// duration and promotes one waitlist head per expired hold. A reservation
// created by the cascade is not re-evaluated within the same sweep. Runs
// before every read of reservation state.
func (e *Engine) SweepExpiredReservations(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	var promoted []models.Reservation
	err := e.store.Atomic(ctx, func(tx store.Tx) error {
		promoted = promoted[:0]

		reservations, err := tx.Reservations(ctx)
		if err != nil {
			return err
		}
		for _, r := range reservations {
			if now.Sub(r.GrantedAt) < e.holdFor {
				continue
			}
			if err := tx.DeleteReservation(ctx, r.UserAlias); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			e.logger.Info("reservation expired", zap.String("user", r.UserAlias))

			next, err := e.promoteHead(ctx, tx)
			if err != nil {
				return err
			}
			if next != nil {
				promoted = append(promoted, *next)
			}
		}
		return nil
	})
	if err != nil {
		return nil, e.mapStoreErr(err)
	}

	for _, r := range promoted {
		e.notifyReserved(ctx, r.UserAlias)
	}
	return promoted, nil
}

// promoteHead pops the earliest waitlist entry and grants it a reservation.
// Returns nil when the waitlist is empty.
func (e *Engine) promoteHead(ctx context.Context, tx store.Tx) (*models.Reservation, error) {
	waitlist, err := tx.Waitlist(ctx)
	if err != nil {
		return nil, err
	}
	if len(waitlist) == 0 {
		return nil, nil
	}

	head := waitlist[0]
	if err := tx.DeleteWaitlistEntry(ctx, head.UserAlias); err != nil {
		return nil, err
	}
	reservation := models.Reservation{
		UserAlias: head.UserAlias,
		GrantedAt: e.clock.Now(),
	}
	if err := tx.UpsertReservation(ctx, reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (e *Engine) notifyReserved(ctx context.Context, userAlias string) {
	seconds := int(e.holdFor / time.Second)
	message := fmt.Sprintf("A charging station is free. You have %d seconds to claim any available station.", seconds)
	e.notifier.Notify(ctx, userAlias, message)
}

// mapStoreErr passes engine sentinels through and folds everything else into
// ErrStoreUnavailable: the transaction rolled back, nothing was committed.
func (e *Engine) mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStationOccupied),
		errors.Is(err, ErrAuthorization),
		errors.Is(err, ErrInvalidStation):
		return err
	default:
		e.logger.Warn("store operation failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
