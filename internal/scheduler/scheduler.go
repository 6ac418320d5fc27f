// Package scheduler owns the daily rollover: archive every live session and
// waitlist entry, clear all transient state and stamp the reset marker.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/antochhka/voltqueue/internal/models"
	"github.com/antochhka/voltqueue/internal/store"
)

// DefaultRolloverHour is the local hour-of-day from which an automatic
// rollover may fire.
const DefaultRolloverHour = 20

// Scheduler decides whether the rollover fires and performs it as one
// atomic archive-clear-mark unit.
type Scheduler struct {
	store        store.Store
	logger       *zap.Logger
	rolloverHour int
}

// New builds the scheduler. An out-of-range hour falls back to the default.
func New(st store.Store, logger *zap.Logger, rolloverHour int) *Scheduler {
	if rolloverHour < 0 || rolloverHour > 23 {
		rolloverHour = DefaultRolloverHour
	}
	return &Scheduler{store: st, logger: logger, rolloverHour: rolloverHour}
}

// MaybeRollover archives and clears all sessions, waitlist entries and
// reservations. With force it always fires. Without force it fires at most
// once per calendar day: only when the persisted marker date is before
// today and now is at or past the rollover hour. Reports whether a rollover
// happened.
func (s *Scheduler) MaybeRollover(ctx context.Context, now time.Time, force bool) (bool, error) {
	today := dateOf(now)

	fired := false
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		fired = false

		if !force {
			marker, err := tx.ResetMarker(ctx)
			if err != nil {
				return err
			}
			// The store may hand the marker back in a different zone
			// (TIMESTAMPTZ scans come back in UTC); its calendar day is
			// only meaningful in now's zone.
			if !dateOf(marker.In(now.Location())).Before(today) {
				return nil
			}
			if now.Hour() < s.rolloverHour {
				return nil
			}
		}

		sessions, err := tx.Sessions(ctx)
		if err != nil {
			return err
		}
		waitlist, err := tx.Waitlist(ctx)
		if err != nil {
			return err
		}

		records := buildArchive(sessions, waitlist, now)
		if len(records) > 0 {
			if err := tx.AppendArchive(ctx, records); err != nil {
				return err
			}
		}

		for _, session := range sessions {
			if err := tx.DeleteSession(ctx, session.Station); err != nil {
				return err
			}
		}
		for _, entry := range waitlist {
			if err := tx.DeleteWaitlistEntry(ctx, entry.UserAlias); err != nil {
				return err
			}
		}
		reservations, err := tx.Reservations(ctx)
		if err != nil {
			return err
		}
		for _, r := range reservations {
			if err := tx.DeleteReservation(ctx, r.UserAlias); err != nil {
				return err
			}
		}

		if err := tx.SetResetMarker(ctx, today); err != nil {
			return err
		}
		fired = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rollover: %w", err)
	}

	if fired {
		s.logger.Info("daily rollover completed",
			zap.Time("at", now),
			zap.Bool("forced", force),
		)
	}
	return fired, nil
}

func buildArchive(sessions []models.Session, waitlist []models.WaitlistEntry, now time.Time) []models.ArchiveRecord {
	batch := uuid.NewString()
	records := make([]models.ArchiveRecord, 0, len(sessions)+len(waitlist))
	for _, s := range sessions {
		records = append(records, models.ArchiveRecord{
			BatchID:    batch,
			Kind:       models.ArchiveKindSession,
			UserAlias:  s.UserAlias,
			Vehicle:    s.Vehicle,
			BatteryPct: s.BatteryPct,
			Station:    s.Station,
			RecordedAt: s.StartTime,
			ArchivedOn: now,
		})
	}
	for _, w := range waitlist {
		records = append(records, models.ArchiveRecord{
			BatchID:    batch,
			Kind:       models.ArchiveKindWaitlist,
			UserAlias:  w.UserAlias,
			Vehicle:    w.Vehicle,
			BatteryPct: w.BatteryPct,
			RecordedAt: w.RequestedAt,
			ArchivedOn: now,
		})
	}
	return records
}

// dateOf truncates to midnight in the timestamp's own zone. The zero time
// stays zero so an unset marker always compares before any real date.
func dateOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
