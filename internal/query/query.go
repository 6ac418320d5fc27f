// Package query derives display-only fields from engine state. It never
// mutates anything; expired reservations are assumed to have been swept
// before a snapshot is taken.
package query

import (
	"context"
	"time"

	"github.com/antochhka/voltqueue/internal/models"
	"github.com/antochhka/voltqueue/internal/registry"
	"github.com/antochhka/voltqueue/internal/store"
)

// OverstayAfterMinutes marks sessions that have held a station too long.
const OverstayAfterMinutes = 120

// SessionView is a session with derived display fields.
type SessionView struct {
	UserAlias      string    `json:"user_alias"`
	Vehicle        string    `json:"vehicle"`
	BatteryPct     int       `json:"battery_pct"`
	Station        int       `json:"station"`
	Location       string    `json:"location"`
	StartTime      time.Time `json:"start_time"`
	ElapsedMinutes int       `json:"elapsed_minutes"`
	Overstay       bool      `json:"overstay"`
}

// ReservationView is a reservation with its remaining window.
type ReservationView struct {
	UserAlias        string    `json:"user_alias"`
	GrantedAt        time.Time `json:"granted_at"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

// Snapshot is the full read-only dashboard state.
type Snapshot struct {
	GeneratedAt       time.Time              `json:"generated_at"`
	Sessions          []SessionView          `json:"sessions"`
	Reservations      []ReservationView      `json:"reservations"`
	Waitlist          []models.WaitlistEntry `json:"waitlist"`
	AvailableStations []int                  `json:"available_stations"`
}

// Service reads engine state and derives views.
type Service struct {
	store    store.Store
	registry *registry.Registry
	holdFor  time.Duration
}

// NewService builds the query service.
func NewService(st store.Store, reg *registry.Registry, holdFor time.Duration) *Service {
	return &Service{store: st, registry: reg, holdFor: holdFor}
}

// Status assembles a snapshot against one consistent read of the store.
func (s *Service) Status(ctx context.Context, now time.Time) (*Snapshot, error) {
	snapshot := &Snapshot{GeneratedAt: now}

	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		sessions, err := tx.Sessions(ctx)
		if err != nil {
			return err
		}
		reservations, err := tx.Reservations(ctx)
		if err != nil {
			return err
		}
		waitlist, err := tx.Waitlist(ctx)
		if err != nil {
			return err
		}

		occupied := make(map[int]bool, len(sessions))
		for _, session := range sessions {
			occupied[session.Station] = true
			snapshot.Sessions = append(snapshot.Sessions, s.sessionView(session, now))
		}
		for _, r := range reservations {
			snapshot.Reservations = append(snapshot.Reservations, s.reservationView(r, now))
		}
		snapshot.Waitlist = waitlist

		for _, station := range s.registry.Stations() {
			if !occupied[station] {
				snapshot.AvailableStations = append(snapshot.AvailableStations, station)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *Service) sessionView(session models.Session, now time.Time) SessionView {
	elapsed := int(now.Sub(session.StartTime) / time.Minute)
	return SessionView{
		UserAlias:      session.UserAlias,
		Vehicle:        session.Vehicle,
		BatteryPct:     session.BatteryPct,
		Station:        session.Station,
		Location:       s.registry.GroupOf(session.Station),
		StartTime:      session.StartTime,
		ElapsedMinutes: elapsed,
		Overstay:       elapsed > OverstayAfterMinutes,
	}
}

func (s *Service) reservationView(r models.Reservation, now time.Time) ReservationView {
	remaining := int((s.holdFor - now.Sub(r.GrantedAt)) / time.Second)
	if remaining < 0 {
		// Expired holds are swept before snapshots; never report negatives.
		remaining = 0
	}
	return ReservationView{
		UserAlias:        r.UserAlias,
		GrantedAt:        r.GrantedAt,
		RemainingSeconds: remaining,
	}
}
