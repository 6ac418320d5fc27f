// Package service sequences one user-facing invocation: the reset scheduler
// runs first, then the requested action, then the reservation sweep, then a
// fresh snapshot is read and pushed to dashboard clients.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/antochhka/voltqueue/internal/clock"
	"github.com/antochhka/voltqueue/internal/engine"
	"github.com/antochhka/voltqueue/internal/models"
	"github.com/antochhka/voltqueue/internal/query"
	"github.com/antochhka/voltqueue/internal/scheduler"
)

// Broadcaster receives fresh snapshots after each invocation. The websocket
// hub implements it; tests use a stub.
type Broadcaster interface {
	BroadcastSnapshot(snapshot interface{})
}

// Dashboard is the outward-facing surface consumed by the HTTP layer.
type Dashboard struct {
	engine    *engine.Engine
	scheduler *scheduler.Scheduler
	query     *query.Service
	clock     clock.Clock
	hub       Broadcaster
	logger    *zap.Logger
}

// NewDashboard wires the invocation pipeline.
func NewDashboard(
	eng *engine.Engine,
	sched *scheduler.Scheduler,
	qry *query.Service,
	clk clock.Clock,
	hub Broadcaster,
	logger *zap.Logger,
) *Dashboard {
	return &Dashboard{
		engine:    eng,
		scheduler: sched,
		query:     qry,
		clock:     clk,
		hub:       hub,
		logger:    logger,
	}
}

// Claim runs the full pipeline around engine.ClaimStation.
func (d *Dashboard) Claim(ctx context.Context, input engine.ClaimInput) (*models.Session, error) {
	d.preamble(ctx)
	session, err := d.engine.ClaimStation(ctx, input)
	d.finish(ctx)
	return session, err
}

// Join runs the pipeline around engine.JoinWaitlist.
func (d *Dashboard) Join(ctx context.Context, input engine.JoinInput) (bool, error) {
	d.preamble(ctx)
	joined, err := d.engine.JoinWaitlist(ctx, input)
	d.finish(ctx)
	return joined, err
}

// Release runs the pipeline around engine.ReleaseStation.
func (d *Dashboard) Release(ctx context.Context, station int, pin string) (*models.Reservation, error) {
	d.preamble(ctx)
	reservation, err := d.engine.ReleaseStation(ctx, station, pin)
	d.finish(ctx)
	return reservation, err
}

// Status sweeps and returns a snapshot without mutating allocation state.
func (d *Dashboard) Status(ctx context.Context) (*query.Snapshot, error) {
	d.preamble(ctx)
	if _, err := d.engine.SweepExpiredReservations(ctx, d.clock.Now()); err != nil {
		return nil, err
	}
	return d.query.Status(ctx, d.clock.Now())
}

// ForceRollover archives and clears regardless of schedule. The caller must
// already have passed the admin gate.
func (d *Dashboard) ForceRollover(ctx context.Context) error {
	_, err := d.scheduler.MaybeRollover(ctx, d.clock.Now(), true)
	if err != nil {
		return err
	}
	d.finish(ctx)
	return nil
}

// Snapshot returns the current state for a freshly connected dashboard
// client. Best-effort; nil on failure.
func (d *Dashboard) Snapshot(ctx context.Context) *query.Snapshot {
	snapshot, err := d.query.Status(ctx, d.clock.Now())
	if err != nil {
		d.logger.Warn("failed to build snapshot", zap.Error(err))
		return nil
	}
	return snapshot
}

// preamble gives the scheduler its once-per-invocation chance to roll over.
func (d *Dashboard) preamble(ctx context.Context) {
	if _, err := d.scheduler.MaybeRollover(ctx, d.clock.Now(), false); err != nil {
		d.logger.Warn("scheduled rollover failed", zap.Error(err))
	}
}

// finish sweeps expired holds and fans the resulting state out.
func (d *Dashboard) finish(ctx context.Context) {
	if _, err := d.engine.SweepExpiredReservations(ctx, d.clock.Now()); err != nil {
		d.logger.Warn("reservation sweep failed", zap.Error(err))
	}
	if d.hub == nil {
		return
	}
	if snapshot := d.Snapshot(ctx); snapshot != nil {
		d.hub.BroadcastSnapshot(snapshot)
	}
}
