// Package app wires the voltqueue dependency graph.
package app

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/antochhka/voltqueue/internal/admin"
	"github.com/antochhka/voltqueue/internal/clock"
	"github.com/antochhka/voltqueue/internal/config"
	"github.com/antochhka/voltqueue/internal/engine"
	httpserver "github.com/antochhka/voltqueue/internal/http"
	"github.com/antochhka/voltqueue/internal/http/handlers"
	"github.com/antochhka/voltqueue/internal/http/middleware"
	"github.com/antochhka/voltqueue/internal/notify"
	"github.com/antochhka/voltqueue/internal/pin"
	"github.com/antochhka/voltqueue/internal/query"
	"github.com/antochhka/voltqueue/internal/registry"
	"github.com/antochhka/voltqueue/internal/scheduler"
	"github.com/antochhka/voltqueue/internal/service"
	"github.com/antochhka/voltqueue/internal/store"
	"github.com/antochhka/voltqueue/internal/store/memory"
	"github.com/antochhka/voltqueue/internal/store/postgres"
	"github.com/antochhka/voltqueue/internal/ws"
)

// App holds the running service and its closable resources.
type App struct {
	server      *httpserver.Server
	hub         *ws.Hub
	pgStore     *postgres.Store
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph. In dev mode the store is in-memory
// and notifications are discarded; otherwise Postgres and Redis are dialed.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	reg, err := registry.New(cfg.StationGroups())
	if err != nil {
		return nil, err
	}

	zoneClock, err := clock.NewZone(cfg.Engine.TimeZone)
	if err != nil {
		return nil, err
	}

	app := &App{logger: logger}

	var st store.Store
	var notifier notify.Notifier
	if cfg.Dev {
		st = memory.New()
		notifier = notify.Nop{}
		logger.Warn("running in dev mode: in-memory store, notifications discarded")
	} else {
		pgStore, err := postgres.Open(cfg.Database.DSN, cfg.TxTimeout())
		if err != nil {
			return nil, err
		}
		app.pgStore = pgStore
		st = pgStore

		redisClient, err := notify.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			pgStore.Close()
			return nil, err
		}
		app.redisClient = redisClient
		notifier = notify.NewRedisNotifier(redisClient, cfg.InboxTTL(), logger)
	}

	hasher := pin.NewBcryptHasher(0)
	eng := engine.New(st, reg, hasher, notifier, zoneClock, logger, cfg.HoldDuration())
	sched := scheduler.New(st, logger, cfg.Engine.RolloverHour)
	qry := query.NewService(st, reg, cfg.HoldDuration())

	hub := ws.NewHub(logger)
	app.hub = hub

	dashboard := service.NewDashboard(eng, sched, qry, zoneClock, hub, logger)
	hub.SetSnapshotProvider(func() interface{} {
		snapshot, err := dashboard.Status(context.Background())
		if err != nil {
			logger.Warn("failed to build greeting snapshot", zap.Error(err))
			return nil
		}
		return snapshot
	})

	gate := admin.NewGate(cfg.Admin.Alias)
	tokens := admin.NewTokenService(cfg.Admin.JWTSecret, cfg.TokenTTL())

	allocHandler := handlers.NewAllocationHandler(dashboard, logger)
	adminHandler := handlers.NewAdminHandler(gate, tokens, dashboard, logger)
	adminAuth := middleware.AdminAuth(tokens)

	routes := httpserver.Routes{
		Claim:         allocHandler.HandleClaim,
		Join:          allocHandler.HandleJoin,
		Release:       allocHandler.HandleRelease,
		Status:        handlers.NewStatusHandler(dashboard),
		Stations:      handlers.NewStationsHandler(reg),
		AdminLogin:    adminHandler.HandleLogin,
		AdminRollover: adminAuth(http.HandlerFunc(adminHandler.HandleRollover)),
		Dashboard:     handlers.NewWSHandler(hub, logger),
		Health:        handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes)
	app.server = httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return app, nil
}

// Run starts the dashboard hub and the HTTP server.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run()
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.pgStore != nil {
		if err := a.pgStore.Close(); err != nil {
			a.logger.Warn("failed to close postgres", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
