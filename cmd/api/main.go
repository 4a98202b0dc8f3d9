package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gabrieldeelay/jnducorte2/internal/app"
	"github.com/gabrieldeelay/jnducorte2/internal/clock"
	"github.com/gabrieldeelay/jnducorte2/internal/config"
	"github.com/gabrieldeelay/jnducorte2/internal/domain"
	"github.com/gabrieldeelay/jnducorte2/internal/realtime"
	"github.com/gabrieldeelay/jnducorte2/internal/storage/postgres"
	"github.com/gabrieldeelay/jnducorte2/internal/storage/sqlite"
	transporthttp "github.com/gabrieldeelay/jnducorte2/internal/transport/http"
	"github.com/gabrieldeelay/jnducorte2/migrations"
)

const reconnectInterval = 5 * time.Second

func main() {
	logger := log.Default()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startupCtx, cancel := context.WithTimeout(stopCtx, 10*time.Second)
	defer cancel()

	var rec *realtime.Reconciler
	hub := realtime.NewHub(logger,
		func() { rec.ViewerAttached() },
		func() { rec.ViewerDetached() },
	)

	var (
		store  app.Store
		stream realtime.Stream
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect to db: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(startupCtx); err != nil {
			log.Fatalf("db ping: %v", err)
		}
		if err := migrations.Apply(startupCtx, pool); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}

		store = postgres.NewReservationRepository(pool)
		stream = postgres.NewChangeFeed(pool, logger)
		logger.Printf("using postgres store")
	} else {
		local, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("open sqlite: %v", err)
		}
		defer local.Close()

		if cfg.SeedLocal {
			if err := local.Seed(startupCtx, seedReservation(loc)); err != nil {
				logger.Printf("WARN: seed failed: %v", err)
			}
		}
		store = local
		logger.Printf("using sqlite store at %s", cfg.SQLitePath)
	}

	gate := app.NewShopGate(store, logger)
	rec = realtime.NewReconciler(stream, hub, gate, logger)
	rec.SetNotifications(true)

	if err := gate.Refresh(startupCtx); err != nil {
		logger.Printf("WARN: shop gate refresh failed: %v", err)
	}

	svc := app.NewBookingService(store, rec, clock.NewSystem(), loc, logger)
	if _, err := svc.List(startupCtx); err != nil {
		logger.Printf("WARN: initial load failed: %v", err)
	}

	if stream != nil {
		go keepConnected(stopCtx, rec, logger)
	}

	router := transporthttp.NewRouter(transporthttp.RouterDeps{
		Creator:      svc,
		Reader:       svc,
		Updater:      svc,
		Availability: svc,
		Gate:         gate,
		Store:        store,
		Hub:          hub,
		Clock:        clock.NewSystem(),
		Loc:          loc,
		Creds: transporthttp.AdminCredentials{
			User:   cfg.AdminUser,
			Pass:   cfg.AdminPass,
			Secret: cfg.AdminSecret,
		},
		CORSOrigins:    cfg.CORSOrigins,
		RateLimit:      cfg.RateLimit,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	log.Printf("api listening on %s", cfg.Addr())

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	rec.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}

// keepConnected keeps the change feed subscribed, retrying after drops.
func keepConnected(ctx context.Context, rec *realtime.Reconciler, logger *log.Logger) {
	ticker := time.NewTicker(reconnectInterval)
	defer ticker.Stop()

	for {
		if rec.State() == realtime.StateDisconnected {
			if err := rec.Connect(ctx); err != nil {
				logger.Printf("changefeed connect failed: %v", err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// seedReservation gives a fresh local store one example entry.
func seedReservation(loc *time.Location) domain.Reservation {
	tomorrow := time.Now().In(loc).AddDate(0, 0, 1)
	return domain.Reservation{
		ID:            uuid.NewString(),
		ClientName:    "Cliente Exemplo",
		ClientPhone:   "27999290483",
		ServiceLabel:  "Corte",
		StaffName:     "Jeilson Aprijo",
		ScheduledDate: tomorrow.Format(domain.DateLayout),
		ScheduledTime: "10:00",
		Price:         decimal.NewFromInt(35),
		CreatedAt:     time.Now(),
		Status:        domain.StatusPending,
	}
}
