package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/careops/hospital-scheduling/internal/api"
	"github.com/careops/hospital-scheduling/internal/config"
	"github.com/careops/hospital-scheduling/internal/db"
	"github.com/careops/hospital-scheduling/internal/guard"
	"github.com/careops/hospital-scheduling/internal/identity"
	"github.com/careops/hospital-scheduling/internal/scheduling"
)

const version = "1.2.0"

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "api-server").Logger()
	log.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	migCtx, cancelMig := context.WithTimeout(rootCtx, 30*time.Second)
	err = db.Migrate(migCtx, pgPool)
	cancelMig()
	if err != nil {
		log.Fatal().Err(err).Msg("schema migration error")
	}

	// Connect Redis
	rdb, err := guard.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	open, err := scheduling.ParseClockTime(cfg.ClinicOpen)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid CLINIC_OPEN")
	}
	close, err := scheduling.ParseClockTime(cfg.ClinicClose)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid CLINIC_CLOSE")
	}

	repo := scheduling.NewPgRepository(pgPool)
	bookingGuard := guard.NewRedisGuard(rdb)
	calendar := scheduling.NewCalendar(repo, log, open, close, cfg.SlotMinutes)
	svc := scheduling.NewService(repo, bookingGuard, calendar, log)
	resolver := identity.NewResolver(cfg.JWTSecret)

	// Re-seed reservations for live appointments so the guard agrees
	// with the database after a cold start.
	warmCtx, cancelWarm := context.WithTimeout(rootCtx, 30*time.Second)
	restored, err := svc.RestoreReservations(warmCtx)
	cancelWarm()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to restore reservations")
	}
	log.Info().Int("restored", restored).Msg("guard reservations restored")

	router := api.NewRouter(api.RouterConfig{
		Service:  svc,
		Calendar: calendar,
		Resolver: resolver,
		PgPool:   pgPool,
		Redis:    rdb,
		Logger:   log,
		Env:      cfg.Env,
		Version:  version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	log.Info().Msg("api-server stopped")
}
