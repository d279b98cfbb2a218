package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/careops/hospital-scheduling/internal/config"
	"github.com/careops/hospital-scheduling/internal/db"
	"github.com/careops/hospital-scheduling/internal/scheduling"
)

// calendar-worker keeps every doctor's slot calendar materialized for the
// rolling booking horizon. GenerateDay is idempotent, so repeated runs and
// concurrent workers are harmless.
func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "calendar-worker").Logger()
	log.Info().Msg("calendar-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.WorkerInterval).
		Int("horizon_days", cfg.HorizonDays).
		Msg("running calendar worker")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	open, err := scheduling.ParseClockTime(cfg.ClinicOpen)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid CLINIC_OPEN")
	}
	close, err := scheduling.ParseClockTime(cfg.ClinicClose)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid CLINIC_CLOSE")
	}

	repo := scheduling.NewPgRepository(pgPool)
	calendar := scheduling.NewCalendar(repo, log, open, close, cfg.SlotMinutes)

	// Run once at startup
	runOnce(rootCtx, log, repo, calendar, cfg.HorizonDays)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping calendar worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, log, repo, calendar, cfg.HorizonDays)
		}
	}
}

func runOnce(ctx context.Context, log zerolog.Logger, repo scheduling.Repository, calendar *scheduling.Calendar, horizonDays int) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()

	doctorIDs, err := repo.ListDoctorIDs(runCtx)
	if err != nil {
		log.Error().Err(err).Msg("list doctors failed")
		return
	}

	created := 0
	for _, doctorID := range doctorIDs {
		n, err := calendar.GenerateHorizon(runCtx, doctorID, time.Now(), horizonDays)
		if err != nil {
			log.Error().Err(err).Str("doctor_id", doctorID.String()).Msg("calendar generation failed")
			continue
		}
		created += n
	}

	log.Info().
		Int("doctors", len(doctorIDs)).
		Int("slots_created", created).
		Dur("took", time.Since(start)).
		Msg("calendar run complete")
}
