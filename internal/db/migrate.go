package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema statements are individually idempotent, so Migrate can run on
// every startup without a version table.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS doctors (
		id                  uuid PRIMARY KEY,
		name                text NOT NULL,
		license_number      text NOT NULL UNIQUE,
		specialization      text NOT NULL,
		department          text,
		years_of_experience integer,
		consultation_fee    double precision,
		available_hours     text,
		created_at          timestamptz NOT NULL DEFAULT now(),
		updated_at          timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS patients (
		id         uuid PRIMARY KEY,
		code       text NOT NULL UNIQUE,
		name       text NOT NULL,
		email      text,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS time_slots (
		id               uuid PRIMARY KEY,
		doctor_id        uuid NOT NULL REFERENCES doctors(id),
		slot_date        date NOT NULL,
		start_minute     smallint NOT NULL,
		end_minute       smallint NOT NULL,
		duration_minutes smallint NOT NULL,
		is_available     boolean NOT NULL DEFAULT true,
		created_at       timestamptz NOT NULL DEFAULT now(),
		updated_at       timestamptz NOT NULL DEFAULT now(),
		UNIQUE (doctor_id, slot_date, start_minute)
	)`,

	`CREATE TABLE IF NOT EXISTS appointments (
		id               uuid PRIMARY KEY,
		patient_id       uuid NOT NULL REFERENCES patients(id),
		doctor_id        uuid NOT NULL REFERENCES doctors(id),
		appointment_date date NOT NULL,
		start_minute     smallint NOT NULL,
		duration_minutes smallint NOT NULL,
		status           text NOT NULL,
		reason           text NOT NULL DEFAULT '',
		notes            text,
		created_at       timestamptz NOT NULL DEFAULT now(),
		updated_at       timestamptz NOT NULL DEFAULT now()
	)`,

	// The serialization backstop: at most one live appointment per
	// (doctor, date, time) no matter what the in-process guard believes.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_appointments_live
		ON appointments (doctor_id, appointment_date, start_minute)
		WHERE status = 'scheduled'`,

	`CREATE INDEX IF NOT EXISTS idx_appointments_patient
		ON appointments (patient_id, created_at)`,

	`CREATE INDEX IF NOT EXISTS idx_appointments_doctor_date
		ON appointments (doctor_id, appointment_date)`,

	`CREATE TABLE IF NOT EXISTS event_logs (
		id             bigserial PRIMARY KEY,
		event_type     text NOT NULL,
		appointment_id uuid,
		payload        jsonb,
		created_at     timestamptz NOT NULL DEFAULT now()
	)`,
}

// Migrate applies the schema. Safe to call concurrently from several
// nodes; every statement tolerates already-applied state.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
