package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/careops/hospital-scheduling/internal/identity"
	"github.com/careops/hospital-scheduling/internal/scheduling"
)

type RouterConfig struct {
	Service  *scheduling.Service
	Calendar *scheduling.Calendar
	Resolver *identity.Resolver
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Logger   zerolog.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints stay unauthenticated for probes.
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Resolver))

		r.Post("/appointments", bookAppointmentHandler(cfg.Service))
		r.Get("/appointments", requireRole(appointmentsByStatusHandler(cfg.Service),
			identity.RoleStaff, identity.RoleDoctor))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/status", requireRole(updateStatusHandler(cfg.Service),
			identity.RoleStaff, identity.RoleDoctor))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Service))

		r.Get("/doctors/{id}/slots", doctorSlotsHandler(cfg.Service))
		r.Get("/doctors/{id}/appointments", requireRole(doctorAppointmentsHandler(cfg.Service),
			identity.RoleStaff, identity.RoleDoctor))
		r.Post("/doctors/{id}/calendar", requireRole(generateCalendarHandler(cfg.Calendar),
			identity.RoleStaff))

		r.Get("/patients/{id}/appointments", patientAppointmentsHandler(cfg.Service))
		r.Get("/patients/{id}/appointments/upcoming", upcomingAppointmentsHandler(cfg.Service))
	})

	return r
}
