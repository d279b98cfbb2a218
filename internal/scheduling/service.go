package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/hospital-scheduling/internal/guard"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
)

var (
	ErrPastDate          = errors.New("cannot book an appointment for a past date")
	ErrInvalidStatus     = errors.New("unknown appointment status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrCancelCompleted   = errors.New("cannot cancel a completed appointment")

	// ErrInternalConsistency means the slot calendar and the appointment
	// set disagree. It signals a defect, never a user mistake, and must be
	// logged wherever it is produced.
	ErrInternalConsistency = errors.New("slot calendar inconsistent with appointments")
)

// Service is the appointment lifecycle manager: the only writer of
// appointment and slot state. Every booking passes through the guard
// before anything is persisted.
type Service struct {
	repo     Repository
	guard    guard.Guard
	calendar *Calendar
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, g guard.Guard, calendar *Calendar, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		guard:    g,
		calendar: calendar,
		log:      log,
		now:      time.Now,
	}
}

type BookingRequest struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time
	Start     ClockTime
	Reason    string
	Notes     *string
}

func bookingKey(doctorID uuid.UUID, date time.Time, start ClockTime) guard.Key {
	return guard.Key{
		DoctorID:    doctorID,
		Date:        DateOf(date),
		StartMinute: start.Minutes(),
	}
}

// Book admits and persists a new appointment.
//
// Order matters: the guard reservation is taken before the insert and
// released again if the insert fails, so an abandoned booking never leaks
// the slot. The partial unique index on live appointments backs the guard
// up if its state is ever lost.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*AppointmentDetail, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	patient, err := s.repo.GetPatientByID(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	date := DateOf(req.Date)
	if date.Before(DateOf(s.now())) {
		return nil, ErrPastDate
	}

	// The requested window must exist in the generated calendar. A
	// weekend or never-generated day fails here instead of booking into
	// a phantom slot.
	slot, err := s.repo.GetSlotByStart(ctx, req.DoctorID, date, req.Start)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load slot: %w", err)
	}

	key := bookingKey(req.DoctorID, date, req.Start)
	if err := s.guard.TryReserve(ctx, key); err != nil {
		if errors.Is(err, guard.ErrKeyReserved) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("reserve booking key: %w", err)
	}

	appt := &Appointment{
		ID:              uuid.New(),
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		Date:            date,
		Start:           req.Start,
		DurationMinutes: slot.DurationMinutes,
		Status:          StatusScheduled,
		Reason:          req.Reason,
		Notes:           req.Notes,
	}

	created, err := s.repo.CreateAppointment(ctx, appt)
	if err != nil {
		// Compensating release: the reservation must not outlive a
		// failed persistence attempt.
		if relErr := s.guard.Release(ctx, key); relErr != nil {
			s.log.Error().Err(relErr).
				Str("key", key.String()).
				Msg("failed to release reservation after create failure")
		}
		if errors.Is(err, ErrSlotTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	if err := s.calendar.SetAvailability(ctx, req.DoctorID, date, req.Start, false); err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			s.log.Error().
				Str("appointment_id", created.ID.String()).
				Str("doctor_id", req.DoctorID.String()).
				Str("date", FormatDate(date)).
				Str("time", req.Start.String()).
				Msg("booked appointment has no matching calendar slot")
			return nil, ErrInternalConsistency
		}
		return nil, fmt.Errorf("mark slot unavailable: %w", err)
	}

	s.logEvent(ctx, created.ID, EventAppointmentBooked, map[string]any{
		"doctor_id":  req.DoctorID.String(),
		"patient_id": req.PatientID.String(),
		"date":       FormatDate(date),
		"time":       req.Start.String(),
	})

	return &AppointmentDetail{
		Appointment: *created,
		Doctor:      doctor,
		Patient:     patient,
	}, nil
}

// UpdateStatus applies the appointment state machine:
//
//	scheduled -> completed
//	scheduled -> cancelled (routed through Cancel to keep the slot in sync)
//
// completed and cancelled are terminal.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) (*Appointment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if status == StatusScheduled {
		return nil, ErrInvalidTransition
	}
	if status == StatusCancelled {
		return s.Cancel(ctx, id)
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusScheduled {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusScheduled, StatusCompleted)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Raced with another transition since the load above.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCompleted, map[string]any{})

	return updated, nil
}

// Cancel transitions a scheduled appointment to cancelled, re-opens its
// slot and releases the guard reservation. The status write is durable
// before the slot is freed, so there is never a window where the slot
// looks bookable while the appointment is still live.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == StatusCompleted {
		return nil, ErrCancelCompleted
	}
	if appt.Status != StatusScheduled {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusScheduled, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	if err := s.calendar.SetAvailability(ctx, appt.DoctorID, appt.Date, appt.Start, true); err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			s.log.Error().
				Str("appointment_id", id.String()).
				Str("doctor_id", appt.DoctorID.String()).
				Str("date", FormatDate(appt.Date)).
				Str("time", appt.Start.String()).
				Msg("cancelled appointment has no matching calendar slot")
			return nil, ErrInternalConsistency
		}
		return nil, fmt.Errorf("mark slot available: %w", err)
	}

	key := bookingKey(appt.DoctorID, appt.Date, appt.Start)
	if err := s.guard.Release(ctx, key); err != nil {
		return nil, fmt.Errorf("release booking key: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{
		"doctor_id": appt.DoctorID.String(),
		"date":      FormatDate(appt.Date),
		"time":      appt.Start.String(),
	})

	return updated, nil
}

// GetAppointment returns a fully hydrated appointment.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	return s.repo.GetAppointmentDetail(ctx, id)
}

// RestoreReservations re-seeds the guard from live appointments. Run on
// startup so an in-process guard does not forget reservations across a
// restart; already-held keys are fine.
func (s *Service) RestoreReservations(ctx context.Context) (int, error) {
	live, err := s.repo.ListScheduledFrom(ctx, DateOf(s.now()))
	if err != nil {
		return 0, fmt.Errorf("list scheduled appointments: %w", err)
	}

	restored := 0
	for _, appt := range live {
		key := bookingKey(appt.DoctorID, appt.Date, appt.Start)
		err := s.guard.TryReserve(ctx, key)
		switch {
		case err == nil:
			restored++
		case errors.Is(err, guard.ErrKeyReserved):
			// Reservation survived, nothing to do.
		default:
			return restored, fmt.Errorf("restore reservation %s: %w", key, err)
		}
	}
	return restored, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID
	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).
			Str("event", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("failed to insert event log")
	}
}
