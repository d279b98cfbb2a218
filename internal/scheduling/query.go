package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Read-only composition over the slot calendar and the appointment set.
// None of these mutate anything; results are stable by creation order.

// AvailableSlots lists the windows still bookable for a doctor on a date.
// Calendar availability is filtered a second time against live
// appointments, which tolerates a crash between the appointment insert and
// the slot flag update.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]TimeSlot, error) {
	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	date = DateOf(date)

	slots, err := s.calendar.ListAvailable(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}

	appts, err := s.repo.ListDetailsByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	booked := make(map[ClockTime]struct{}, len(appts))
	for _, a := range appts {
		if a.Status.Live() {
			booked[a.Start] = struct{}{}
		}
	}

	free := slots[:0]
	for _, slot := range slots {
		if _, taken := booked[slot.Start]; !taken {
			free = append(free, slot)
		}
	}
	return free, nil
}

// AppointmentsForPatient lists every appointment of a patient, any status.
func (s *Service) AppointmentsForPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	return s.repo.ListDetailsByPatient(ctx, patientID)
}

// UpcomingAppointmentsForPatient lists scheduled appointments strictly in
// the future relative to query time.
func (s *Service) UpcomingAppointmentsForPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	all, err := s.AppointmentsForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := DateOf(now)
	nowClock := ClockTimeOf(now.UTC())

	var upcoming []AppointmentDetail
	for _, a := range all {
		if a.Status != StatusScheduled {
			continue
		}
		if a.Date.After(today) || (a.Date.Equal(today) && a.Start > nowClock) {
			upcoming = append(upcoming, a)
		}
	}
	return upcoming, nil
}

// AppointmentsForDoctorOnDate lists a doctor's appointments on a date.
func (s *Service) AppointmentsForDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]AppointmentDetail, error) {
	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	return s.repo.ListDetailsByDoctorAndDate(ctx, doctorID, DateOf(date))
}

// AppointmentsByStatusToday lists today's appointments in a given status,
// for staff dashboards.
func (s *Service) AppointmentsByStatusToday(ctx context.Context, status AppointmentStatus) ([]AppointmentDetail, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.ListDetailsByStatusOnDate(ctx, status, DateOf(s.now()))
}
