package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrSlotNotFound        = errors.New("time slot not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotTaken means a live appointment already occupies the
	// (doctor, date, time) key. The partial unique index behind
	// CreateAppointment is the final arbiter for this condition.
	ErrSlotTaken = errors.New("time slot is already booked")
)

// Repository contains all DB interactions needed by the calendar and the
// lifecycle service.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctorIDs(ctx context.Context) ([]uuid.UUID, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// Slot calendar
	CountSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) (int, error)
	InsertSlots(ctx context.Context, slots []TimeSlot) error
	GetSlotByStart(ctx context.Context, doctorID uuid.UUID, date time.Time, start ClockTime) (*TimeSlot, error)
	UpdateSlotAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time, start ClockTime, available bool) error
	ListAvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]TimeSlot, error)

	// Appointment lifecycle
	CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// Listings and guard warm-up
	ListDetailsByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error)
	ListDetailsByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]AppointmentDetail, error)
	ListDetailsByStatusOnDate(ctx context.Context, status AppointmentStatus, date time.Time) ([]AppointmentDetail, error)
	ListScheduledFrom(ctx context.Context, date time.Time) ([]Appointment, error)

	// Audit trail
	InsertEvent(ctx context.Context, ev EventLog) error
}
