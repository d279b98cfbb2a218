package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Live reports whether the appointment still counts against its slot.
func (s AppointmentStatus) Live() bool {
	return s == StatusScheduled
}

type Doctor struct {
	ID                uuid.UUID
	Name              string
	LicenseNumber     string
	Specialization    string
	Department        *string
	YearsOfExperience *int
	ConsultationFee   *float64
	AvailableHours    *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Patient struct {
	ID        uuid.UUID
	Code      string // human-readable patient code, e.g. HOSP-104233
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimeSlot is one bookable window in a doctor's day calendar.
type TimeSlot struct {
	ID              uuid.UUID
	DoctorID        uuid.UUID
	SlotDate        time.Time
	Start           ClockTime
	End             ClockTime
	DurationMinutes int
	Available       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	DoctorID        uuid.UUID
	Date            time.Time
	Start           ClockTime
	DurationMinutes int
	Status          AppointmentStatus
	Reason          string
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EventLog is an append-only audit record of lifecycle transitions.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// AppointmentDetail carries the doctor/patient snapshots resolved at
// response-assembly time. The appointment row itself stores identifiers only.
type AppointmentDetail struct {
	Appointment
	Doctor  *Doctor
	Patient *Patient
}
