package api

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/careops/hospital-scheduling/internal/scheduling"
)

var validate = validator.New()

type BookAppointmentRequest struct {
	// patient_id is ignored for patient callers (they book for
	// themselves) and required for staff.
	PatientID string  `json:"patient_id" validate:"omitempty,uuid"`
	DoctorID  string  `json:"doctor_id" validate:"required,uuid"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string  `json:"time" validate:"required,datetime=15:04"`
	Reason    string  `json:"reason" validate:"required,max=500"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type DoctorInfo struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Specialization  string    `json:"specialization"`
	Department      *string   `json:"department,omitempty"`
	ConsultationFee *float64  `json:"consultation_fee,omitempty"`
}

type PatientInfo struct {
	ID    uuid.UUID `json:"id"`
	Code  string    `json:"code"`
	Name  string    `json:"name"`
	Email *string   `json:"email,omitempty"`
}

type AppointmentResponse struct {
	ID              uuid.UUID            `json:"id"`
	DoctorID        uuid.UUID            `json:"doctor_id"`
	PatientID       uuid.UUID            `json:"patient_id"`
	Date            string               `json:"date"`
	Time            scheduling.ClockTime `json:"time"`
	DurationMinutes int                  `json:"duration_minutes"`
	Status          string               `json:"status"`
	Reason          string               `json:"reason"`
	Notes           *string              `json:"notes,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	Doctor          *DoctorInfo          `json:"doctor,omitempty"`
	Patient         *PatientInfo         `json:"patient,omitempty"`
}

type SlotResponse struct {
	Date            string               `json:"date"`
	StartTime       scheduling.ClockTime `json:"start_time"`
	EndTime         scheduling.ClockTime `json:"end_time"`
	DurationMinutes int                  `json:"duration_minutes"`
	Available       bool                 `json:"available"`
}

type SlotListResponse struct {
	DoctorID uuid.UUID      `json:"doctor_id"`
	Date     string         `json:"date"`
	Slots    []SlotResponse `json:"slots"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}

type GenerateCalendarResponse struct {
	DoctorID     uuid.UUID `json:"doctor_id"`
	Date         string    `json:"date"`
	SlotsCreated int       `json:"slots_created"`
}

func toAppointmentResponse(a scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		DoctorID:        a.DoctorID,
		PatientID:       a.PatientID,
		Date:            scheduling.FormatDate(a.Date),
		Time:            a.Start,
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		Reason:          a.Reason,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
	}
}

func toDetailResponse(d scheduling.AppointmentDetail) AppointmentResponse {
	resp := toAppointmentResponse(d.Appointment)
	if d.Doctor != nil {
		resp.Doctor = &DoctorInfo{
			ID:              d.Doctor.ID,
			Name:            d.Doctor.Name,
			Specialization:  d.Doctor.Specialization,
			Department:      d.Doctor.Department,
			ConsultationFee: d.Doctor.ConsultationFee,
		}
	}
	if d.Patient != nil {
		resp.Patient = &PatientInfo{
			ID:    d.Patient.ID,
			Code:  d.Patient.Code,
			Name:  d.Patient.Name,
			Email: d.Patient.Email,
		}
	}
	return resp
}

func toDetailListResponse(details []scheduling.AppointmentDetail) AppointmentListResponse {
	resp := AppointmentListResponse{
		Appointments: make([]AppointmentResponse, 0, len(details)),
		Total:        len(details),
	}
	for _, d := range details {
		resp.Appointments = append(resp.Appointments, toDetailResponse(d))
	}
	return resp
}

func toSlotListResponse(doctorID uuid.UUID, date time.Time, slots []scheduling.TimeSlot) SlotListResponse {
	resp := SlotListResponse{
		DoctorID: doctorID,
		Date:     scheduling.FormatDate(date),
		Slots:    make([]SlotResponse, 0, len(slots)),
	}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, SlotResponse{
			Date:            scheduling.FormatDate(s.SlotDate),
			StartTime:       s.Start,
			EndTime:         s.End,
			DurationMinutes: s.DurationMinutes,
			Available:       s.Available,
		})
	}
	return resp
}
