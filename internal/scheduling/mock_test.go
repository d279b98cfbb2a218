package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// mockRepo is an in-memory Repository for tests. It enforces the same
// live-booking uniqueness the partial index enforces in Postgres, so the
// service's conflict handling can be exercised without a database.
type mockRepo struct {
	mu sync.Mutex

	doctors      map[uuid.UUID]*Doctor
	patients     map[uuid.UUID]*Patient
	slots        []*TimeSlot
	appointments []*Appointment
	events       []EventLog

	failCreate error // when set, CreateAppointment returns this error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		doctors:  make(map[uuid.UUID]*Doctor),
		patients: make(map[uuid.UUID]*Patient),
	}
}

func (m *mockRepo) addDoctor(name string) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.doctors[id] = &Doctor{ID: id, Name: name, LicenseNumber: "MD000001", Specialization: "Cardiology"}
	return id
}

func (m *mockRepo) addPatient(name string) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.patients[id] = &Patient{ID: id, Code: "HOSP-000001", Name: name}
	return id
}

func (m *mockRepo) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *mockRepo) ListDoctorIDs(_ context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(m.doctors))
	for id := range m.doctors {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockRepo) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepo) CountSlots(_ context.Context, doctorID uuid.UUID, date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.slots {
		if s.DoctorID == doctorID && s.SlotDate.Equal(date) {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) InsertSlots(_ context.Context, slots []TimeSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, slot := range slots {
		exists := false
		for _, s := range m.slots {
			if s.DoctorID == slot.DoctorID && s.SlotDate.Equal(slot.SlotDate) && s.Start == slot.Start {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		copied := slot
		m.slots = append(m.slots, &copied)
	}
	return nil
}

func (m *mockRepo) GetSlotByStart(_ context.Context, doctorID uuid.UUID, date time.Time, start ClockTime) (*TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		if s.DoctorID == doctorID && s.SlotDate.Equal(date) && s.Start == start {
			copied := *s
			return &copied, nil
		}
	}
	return nil, ErrSlotNotFound
}

func (m *mockRepo) UpdateSlotAvailability(_ context.Context, doctorID uuid.UUID, date time.Time, start ClockTime, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		if s.DoctorID == doctorID && s.SlotDate.Equal(date) && s.Start == start {
			s.Available = available
			return nil
		}
	}
	return ErrSlotNotFound
}

func (m *mockRepo) ListAvailableSlots(_ context.Context, doctorID uuid.UUID, date time.Time) ([]TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []TimeSlot
	for _, s := range m.slots {
		if s.DoctorID == doctorID && s.SlotDate.Equal(date) && s.Available {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (m *mockRepo) CreateAppointment(_ context.Context, appt *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCreate != nil {
		return nil, m.failCreate
	}

	for _, a := range m.appointments {
		if a.DoctorID == appt.DoctorID && a.Date.Equal(appt.Date) && a.Start == appt.Start && a.Status.Live() {
			return nil, ErrSlotTaken
		}
	}

	copied := *appt
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	m.appointments = append(m.appointments, &copied)

	out := copied
	return &out, nil
}

func (m *mockRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.ID == id {
			copied := *a
			return &copied, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *mockRepo) GetAppointmentDetail(_ context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.ID == id {
			return m.detailLocked(a), nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *mockRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.ID == id && a.Status == from {
			a.Status = to
			a.UpdatedAt = time.Now()
			copied := *a
			return &copied, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *mockRepo) ListDetailsByPatient(_ context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AppointmentDetail
	for _, a := range m.appointments {
		if a.PatientID == patientID {
			out = append(out, *m.detailLocked(a))
		}
	}
	return out, nil
}

func (m *mockRepo) ListDetailsByDoctorAndDate(_ context.Context, doctorID uuid.UUID, date time.Time) ([]AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AppointmentDetail
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.Date.Equal(date) {
			out = append(out, *m.detailLocked(a))
		}
	}
	return out, nil
}

func (m *mockRepo) ListDetailsByStatusOnDate(_ context.Context, status AppointmentStatus, date time.Time) ([]AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AppointmentDetail
	for _, a := range m.appointments {
		if a.Status == status && a.Date.Equal(date) {
			out = append(out, *m.detailLocked(a))
		}
	}
	return out, nil
}

func (m *mockRepo) ListScheduledFrom(_ context.Context, date time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appointments {
		if a.Status == StatusScheduled && !a.Date.Before(date) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockRepo) InsertEvent(_ context.Context, ev EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *mockRepo) detailLocked(a *Appointment) *AppointmentDetail {
	det := &AppointmentDetail{Appointment: *a}
	if d, ok := m.doctors[a.DoctorID]; ok {
		copied := *d
		det.Doctor = &copied
	}
	if p, ok := m.patients[a.PatientID]; ok {
		copied := *p
		det.Patient = &copied
	}
	return det
}

func (m *mockRepo) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.events))
	for i, ev := range m.events {
		types[i] = ev.EventType
	}
	return types
}
