package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Name of the partial unique index guaranteeing at most one live
// appointment per (doctor, date, time). See internal/db schema.
const liveBookingConstraint = "uq_appointments_live"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.LicenseNumber,
		&d.Specialization,
		&d.Department,
		&d.YearsOfExperience,
		&d.ConsultationFee,
		&d.AvailableHours,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Name,
		&p.Email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanSlot(row pgx.Row) (*TimeSlot, error) {
	var s TimeSlot
	var start, end, duration int32

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.SlotDate,
		&start,
		&end,
		&duration,
		&s.Available,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.SlotDate = DateOf(s.SlotDate)
	s.Start = ClockTime(start)
	s.End = ClockTime(end)
	s.DurationMinutes = int(duration)
	return &s, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var start, duration int32

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.Date,
		&start,
		&duration,
		&a.Status,
		&a.Reason,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = DateOf(a.Date)
	a.Start = ClockTime(start)
	a.DurationMinutes = int(duration)
	return &a, nil
}

const detailColumns = `
	a.id, a.patient_id, a.doctor_id, a.appointment_date, a.start_minute,
	a.duration_minutes, a.status, a.reason, a.notes, a.created_at, a.updated_at,
	d.id, d.name, d.license_number, d.specialization, d.department,
	d.years_of_experience, d.consultation_fee, d.available_hours, d.created_at, d.updated_at,
	p.id, p.code, p.name, p.email, p.created_at, p.updated_at`

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var det AppointmentDetail
	var d Doctor
	var p Patient
	var start, duration int32

	err := row.Scan(
		&det.Appointment.ID,
		&det.PatientID,
		&det.DoctorID,
		&det.Date,
		&start,
		&duration,
		&det.Status,
		&det.Reason,
		&det.Notes,
		&det.Appointment.CreatedAt,
		&det.Appointment.UpdatedAt,
		&d.ID,
		&d.Name,
		&d.LicenseNumber,
		&d.Specialization,
		&d.Department,
		&d.YearsOfExperience,
		&d.ConsultationFee,
		&d.AvailableHours,
		&d.CreatedAt,
		&d.UpdatedAt,
		&p.ID,
		&p.Code,
		&p.Name,
		&p.Email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	det.Date = DateOf(det.Date)
	det.Start = ClockTime(start)
	det.DurationMinutes = int(duration)
	det.Doctor = &d
	det.Patient = &p
	return &det, nil
}

func collectDetails(rows pgx.Rows) ([]AppointmentDetail, error) {
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		det, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *det)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Interface methods

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, license_number, specialization, department,
		       years_of_experience, consultation_fee, available_hours,
		       created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctorIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM doctors ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, code, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) CountSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM time_slots
		WHERE doctor_id = $1 AND slot_date = $2
	`, doctorID, date).Scan(&n)
	return n, err
}

func (r *PgRepository) InsertSlots(ctx context.Context, slots []TimeSlot) error {
	if len(slots) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range slots {
		// ON CONFLICT keeps concurrent generation runs idempotent.
		_, err := tx.Exec(ctx, `
			INSERT INTO time_slots
				(id, doctor_id, slot_date, start_minute, end_minute,
				 duration_minutes, is_available, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			ON CONFLICT (doctor_id, slot_date, start_minute) DO NOTHING
		`, s.ID, s.DoctorID, s.SlotDate, int32(s.Start), int32(s.End),
			int32(s.DurationMinutes), s.Available)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) GetSlotByStart(ctx context.Context, doctorID uuid.UUID, date time.Time, start ClockTime) (*TimeSlot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, slot_date, start_minute, end_minute,
		       duration_minutes, is_available, created_at, updated_at
		FROM time_slots
		WHERE doctor_id = $1 AND slot_date = $2 AND start_minute = $3
	`, doctorID, date, int32(start))
	return scanSlot(row)
}

func (r *PgRepository) UpdateSlotAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time, start ClockTime, available bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE time_slots
		SET is_available = $4,
		    updated_at = now()
		WHERE doctor_id = $1 AND slot_date = $2 AND start_minute = $3
	`, doctorID, date, int32(start), available)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *PgRepository) ListAvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]TimeSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, slot_date, start_minute, end_minute,
		       duration_minutes, is_available, created_at, updated_at
		FROM time_slots
		WHERE doctor_id = $1 AND slot_date = $2 AND is_available
		ORDER BY start_minute
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TimeSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateAppointment(ctx context.Context, appt *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, patient_id, doctor_id, appointment_date, start_minute,
			 duration_minutes, status, reason, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING id, patient_id, doctor_id, appointment_date, start_minute,
		          duration_minutes, status, reason, notes, created_at, updated_at
	`, appt.ID, appt.PatientID, appt.DoctorID, appt.Date, int32(appt.Start),
		int32(appt.DurationMinutes), appt.Status, appt.Reason, appt.Notes)

	created, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == liveBookingConstraint {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, doctor_id, appointment_date, start_minute,
		       duration_minutes, status, reason, notes, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+detailColumns+`
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.id = $1
	`, id)
	return scanDetail(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, patient_id, doctor_id, appointment_date, start_minute,
		          duration_minutes, status, reason, notes, created_at, updated_at
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) ListDetailsByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+detailColumns+`
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.patient_id = $1
		ORDER BY a.created_at
	`, patientID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func (r *PgRepository) ListDetailsByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+detailColumns+`
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.doctor_id = $1 AND a.appointment_date = $2
		ORDER BY a.created_at
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func (r *PgRepository) ListDetailsByStatusOnDate(ctx context.Context, status AppointmentStatus, date time.Time) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+detailColumns+`
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.status = $1 AND a.appointment_date = $2
		ORDER BY a.created_at
	`, status, date)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func (r *PgRepository) ListScheduledFrom(ctx context.Context, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, doctor_id, appointment_date, start_minute,
		       duration_minutes, status, reason, notes, created_at, updated_at
		FROM appointments
		WHERE status = 'scheduled' AND appointment_date >= $1
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
