package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Default clinic-day policy: 30-minute windows over [09:00, 17:00),
// business days only.
const (
	DefaultClinicOpen  = ClockTime(9 * 60)
	DefaultClinicClose = ClockTime(17 * 60)
	DefaultSlotMinutes = 30
)

// Calendar materializes and maintains the bookable windows for a doctor on
// a given day. Slot rows are created here exactly once per (doctor, date)
// and only ever mutated through the lifecycle service.
type Calendar struct {
	repo        Repository
	log         zerolog.Logger
	open        ClockTime
	close       ClockTime
	slotMinutes int
}

func NewCalendar(repo Repository, log zerolog.Logger, open, close ClockTime, slotMinutes int) *Calendar {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	if close <= open {
		open, close = DefaultClinicOpen, DefaultClinicClose
	}
	return &Calendar{
		repo:        repo,
		log:         log,
		open:        open,
		close:       close,
		slotMinutes: slotMinutes,
	}
}

// GenerateDay creates the day's slot set for a doctor. It is idempotent:
// if any slots already exist for the (doctor, date) it does nothing.
// Weekends are skipped silently; that is calendar policy, not an error.
// Returns the number of slots created.
func (c *Calendar) GenerateDay(ctx context.Context, doctorID uuid.UUID, date time.Time) (int, error) {
	date = DateOf(date)

	if !IsBusinessDay(date) {
		return 0, nil
	}

	existing, err := c.repo.CountSlots(ctx, doctorID, date)
	if err != nil {
		return 0, fmt.Errorf("count slots: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}

	now := time.Now()
	var slots []TimeSlot
	for start := c.open; start.Add(c.slotMinutes) <= c.close; start = start.Add(c.slotMinutes) {
		slots = append(slots, TimeSlot{
			ID:              uuid.New(),
			DoctorID:        doctorID,
			SlotDate:        date,
			Start:           start,
			End:             start.Add(c.slotMinutes),
			DurationMinutes: c.slotMinutes,
			Available:       true,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	// InsertSlots skips rows that already exist, so two concurrent
	// generation runs converge on the same slot set.
	if err := c.repo.InsertSlots(ctx, slots); err != nil {
		return 0, fmt.Errorf("insert slots: %w", err)
	}

	c.log.Debug().
		Str("doctor_id", doctorID.String()).
		Str("date", FormatDate(date)).
		Int("slots", len(slots)).
		Msg("slot calendar generated")

	return len(slots), nil
}

// GenerateHorizon generates calendars for every business day in
// [from, from+days). Used by the calendar worker.
func (c *Calendar) GenerateHorizon(ctx context.Context, doctorID uuid.UUID, from time.Time, days int) (int, error) {
	from = DateOf(from)

	total := 0
	for i := 0; i < days; i++ {
		n, err := c.GenerateDay(ctx, doctorID, from.AddDate(0, 0, i))
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// SetAvailability flips the availability flag of the slot starting at
// start. ErrSlotNotFound here means an appointment refers to a window the
// calendar never generated; callers treat that as an internal consistency
// defect rather than a user-facing failure.
func (c *Calendar) SetAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time, start ClockTime, available bool) error {
	return c.repo.UpdateSlotAvailability(ctx, doctorID, DateOf(date), start, available)
}

// ListAvailable returns the slots still flagged available, ordered by
// start time.
func (c *Calendar) ListAvailable(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]TimeSlot, error) {
	return c.repo.ListAvailableSlots(ctx, doctorID, DateOf(date))
}
