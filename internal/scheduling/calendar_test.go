package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestCalendar(repo *mockRepo) *Calendar {
	return NewCalendar(repo, zerolog.Nop(), DefaultClinicOpen, DefaultClinicClose, DefaultSlotMinutes)
}

func TestGenerateDay(t *testing.T) {
	repo := newMockRepo()
	doctorID := repo.addDoctor("Dr. Alice Chen")
	cal := newTestCalendar(repo)

	created, err := cal.GenerateDay(context.Background(), doctorID, tuesday)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// 09:00-17:00 in 30-minute windows.
	if created != 16 {
		t.Fatalf("created = %d, want 16", created)
	}

	slots, err := repo.ListAvailableSlots(context.Background(), doctorID, tuesday)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(slots) != 16 {
		t.Fatalf("len(slots) = %d, want 16", len(slots))
	}

	first, last := slots[0], slots[len(slots)-1]
	if first.Start != NewClockTime(9, 0) || first.End != NewClockTime(9, 30) {
		t.Errorf("first slot %s-%s, want 09:00-09:30", first.Start, first.End)
	}
	if last.Start != NewClockTime(16, 30) || last.End != NewClockTime(17, 0) {
		t.Errorf("last slot %s-%s, want 16:30-17:00", last.Start, last.End)
	}
	for i, s := range slots {
		if !s.Available {
			t.Errorf("slot %d not available", i)
		}
		if s.DurationMinutes != DefaultSlotMinutes {
			t.Errorf("slot %d duration = %d, want %d", i, s.DurationMinutes, DefaultSlotMinutes)
		}
		if i > 0 && slots[i-1].End != s.Start {
			t.Errorf("gap between slot %d and %d", i-1, i)
		}
	}
}

func TestGenerateDayIdempotent(t *testing.T) {
	repo := newMockRepo()
	doctorID := repo.addDoctor("Dr. Alice Chen")
	cal := newTestCalendar(repo)

	if _, err := cal.GenerateDay(context.Background(), doctorID, tuesday); err != nil {
		t.Fatalf("first generate: %v", err)
	}

	created, err := cal.GenerateDay(context.Background(), doctorID, tuesday)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if created != 0 {
		t.Errorf("second generate created %d slots, want 0", created)
	}

	count, _ := repo.CountSlots(context.Background(), doctorID, tuesday)
	if count != 16 {
		t.Errorf("slot count = %d, want 16", count)
	}
}

func TestGenerateDayWeekend(t *testing.T) {
	repo := newMockRepo()
	doctorID := repo.addDoctor("Dr. Alice Chen")
	cal := newTestCalendar(repo)

	for _, day := range []time.Time{saturday, saturday.AddDate(0, 0, 1)} {
		created, err := cal.GenerateDay(context.Background(), doctorID, day)
		if err != nil {
			t.Fatalf("generate %s: %v", day.Weekday(), err)
		}
		if created != 0 {
			t.Errorf("%s: created = %d, want 0", day.Weekday(), created)
		}
		count, _ := repo.CountSlots(context.Background(), doctorID, day)
		if count != 0 {
			t.Errorf("%s: slot count = %d, want 0", day.Weekday(), count)
		}
	}
}

func TestGenerateDayIndependentDoctors(t *testing.T) {
	repo := newMockRepo()
	first := repo.addDoctor("Dr. Alice Chen")
	second := repo.addDoctor("Dr. Dan Moore")
	cal := newTestCalendar(repo)

	if _, err := cal.GenerateDay(context.Background(), first, tuesday); err != nil {
		t.Fatalf("generate: %v", err)
	}

	created, err := cal.GenerateDay(context.Background(), second, tuesday)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if created != 16 {
		t.Errorf("second doctor created = %d, want 16", created)
	}
}

func TestGenerateHorizon(t *testing.T) {
	repo := newMockRepo()
	doctorID := repo.addDoctor("Dr. Alice Chen")
	cal := newTestCalendar(repo)

	// Monday through Sunday: five business days.
	monday := DateOf(testNow)
	total, err := cal.GenerateHorizon(context.Background(), doctorID, monday, 7)
	if err != nil {
		t.Fatalf("horizon: %v", err)
	}
	if total != 5*16 {
		t.Errorf("total = %d, want %d", total, 5*16)
	}

	count, _ := repo.CountSlots(context.Background(), doctorID, saturday)
	if count != 0 {
		t.Errorf("saturday slot count = %d, want 0", count)
	}
}

func TestCalendarCustomHours(t *testing.T) {
	repo := newMockRepo()
	doctorID := repo.addDoctor("Dr. Alice Chen")
	cal := NewCalendar(repo, zerolog.Nop(), NewClockTime(8, 0), NewClockTime(12, 0), 20)

	created, err := cal.GenerateDay(context.Background(), doctorID, tuesday)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// 08:00-12:00 in 20-minute windows.
	if created != 12 {
		t.Errorf("created = %d, want 12", created)
	}
}

func TestCalendarDefaultsOnBadConfig(t *testing.T) {
	repo := newMockRepo()
	doctorID := repo.addDoctor("Dr. Alice Chen")
	// close before open and a nonsense slot length fall back to defaults.
	cal := NewCalendar(repo, zerolog.Nop(), NewClockTime(17, 0), NewClockTime(9, 0), -5)

	created, err := cal.GenerateDay(context.Background(), doctorID, tuesday)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if created != 16 {
		t.Errorf("created = %d, want 16", created)
	}
}
