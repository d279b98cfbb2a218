package scheduling

import (
	"encoding/json"
	"fmt"
	"time"
)

// ClockTime is a time of day expressed as minutes past midnight. Slot times
// never carry a date or a zone, so a plain minute count round-trips cleanly
// through the database and the wire format.
type ClockTime int

// NewClockTime builds a ClockTime from an hour and minute.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClockTime parses a "15:04" string.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return NewClockTime(t.Hour(), t.Minute()), nil
}

// ClockTimeOf extracts the time of day from t.
func ClockTimeOf(t time.Time) ClockTime {
	return NewClockTime(t.Hour(), t.Minute())
}

func (t ClockTime) Hour() int    { return int(t) / 60 }
func (t ClockTime) Minute() int  { return int(t) % 60 }
func (t ClockTime) Minutes() int { return int(t) }

// Add returns the clock time minutes later.
func (t ClockTime) Add(minutes int) ClockTime {
	return t + ClockTime(minutes)
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// DateOf truncates t to a calendar date at UTC midnight. All appointment and
// slot dates are stored and compared in this form.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "2006-01-02" string into a UTC-midnight date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// FormatDate renders a date as "2006-01-02".
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// IsBusinessDay reports whether the clinic is open on the given date.
// Weekends carry no slots.
func IsBusinessDay(t time.Time) bool {
	wd := t.UTC().Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
