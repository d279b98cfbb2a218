package scheduling

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseClockTime(t *testing.T) {
	cases := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{"09:00", NewClockTime(9, 0), false},
		{"00:00", NewClockTime(0, 0), false},
		{"16:30", NewClockTime(16, 30), false},
		{"23:59", NewClockTime(23, 59), false},
		{"24:00", 0, true},
		{"9:00am", 0, true},
		{"", 0, true},
		{"not a time", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseClockTime(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClockTime(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClockTime(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClockTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClockTimeString(t *testing.T) {
	if got := NewClockTime(9, 5).String(); got != "09:05" {
		t.Errorf("String() = %q, want %q", got, "09:05")
	}
	if got := NewClockTime(16, 30).String(); got != "16:30" {
		t.Errorf("String() = %q, want %q", got, "16:30")
	}
}

func TestClockTimeAdd(t *testing.T) {
	start := NewClockTime(9, 0)
	if got := start.Add(30); got != NewClockTime(9, 30) {
		t.Errorf("Add(30) = %v, want 09:30", got)
	}
	if got := start.Add(90); got != NewClockTime(10, 30) {
		t.Errorf("Add(90) = %v, want 10:30", got)
	}
}

func TestClockTimeJSONRoundTrip(t *testing.T) {
	orig := NewClockTime(14, 30)

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"14:30"` {
		t.Errorf("marshal = %s, want %q", data, `"14:30"`)
	}

	var back ClockTime
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != orig {
		t.Errorf("round trip = %v, want %v", back, orig)
	}

	if err := json.Unmarshal([]byte(`"25:00"`), &back); err == nil {
		t.Error("expected error unmarshalling invalid time")
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	in := time.Date(2026, 3, 10, 2, 30, 0, 0, loc) // 2026-03-09 21:30 UTC

	got := DateOf(in)
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateOf = %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("DateOf location = %v, want UTC", got.Location())
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-09-14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate = %v, want %v", got, want)
	}

	if _, err := ParseDate("14/09/2026"); err == nil {
		t.Error("expected error for wrong format")
	}
}

func TestIsBusinessDay(t *testing.T) {
	monday := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if !IsBusinessDay(monday.AddDate(0, 0, i)) {
			t.Errorf("expected %v to be a business day", monday.AddDate(0, 0, i).Weekday())
		}
	}
	saturday := monday.AddDate(0, 0, 5)
	sunday := monday.AddDate(0, 0, 6)
	if IsBusinessDay(saturday) {
		t.Error("Saturday should not be a business day")
	}
	if IsBusinessDay(sunday) {
		t.Error("Sunday should not be a business day")
	}
}
