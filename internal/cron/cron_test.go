package cron

import (
	"testing"
	"time"
)

// Test helpers

func mustParse(t *testing.T, expr string) *Schedule {
	t.Helper()
	s, err := Parse(expr)
	if err != nil {
		t.Fatalf("Parse(%q) unexpected error: %v", expr, err)
	}
	return s
}

func makeTime(year, month, day, hour, minute int) time.Time {
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
}

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		expr string
		desc string
	}{
		{"* * * * *", "every minute"},
		{"0 * * * *", "every hour"},
		{"0 6,12,18 * * *", "thrice daily"},
		{"0 0 * * 0", "every Sunday"},
		{"*/5 * * * *", "every five minutes"},
		{"30 14 * * *", "2:30 PM daily"},
		{"0 0 1 1 *", "January 1st"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if _, err := Parse(tt.expr); err != nil {
				t.Errorf("Parse(%q) unexpected error: %v", tt.expr, err)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		expr string
		desc string
	}{
		{"", "empty expression"},
		{"0 0 * *", "four fields"},
		{"0 0 * * * *", "six fields"},
		{"60 * * * *", "minute out of bounds"},
		{"0 24 * * *", "hour out of bounds"},
		{"0 0 32 * *", "day out of bounds"},
		{"0 0 * 13 *", "month out of bounds"},
		{"0 0 * * 7", "weekday out of bounds"},
		{"*/0 * * * *", "zero step"},
		{"5-1 * * * *", "inverted range"},
		{"0 0 31 2 *", "February 31st never exists"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if _, err := Parse(tt.expr); err == nil {
				t.Errorf("Parse(%q) expected error, got nil", tt.expr)
			}
		})
	}
}

func TestNext_EveryHour(t *testing.T) {
	s := mustParse(t, "0 * * * *")

	next := s.Next(makeTime(2026, 3, 10, 9, 15))
	want := makeTime(2026, 3, 10, 10, 0)
	if !next.Equal(want) {
		t.Errorf("Next = %v, want %v", next, want)
	}
}

func TestNext_ExactBoundaryExcluded(t *testing.T) {
	// A time exactly on a scheduled slot is not its own next occurrence
	s := mustParse(t, "0 * * * *")

	next := s.Next(makeTime(2026, 3, 10, 9, 0))
	want := makeTime(2026, 3, 10, 10, 0)
	if !next.Equal(want) {
		t.Errorf("Next = %v, want %v", next, want)
	}
}

func TestNext_HourSetRollsToNextDay(t *testing.T) {
	s := mustParse(t, "0 6,12,18 * * *")

	next := s.Next(makeTime(2026, 3, 10, 19, 30))
	want := makeTime(2026, 3, 11, 6, 0)
	if !next.Equal(want) {
		t.Errorf("Next = %v, want %v", next, want)
	}
}

func TestNext_StepMinutes(t *testing.T) {
	s := mustParse(t, "*/15 * * * *")

	next := s.Next(makeTime(2026, 3, 10, 9, 16))
	want := makeTime(2026, 3, 10, 9, 30)
	if !next.Equal(want) {
		t.Errorf("Next = %v, want %v", next, want)
	}
}

func TestNext_RespectsLocation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	s := mustParse(t, "0 8 * * *")

	after := time.Date(2026, 3, 10, 9, 0, 0, 0, loc)
	next := s.Next(after)
	want := time.Date(2026, 3, 11, 8, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("Next = %v, want %v", next, want)
	}
}

func TestEstimate_Hourly(t *testing.T) {
	next, kind := Estimate("0 * * * *", makeTime(2026, 3, 10, 9, 30))
	if kind != KindHourly {
		t.Fatalf("kind = %v, want KindHourly", kind)
	}
	want := makeTime(2026, 3, 10, 10, 0)
	if !next.Equal(want) {
		t.Errorf("Estimate = %v, want %v", next, want)
	}
}

func TestEstimate_HourlyMinuteStillAhead(t *testing.T) {
	next, kind := Estimate("45 * * * *", makeTime(2026, 3, 10, 9, 30))
	if kind != KindHourly {
		t.Fatalf("kind = %v, want KindHourly", kind)
	}
	want := makeTime(2026, 3, 10, 9, 45)
	if !next.Equal(want) {
		t.Errorf("Estimate = %v, want %v", next, want)
	}
}

func TestEstimate_HourSet_SameDay(t *testing.T) {
	// Minute 0 at hours 8/14/20, currently 09:00 -> 14:00 same day
	next, kind := Estimate("0 8,14,20 * * *", makeTime(2026, 3, 10, 9, 0))
	if kind != KindHourSet {
		t.Fatalf("kind = %v, want KindHourSet", kind)
	}
	want := makeTime(2026, 3, 10, 14, 0)
	if !next.Equal(want) {
		t.Errorf("Estimate = %v, want %v", next, want)
	}
}

func TestEstimate_HourSet_NextDay(t *testing.T) {
	// Currently 21:00, all slots passed -> 08:00 next day
	next, kind := Estimate("0 8,14,20 * * *", makeTime(2026, 3, 10, 21, 0))
	if kind != KindHourSet {
		t.Fatalf("kind = %v, want KindHourSet", kind)
	}
	want := makeTime(2026, 3, 11, 8, 0)
	if !next.Equal(want) {
		t.Errorf("Estimate = %v, want %v", next, want)
	}
}

func TestEstimate_UnsortedHourSet(t *testing.T) {
	next, kind := Estimate("30 20,8,14 * * *", makeTime(2026, 3, 10, 9, 0))
	if kind != KindHourSet {
		t.Fatalf("kind = %v, want KindHourSet", kind)
	}
	want := makeTime(2026, 3, 10, 14, 30)
	if !next.Equal(want) {
		t.Errorf("Estimate = %v, want %v", next, want)
	}
}

func TestEstimate_Unsupported(t *testing.T) {
	tests := []struct {
		expr string
		desc string
	}{
		{"*/5 * * * *", "step minutes"},
		{"0 8-20 * * *", "hour range"},
		{"0 * 1 * *", "restricted day-of-month"},
		{"0 * * 6 *", "restricted month"},
		{"0 * * * 1", "restricted day-of-week"},
		{"* * * * *", "wildcard minute"},
		{"not a cron", "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			next, kind := Estimate(tt.expr, makeTime(2026, 3, 10, 9, 0))
			if kind != KindUnsupported {
				t.Errorf("kind = %v, want KindUnsupported", kind)
			}
			if !next.IsZero() {
				t.Errorf("expected zero time for unsupported expression, got %v", next)
			}
		})
	}
}
