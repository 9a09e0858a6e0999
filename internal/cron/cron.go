package cron

import (
	"time"
)

// Schedule represents a parsed five-field cron expression
type Schedule struct {
	// Each field stores every valid value for that field
	minutes     []int // 0-59
	hours       []int // 0-23
	daysOfMonth []int // 1-31
	months      []int // 1-12
	daysOfWeek  []int // 0-6 (0=Sunday)

	// Original expression, kept for logging
	original string
}

// Parse parses a cron expression and validates all constraints.
// Returns error if the format is invalid (not 5 fields), any field contains
// invalid syntax, or an impossible date is specified (e.g. Feb 31st).
func Parse(expr string) (*Schedule, error) {
	return parse(expr)
}

// String returns the original expression the schedule was parsed from
func (s *Schedule) String() string {
	return s.original
}

// Next calculates the first occurrence of this schedule strictly after the
// given time. If 'after' is exactly at a scheduled time, that time is NOT
// included. The schedule is evaluated in after's location.
func (s *Schedule) Next(after time.Time) time.Time {
	// Start checking from the next minute boundary after 'after'
	current := after.Truncate(time.Minute).Add(time.Minute)

	for {
		if s.matches(current) {
			return current
		}
		current = current.Add(time.Minute)
	}
}
