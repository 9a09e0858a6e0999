package cron

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// ScheduleKind tags the restricted grammars the estimator understands.
// Anything outside these two patterns is reported as KindUnsupported rather
// than a guessed time.
type ScheduleKind int

const (
	// KindUnsupported means the expression is outside the estimator grammar
	KindUnsupported ScheduleKind = iota
	// KindHourly is "fixed minute, every hour" (M * * * *)
	KindHourly
	// KindHourSet is "fixed minute, at an explicit hour set" (M h1,h2 * * *)
	KindHourSet
)

// String returns a human-readable representation of the schedule kind
func (k ScheduleKind) String() string {
	switch k {
	case KindHourly:
		return "hourly"
	case KindHourSet:
		return "hour_set"
	default:
		return "unsupported"
	}
}

// Estimate computes the next fire time for expr strictly after the given
// time, without consulting the timer machinery. Only two grammars are
// recognized: a fixed minute every hour, and a fixed minute at an explicit
// list of hours. For any other pattern the returned kind is KindUnsupported
// and the time is the zero value.
func Estimate(expr string, after time.Time) (time.Time, ScheduleKind) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return time.Time{}, KindUnsupported
	}

	// Day-of-month, month and day-of-week must be unrestricted
	if fields[2] != "*" || fields[3] != "*" || fields[4] != "*" {
		return time.Time{}, KindUnsupported
	}

	minute, err := strconv.Atoi(fields[0])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, KindUnsupported
	}

	if fields[1] == "*" {
		return nextHourly(after, minute), KindHourly
	}

	hours, ok := parseHourSet(fields[1])
	if !ok {
		return time.Time{}, KindUnsupported
	}

	return nextInHourSet(after, minute, hours), KindHourSet
}

// nextHourly returns the next time with the given minute in any hour
func nextHourly(after time.Time, minute int) time.Time {
	candidate := time.Date(after.Year(), after.Month(), after.Day(), after.Hour(), minute, 0, 0, after.Location())
	if !candidate.After(after) {
		candidate = candidate.Add(time.Hour)
	}
	return candidate
}

// nextInHourSet returns the next time matching the minute at one of the
// given hours. Hours are assumed sorted ascending. Rolls over to the first
// hour of the next day when no remaining hour matches today.
func nextInHourSet(after time.Time, minute int, hours []int) time.Time {
	for _, h := range hours {
		candidate := time.Date(after.Year(), after.Month(), after.Day(), h, minute, 0, 0, after.Location())
		if candidate.After(after) {
			return candidate
		}
	}

	// All of today's slots have passed, take the first slot tomorrow
	tomorrow := after.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hours[0], minute, 0, 0, after.Location())
}

// parseHourSet parses a comma list of plain hour values like "8,14,20".
// Ranges, steps and wildcards are outside the estimator grammar.
func parseHourSet(field string) ([]int, bool) {
	parts := strings.Split(field, ",")
	hours := make([]int, 0, len(parts))

	for _, part := range parts {
		h, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || h < 0 || h > 23 {
			return nil, false
		}
		hours = append(hours, h)
	}

	if len(hours) == 0 {
		return nil, false
	}

	sort.Ints(hours)
	return hours, true
}
