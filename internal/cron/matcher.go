package cron

import "time"

// matches checks if a time matches the schedule
func (s *Schedule) matches(t time.Time) bool {
	return contains(s.minutes, t.Minute()) &&
		contains(s.hours, t.Hour()) &&
		s.matchesDayConstraints(t) &&
		contains(s.months, int(t.Month()))
}

// matchesDayConstraints handles the day-of-month vs day-of-week logic.
//
// Cron standard behavior:
// - If both day-of-month and day-of-week are restricted (not *): match if EITHER matches
// - If only one is restricted: match on that field only
// - If both are *: match any day
func (s *Schedule) matchesDayConstraints(t time.Time) bool {
	domRestricted := len(s.daysOfMonth) < 31
	dowRestricted := len(s.daysOfWeek) < 7

	if domRestricted && dowRestricted {
		domMatch := contains(s.daysOfMonth, t.Day())
		dowMatch := contains(s.daysOfWeek, int(t.Weekday()))

		// Feb 29 in a non-leap year is not a real date
		if domMatch && !isValidDate(t.Year(), int(t.Month()), t.Day()) {
			domMatch = false
		}

		return domMatch || dowMatch
	} else if domRestricted {
		if !contains(s.daysOfMonth, t.Day()) {
			return false
		}
		return isValidDate(t.Year(), int(t.Month()), t.Day())
	} else if dowRestricted {
		return contains(s.daysOfWeek, int(t.Weekday()))
	}

	return isValidDate(t.Year(), int(t.Month()), t.Day())
}

// contains checks if a slice contains a value
func contains(slice []int, val int) bool {
	for _, v := range slice {
		if v == val {
			return true
		}
	}
	return false
}
