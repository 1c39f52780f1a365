// Package schedule expands a recurring booking intent into its service dates.
package schedule

import (
	"time"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/data/entity"
)

const (
	weekDays     = 7
	biWeekDays   = 14
	dateLayout   = "2006-01-02"
	maxHorizonMo = 24
)

// Expand returns the ordered occurrence dates for a recurring frequency,
// starting with start itself. One-time bookings expand to nothing; the caller
// books start directly. Dates are normalised to midnight UTC.
func Expand(freq entity.Frequency, start time.Time, horizonMonths int) ([]time.Time, error) {
	if horizonMonths <= 0 {
		return nil, apperr.Invalid("horizon must be at least one month, got %d", horizonMonths)
	}
	if horizonMonths > maxHorizonMo {
		return nil, apperr.Invalid("horizon cannot exceed %d months, got %d", maxHorizonMo, horizonMonths)
	}

	start = Date(start)

	switch freq {
	case entity.FrequencyOneTime:
		return []time.Time{}, nil
	case entity.FrequencyWeekly:
		return everyNDays(start, weekDays, horizonDays(start, horizonMonths)), nil
	case entity.FrequencyBiWeekly:
		return everyNDays(start, biWeekDays, horizonDays(start, horizonMonths)), nil
	case entity.FrequencyMonthly:
		dates := make([]time.Time, 0, horizonMonths)
		current := start
		for i := 0; i < horizonMonths; i++ {
			dates = append(dates, current)
			current = AddMonthsClamped(current, 1)
		}
		return dates, nil
	default:
		return nil, apperr.Invalid("unknown frequency %q", freq)
	}
}

func everyNDays(start time.Time, period, horizon int) []time.Time {
	count := horizon / period
	dates := make([]time.Time, 0, count)
	for i := 0; i < count; i++ {
		dates = append(dates, start.AddDate(0, 0, period*i))
	}
	return dates
}

// horizonDays counts calendar days from start to start advanced by months.
func horizonDays(start time.Time, months int) int {
	end := AddMonthsClamped(start, months)
	return int(end.Sub(start).Hours() / 24)
}

// AddMonthsClamped advances t by n calendar months, clamping the day to the
// last day of the target month instead of rolling over.
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := daysIn(firstOfTarget.Year(), firstOfTarget.Month())
	if d > last {
		d = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Date truncates t to its calendar date at midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, apperr.Invalid("date %q must use YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseClock validates a 24h HH:MM time of day.
func ParseClock(s string) (string, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", apperr.Invalid("time %q must use HH:MM", s)
	}
	return t.Format("15:04"), nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
