// Package market provides the trading-hours calendar used to pace the REST
// poller and gate extended-hours behavior.
package market

import "time"

// Calendar describes the trading hours of a single exchange locale. Open and
// close times are offsets from local midnight.
type Calendar struct {
	Location *time.Location
	Open     time.Duration
	Close    time.Duration
	ExtOpen  time.Duration
	ExtClose time.Duration
	Weekdays map[time.Weekday]bool
}

// NewYorkCalendar returns the US equities calendar: regular session
// 9:30-16:00, extended 4:00-20:00, Monday through Friday, America/New_York.
func NewYorkCalendar() Calendar {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*3600)
	}

	return Calendar{
		Location: loc,
		Open:     9*time.Hour + 30*time.Minute,
		Close:    16 * time.Hour,
		ExtOpen:  4 * time.Hour,
		ExtClose: 20 * time.Hour,
		Weekdays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
	}
}

// IsOpen reports whether the market is open at now. With extended true the
// extended-hours window applies instead of the regular session.
func (c Calendar) IsOpen(now time.Time, extended bool) bool {
	local := now.In(c.Location)
	if !c.Weekdays[local.Weekday()] {
		return false
	}

	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.Location)
	offset := local.Sub(midnight)

	start, end := c.Open, c.Close
	if extended {
		start, end = c.ExtOpen, c.ExtClose
	}

	return offset >= start && offset < end
}

// PollInterval selects the polling cadence for now: openInterval while the
// market is open, closedInterval otherwise. Pure so tests can pin the clock.
func PollInterval(now time.Time, cal Calendar, extended bool, openInterval, closedInterval time.Duration) time.Duration {
	if cal.IsOpen(now, extended) {
		return openInterval
	}

	return closedInterval
}
