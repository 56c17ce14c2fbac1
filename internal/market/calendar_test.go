package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type CalendarTestSuite struct {
	suite.Suite
	cal Calendar
}

func TestCalendarSuite(t *testing.T) {
	suite.Run(t, new(CalendarTestSuite))
}

func (suite *CalendarTestSuite) SetupSuite() {
	suite.cal = NewYorkCalendar()
}

func (suite *CalendarTestSuite) newYork(hour, minute int) time.Time {
	// Tuesday 2026-01-06
	return time.Date(2026, 1, 6, hour, minute, 0, 0, suite.cal.Location)
}

func (suite *CalendarTestSuite) TestOpenDuringRegularSession() {
	suite.True(suite.cal.IsOpen(suite.newYork(10, 0), false))
	suite.True(suite.cal.IsOpen(suite.newYork(9, 30), false))
	suite.True(suite.cal.IsOpen(suite.newYork(15, 59), false))
}

func (suite *CalendarTestSuite) TestClosedOutsideRegularSession() {
	suite.False(suite.cal.IsOpen(suite.newYork(9, 29), false))
	suite.False(suite.cal.IsOpen(suite.newYork(16, 0), false))
	suite.False(suite.cal.IsOpen(suite.newYork(3, 0), false))
	suite.False(suite.cal.IsOpen(suite.newYork(22, 0), false))
}

func (suite *CalendarTestSuite) TestExtendedHoursWindow() {
	suite.True(suite.cal.IsOpen(suite.newYork(4, 0), true))
	suite.True(suite.cal.IsOpen(suite.newYork(7, 30), true))
	suite.True(suite.cal.IsOpen(suite.newYork(19, 59), true))
	suite.False(suite.cal.IsOpen(suite.newYork(20, 0), true))
	suite.False(suite.cal.IsOpen(suite.newYork(3, 59), true))
}

func (suite *CalendarTestSuite) TestClosedOnWeekend() {
	// Saturday 2026-01-10 at noon
	saturday := time.Date(2026, 1, 10, 12, 0, 0, 0, suite.cal.Location)
	suite.False(suite.cal.IsOpen(saturday, false))
	suite.False(suite.cal.IsOpen(saturday, true))
}

func (suite *CalendarTestSuite) TestOtherTimezoneNormalized() {
	// 15:00 UTC is 10:00 in New York during winter.
	utc := time.Date(2026, 1, 6, 15, 0, 0, 0, time.UTC)
	suite.True(suite.cal.IsOpen(utc, false))
}

func (suite *CalendarTestSuite) TestPollInterval() {
	open := 3 * time.Second
	closed := 10 * time.Second

	suite.Equal(open, PollInterval(suite.newYork(10, 0), suite.cal, false, open, closed))
	suite.Equal(closed, PollInterval(suite.newYork(22, 0), suite.cal, false, open, closed))
	suite.Equal(open, PollInterval(suite.newYork(5, 0), suite.cal, true, open, closed))
	suite.Equal(closed, PollInterval(suite.newYork(5, 0), suite.cal, false, open, closed))
}
