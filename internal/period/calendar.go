package period

import (
	"time"

	"github.com/alexanderramin/tierboard/internal/domain"
)

// Calendar fixes where the fiscal year starts. Each quarter spans three
// calendar months from that point.
type Calendar struct {
	StartMonth time.Month
	StartDay   int
	Location   *time.Location
}

// DefaultCalendar starts the fiscal year on April 1st, UTC.
func DefaultCalendar() Calendar {
	return Calendar{StartMonth: time.April, StartDay: 1, Location: time.UTC}
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c Calendar) start(fiscalYear int) time.Time {
	day := c.StartDay
	if day < 1 {
		day = 1
	}
	month := c.StartMonth
	if month < time.January || month > time.December {
		month = time.January
	}
	return time.Date(fiscalYear, month, day, 0, 0, 0, 0, c.loc())
}

// FiscalYear returns the fiscal year containing t, named after the calendar
// year in which it starts.
func (c Calendar) FiscalYear(t time.Time) int {
	t = t.In(c.loc())
	if t.Before(c.start(t.Year())) {
		return t.Year() - 1
	}
	return t.Year()
}

// Window returns the half-open [start, end) interval of tag within the
// given fiscal year.
func (c Calendar) Window(tag domain.PeriodTag, fiscalYear int) (time.Time, time.Time) {
	from, to := monthSpan(tag)
	base := c.start(fiscalYear)
	return base.AddDate(0, from, 0), base.AddDate(0, to, 0)
}

func monthSpan(tag domain.PeriodTag) (int, int) {
	switch tag {
	case domain.PeriodQ1:
		return 0, 3
	case domain.PeriodQ2:
		return 3, 6
	case domain.PeriodQ3:
		return 6, 9
	case domain.PeriodQ4:
		return 9, 12
	case domain.PeriodHalf:
		return 0, 6
	case domain.PeriodThreeQ:
		return 0, 9
	default:
		return 0, 12
	}
}

// Active reports whether now falls inside tag's window for the current
// fiscal year. It gates which period's progress can be edited.
func (c Calendar) Active(tag domain.PeriodTag, now time.Time) bool {
	start, end := c.Window(tag, c.FiscalYear(now))
	now = now.In(c.loc())
	return !now.Before(start) && now.Before(end)
}

// Current returns the quarter containing now.
func (c Calendar) Current(now time.Time) domain.PeriodTag {
	for _, q := range domain.Quarters {
		if c.Active(q, now) {
			return q
		}
	}
	return domain.PeriodQ4
}
