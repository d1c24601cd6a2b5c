package hours

import (
	"time"

	"goeat/internal/model"
)

// Clock is the source of "now" for schedule evaluation and cache ageing.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Loc *time.Location
}

func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return SystemClock{Loc: loc}
}

func (c SystemClock) Now() time.Time {
	loc := c.Loc
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}

// Today returns midnight of the current day.
func (c SystemClock) Today() time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (c SystemClock) CurrentDayOfWeek() model.DayOfWeek {
	return model.DayOfWeekOf(c.Now())
}

func (c SystemClock) TimeOfDay() model.ClockTime {
	return model.ClockTimeOf(c.Now())
}
