package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DayOfWeek is stored as 1=Monday .. 7=Sunday.
type DayOfWeek int

const (
	Monday DayOfWeek = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// AllDays lists days in schedule order.
var AllDays = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var dayNames = map[DayOfWeek]string{
	Monday:    "MONDAY",
	Tuesday:   "TUESDAY",
	Wednesday: "WEDNESDAY",
	Thursday:  "THURSDAY",
	Friday:    "FRIDAY",
	Saturday:  "SATURDAY",
	Sunday:    "SUNDAY",
}

// DayOfWeekOf converts Go's weekday (0=Sun) to our format.
func DayOfWeekOf(t time.Time) DayOfWeek {
	day := int(t.Weekday())
	if day == 0 {
		day = 7
	}
	return DayOfWeek(day)
}

// ParseDayOfWeek accepts names like "MONDAY" in any case.
func ParseDayOfWeek(s string) (DayOfWeek, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for d, n := range dayNames {
		if n == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid day of week '%s'", s)
}

func (d DayOfWeek) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d DayOfWeek) String() string {
	if n, ok := dayNames[d]; ok {
		return n
	}
	return fmt.Sprintf("DayOfWeek(%d)", int(d))
}

func (d DayOfWeek) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid day of week %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *DayOfWeek) UnmarshalText(text []byte) error {
	parsed, err := ParseDayOfWeek(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ClockTime is a time of day as an offset from midnight.
type ClockTime time.Duration

const clockLayout = "15:04"

// NewClockTime builds a ClockTime from hours, minutes and seconds.
func NewClockTime(hour, minute, second int) ClockTime {
	return ClockTime(time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second)
}

// ClockTimeOf returns the wall-clock time of t in its own location.
func ClockTimeOf(t time.Time) ClockTime {
	return NewClockTime(t.Hour(), t.Minute(), t.Second()) + ClockTime(t.Nanosecond())
}

// ParseClockTime parses "HH:MM" with two-digit hours and minutes.
func ParseClockTime(s string) (ClockTime, error) {
	v := strings.TrimSpace(s)
	if len(v) != len(clockLayout) {
		return 0, fmt.Errorf("invalid time '%s', expected HH:MM", s)
	}
	t, err := time.Parse(clockLayout, v)
	if err != nil {
		return 0, fmt.Errorf("invalid time '%s', expected HH:MM", s)
	}
	return NewClockTime(t.Hour(), t.Minute(), 0), nil
}

func (c ClockTime) Before(other ClockTime) bool { return c < other }

func (c ClockTime) After(other ClockTime) bool { return c > other }

// String formats as "HH:MM"; seconds are dropped.
func (c ClockTime) String() string {
	d := time.Duration(c)
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

// ClockTimePtr is a helper for optional times.
func ClockTimePtr(c ClockTime) *ClockTime {
	return &c
}

// OperatingHours is a partner's schedule entry for one day of the week.
type OperatingHours struct {
	PartnerID   uuid.UUID
	DayOfWeek   DayOfWeek
	IsOpen      bool
	OpeningTime *ClockTime
	ClosingTime *ClockTime
	UpdatedAt   time.Time
}

// Contains reports whether t falls within the entry's window, both ends inclusive.
// Closed days and entries without both times never contain t.
func (h *OperatingHours) Contains(t ClockTime) bool {
	if !h.IsOpen || h.OpeningTime == nil || h.ClosingTime == nil {
		return false
	}
	return !t.Before(*h.OpeningTime) && !t.After(*h.ClosingTime)
}

// DefaultWeeklySchedule is Mon-Fri 08:00-22:00, Sat 10:00-23:00, Sun closed.
func DefaultWeeklySchedule(partnerID uuid.UUID) []OperatingHours {
	hours := make([]OperatingHours, 0, len(AllDays))
	for _, day := range []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday} {
		hours = append(hours, OperatingHours{
			PartnerID:   partnerID,
			DayOfWeek:   day,
			IsOpen:      true,
			OpeningTime: ClockTimePtr(NewClockTime(8, 0, 0)),
			ClosingTime: ClockTimePtr(NewClockTime(22, 0, 0)),
		})
	}
	hours = append(hours,
		OperatingHours{
			PartnerID:   partnerID,
			DayOfWeek:   Saturday,
			IsOpen:      true,
			OpeningTime: ClockTimePtr(NewClockTime(10, 0, 0)),
			ClosingTime: ClockTimePtr(NewClockTime(23, 0, 0)),
		},
		// Sunday keeps times so reopening it only needs the flag.
		OperatingHours{
			PartnerID:   partnerID,
			DayOfWeek:   Sunday,
			IsOpen:      false,
			OpeningTime: ClockTimePtr(NewClockTime(10, 0, 0)),
			ClosingTime: ClockTimePtr(NewClockTime(20, 0, 0)),
		},
	)
	return hours
}
