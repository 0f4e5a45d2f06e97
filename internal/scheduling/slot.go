package scheduling

import (
	"fmt"
	"time"
)

const (
	slotDateLayout = "2006-01-02"
	slotTimeLayout = "15:04"
)

// TimeSlot is a calendar date plus time-of-day identifying when an
// appointment occurs. Both fields are canonical zero-padded strings
// ("2006-01-02", "15:04"), so lexicographic order is chronological order.
type TimeSlot struct {
	Date string
	Time string
}

// ParseTimeSlot validates and canonicalizes a date + time-of-day pair.
func ParseTimeSlot(date, clock string) (TimeSlot, error) {
	d, err := time.Parse(slotDateLayout, date)
	if err != nil {
		return TimeSlot{}, fmt.Errorf("invalid slot date %q: %w", date, err)
	}
	c, err := time.Parse(slotTimeLayout, clock)
	if err != nil {
		return TimeSlot{}, fmt.Errorf("invalid slot time %q: %w", clock, err)
	}
	return TimeSlot{
		Date: d.Format(slotDateLayout),
		Time: c.Format(slotTimeLayout),
	}, nil
}

// DateTime returns the slot as a wall-clock instant in UTC.
// Returns the zero time if the slot fields are malformed.
func (s TimeSlot) DateTime() time.Time {
	t, err := time.ParseInLocation(slotDateLayout+" "+slotTimeLayout, s.Date+" "+s.Time, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Compare orders slots chronologically: -1 if s is earlier than o,
// 0 if equal, +1 if later.
func (s TimeSlot) Compare(o TimeSlot) int {
	if s.Date != o.Date {
		if s.Date < o.Date {
			return -1
		}
		return 1
	}
	if s.Time != o.Time {
		if s.Time < o.Time {
			return -1
		}
		return 1
	}
	return 0
}

// Equal reports whether two slots name the same date and time.
func (s TimeSlot) Equal(o TimeSlot) bool {
	return s.Date == o.Date && s.Time == o.Time
}

// DateBefore reports whether the slot's calendar date is strictly before
// the calendar date of t. Time-of-day is ignored on both sides.
func (s TimeSlot) DateBefore(t time.Time) bool {
	return s.Date < t.UTC().Format(slotDateLayout)
}

// Key returns a canonical string form usable as a lock or map key.
func (s TimeSlot) Key() string {
	return s.Date + "T" + s.Time
}

func (s TimeSlot) String() string {
	return s.Date + " " + s.Time
}
