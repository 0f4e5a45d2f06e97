package scheduling

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPastDate     = errors.New("appointment date is in the past")
	ErrSlotConflict = errors.New("doctor already has a pending appointment at this slot")
)

// BookingCandidate is a requested (doctor, slot) pair awaiting admission.
type BookingCandidate struct {
	DoctorID uuid.UUID
	Slot     TimeSlot
}

// ValidateBooking decides whether a candidate may be admitted against the
// doctor's existing appointments. It is a pure decision function: the
// write-through happens elsewhere, and the storage layer's unique index
// remains the final arbiter for races this pre-check cannot see.
//
// Rules:
//   - the slot date must not be strictly before today (time-of-day is
//     ignored: a slot later today is bookable even if the hour passed)
//   - no existing pending appointment for the same doctor may occupy an
//     identical slot; completed and cancelled appointments do not count
func ValidateBooking(c BookingCandidate, existing []Appointment, now time.Time) error {
	if c.Slot.DateBefore(now) {
		return ErrPastDate
	}

	for _, appt := range existing {
		if appt.DoctorID != c.DoctorID {
			continue
		}
		if appt.Status != StatusPending {
			continue
		}
		if appt.Slot.Equal(c.Slot) {
			return ErrSlotConflict
		}
	}

	return nil
}
