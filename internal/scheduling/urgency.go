package scheduling

import "time"

const urgencyWindow = 24 * time.Hour

// IsUrgent reports whether an appointment should be highlighted for the
// operator: pending and due within the next 24 hours. Appointments whose
// slot has already passed are not urgent, they are overdue.
func IsUrgent(a Appointment, now time.Time) bool {
	if a.Status != StatusPending {
		return false
	}
	at := a.Slot.DateTime()
	if at.IsZero() {
		return false
	}
	until := at.Sub(now)
	return until > 0 && until <= urgencyWindow
}
