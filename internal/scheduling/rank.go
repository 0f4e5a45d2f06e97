package scheduling

import (
	"slices"
	"strings"
)

// CompareAppointments is the display/dispatch priority order:
//  1. pending appointments before terminal ones
//  2. within a group, earliest slot first
//  3. ties broken by id ascending, so the order is total and repeated
//     ranking of the same set is reproducible
func CompareAppointments(a, b Appointment) int {
	ga, gb := statusGroup(a.Status), statusGroup(b.Status)
	if ga != gb {
		return ga - gb
	}
	if c := a.Slot.Compare(b.Slot); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

func statusGroup(s Status) int {
	if s == StatusPending {
		return 0
	}
	return 1
}

// Rank returns a new slice sorted by priority. The input is not modified.
func Rank(appts []Appointment) []Appointment {
	out := slices.Clone(appts)
	slices.SortStableFunc(out, CompareAppointments)
	return out
}

// RankDetails ranks joined appointment rows by the same order.
func RankDetails(details []AppointmentDetail) []AppointmentDetail {
	out := slices.Clone(details)
	slices.SortStableFunc(out, func(a, b AppointmentDetail) int {
		return CompareAppointments(a.Appointment, b.Appointment)
	})
	return out
}
