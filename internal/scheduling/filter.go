package scheduling

import "strings"

// ListQuery narrows a ranked appointment list for display.
// Search matches doctor or patient name, case-insensitively.
// An empty Status keeps all statuses.
type ListQuery struct {
	Search string
	Status Status
}

// FilterDetails applies the query to an already-ranked list, preserving
// its order.
func FilterDetails(details []AppointmentDetail, q ListQuery) []AppointmentDetail {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	if term == "" && q.Status == "" {
		return details
	}

	out := make([]AppointmentDetail, 0, len(details))
	for _, d := range details {
		if q.Status != "" && d.Status != q.Status {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(d.DoctorName), term) &&
			!strings.Contains(strings.ToLower(d.PatientName), term) {
			continue
		}
		out = append(out, d)
	}
	return out
}
