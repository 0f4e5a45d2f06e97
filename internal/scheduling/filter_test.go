package scheduling

import (
	"testing"

	"github.com/google/uuid"
)

func filterFixture() []AppointmentDetail {
	return []AppointmentDetail{
		{
			Appointment: Appointment{ID: uuid.New(), Status: StatusPending},
			DoctorName:  "Asha Rahman",
			PatientName: "Bob Miller",
		},
		{
			Appointment: Appointment{ID: uuid.New(), Status: StatusCompleted},
			DoctorName:  "Asha Rahman",
			PatientName: "Carla Osei",
		},
		{
			Appointment: Appointment{ID: uuid.New(), Status: StatusPending},
			DoctorName:  "Derek Zhou",
			PatientName: "Evan Brooks",
		},
	}
}

func TestFilterDetailsNoQueryReturnsAll(t *testing.T) {
	list := filterFixture()
	got := FilterDetails(list, ListQuery{})
	if len(got) != len(list) {
		t.Fatalf("got %d rows, want %d", len(got), len(list))
	}
}

func TestFilterDetailsSearchIsCaseInsensitive(t *testing.T) {
	list := filterFixture()

	got := FilterDetails(list, ListQuery{Search: "rahman"})
	if len(got) != 2 {
		t.Fatalf("doctor-name search: got %d rows, want 2", len(got))
	}

	got = FilterDetails(list, ListQuery{Search: "EVAN"})
	if len(got) != 1 || got[0].PatientName != "Evan Brooks" {
		t.Fatalf("patient-name search: got %+v", got)
	}

	got = FilterDetails(list, ListQuery{Search: "nobody"})
	if len(got) != 0 {
		t.Fatalf("no-match search: got %d rows, want 0", len(got))
	}
}

func TestFilterDetailsByStatus(t *testing.T) {
	list := filterFixture()

	got := FilterDetails(list, ListQuery{Status: StatusPending})
	if len(got) != 2 {
		t.Fatalf("pending filter: got %d rows, want 2", len(got))
	}

	got = FilterDetails(list, ListQuery{Status: StatusCompleted})
	if len(got) != 1 {
		t.Fatalf("completed filter: got %d rows, want 1", len(got))
	}
}

func TestFilterDetailsCombinesSearchAndStatus(t *testing.T) {
	list := filterFixture()

	got := FilterDetails(list, ListQuery{Search: "asha", Status: StatusPending})
	if len(got) != 1 || got[0].PatientName != "Bob Miller" {
		t.Fatalf("combined filter: got %+v", got)
	}
}

func TestFilterDetailsPreservesOrder(t *testing.T) {
	list := filterFixture()
	got := FilterDetails(list, ListQuery{Status: StatusPending})
	if got[0].ID != list[0].ID || got[1].ID != list[2].ID {
		t.Fatal("filter must preserve the ranked input order")
	}
}
