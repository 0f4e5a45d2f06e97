package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/clinicdesk/clinic-booking/internal/redis"
	"github.com/clinicdesk/clinic-booking/pkg/logging"
)

var serviceNow = time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)

// fakeRepo is an in-memory Repository. Its CreateAppointment enforces the
// same pending-uniqueness rule as the storage index, so the authoritative
// conflict path is exercisable. hidePending simulates a stale pre-check
// read: the validator sees nothing, only the "index" catches the race.
type fakeRepo struct {
	mu          sync.Mutex
	doctors     map[uuid.UUID]*Doctor
	patients    map[uuid.UUID]*Patient
	appts       map[uuid.UUID]*Appointment
	events      []EventLog
	hidePending bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		doctors:  make(map[uuid.UUID]*Doctor),
		patients: make(map[uuid.UUID]*Patient),
		appts:    make(map[uuid.UUID]*Appointment),
	}
}

func (r *fakeRepo) addDoctor() uuid.UUID {
	id := uuid.New()
	r.doctors[id] = &Doctor{ID: id, Name: "Dr. Fake"}
	return id
}

func (r *fakeRepo) addPatient() uuid.UUID {
	id := uuid.New()
	r.patients[id] = &Patient{ID: id, Name: "Pat Fake"}
	return id
}

func (r *fakeRepo) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	if d, ok := r.doctors[id]; ok {
		return d, nil
	}
	return nil, ErrDoctorNotFound
}

func (r *fakeRepo) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	if p, ok := r.patients[id]; ok {
		return p, nil
	}
	return nil, ErrPatientNotFound
}

func (r *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.appts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, ErrAppointmentNotFound
}

func (r *fakeRepo) ListPendingByDoctor(_ context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hidePending {
		return nil, nil
	}
	var out []Appointment
	for _, a := range r.appts {
		if a.DoctorID == doctorID && a.Status == StatusPending {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListAppointments(_ context.Context, filter ListFilter) ([]AppointmentDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []AppointmentDetail
	for _, a := range r.appts {
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		out = append(out, AppointmentDetail{
			Appointment: *a,
			DoctorName:  r.doctors[a.DoctorID].Name,
			PatientName: r.patients[a.PatientID].Name,
		})
	}
	return out, nil
}

func (r *fakeRepo) CreateAppointment(_ context.Context, doctorID, patientID uuid.UUID, slot TimeSlot) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appts {
		if a.DoctorID == doctorID && a.Status == StatusPending && a.Slot.Equal(slot) {
			return nil, ErrSlotTaken
		}
	}
	a := &Appointment{
		ID:        uuid.New(),
		DoctorID:  doctorID,
		PatientID: patientID,
		Slot:      slot,
		Status:    StatusPending,
		CreatedAt: serviceNow,
		UpdatedAt: serviceNow,
	}
	r.appts[a.ID] = a
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = a.UpdatedAt.Add(time.Minute)
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// passLocker runs the critical section directly; busyLocker simulates a
// contended lock.
type passLocker struct{}

func (passLocker) WithBookingLock(ctx context.Context, _ uuid.UUID, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

type busyLocker struct{}

func (busyLocker) WithBookingLock(context.Context, uuid.UUID, string, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func newTestService(repo *fakeRepo, locker redisclient.Locker) *Service {
	return NewService(repo, locker, logging.Default(), nil).
		WithClock(func() time.Time { return serviceNow })
}

func TestBookAdmitsAndLogsEvent(t *testing.T) {
	repo := newFakeRepo()
	doctorID, patientID := repo.addDoctor(), repo.addPatient()
	svc := newTestService(repo, passLocker{})

	slot := TimeSlot{Date: "2025-03-10", Time: "09:00"}
	appt, err := svc.Book(context.Background(), doctorID, patientID, slot)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if appt.Status != StatusPending {
		t.Errorf("new appointment status = %s, want pending", appt.Status)
	}
	if len(repo.events) != 1 || repo.events[0].EventType != EventAppointmentBooked {
		t.Errorf("expected one booked event, got %+v", repo.events)
	}
}

func TestBookRejectsPastDate(t *testing.T) {
	repo := newFakeRepo()
	doctorID, patientID := repo.addDoctor(), repo.addPatient()
	svc := newTestService(repo, passLocker{})

	_, err := svc.Book(context.Background(), doctorID, patientID, TimeSlot{Date: "2025-03-08", Time: "09:00"})
	if !errors.Is(err, ErrPastDate) {
		t.Fatalf("got %v, want ErrPastDate", err)
	}
	if len(repo.appts) != 0 {
		t.Fatal("rejected booking must not be written")
	}
}

func TestBookNeverDoubleBooks(t *testing.T) {
	repo := newFakeRepo()
	doctorID, patientID := repo.addDoctor(), repo.addPatient()
	svc := newTestService(repo, passLocker{})

	slot := TimeSlot{Date: "2025-03-10", Time: "09:00"}
	if _, err := svc.Book(context.Background(), doctorID, patientID, slot); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	_, err := svc.Book(context.Background(), doctorID, repo.addPatient(), slot)
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("got %v, want ErrSlotConflict", err)
	}

	// However the bookings interleave, the stored set must never hold two
	// pending appointments at the same slot.
	pending := 0
	for _, a := range repo.appts {
		if a.Status == StatusPending && a.Slot.Equal(slot) {
			pending++
		}
	}
	if pending != 1 {
		t.Fatalf("found %d pending appointments for the slot, want 1", pending)
	}
}

func TestBookStorageConflictWhenPreCheckMissesRace(t *testing.T) {
	repo := newFakeRepo()
	doctorID, patientID := repo.addDoctor(), repo.addPatient()
	svc := newTestService(repo, passLocker{})

	slot := TimeSlot{Date: "2025-03-10", Time: "09:00"}
	if _, err := svc.Book(context.Background(), doctorID, patientID, slot); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// Pre-check reads nothing, as if a concurrent insert landed between
	// validation and write. The storage layer must still reject.
	repo.hidePending = true
	_, err := svc.Book(context.Background(), doctorID, repo.addPatient(), slot)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("got %v, want ErrSlotTaken", err)
	}
}

func TestBookSlotBusyWhenLockContended(t *testing.T) {
	repo := newFakeRepo()
	doctorID, patientID := repo.addDoctor(), repo.addPatient()
	svc := newTestService(repo, busyLocker{})

	_, err := svc.Book(context.Background(), doctorID, patientID, TimeSlot{Date: "2025-03-10", Time: "09:00"})
	if !errors.Is(err, ErrSlotBusy) {
		t.Fatalf("got %v, want ErrSlotBusy", err)
	}
}

func TestBookUnknownReferences(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, passLocker{})
	slot := TimeSlot{Date: "2025-03-10", Time: "09:00"}

	_, err := svc.Book(context.Background(), uuid.New(), uuid.New(), slot)
	if !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("got %v, want ErrPatientNotFound", err)
	}

	patientID := repo.addPatient()
	_, err = svc.Book(context.Background(), uuid.New(), patientID, slot)
	if !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("got %v, want ErrDoctorNotFound", err)
	}
}

func bookOne(t *testing.T, svc *Service, repo *fakeRepo) *Appointment {
	t.Helper()
	appt, err := svc.Book(context.Background(), repo.addDoctor(), repo.addPatient(), TimeSlot{Date: "2025-03-10", Time: "09:00"})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return appt
}

func TestCompleteTransitionsOnce(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, passLocker{})
	appt := bookOne(t, svc, repo)

	before := repo.appts[appt.ID].UpdatedAt

	updated, err := svc.Complete(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", updated.Status)
	}
	if !updated.UpdatedAt.After(before) {
		t.Error("updated_at must be refreshed on transition")
	}

	// Second call is a benign no-op: state is untouched.
	_, err = svc.Complete(context.Background(), appt.ID)
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("second complete: got %v, want ErrAlreadyCompleted", err)
	}
	if repo.appts[appt.ID].Status != StatusCompleted {
		t.Fatal("completed appointment changed state")
	}
}

func TestCompletedIsAbsorbing(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, passLocker{})
	appt := bookOne(t, svc, repo)

	if _, err := svc.Complete(context.Background(), appt.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err := svc.Cancel(context.Background(), appt.ID)
	if !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("cancel after complete: got %v, want ErrInvalidStatusTransition", err)
	}
	if repo.appts[appt.ID].Status != StatusCompleted {
		t.Fatal("no sequence of operations may leave the completed state")
	}
}

func TestCancelReleasesSlot(t *testing.T) {
	repo := newFakeRepo()
	doctorID, patientID := repo.addDoctor(), repo.addPatient()
	svc := newTestService(repo, passLocker{})

	slot := TimeSlot{Date: "2025-03-10", Time: "09:00"}
	appt, err := svc.Book(context.Background(), doctorID, patientID, slot)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// The slot is free again: rebooking it must be admitted.
	if _, err := svc.Book(context.Background(), doctorID, patientID, slot); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
}

func TestTransitionConcurrentWinnerStillIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, passLocker{})
	appt := bookOne(t, svc, repo)

	// Flip status underfoot after the service's read would have seen
	// pending. The guarded update misses, the re-read classifies it.
	repo.appts[appt.ID].Status = StatusCompleted

	_, err := svc.Complete(context.Background(), appt.ID)
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("got %v, want ErrAlreadyCompleted", err)
	}
}

func TestCompleteMissingAppointment(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, passLocker{})

	_, err := svc.Complete(context.Background(), uuid.New())
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("got %v, want ErrAppointmentNotFound", err)
	}
}

func TestListAppointmentsRanksFiltersAndAnnotates(t *testing.T) {
	repo := newFakeRepo()
	doctorID, patientID := repo.addDoctor(), repo.addPatient()
	svc := newTestService(repo, passLocker{})

	// Due within 24h of the fixed clock, so urgent.
	urgent, err := svc.Book(context.Background(), doctorID, patientID, TimeSlot{Date: "2025-03-09", Time: "18:00"})
	if err != nil {
		t.Fatalf("book urgent: %v", err)
	}
	// Far in the future, not urgent.
	later, err := svc.Book(context.Background(), doctorID, patientID, TimeSlot{Date: "2025-04-01", Time: "09:00"})
	if err != nil {
		t.Fatalf("book later: %v", err)
	}
	done, err := svc.Book(context.Background(), doctorID, patientID, TimeSlot{Date: "2025-03-09", Time: "13:00"})
	if err != nil {
		t.Fatalf("book done: %v", err)
	}
	if _, err := svc.Complete(context.Background(), done.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	list, err := svc.ListAppointments(context.Background(), ListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d rows, want 3", len(list))
	}
	if list[0].ID != urgent.ID || list[1].ID != later.ID || list[2].ID != done.ID {
		t.Fatalf("unexpected rank order: %s %s %s", list[0].ID, list[1].ID, list[2].ID)
	}
	if !list[0].Urgent {
		t.Error("appointment within 24h should be flagged urgent")
	}
	if list[1].Urgent || list[2].Urgent {
		t.Error("only the near-term pending appointment is urgent")
	}

	pendingOnly, err := svc.ListAppointments(context.Background(), ListRequest{Status: StatusPending})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pendingOnly) != 2 {
		t.Fatalf("pending filter: got %d rows, want 2", len(pendingOnly))
	}
}
