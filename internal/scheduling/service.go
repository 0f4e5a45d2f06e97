package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-booking/internal/metrics"
	redisclient "github.com/clinicdesk/clinic-booking/internal/redis"
	"github.com/clinicdesk/clinic-booking/pkg/logging"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
)

var (
	ErrSlotBusy = errors.New("slot is currently being booked, please retry")

	ErrAlreadyCompleted        = errors.New("appointment is already completed")
	ErrAlreadyCancelled        = errors.New("appointment is already cancelled")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

type Service struct {
	repo    Repository
	locker  redisclient.Locker
	logger  *logging.Logger
	metrics *metrics.SchedulingMetrics
	now     func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, logger *logging.Logger, m *metrics.SchedulingMetrics) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		locker:  locker,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Book admits a new pending appointment for (doctor, slot) on behalf of a
// patient. Conflict checking happens twice: an optimistic in-memory
// pre-check against the doctor's current pending appointments for a fast
// user-facing error, and the storage layer's unique index as the final
// arbiter. A per doctor+slot lock serializes concurrent candidates so the
// common race resolves before ever hitting the index.
func (s *Service) Book(ctx context.Context, doctorID, patientID uuid.UUID, slot TimeSlot) (*Appointment, error) {
	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	candidate := BookingCandidate{DoctorID: doctorID, Slot: slot}

	// The past-date rule needs no lock; reject cheap and early.
	if slot.DateBefore(s.now()) {
		s.metrics.ObserveBooking("past_date")
		return nil, ErrPastDate
	}

	var created *Appointment

	err := s.locker.WithBookingLock(ctx, doctorID, slot.Key(), func(lockCtx context.Context) error {
		existing, err := s.repo.ListPendingByDoctor(lockCtx, doctorID)
		if err != nil {
			return fmt.Errorf("list pending appointments: %w", err)
		}

		if err := ValidateBooking(candidate, existing, s.now()); err != nil {
			return err
		}

		appt, err := s.repo.CreateAppointment(lockCtx, doctorID, patientID, slot)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"doctor_id":  doctorID.String(),
			"patient_id": patientID.String(),
			"slot":       slot.String(),
		})

		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			s.metrics.ObserveBooking("slot_busy")
			return nil, ErrSlotBusy
		case errors.Is(err, ErrPastDate):
			s.metrics.ObserveBooking("past_date")
			return nil, err
		case errors.Is(err, ErrSlotConflict):
			s.metrics.ObserveBooking("slot_conflict")
			return nil, err
		case errors.Is(err, ErrSlotTaken):
			// Lost the race despite the pre-check; the index caught it.
			s.metrics.ObserveBooking("slot_taken")
			return nil, err
		default:
			s.metrics.ObserveBooking("error")
			return nil, err
		}
	}

	s.metrics.ObserveBooking("booked")
	s.logger.Info("appointment booked",
		"appointment_id", created.ID,
		"doctor_id", doctorID,
		"slot", slot.String(),
	)

	return created, nil
}

// Complete moves a pending appointment to completed. Completing an
// already-completed appointment is reported as ErrAlreadyCompleted and
// never changes state, so callers may retry blindly.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCompleted, "complete", EventAppointmentCompleted)
}

// Cancel moves a pending appointment to cancelled, releasing its slot
// for new bookings. Rescheduling is modeled as cancel + rebook.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCancelled, "cancel", EventAppointmentCancelled)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, action, eventType string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if err := checkTransition(appt.Status, to); err != nil {
		s.metrics.ObserveTransition(action, "rejected")
		return nil, err
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusPending, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// The guarded update found no pending row: a concurrent
			// transition won between our read and write. Re-read and
			// classify so the caller still gets the idempotent error.
			current, readErr := s.repo.GetAppointmentByID(ctx, id)
			if readErr != nil {
				return nil, fmt.Errorf("%s appointment: %w", action, err)
			}
			if terr := checkTransition(current.Status, to); terr != nil {
				s.metrics.ObserveTransition(action, "rejected")
				return nil, terr
			}
			s.metrics.ObserveTransition(action, "error")
			return nil, fmt.Errorf("%s appointment: %w", action, err)
		}
		s.metrics.ObserveTransition(action, "error")
		return nil, fmt.Errorf("%s appointment: %w", action, err)
	}

	s.metrics.ObserveTransition(action, "ok")
	s.logEvent(ctx, updated.ID, eventType, map[string]any{})
	s.logger.Info("appointment transitioned",
		"appointment_id", updated.ID,
		"action", action,
		"status", string(updated.Status),
	)

	return updated, nil
}

// checkTransition enforces the lifecycle state machine: pending may move
// to either terminal state; terminal states are absorbing.
func checkTransition(from, to Status) error {
	switch from {
	case StatusPending:
		return nil
	case StatusCompleted:
		if to == StatusCompleted {
			return ErrAlreadyCompleted
		}
		return ErrInvalidStatusTransition
	case StatusCancelled:
		if to == StatusCancelled {
			return ErrAlreadyCancelled
		}
		return ErrInvalidStatusTransition
	}
	return ErrInvalidStatusTransition
}

// ListRequest narrows and filters the ranked appointment list.
type ListRequest struct {
	DoctorID *uuid.UUID
	Search   string
	Status   Status // empty keeps all statuses
}

// ListedAppointment is a ranked row annotated for display.
type ListedAppointment struct {
	AppointmentDetail
	Urgent bool
}

// ListAppointments returns the appointment set ranked by priority,
// filtered by the request, with each row annotated with its urgency flag.
func (s *Service) ListAppointments(ctx context.Context, req ListRequest) ([]ListedAppointment, error) {
	details, err := s.repo.ListAppointments(ctx, ListFilter{DoctorID: req.DoctorID})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	ranked := RankDetails(details)
	filtered := FilterDetails(ranked, ListQuery{Search: req.Search, Status: req.Status})

	now := s.now()
	out := make([]ListedAppointment, 0, len(filtered))
	for _, d := range filtered {
		out = append(out, ListedAppointment{
			AppointmentDetail: d,
			Urgent:            IsUrgent(d.Appointment, now),
		})
	}
	return out, nil
}

// GetAppointment retrieves a single appointment by id.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal event payload failed", "event_type", eventType, "error", err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error("insert event log failed",
			"event_type", eventType,
			"appointment_id", appointmentID,
			"error", err,
		)
	}
}
