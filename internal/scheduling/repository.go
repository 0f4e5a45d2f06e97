package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotTaken is the storage-layer booking conflict: the partial
	// unique index on (doctor, slot) for pending appointments rejected
	// the insert. This is the authoritative conflict signal; the
	// validator's ErrSlotConflict is only the fast-path pre-check.
	ErrSlotTaken = errors.New("slot already has a pending appointment")
)

// ListFilter narrows ListAppointments. A nil DoctorID means all doctors.
type ListFilter struct {
	DoctorID *uuid.UUID
}

// Repository contains all DB interactions needed by the scheduling core.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// For the validator's conflict pre-check
	ListPendingByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)

	// For the list view and the change detector
	ListAppointments(ctx context.Context, filter ListFilter) ([]AppointmentDetail, error)

	// Creation and lifecycle transitions
	CreateAppointment(ctx context.Context, doctorID, patientID uuid.UUID, slot TimeSlot) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
