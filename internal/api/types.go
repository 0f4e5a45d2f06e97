package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-booking/internal/scheduling"
)

type BookAppointmentRequest struct {
	DoctorID  string `json:"doctor_id"`
	PatientID string `json:"patient_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	PatientID uuid.UUID `json:"patient_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListedAppointmentResponse struct {
	AppointmentResponse
	DoctorName  string `json:"doctor_name"`
	PatientName string `json:"patient_name"`
	Urgent      bool   `json:"urgent"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		DoctorID:  a.DoctorID,
		PatientID: a.PatientID,
		Date:      a.Slot.Date,
		Time:      a.Slot.Time,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toListedResponse(l scheduling.ListedAppointment) ListedAppointmentResponse {
	appt := l.Appointment
	return ListedAppointmentResponse{
		AppointmentResponse: toAppointmentResponse(&appt),
		DoctorName:          l.DoctorName,
		PatientName:         l.PatientName,
		Urgent:              l.Urgent,
	}
}
