package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "Scheduled"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

type Appointment struct {
	Base
	PatientID   uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorName  string            `db:"doctor_name" json:"doctor_name"`
	ScheduledAt time.Time         `db:"scheduled_at" json:"scheduled_at"`
	Status      AppointmentStatus `db:"status" json:"status"`
}

// AppointmentInput is the booking data checked by the workflow
type AppointmentInput struct {
	DoctorName  string
	ScheduledAt time.Time
}

type BookAppointmentRequest struct {
	PatientID   uuid.UUID `json:"patient_id" binding:"required"`
	DoctorName  string    `json:"doctor_name" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// AppointmentDetail is an appointment with its consultation, if one was recorded
type AppointmentDetail struct {
	*Appointment
	Consultation *Consultation `json:"consultation,omitempty"`
}

type AppointmentFilters struct {
	PatientID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Status    *AppointmentStatus
}
