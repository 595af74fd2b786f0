package model

import (
	"github.com/google/uuid"
)

type ConsultationStatus string

const (
	ConsultationStatusDraft     ConsultationStatus = "Draft"
	ConsultationStatusCompleted ConsultationStatus = "Completed"
)

type Consultation struct {
	Base
	AppointmentID uuid.UUID          `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID          `db:"patient_id" json:"patient_id"`
	Vitals        string             `db:"vitals" json:"vitals"`
	Notes         string             `db:"notes" json:"notes"`
	Status        ConsultationStatus `db:"status" json:"status"`
}

// ConsultationInput carries the clinician-entered content of a consultation
type ConsultationInput struct {
	Vitals string
	Notes  string
}

type ConsultationRequest struct {
	Vitals string `json:"vitals"`
	Notes  string `json:"notes"`
}

func (r *ConsultationRequest) ToInput() ConsultationInput {
	return ConsultationInput{Vitals: r.Vitals, Notes: r.Notes}
}

// CompletionResult holds both records finalized by completing a consultation
type CompletionResult struct {
	Consultation *Consultation `json:"consultation"`
	Appointment  *Appointment  `json:"appointment"`
}
