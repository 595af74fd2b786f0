package workflow

import (
	"github.com/jwalitptl/clinic-workflow/internal/model"
)

// Operation names a requested transition. It is also the type of the event
// published once the transition commits.
type Operation string

const (
	OpRegisterPatient      Operation = "patient.registered"
	OpSetPatientStatus     Operation = "patient.status_changed"
	OpBookAppointment      Operation = "appointment.booked"
	OpCancelAppointment    Operation = "appointment.cancelled"
	OpRecordConsultation   Operation = "consultation.recorded"
	OpEditConsultation     Operation = "consultation.edited"
	OpCompleteConsultation Operation = "consultation.completed"
)

// stateMachine is a closed transition table: any (state, operation) pair not
// listed is illegal. Patient status is set directly by administrators, so its
// machine only constrains the value set.
type stateMachine[S ~string] struct {
	label    string
	initial  S
	terminal map[S]struct{}
	valid    map[S]struct{}
	next     map[S]map[Operation]S
}

func (m stateMachine[S]) transition(from S, op Operation) (S, bool) {
	to, ok := m.next[from][op]
	return to, ok
}

func (m stateMachine[S]) isValid(s S) bool {
	_, ok := m.valid[s]
	return ok
}

func (m stateMachine[S]) isTerminal(s S) bool {
	_, ok := m.terminal[s]
	return ok
}

var patientMachine = stateMachine[model.PatientStatus]{
	label:    "patient",
	initial:  model.PatientStatusActive,
	terminal: toSet[model.PatientStatus](),
	valid:    toSet(model.PatientStatusActive, model.PatientStatusInactive),
}

var appointmentMachine = stateMachine[model.AppointmentStatus]{
	label:    "appointment",
	initial:  model.AppointmentStatusScheduled,
	terminal: toSet(model.AppointmentStatusCompleted, model.AppointmentStatusCancelled),
	valid: toSet(
		model.AppointmentStatusScheduled,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
	),
	next: map[model.AppointmentStatus]map[Operation]model.AppointmentStatus{
		model.AppointmentStatusScheduled: {
			OpCancelAppointment:    model.AppointmentStatusCancelled,
			OpCompleteConsultation: model.AppointmentStatusCompleted,
		},
	},
}

var consultationMachine = stateMachine[model.ConsultationStatus]{
	label:    "consultation",
	initial:  model.ConsultationStatusDraft,
	terminal: toSet(model.ConsultationStatusCompleted),
	valid:    toSet(model.ConsultationStatusDraft, model.ConsultationStatusCompleted),
	next: map[model.ConsultationStatus]map[Operation]model.ConsultationStatus{
		model.ConsultationStatusDraft: {
			OpEditConsultation:     model.ConsultationStatusDraft,
			OpCompleteConsultation: model.ConsultationStatusCompleted,
		},
	},
}

func toSet[S ~string](values ...S) map[S]struct{} {
	set := make(map[S]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
