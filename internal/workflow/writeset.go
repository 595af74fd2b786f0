package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-workflow/internal/model"
	"github.com/jwalitptl/clinic-workflow/internal/repository"
)

// WriteSet is the ordered list of writes one allowed transition implies.
// All writes commit together or none do.
type WriteSet struct {
	Operation Operation
	Writes    []Write
}

// Write is a single entity mutation inside a write-set
type Write interface {
	Apply(ctx context.Context, tx repository.WriteTx) error
	Change() Change
}

// Change is the entity/new-state pair a write produces
type Change struct {
	Entity string    `json:"entity"`
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// Changes lists the entity/new-state pairs of every write, in order
func (ws WriteSet) Changes() []Change {
	changes := make([]Change, 0, len(ws.Writes))
	for _, w := range ws.Writes {
		changes = append(changes, w.Change())
	}
	return changes
}

// TransitionEvent is the payload published for a committed write-set
type TransitionEvent struct {
	Operation  Operation `json:"operation"`
	Changes    []Change  `json:"changes"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Event builds the outbox row recording this write-set
func (ws WriteSet) Event(now time.Time) (*model.OutboxEvent, error) {
	payload, err := json.Marshal(TransitionEvent{
		Operation:  ws.Operation,
		Changes:    ws.Changes(),
		OccurredAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", ws.Operation, err)
	}

	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: string(ws.Operation),
		Payload:   payload,
		Status:    model.OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type PatientCreate struct {
	Patient *model.Patient
}

func (w PatientCreate) Apply(ctx context.Context, tx repository.WriteTx) error {
	return tx.InsertPatient(ctx, w.Patient)
}

func (w PatientCreate) Change() Change {
	return Change{Entity: "patient", ID: w.Patient.ID, Status: string(w.Patient.Status)}
}

type PatientStatusUpdate struct {
	ID uuid.UUID
	To model.PatientStatus
}

func (w PatientStatusUpdate) Apply(ctx context.Context, tx repository.WriteTx) error {
	return tx.UpdatePatientStatus(ctx, w.ID, w.To)
}

func (w PatientStatusUpdate) Change() Change {
	return Change{Entity: "patient", ID: w.ID, Status: string(w.To)}
}

type AppointmentCreate struct {
	Appointment *model.Appointment
}

func (w AppointmentCreate) Apply(ctx context.Context, tx repository.WriteTx) error {
	return tx.InsertAppointment(ctx, w.Appointment)
}

func (w AppointmentCreate) Change() Change {
	return Change{Entity: "appointment", ID: w.Appointment.ID, Status: string(w.Appointment.Status)}
}

type AppointmentStatusUpdate struct {
	ID   uuid.UUID
	From model.AppointmentStatus
	To   model.AppointmentStatus
}

func (w AppointmentStatusUpdate) Apply(ctx context.Context, tx repository.WriteTx) error {
	return tx.UpdateAppointmentStatus(ctx, w.ID, w.From, w.To)
}

func (w AppointmentStatusUpdate) Change() Change {
	return Change{Entity: "appointment", ID: w.ID, Status: string(w.To)}
}

type ConsultationCreate struct {
	Consultation *model.Consultation
}

func (w ConsultationCreate) Apply(ctx context.Context, tx repository.WriteTx) error {
	return tx.InsertConsultation(ctx, w.Consultation)
}

func (w ConsultationCreate) Change() Change {
	return Change{Entity: "consultation", ID: w.Consultation.ID, Status: string(w.Consultation.Status)}
}

type ConsultationContentUpdate struct {
	ID       uuid.UUID
	Expected model.ConsultationStatus
	Vitals   string
	Notes    string
}

func (w ConsultationContentUpdate) Apply(ctx context.Context, tx repository.WriteTx) error {
	return tx.UpdateConsultationContent(ctx, w.ID, w.Expected, w.Vitals, w.Notes)
}

func (w ConsultationContentUpdate) Change() Change {
	return Change{Entity: "consultation", ID: w.ID, Status: string(w.Expected)}
}

type ConsultationStatusUpdate struct {
	ID   uuid.UUID
	From model.ConsultationStatus
	To   model.ConsultationStatus
}

func (w ConsultationStatusUpdate) Apply(ctx context.Context, tx repository.WriteTx) error {
	return tx.UpdateConsultationStatus(ctx, w.ID, w.From, w.To)
}

func (w ConsultationStatusUpdate) Change() Change {
	return Change{Entity: "consultation", ID: w.ID, Status: string(w.To)}
}
