package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-workflow/internal/model"
)

type (
	PatientRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		List(ctx context.Context, filters model.PatientFilters) ([]*model.Patient, error)
	}

	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters model.AppointmentFilters) ([]*model.Appointment, error)
	}

	ConsultationRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
		// GetByAppointment returns nil, nil when the appointment has no consultation
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Consultation, error)
		ListCompletedByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error)
	}

	OutboxRepository interface {
		GetPending(ctx context.Context, limit int, now time.Time) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error
		MarkFailed(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// WriteTx is the write surface available inside one atomic unit of work.
	// Status updates are compare-and-set on the expected current status.
	WriteTx interface {
		InsertPatient(ctx context.Context, patient *model.Patient) error
		UpdatePatientStatus(ctx context.Context, id uuid.UUID, status model.PatientStatus) error
		InsertAppointment(ctx context.Context, appointment *model.Appointment) error
		UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error
		InsertConsultation(ctx context.Context, consultation *model.Consultation) error
		UpdateConsultationContent(ctx context.Context, id uuid.UUID, expected model.ConsultationStatus, vitals, notes string) error
		UpdateConsultationStatus(ctx context.Context, id uuid.UUID, from, to model.ConsultationStatus) error
		InsertOutboxEvent(ctx context.Context, event *model.OutboxEvent) error
	}

	// UnitOfWork runs fn inside a transaction that commits only if fn returns nil
	UnitOfWork interface {
		WithinTx(ctx context.Context, fn func(tx WriteTx) error) error
	}
)
