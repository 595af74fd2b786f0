package consultation

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-workflow/internal/model"
	"github.com/jwalitptl/clinic-workflow/internal/repository"
	"github.com/jwalitptl/clinic-workflow/internal/workflow"
	"github.com/jwalitptl/clinic-workflow/pkg/logger"
	"github.com/jwalitptl/clinic-workflow/pkg/metrics"
)

type Service struct {
	patients      repository.PatientRepository
	appointments  repository.AppointmentRepository
	consultations repository.ConsultationRepository
	executor      *workflow.Executor
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewService(
	patients repository.PatientRepository,
	appointments repository.AppointmentRepository,
	consultations repository.ConsultationRepository,
	executor *workflow.Executor,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		patients:      patients,
		appointments:  appointments,
		consultations: consultations,
		executor:      executor,
		logger:        logger,
		metrics:       metrics,
	}
}

// RecordConsultation creates the Draft consultation of a Scheduled appointment.
// A concurrent request that recorded one first makes this fail with a
// duplicate consultation conflict.
func (s *Service) RecordConsultation(ctx context.Context, appointmentID uuid.UUID, in model.ConsultationInput) (*model.Consultation, error) {
	appointment, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpRecordConsultation, err, "appointment_id", appointmentID.String())
	}

	existing, err := s.consultations.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpRecordConsultation, err, "appointment_id", appointmentID.String())
	}

	consultation, ws, err := workflow.CanCreateConsultation(appointment, existing, in, s.executor.Now())
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpRecordConsultation, err, "appointment_id", appointmentID.String())
	}

	if err := s.executor.Execute(ctx, ws); err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpRecordConsultation, err, "appointment_id", appointmentID.String())
	}

	workflow.Report(s.logger, s.metrics, workflow.OpRecordConsultation, nil)
	return consultation, nil
}

// EditConsultation replaces vitals and notes of a Draft consultation
func (s *Service) EditConsultation(ctx context.Context, id uuid.UUID, in model.ConsultationInput) (*model.Consultation, error) {
	consultation, err := s.consultations.Get(ctx, id)
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpEditConsultation, err, "consultation_id", id.String())
	}

	updated, ws, err := workflow.CanEditConsultation(consultation, in)
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpEditConsultation, err, "consultation_id", id.String())
	}

	if err := s.executor.Execute(ctx, ws); err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpEditConsultation, err, "consultation_id", id.String())
	}

	workflow.Report(s.logger, s.metrics, workflow.OpEditConsultation, nil)
	return updated, nil
}

// CompleteConsultation completes the consultation and its appointment in one
// transaction
func (s *Service) CompleteConsultation(ctx context.Context, id uuid.UUID) (*model.CompletionResult, error) {
	consultation, err := s.consultations.Get(ctx, id)
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpCompleteConsultation, err, "consultation_id", id.String())
	}

	appointment, err := s.appointments.Get(ctx, consultation.AppointmentID)
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpCompleteConsultation, err, "consultation_id", id.String())
	}

	result, ws, err := workflow.CanCompleteConsultation(consultation, appointment)
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpCompleteConsultation, err, "consultation_id", id.String())
	}

	if err := s.executor.Execute(ctx, ws); err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpCompleteConsultation, err, "consultation_id", id.String())
	}

	workflow.Report(s.logger, s.metrics, workflow.OpCompleteConsultation, nil)
	return result, nil
}

func (s *Service) GetConsultation(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	return s.consultations.Get(ctx, id)
}

// GetPatientHistory returns the patient's completed consultations, oldest
// first, whatever the patient's current status
func (s *Service) GetPatientHistory(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.consultations.ListCompletedByPatient(ctx, patientID)
}
