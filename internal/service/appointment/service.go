package appointment

import (
	"context"
	"time"

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
	location      *time.Location
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

func NewService(
	patients repository.PatientRepository,
	appointments repository.AppointmentRepository,
	consultations repository.ConsultationRepository,
	executor *workflow.Executor,
	location *time.Location,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		patients:      patients,
		appointments:  appointments,
		consultations: consultations,
		executor:      executor,
		location:      location,
		logger:        logger,
		metrics:       metrics,
	}
}

// BookAppointment schedules an appointment for an Active patient in the future
func (s *Service) BookAppointment(ctx context.Context, patientID uuid.UUID, in model.AppointmentInput) (*model.Appointment, error) {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpBookAppointment, err, "patient_id", patientID.String())
	}

	appointment, ws, err := workflow.CanCreateAppointment(patient, in, s.executor.Now())
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpBookAppointment, err, "patient_id", patientID.String())
	}

	if err := s.executor.Execute(ctx, ws); err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpBookAppointment, err, "patient_id", patientID.String())
	}

	workflow.Report(s.logger, s.metrics, workflow.OpBookAppointment, nil)
	return appointment, nil
}

// CancelAppointment cancels a Scheduled appointment
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpCancelAppointment, err, "appointment_id", id.String())
	}

	cancelled, ws, err := workflow.CanCancelAppointment(appointment)
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpCancelAppointment, err, "appointment_id", id.String())
	}

	if err := s.executor.Execute(ctx, ws); err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpCancelAppointment, err, "appointment_id", id.String())
	}

	workflow.Report(s.logger, s.metrics, workflow.OpCancelAppointment, nil)
	return cancelled, nil
}

// GetAppointment returns the appointment with its consultation, if any
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error) {
	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	consultation, err := s.consultations.GetByAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.AppointmentDetail{Appointment: appointment, Consultation: consultation}, nil
}

// ListTodayAppointments lists appointments scheduled on the current calendar
// day in the clinic's time zone
func (s *Service) ListTodayAppointments(ctx context.Context) ([]*model.Appointment, error) {
	now := s.executor.Now().In(s.location)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	end := start.AddDate(0, 0, 1)

	return s.appointments.List(ctx, model.AppointmentFilters{From: &start, To: &end})
}

// ListPatientAppointments lists every appointment of a patient
func (s *Service) ListPatientAppointments(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.appointments.List(ctx, model.AppointmentFilters{PatientID: &patientID})
}
