package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-workflow/internal/model"
	"github.com/jwalitptl/clinic-workflow/internal/repository"
	"github.com/jwalitptl/clinic-workflow/internal/workflow"
	apperrors "github.com/jwalitptl/clinic-workflow/pkg/errors"
	"github.com/jwalitptl/clinic-workflow/pkg/logger"
	"github.com/jwalitptl/clinic-workflow/pkg/metrics"
)

type Service struct {
	repo     repository.PatientRepository
	executor *workflow.Executor
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(repo repository.PatientRepository, executor *workflow.Executor, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		executor: executor,
		logger:   logger,
		metrics:  metrics,
	}
}

// RegisterPatient creates a patient with status Active
func (s *Service) RegisterPatient(ctx context.Context, in model.PatientInput) (*model.Patient, error) {
	patient, ws, err := workflow.CanRegisterPatient(in, s.executor.Now())
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpRegisterPatient, err)
	}

	if err := s.executor.Execute(ctx, ws); err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpRegisterPatient, err)
	}

	workflow.Report(s.logger, s.metrics, workflow.OpRegisterPatient, nil)
	return patient, nil
}

// SetPatientStatus activates or deactivates a patient. Only future bookings
// are affected.
func (s *Service) SetPatientStatus(ctx context.Context, id uuid.UUID, status string) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpSetPatientStatus, err, "patient_id", id.String())
	}

	updated, ws, err := workflow.CanEditPatientStatus(patient, status)
	if err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpSetPatientStatus, err, "patient_id", id.String())
	}

	if err := s.executor.Execute(ctx, ws); err != nil {
		return nil, workflow.Report(s.logger, s.metrics, workflow.OpSetPatientStatus, err, "patient_id", id.String())
	}

	workflow.Report(s.logger, s.metrics, workflow.OpSetPatientStatus, nil)
	return updated, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, filters model.PatientFilters) ([]*model.Patient, error) {
	if filters.Status != nil && !filters.Status.Valid() {
		return nil, apperrors.ErrInvalidStatusValue
	}
	return s.repo.List(ctx, filters)
}
