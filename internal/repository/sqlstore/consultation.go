package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-workflow/internal/model"
	"github.com/jwalitptl/clinic-workflow/internal/repository"
	apperrors "github.com/jwalitptl/clinic-workflow/pkg/errors"
)

const consultationColumns = `id, appointment_id, patient_id, vitals, notes, status, created_at`

type consultationRepository struct {
	db *sqlx.DB
}

func NewConsultationRepository(db *sqlx.DB) repository.ConsultationRepository {
	return &consultationRepository{db: db}
}

func (r *consultationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	query := r.db.Rebind(`SELECT ` + consultationColumns + ` FROM consultations WHERE id = ?`)

	var consultation model.Consultation
	if err := r.db.GetContext(ctx, &consultation, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("consultation", err)
		}
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	return &consultation, nil
}

func (r *consultationRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Consultation, error) {
	query := r.db.Rebind(`SELECT ` + consultationColumns + ` FROM consultations WHERE appointment_id = ?`)

	var consultation model.Consultation
	if err := r.db.GetContext(ctx, &consultation, query, appointmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get consultation by appointment: %w", err)
	}
	return &consultation, nil
}

func (r *consultationRepository) ListCompletedByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error) {
	query := r.db.Rebind(`
		SELECT ` + consultationColumns + `
		FROM consultations
		WHERE patient_id = ? AND status = ?
		ORDER BY created_at ASC, id ASC
	`)

	consultations := []*model.Consultation{}
	err := r.db.SelectContext(ctx, &consultations, query, patientID, string(model.ConsultationStatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("failed to list patient history: %w", err)
	}
	return consultations, nil
}

func (w *txWriter) InsertConsultation(ctx context.Context, consultation *model.Consultation) error {
	query := `
		INSERT INTO consultations (id, appointment_id, patient_id, vitals, notes, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := w.exec(ctx, query,
		consultation.ID,
		consultation.AppointmentID,
		consultation.PatientID,
		consultation.Vitals,
		consultation.Notes,
		string(consultation.Status),
		consultation.CreatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return &apperrors.AppError{
				Kind:    apperrors.KindConflict,
				Code:    apperrors.CodeDuplicateConsultation,
				Message: apperrors.ErrDuplicateConsultation.Message,
				Err:     err,
			}
		case isForeignKeyViolation(err):
			return apperrors.Inconsistent(fmt.Sprintf(
				"consultation references appointment %s with patient %s, which does not exist",
				consultation.AppointmentID, consultation.PatientID))
		}
		return fmt.Errorf("failed to create consultation: %w", err)
	}
	return nil
}

func (w *txWriter) UpdateConsultationContent(ctx context.Context, id uuid.UUID, expected model.ConsultationStatus, vitals, notes string) error {
	query := `UPDATE consultations SET vitals = ?, notes = ? WHERE id = ? AND status = ?`
	result, err := w.exec(ctx, query, vitals, notes, id, string(expected))
	if err != nil {
		return fmt.Errorf("failed to update consultation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return apperrors.ErrStaleState.WithMessage(fmt.Sprintf("consultation %s is no longer %s", id, expected))
	}
	return nil
}

func (w *txWriter) UpdateConsultationStatus(ctx context.Context, id uuid.UUID, from, to model.ConsultationStatus) error {
	return w.compareAndSetStatus(ctx, "consultations", "consultation", id, string(from), string(to))
}
