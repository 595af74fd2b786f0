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

const patientColumns = `id, name, gender, age, phone, status, created_at`

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := r.db.Rebind(`SELECT ` + patientColumns + ` FROM patients WHERE id = ?`)

	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context, filters model.PatientFilters) ([]*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE 1=1`
	var args []interface{}

	if filters.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filters.Status))
	}

	query += " ORDER BY created_at DESC"

	patients := []*model.Patient{}
	if err := r.db.SelectContext(ctx, &patients, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (w *txWriter) InsertPatient(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, name, gender, age, phone, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := w.exec(ctx, query,
		patient.ID,
		patient.Name,
		string(patient.Gender),
		patient.Age,
		patient.Phone,
		string(patient.Status),
		patient.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (w *txWriter) UpdatePatientStatus(ctx context.Context, id uuid.UUID, status model.PatientStatus) error {
	result, err := w.exec(ctx, `UPDATE patients SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update patient status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("patient", nil)
	}
	return nil
}
