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

const appointmentColumns = `id, patient_id, doctor_name, scheduled_at, status, created_at`

type appointmentRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := r.db.Rebind(`SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`)

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	var args []interface{}

	if filters.PatientID != nil {
		query += " AND patient_id = ?"
		args = append(args, *filters.PatientID)
	}
	if filters.From != nil {
		query += " AND scheduled_at >= ?"
		args = append(args, filters.From.UTC())
	}
	if filters.To != nil {
		query += " AND scheduled_at < ?"
		args = append(args, filters.To.UTC())
	}
	if filters.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filters.Status))
	}

	query += " ORDER BY scheduled_at ASC"

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (w *txWriter) InsertAppointment(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (id, patient_id, doctor_name, scheduled_at, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := w.exec(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorName,
		appointment.ScheduledAt,
		string(appointment.Status),
		appointment.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("patient", err)
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (w *txWriter) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) error {
	return w.compareAndSetStatus(ctx, "appointments", "appointment", id, string(from), string(to))
}
