package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-workflow/internal/model"
	apperrors "github.com/jwalitptl/clinic-workflow/pkg/errors"
	"github.com/jwalitptl/clinic-workflow/pkg/validator"
)

// The Can* functions decide whether a transition is legal for the given
// snapshot and, if so, return the resulting entity and the write-set that
// persists it. They perform no I/O. Checks run in a fixed order so the
// reported rule is deterministic.

var validate = validator.New()

// CanRegisterPatient validates registration data and produces a new Active patient
func CanRegisterPatient(in model.PatientInput, now time.Time) (*model.Patient, WriteSet, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Gender = model.Gender(strings.TrimSpace(string(in.Gender)))

	if err := validate.Struct(in); err != nil {
		return nil, WriteSet{}, err
	}

	patient := &model.Patient{
		Base:   model.Base{ID: uuid.New(), CreatedAt: stamp(now)},
		Name:   in.Name,
		Gender: in.Gender,
		Age:    in.Age,
		Phone:  in.Phone,
		Status: patientMachine.initial,
	}

	return patient, WriteSet{
		Operation: OpRegisterPatient,
		Writes:    []Write{PatientCreate{Patient: patient}},
	}, nil
}

// CanEditPatientStatus allows any known status. Existing appointments and
// consultations are not touched; status only gates future bookings.
func CanEditPatientStatus(patient *model.Patient, requested string) (*model.Patient, WriteSet, error) {
	status := model.PatientStatus(strings.TrimSpace(requested))
	if !patientMachine.isValid(status) {
		return nil, WriteSet{}, apperrors.ErrInvalidStatusValue.WithMessage(
			fmt.Sprintf("status %q is not valid, must be Active or Inactive", requested))
	}

	updated := *patient
	updated.Status = status

	return &updated, WriteSet{
		Operation: OpSetPatientStatus,
		Writes:    []Write{PatientStatusUpdate{ID: patient.ID, To: status}},
	}, nil
}

// CanCreateAppointment allows booking only for an Active patient at a time
// strictly after now.
func CanCreateAppointment(patient *model.Patient, in model.AppointmentInput, now time.Time) (*model.Appointment, WriteSet, error) {
	doctor := strings.TrimSpace(in.DoctorName)
	if doctor == "" {
		return nil, WriteSet{}, apperrors.Validation("doctor_name is required", nil)
	}
	if in.ScheduledAt.IsZero() {
		return nil, WriteSet{}, apperrors.Validation("scheduled_at is required", nil)
	}

	if !in.ScheduledAt.After(now) {
		return nil, WriteSet{}, apperrors.ErrPastDateTime
	}
	if patient.Status != model.PatientStatusActive {
		return nil, WriteSet{}, apperrors.ErrInactivePatient
	}

	appointment := &model.Appointment{
		Base:        model.Base{ID: uuid.New(), CreatedAt: stamp(now)},
		PatientID:   patient.ID,
		DoctorName:  doctor,
		ScheduledAt: stamp(in.ScheduledAt),
		Status:      appointmentMachine.initial,
	}

	return appointment, WriteSet{
		Operation: OpBookAppointment,
		Writes:    []Write{AppointmentCreate{Appointment: appointment}},
	}, nil
}

// CanCancelAppointment allows cancelling only a Scheduled appointment
func CanCancelAppointment(appointment *model.Appointment) (*model.Appointment, WriteSet, error) {
	next, ok := appointmentMachine.transition(appointment.Status, OpCancelAppointment)
	if !ok {
		return nil, WriteSet{}, apperrors.ErrInvalidStateForCancel.WithMessage(
			fmt.Sprintf("appointment is %s, only scheduled appointments can be cancelled", appointment.Status))
	}

	updated := *appointment
	updated.Status = next

	return &updated, WriteSet{
		Operation: OpCancelAppointment,
		Writes: []Write{AppointmentStatusUpdate{
			ID:   appointment.ID,
			From: appointment.Status,
			To:   next,
		}},
	}, nil
}

// CanCreateConsultation allows one Draft consultation per Scheduled appointment.
// existing is the consultation already recorded for the appointment, or nil.
// The appointment status is checked before existence.
func CanCreateConsultation(appointment *model.Appointment, existing *model.Consultation, in model.ConsultationInput, now time.Time) (*model.Consultation, WriteSet, error) {
	if appointment.Status != model.AppointmentStatusScheduled {
		return nil, WriteSet{}, apperrors.ErrAppointmentNotScheduled
	}
	if existing != nil {
		return nil, WriteSet{}, apperrors.ErrConsultationAlreadyExists
	}

	vitals := strings.TrimSpace(in.Vitals)
	if vitals == "" {
		return nil, WriteSet{}, apperrors.ErrEmptyVitals
	}

	consultation := &model.Consultation{
		Base:          model.Base{ID: uuid.New(), CreatedAt: stamp(now)},
		AppointmentID: appointment.ID,
		PatientID:     appointment.PatientID,
		Vitals:        vitals,
		Notes:         strings.TrimSpace(in.Notes),
		Status:        consultationMachine.initial,
	}

	return consultation, WriteSet{
		Operation: OpRecordConsultation,
		Writes:    []Write{ConsultationCreate{Consultation: consultation}},
	}, nil
}

// CanEditConsultation allows changing vitals and notes only while Draft
func CanEditConsultation(consultation *model.Consultation, in model.ConsultationInput) (*model.Consultation, WriteSet, error) {
	if _, ok := consultationMachine.transition(consultation.Status, OpEditConsultation); !ok {
		return nil, WriteSet{}, apperrors.ErrConsultationLocked
	}

	vitals := strings.TrimSpace(in.Vitals)
	if vitals == "" {
		return nil, WriteSet{}, apperrors.ErrEmptyVitals
	}

	updated := *consultation
	updated.Vitals = vitals
	updated.Notes = strings.TrimSpace(in.Notes)

	return &updated, WriteSet{
		Operation: OpEditConsultation,
		Writes: []Write{ConsultationContentUpdate{
			ID:       consultation.ID,
			Expected: consultation.Status,
			Vitals:   updated.Vitals,
			Notes:    updated.Notes,
		}},
	}, nil
}

// CanCompleteConsultation finalizes a Draft consultation together with its
// appointment. An appointment that is no longer Scheduled, or references that
// disagree with the consultation, is reported as inconsistent state.
func CanCompleteConsultation(consultation *model.Consultation, appointment *model.Appointment) (*model.CompletionResult, WriteSet, error) {
	consultationNext, ok := consultationMachine.transition(consultation.Status, OpCompleteConsultation)
	if !ok {
		return nil, WriteSet{}, apperrors.ErrConsultationLocked.WithMessage("consultation is already completed")
	}

	if appointment == nil || appointment.ID != consultation.AppointmentID {
		return nil, WriteSet{}, apperrors.Inconsistent(fmt.Sprintf(
			"%s %s does not belong to its %s", consultationMachine.label, consultation.ID, appointmentMachine.label))
	}
	if appointment.PatientID != consultation.PatientID {
		return nil, WriteSet{}, apperrors.Inconsistent(fmt.Sprintf(
			"%s %s patient %s differs from %s patient %s",
			consultationMachine.label, consultation.ID, consultation.PatientID,
			appointmentMachine.label, appointment.PatientID))
	}

	appointmentNext, ok := appointmentMachine.transition(appointment.Status, OpCompleteConsultation)
	if !ok {
		return nil, WriteSet{}, apperrors.Inconsistent(fmt.Sprintf(
			"%s %s is %s while its %s is still %s",
			appointmentMachine.label, appointment.ID, appointment.Status,
			consultationMachine.label, consultation.Status))
	}

	c := *consultation
	c.Status = consultationNext
	a := *appointment
	a.Status = appointmentNext

	return &model.CompletionResult{Consultation: &c, Appointment: &a}, WriteSet{
		Operation: OpCompleteConsultation,
		Writes: []Write{
			ConsultationStatusUpdate{ID: consultation.ID, From: consultation.Status, To: consultationNext},
			AppointmentStatusUpdate{ID: appointment.ID, From: appointment.Status, To: appointmentNext},
		},
	}, nil
}

// stamp normalizes timestamps to the precision every supported store keeps
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
