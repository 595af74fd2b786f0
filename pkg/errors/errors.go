package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind groups error codes by how callers should react to them
type Kind int

const (
	KindValidation Kind = iota + 1
	KindState
	KindNotFound
	KindConflict
	KindInconsistent
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInconsistent:
		return "inconsistent_state"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// ErrorCode names the specific rule a rejected operation violated
type ErrorCode string

const (
	CodeInvalidInput              ErrorCode = "invalid_input"
	CodeEmptyVitals               ErrorCode = "empty_vitals"
	CodeInvalidStatusValue        ErrorCode = "invalid_status_value"
	CodeInactivePatient           ErrorCode = "inactive_patient"
	CodePastDateTime              ErrorCode = "past_date_time"
	CodeInvalidStateForCancel     ErrorCode = "invalid_state_for_cancel"
	CodeAppointmentNotScheduled   ErrorCode = "appointment_not_scheduled"
	CodeConsultationAlreadyExists ErrorCode = "consultation_already_exists"
	CodeConsultationLocked        ErrorCode = "consultation_locked"
	CodeNotFound                  ErrorCode = "not_found"
	CodeDuplicateConsultation     ErrorCode = "duplicate_consultation"
	CodeStaleState                ErrorCode = "stale_state"
	CodeInconsistentState         ErrorCode = "inconsistent_state"
	CodePersistence               ErrorCode = "persistence_failed"
)

// AppError represents an application error
type AppError struct {
	Kind    Kind      `json:"-"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so sentinels work with errors.Is
// even after a message or cause has been attached.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// StatusCode maps the error kind onto an HTTP status
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindState:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WithMessage returns a copy of e with a more specific message
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{Kind: e.Kind, Code: e.Code, Message: msg, Err: e.Err}
}

// Workflow rule violations
var (
	ErrEmptyVitals               = &AppError{Kind: KindValidation, Code: CodeEmptyVitals, Message: "vitals are required"}
	ErrInvalidStatusValue        = &AppError{Kind: KindValidation, Code: CodeInvalidStatusValue, Message: "status must be Active or Inactive"}
	ErrInactivePatient           = &AppError{Kind: KindState, Code: CodeInactivePatient, Message: "cannot book an appointment for an inactive patient"}
	ErrPastDateTime              = &AppError{Kind: KindState, Code: CodePastDateTime, Message: "appointment date and time must be in the future"}
	ErrInvalidStateForCancel     = &AppError{Kind: KindState, Code: CodeInvalidStateForCancel, Message: "only scheduled appointments can be cancelled"}
	ErrAppointmentNotScheduled   = &AppError{Kind: KindState, Code: CodeAppointmentNotScheduled, Message: "consultation can only be recorded for a scheduled appointment"}
	ErrConsultationAlreadyExists = &AppError{Kind: KindState, Code: CodeConsultationAlreadyExists, Message: "a consultation already exists for this appointment"}
	ErrConsultationLocked        = &AppError{Kind: KindState, Code: CodeConsultationLocked, Message: "consultation is completed and can no longer be changed"}
	ErrDuplicateConsultation     = &AppError{Kind: KindConflict, Code: CodeDuplicateConsultation, Message: "consultation was already recorded for this appointment by another request"}
	ErrStaleState                = &AppError{Kind: KindConflict, Code: CodeStaleState, Message: "record was changed by another request"}
	ErrNotFound                  = &AppError{Kind: KindNotFound, Code: CodeNotFound, Message: "not found"}
	ErrInconsistentState         = &AppError{Kind: KindInconsistent, Code: CodeInconsistentState, Message: "inconsistent state"}
	ErrPersistence               = &AppError{Kind: KindPersistence, Code: CodePersistence, Message: "failed to persist changes"}
	ErrInvalidInput              = &AppError{Kind: KindValidation, Code: CodeInvalidInput, Message: "invalid input"}
)

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Validation(message string, err error) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    CodeInvalidInput,
		Message: message,
		Err:     err,
	}
}

func Inconsistent(message string) *AppError {
	return &AppError{
		Kind:    KindInconsistent,
		Code:    CodeInconsistentState,
		Message: message,
	}
}

func Persistence(err error) *AppError {
	return &AppError{
		Kind:    KindPersistence,
		Code:    CodePersistence,
		Message: "failed to persist changes",
		Err:     err,
	}
}

// As extracts an *AppError from err's chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err, or 0 if err is not an AppError
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return 0
}

// CodeOf reports the rule code of err, or "" if err is not an AppError
func CodeOf(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ""
}
