package patient

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-workflow/internal/handler"
	"github.com/jwalitptl/clinic-workflow/internal/model"
)

type Service interface {
	RegisterPatient(ctx context.Context, in model.PatientInput) (*model.Patient, error)
	SetPatientStatus(ctx context.Context, id uuid.UUID, status string) (*model.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	ListPatients(ctx context.Context, filters model.PatientFilters) ([]*model.Patient, error)
}

type AppointmentService interface {
	ListPatientAppointments(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
}

type HistoryService interface {
	GetPatientHistory(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error)
}

type Handler struct {
	service      Service
	appointments AppointmentService
	history      HistoryService
}

func NewHandler(service Service, appointments AppointmentService, history HistoryService) *Handler {
	return &Handler{
		service:      service,
		appointments: appointments,
		history:      history,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.RegisterPatient)
		patients.GET("", h.ListPatients)
		patients.GET("/:id", h.GetPatient)
		patients.PUT("/:id/status", h.SetPatientStatus)
		patients.GET("/:id/appointments", h.ListAppointments)
		patients.GET("/:id/history", h.GetHistory)
	}
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	var req model.RegisterPatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	patient, err := h.service.RegisterPatient(c.Request.Context(), req.ToInput())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(patient))
}

func (h *Handler) ListPatients(c *gin.Context) {
	var filters model.PatientFilters
	if status := c.Query("status"); status != "" {
		s := model.PatientStatus(status)
		filters.Status = &s
	}

	patients, err := h.service.ListPatients(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	patient, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patient))
}

func (h *Handler) SetPatientStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePatientStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	patient, err := h.service.SetPatientStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(patient))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	appointments, err := h.appointments.ListPatientAppointments(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

// GetHistory lists the patient's completed consultations, oldest first
func (h *Handler) GetHistory(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	history, err := h.history.GetPatientHistory(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(history))
}
