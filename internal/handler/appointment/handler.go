package appointment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-workflow/internal/handler"
	"github.com/jwalitptl/clinic-workflow/internal/model"
)

type Service interface {
	BookAppointment(ctx context.Context, patientID uuid.UUID, in model.AppointmentInput) (*model.Appointment, error)
	CancelAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*model.AppointmentDetail, error)
	ListTodayAppointments(ctx context.Context) ([]*model.Appointment, error)
}

type ConsultationService interface {
	RecordConsultation(ctx context.Context, appointmentID uuid.UUID, in model.ConsultationInput) (*model.Consultation, error)
}

type Handler struct {
	service       Service
	consultations ConsultationService
}

func NewHandler(service Service, consultations ConsultationService) *Handler {
	return &Handler{
		service:       service,
		consultations: consultations,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.BookAppointment)
		appointments.GET("/today", h.ListToday)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/cancel", h.CancelAppointment)
		appointments.POST("/:id/consultation", h.RecordConsultation)
	}
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.BookAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	appointment, err := h.service.BookAppointment(c.Request.Context(), req.PatientID, model.AppointmentInput{
		DoctorName:  req.DoctorName,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(appointment))
}

// ListToday lists appointments scheduled during the current day in the clinic's time zone
func (h *Handler) ListToday(c *gin.Context) {
	appointments, err := h.service.ListTodayAppointments(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.service.GetAppointment(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(detail))
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	appointment, err := h.service.CancelAppointment(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

func (h *Handler) RecordConsultation(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.ConsultationRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	consultation, err := h.consultations.RecordConsultation(c.Request.Context(), id, req.ToInput())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(consultation))
}
