package consultation

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-workflow/internal/handler"
	"github.com/jwalitptl/clinic-workflow/internal/model"
)

type Service interface {
	EditConsultation(ctx context.Context, id uuid.UUID, in model.ConsultationInput) (*model.Consultation, error)
	CompleteConsultation(ctx context.Context, id uuid.UUID) (*model.CompletionResult, error)
	GetConsultation(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	consultations := r.Group("/consultations")
	{
		consultations.GET("/:id", h.GetConsultation)
		consultations.PUT("/:id", h.EditConsultation)
		consultations.POST("/:id/complete", h.CompleteConsultation)
	}
}

func (h *Handler) GetConsultation(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	consultation, err := h.service.GetConsultation(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(consultation))
}

func (h *Handler) EditConsultation(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.ConsultationRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	consultation, err := h.service.EditConsultation(c.Request.Context(), id, req.ToInput())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(consultation))
}

// CompleteConsultation locks the consultation and completes its appointment
func (h *Handler) CompleteConsultation(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.CompleteConsultation(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}
