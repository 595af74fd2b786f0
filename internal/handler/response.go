package handler

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/clinic-workflow/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError writes err using the status and code of its error kind.
// Errors outside the taxonomy are reported as persistence failures without
// exposing their cause.
func RespondError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Persistence(err)
	}

	c.JSON(appErr.StatusCode(), &Response{
		Status:  "error",
		Code:    string(appErr.Code),
		Message: appErr.Message,
	})
}
