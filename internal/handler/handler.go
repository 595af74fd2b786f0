package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/clinic-workflow/pkg/errors"
)

// ParseID reads a UUID path parameter, answering 400 when it is malformed
func ParseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		RespondError(c, apperrors.Validation(fmt.Sprintf("invalid %s", param), err))
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON decodes the request body into obj, answering 400 on failure
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondError(c, apperrors.Validation(err.Error(), err))
		return false
	}
	return true
}
