package handler

import (
	"errors"
	"net/http"

	"hrbackend/internal/middleware"
	"hrbackend/internal/service"
	"hrbackend/internal/workflow"
	"hrbackend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError writes err with the status and code the UI expects.
func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	c.JSON(status, response.ErrorWithCode(status, code, err.Error()))
}

func classify(err error) (int, string) {
	if code := workflow.Code(err); code != "" {
		if errors.Is(err, workflow.ErrIllegalTransition) {
			return http.StatusConflict, code
		}
		return http.StatusUnprocessableEntity, code
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "NotFound"
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "InvalidInput"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	}
	return http.StatusInternalServerError, "transport"
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.ErrorWithCode(http.StatusBadRequest, "InvalidInput", msg))
}

// pathID parses the named uuid path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name+": "+c.Param(name))
		return uuid.Nil, false
	}
	return id, true
}

func currentUser(c *gin.Context) uuid.UUID {
	return middleware.CurrentUserID(c)
}
