package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/services"
	"task-tracker/backend/internal/validation"
)

var bindingOnce sync.Once

// setupBinding teaches gin's validator the custom rules and JSON field
// names used by the request structs.
func setupBinding() {
	bindingOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			validation.Register(v)
		}
	})
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// respondError maps service errors onto HTTP statuses. It is the only place
// that does so.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_failed", Message: "Request validation failed", Fields: verr.Fields})
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: err.Error()})
	case errors.Is(err, services.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "duplicate_email", Message: "An account with this email already exists"})
	case errors.Is(err, services.ErrInvalidEnumValue):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_enum_value", Message: err.Error()})
	case errors.Is(err, services.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})
	default:
		if logger == nil {
			logger = logrus.StandardLogger()
		}
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("request failed")
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "An unexpected error occurred"})
	}
}

// respondBindError reports a body that failed to decode or validate.
func respondBindError(c *gin.Context, err error) {
	if fields := validation.Fields(err); fields != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation_failed", Message: "Request validation failed", Fields: fields})
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "Invalid request format"})
}

// principal returns the authenticated caller. Routes using it are mounted
// behind middleware.Authenticate; a missing principal is answered with 401.
func principal(c *gin.Context) (services.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
	}
	return p, ok
}
