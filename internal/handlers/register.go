package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/services"
)

type RegisterHandler struct {
	registerService services.RegisterService
	logger          *logrus.Logger
}

func NewRegisterHandler(registerService services.RegisterService, logger *logrus.Logger) *RegisterHandler {
	setupBinding()
	return &RegisterHandler{registerService: registerService, logger: logger}
}

func (h *RegisterHandler) Registration(c *gin.Context) {
	h.register(c, h.registerService.Register)
}

func (h *RegisterHandler) AdminRegistration(c *gin.Context) {
	h.register(c, h.registerService.RegisterAdmin)
}

type registerFunc func(ctx context.Context, req services.RegistrationRequest) (*models.Person, error)

func (h *RegisterHandler) register(c *gin.Context, create registerFunc) {
	var req services.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	person, err := create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, toPersonResponse(person))
}
