package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"task-tracker/backend/internal/services"
)

type PersonHandler struct {
	personService services.PersonService
	logger        *logrus.Logger
}

func NewPersonHandler(personService services.PersonService, logger *logrus.Logger) *PersonHandler {
	return &PersonHandler{personService: personService, logger: logger}
}

func (h *PersonHandler) Me(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}

	person, err := h.personService.Me(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, toPersonResponse(person))
}
