package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"

	"task-tracker/backend/internal/repositories"
	"task-tracker/backend/internal/services"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type TaskHandler struct {
	taskService services.TaskService
	logger      *logrus.Logger
}

type CommentRequest struct {
	Text string `json:"text"`
}

type ExecutorsRequest struct {
	ExecutorIDs []uuid.UUID `json:"executorIds"`
}

func NewTaskHandler(taskService services.TaskService, logger *logrus.Logger) *TaskHandler {
	setupBinding()
	return &TaskHandler{taskService: taskService, logger: logger}
}

func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, services.NewValidationError(name, "must be a valid UUID")
	}
	return id, nil
}

// pageRequest reads offset (zero-based page index) and limit (page size).
func pageRequest(c *gin.Context) (repositories.PageRequest, error) {
	verr := &services.ValidationError{}
	page := repositories.PageRequest{Page: 0, Size: defaultPageSize}

	if raw, ok := c.GetQuery("offset"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			verr.Add("offset", "must be a non-negative integer")
		} else {
			page.Page = n
		}
	}
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			verr.Add("limit", "must be an integer between 1 and "+strconv.Itoa(maxPageSize))
		} else {
			page.Size = n
		}
	}

	if !verr.Empty() {
		return page, verr
	}
	return page, nil
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}

	var input services.CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toTaskSummary(task))
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toTaskSummary(task))
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var input services.UpdateTaskInput
	if title, ok := c.GetQuery("title"); ok {
		input.Title = &title
	}
	if description, ok := c.GetQuery("description"); ok {
		input.Description = &description
	}

	task, err := h.taskService.UpdateTaskInfo(c.Request.Context(), actor, id, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toTaskSummary(task))
}

func (h *TaskHandler) ChangePriority(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	task, err := h.taskService.ChangePriority(c.Request.Context(), actor, id, c.Query("priority"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toTaskSummary(task))
}

func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	task, err := h.taskService.ChangeStatus(c.Request.Context(), actor, id, c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toTaskSummary(task))
}

func (h *TaskHandler) AddComment(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.AddComment(c.Request.Context(), actor, id, req.Text)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toTaskSummary(task))
}

func (h *TaskHandler) AddExecutors(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req ExecutorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.AddExecutors(c.Request.Context(), actor, id, req.ExecutorIDs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toTaskSummary(task))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), actor, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted successfully"})
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	page, err := pageRequest(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.taskService.ListTasks(c.Request.Context(), actor, page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(result))
}

func (h *TaskHandler) ListTasksByAuthor(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	authorID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	page, err := pageRequest(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.taskService.ListTasksByAuthor(c.Request.Context(), actor, authorID, page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(result))
}

func (h *TaskHandler) ListTasksByExecutor(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	executorID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	page, err := pageRequest(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	result, err := h.taskService.ListTasksByExecutor(c.Request.Context(), actor, executorID, page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toPageResponse(result))
}
