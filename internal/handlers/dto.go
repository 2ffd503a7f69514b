package handlers

import (
	"time"

	"github.com/gofrs/uuid"

	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/services"
)

type PersonSummary struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type PersonResponse struct {
	ID        uuid.UUID   `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

type TaskSummary struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
	Status      models.Status   `json:"status"`
	Comments    []string        `json:"comments"`
	Author      PersonSummary   `json:"author"`
	Executors   []PersonSummary `json:"executors"`
}

type PageResponse struct {
	Content       []TaskSummary `json:"content"`
	Page          int           `json:"page"`
	Size          int           `json:"size"`
	TotalElements int64         `json:"totalElements"`
	TotalPages    int           `json:"totalPages"`
}

func toPersonSummary(p models.Person) PersonSummary {
	return PersonSummary{FirstName: p.FirstName, LastName: p.LastName, Email: p.Email}
}

func toPersonResponse(p *models.Person) PersonResponse {
	return PersonResponse{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
	}
}

func toTaskSummary(t *models.Task) TaskSummary {
	comments := make([]string, 0, len(t.Comments))
	for _, c := range t.Comments {
		comments = append(comments, c.Text)
	}
	executors := make([]PersonSummary, 0, len(t.Executors))
	for _, e := range t.Executors {
		executors = append(executors, toPersonSummary(e))
	}
	return TaskSummary{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		Comments:    comments,
		Author:      toPersonSummary(t.Author),
		Executors:   executors,
	}
}

func toPageResponse(page services.TaskPage) PageResponse {
	content := make([]TaskSummary, 0, len(page.Items))
	for i := range page.Items {
		content = append(content, toTaskSummary(&page.Items[i]))
	}
	return PageResponse{
		Content:       content,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.Total,
		TotalPages:    page.TotalPages(),
	}
}
