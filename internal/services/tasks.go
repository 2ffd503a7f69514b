package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"
)

const (
	minDescriptionLength = 5
	minCommentLength     = 3
	maxTitleLength       = 255
)

type CreateTaskInput struct {
	Title       string      `json:"title" binding:"notblank,max=255"`
	Description string      `json:"description" binding:"required,min=5"`
	Priority    string      `json:"priority,omitempty"`
	Status      string      `json:"status,omitempty"`
	ExecutorIDs []uuid.UUID `json:"executorIds"`
}

// UpdateTaskInput is a partial update: nil fields keep their current value.
type UpdateTaskInput struct {
	Title       *string
	Description *string
}

type TaskPage = repositories.Page[models.Task]

type TaskService interface {
	CreateTask(ctx context.Context, actor Principal, in CreateTaskInput) (*models.Task, error)
	GetTask(ctx context.Context, actor Principal, id uuid.UUID) (*models.Task, error)
	UpdateTaskInfo(ctx context.Context, actor Principal, id uuid.UUID, in UpdateTaskInput) (*models.Task, error)
	ChangePriority(ctx context.Context, actor Principal, id uuid.UUID, priority string) (*models.Task, error)
	ChangeStatus(ctx context.Context, actor Principal, id uuid.UUID, status string) (*models.Task, error)
	AddExecutors(ctx context.Context, actor Principal, id uuid.UUID, executorIDs []uuid.UUID) (*models.Task, error)
	AddComment(ctx context.Context, actor Principal, id uuid.UUID, text string) (*models.Task, error)
	DeleteTask(ctx context.Context, actor Principal, id uuid.UUID) error
	ListTasks(ctx context.Context, actor Principal, page repositories.PageRequest) (TaskPage, error)
	ListTasksByAuthor(ctx context.Context, actor Principal, authorID uuid.UUID, page repositories.PageRequest) (TaskPage, error)
	ListTasksByExecutor(ctx context.Context, actor Principal, executorID uuid.UUID, page repositories.PageRequest) (TaskPage, error)
}

type TaskServiceImpl struct {
	db      *gorm.DB
	tasks   repositories.TaskRepository
	persons repositories.PersonRepository
	logger  *logrus.Logger
}

func NewTaskService(db *gorm.DB, tasks repositories.TaskRepository, persons repositories.PersonRepository, logger *logrus.Logger) *TaskServiceImpl {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TaskServiceImpl{db: db, tasks: tasks, persons: persons, logger: logger}
}

// inTx runs fn in one transaction with repositories bound to it.
func (s *TaskServiceImpl) inTx(ctx context.Context, fn func(tasks repositories.TaskRepository, persons repositories.PersonRepository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.tasks.WithTx(tx), s.persons.WithTx(tx))
	})
}

func (s *TaskServiceImpl) log(actor Principal, taskID uuid.UUID) *logrus.Entry {
	return s.logger.WithFields(logrus.Fields{
		"actor_id": actor.ID,
		"task_id":  taskID,
	})
}

func loadTask(ctx context.Context, tasks repositories.TaskRepository, id uuid.UUID) (*models.Task, error) {
	task, err := tasks.FindByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, notFound("task", id)
		}
		return nil, err
	}
	return task, nil
}

// resolvePersons loads every id or fails with ErrNotFound naming the first
// missing one. Duplicate ids are collapsed.
func resolvePersons(ctx context.Context, persons repositories.PersonRepository, ids []uuid.UUID) ([]models.Person, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	found, err := persons.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(found) == len(unique) {
		return found, nil
	}

	present := make(map[uuid.UUID]struct{}, len(found))
	for _, p := range found {
		present[p.ID] = struct{}{}
	}
	for _, id := range unique {
		if _, ok := present[id]; !ok {
			return nil, notFound("person", id)
		}
	}
	return found, nil
}

func parsePriority(raw string) (models.Priority, error) {
	p, ok := models.ParsePriority(raw)
	if !ok {
		return "", invalidEnum("priority", raw, string(models.PriorityLow), string(models.PriorityMedium), string(models.PriorityHigh))
	}
	return p, nil
}

func parseStatus(raw string) (models.Status, error) {
	st, ok := models.ParseStatus(raw)
	if !ok {
		return "", invalidEnum("status", raw, string(models.StatusAppointed), string(models.StatusInProgress), string(models.StatusCompleted))
	}
	return st, nil
}

func validateTitle(verr *ValidationError, title string) {
	switch {
	case strings.TrimSpace(title) == "":
		verr.Add("title", "must not be blank")
	case utf8.RuneCountInString(title) > maxTitleLength:
		verr.Add("title", "must be at most 255 characters")
	}
}

func validateDescription(verr *ValidationError, description string) {
	if utf8.RuneCountInString(description) < minDescriptionLength {
		verr.Add("description", "must be at least 5 characters")
	}
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, actor Principal, in CreateTaskInput) (*models.Task, error) {
	if err := Authorize(actor, ActionCreateTask, nil); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	validateTitle(verr, in.Title)
	validateDescription(verr, in.Description)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		AuthorID:    actor.ID,
	}
	if in.Priority != "" {
		priority, err := parsePriority(in.Priority)
		if err != nil {
			return nil, err
		}
		task.Priority = priority
	}
	if in.Status != "" {
		status, err := parseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		task.Status = status
	}

	var created *models.Task
	err := s.inTx(ctx, func(tasks repositories.TaskRepository, persons repositories.PersonRepository) error {
		if _, err := persons.FindByID(ctx, actor.ID); err != nil {
			if repositories.IsNotFound(err) {
				return notFound("person", actor.ID)
			}
			return err
		}

		executors, err := resolvePersons(ctx, persons, in.ExecutorIDs)
		if err != nil {
			return err
		}
		task.Executors = executors

		if err := tasks.Create(ctx, task); err != nil {
			return err
		}
		created, err = loadTask(ctx, tasks, task.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log(actor, created.ID).WithFields(logrus.Fields{
		"executors": len(created.Executors),
		"priority":  created.Priority,
		"status":    created.Status,
	}).Info("task created")
	return created, nil
}

func (s *TaskServiceImpl) GetTask(ctx context.Context, actor Principal, id uuid.UUID) (*models.Task, error) {
	task, err := loadTask(ctx, s.tasks, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, ActionViewTask, task); err != nil {
		return nil, err
	}
	return task, nil
}

// mutate loads the task, checks action, applies change and persists the
// scalar fields, all in one transaction.
func (s *TaskServiceImpl) mutate(ctx context.Context, actor Principal, id uuid.UUID, action Action, change func(task *models.Task, tasks repositories.TaskRepository, persons repositories.PersonRepository) error) (*models.Task, error) {
	var updated *models.Task
	err := s.inTx(ctx, func(tasks repositories.TaskRepository, persons repositories.PersonRepository) error {
		task, err := loadTask(ctx, tasks, id)
		if err != nil {
			return err
		}
		if err := Authorize(actor, action, task); err != nil {
			return err
		}
		if err := change(task, tasks, persons); err != nil {
			return err
		}
		updated, err = loadTask(ctx, tasks, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *TaskServiceImpl) UpdateTaskInfo(ctx context.Context, actor Principal, id uuid.UUID, in UpdateTaskInput) (*models.Task, error) {
	verr := &ValidationError{}
	if in.Title != nil {
		validateTitle(verr, *in.Title)
	}
	if in.Description != nil {
		validateDescription(verr, *in.Description)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	task, err := s.mutate(ctx, actor, id, ActionUpdateTaskInfo, func(task *models.Task, tasks repositories.TaskRepository, _ repositories.PersonRepository) error {
		if in.Title == nil && in.Description == nil {
			return nil
		}
		if in.Title != nil {
			task.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			task.Description = *in.Description
		}
		return tasks.Save(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.log(actor, id).WithFields(logrus.Fields{
		"title_changed":       in.Title != nil,
		"description_changed": in.Description != nil,
	}).Info("task info updated")
	return task, nil
}

func (s *TaskServiceImpl) ChangePriority(ctx context.Context, actor Principal, id uuid.UUID, raw string) (*models.Task, error) {
	task, err := s.mutate(ctx, actor, id, ActionChangePriority, func(task *models.Task, tasks repositories.TaskRepository, _ repositories.PersonRepository) error {
		priority, err := parsePriority(raw)
		if err != nil {
			return err
		}
		task.Priority = priority
		return tasks.Save(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.log(actor, id).WithField("priority", task.Priority).Info("task priority changed")
	return task, nil
}

func (s *TaskServiceImpl) ChangeStatus(ctx context.Context, actor Principal, id uuid.UUID, raw string) (*models.Task, error) {
	task, err := s.mutate(ctx, actor, id, ActionChangeStatus, func(task *models.Task, tasks repositories.TaskRepository, _ repositories.PersonRepository) error {
		status, err := parseStatus(raw)
		if err != nil {
			return err
		}
		task.Status = status
		return tasks.Save(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.log(actor, id).WithField("status", task.Status).Info("task status changed")
	return task, nil
}

func (s *TaskServiceImpl) AddExecutors(ctx context.Context, actor Principal, id uuid.UUID, executorIDs []uuid.UUID) (*models.Task, error) {
	task, err := s.mutate(ctx, actor, id, ActionAddExecutors, func(task *models.Task, tasks repositories.TaskRepository, persons repositories.PersonRepository) error {
		executors, err := resolvePersons(ctx, persons, executorIDs)
		if err != nil {
			return err
		}
		return tasks.AddExecutors(ctx, task, executors)
	})
	if err != nil {
		return nil, err
	}

	s.log(actor, id).WithField("executor_ids", task.ExecutorIDs()).Info("task executors added")
	return task, nil
}

func (s *TaskServiceImpl) AddComment(ctx context.Context, actor Principal, id uuid.UUID, text string) (*models.Task, error) {
	if strings.TrimSpace(text) == "" || utf8.RuneCountInString(text) < minCommentLength {
		return nil, NewValidationError("text", "must be at least 3 characters")
	}

	task, err := s.mutate(ctx, actor, id, ActionAddComment, func(task *models.Task, tasks repositories.TaskRepository, _ repositories.PersonRepository) error {
		return tasks.AddComment(ctx, &models.Comment{TaskID: task.ID, Text: text})
	})
	if err != nil {
		return nil, err
	}

	s.log(actor, id).WithField("comments", len(task.Comments)).Info("task comment added")
	return task, nil
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, actor Principal, id uuid.UUID) error {
	err := s.inTx(ctx, func(tasks repositories.TaskRepository, _ repositories.PersonRepository) error {
		task, err := loadTask(ctx, tasks, id)
		if err != nil {
			return err
		}
		if err := Authorize(actor, ActionDeleteTask, task); err != nil {
			return err
		}
		if err := tasks.Delete(ctx, id); err != nil {
			if repositories.IsNotFound(err) {
				return notFound("task", id)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log(actor, id).Info("task deleted")
	return nil
}

func (s *TaskServiceImpl) ListTasks(ctx context.Context, actor Principal, page repositories.PageRequest) (TaskPage, error) {
	if err := Authorize(actor, ActionViewTask, nil); err != nil {
		return TaskPage{}, err
	}
	return s.tasks.List(ctx, page)
}

func (s *TaskServiceImpl) ListTasksByAuthor(ctx context.Context, actor Principal, authorID uuid.UUID, page repositories.PageRequest) (TaskPage, error) {
	if err := Authorize(actor, ActionViewTask, nil); err != nil {
		return TaskPage{}, err
	}
	if _, err := s.persons.FindByID(ctx, authorID); err != nil {
		if repositories.IsNotFound(err) {
			return TaskPage{}, notFound("person", authorID)
		}
		return TaskPage{}, err
	}
	return s.tasks.ListByAuthor(ctx, authorID, page)
}

func (s *TaskServiceImpl) ListTasksByExecutor(ctx context.Context, actor Principal, executorID uuid.UUID, page repositories.PageRequest) (TaskPage, error) {
	if err := AuthorizeExecutorListing(actor, executorID); err != nil {
		return TaskPage{}, err
	}
	return s.tasks.ListByExecutor(ctx, executorID, page)
}
