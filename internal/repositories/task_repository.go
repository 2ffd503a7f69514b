package repositories

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"task-tracker/backend/internal/models"
)

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Save(ctx context.Context, task *models.Task) error
	AddExecutors(ctx context.Context, task *models.Task, executors []models.Person) error
	AddComment(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page PageRequest) (Page[models.Task], error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, page PageRequest) (Page[models.Task], error)
	ListByExecutor(ctx context.Context, executorID uuid.UUID, page PageRequest) (Page[models.Task], error)
	WithTx(tx *gorm.DB) TaskRepository
}

type GormTaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) WithTx(tx *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: tx}
}

func (r *GormTaskRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Author").
		Preload("Executors", func(db *gorm.DB) *gorm.DB {
			return db.Order("persons.email")
		}).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.id")
		})
}

// Create inserts the task together with its executor rows. The author and
// executors must already exist.
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	err := r.db.WithContext(ctx).
		Omit("Author", "Comments", "Executors").
		Create(task).Error
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return r.AddExecutors(ctx, task, task.Executors)
}

func (r *GormTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := r.withRelations(ctx).Where("tasks.id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Save writes the scalar columns of task. Relations are left untouched.
func (r *GormTaskRepository) Save(ctx context.Context, task *models.Task) error {
	err := r.db.WithContext(ctx).
		Model(task).
		Select("title", "description", "status", "priority", "updated_at").
		Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"status":      task.Status,
			"priority":    task.Priority,
			"updated_at":  r.db.NowFunc(),
		}).Error
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// AddExecutors links executors to task. Pairs that already exist are kept
// as they are.
func (r *GormTaskRepository) AddExecutors(ctx context.Context, task *models.Task, executors []models.Person) error {
	if len(executors) == 0 {
		return nil
	}
	rows := make([]models.TaskExecutor, 0, len(executors))
	for _, executor := range executors {
		rows = append(rows, models.TaskExecutor{TaskID: task.ID, PersonID: executor.ID})
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("add executors: %w", err)
	}
	return nil
}

func (r *GormTaskRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// Delete removes the task with its comments and executor rows. It must run
// inside a transaction to be atomic; it returns ErrRecordNotFound when no
// task has the given id.
func (r *GormTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("task_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	if err := db.Where("task_id = ?", id).Delete(&models.TaskExecutor{}).Error; err != nil {
		return fmt.Errorf("delete executors: %w", err)
	}

	result := db.Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return fmt.Errorf("delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *GormTaskRepository) List(ctx context.Context, page PageRequest) (Page[models.Task], error) {
	return r.paginate(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db
	})
}

func (r *GormTaskRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID, page PageRequest) (Page[models.Task], error) {
	return r.paginate(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db.Where("tasks.author_id = ?", authorID)
	})
}

func (r *GormTaskRepository) ListByExecutor(ctx context.Context, executorID uuid.UUID, page PageRequest) (Page[models.Task], error) {
	return r.paginate(ctx, page, func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN task_executors ON task_executors.task_id = tasks.id").
			Where("task_executors.person_id = ?", executorID)
	})
}

func (r *GormTaskRepository) paginate(ctx context.Context, page PageRequest, scope func(*gorm.DB) *gorm.DB) (Page[models.Task], error) {
	result := Page[models.Task]{Items: []models.Task{}, Page: page.Page, Size: page.Size}

	if err := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(scope).Count(&result.Total).Error; err != nil {
		return result, fmt.Errorf("count tasks: %w", err)
	}
	if page.Page < 0 || page.Page >= result.TotalPages() {
		return result, nil
	}

	err := r.withRelations(ctx).
		Scopes(scope).
		Order("tasks.created_at").
		Order("tasks.id").
		Offset(page.offset()).
		Limit(page.Size).
		Find(&result.Items).Error
	if err != nil {
		return result, fmt.Errorf("list tasks: %w", err)
	}
	return result, nil
}
