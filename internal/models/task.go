package models

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

type Status string

const (
	StatusAppointed  Status = "APPOINTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// ParsePriority matches raw against the priority names ignoring case.
func ParsePriority(raw string) (Priority, bool) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(raw))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	}
	return "", false
}

// ParseStatus matches raw against the status names ignoring case.
func ParseStatus(raw string) (Status, bool) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusAppointed, StatusInProgress, StatusCompleted:
		return s, true
	}
	return "", false
}

type Task struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Status      Status    `json:"status" gorm:"size:16;not null"`
	Priority    Priority  `json:"priority" gorm:"size:16;not null"`
	AuthorID    uuid.UUID `json:"authorId" gorm:"type:varchar(36);not null;index"`
	Author      Person    `json:"author" gorm:"foreignKey:AuthorID"`
	Executors   []Person  `json:"executors" gorm:"many2many:task_executors;joinForeignKey:TaskID;joinReferences:PersonID"`
	Comments    []Comment `json:"comments" gorm:"foreignKey:TaskID"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID.IsNil() {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		t.ID = id
	}
	if t.Status == "" {
		t.Status = StatusAppointed
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return nil
}

func (t *Task) HasExecutor(personID uuid.UUID) bool {
	for _, executor := range t.Executors {
		if executor.ID == personID {
			return true
		}
	}
	return false
}

func (t *Task) ExecutorIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Executors))
	for _, executor := range t.Executors {
		ids = append(ids, executor.ID)
	}
	return ids
}

// Comment belongs to exactly one task. The auto-increment ID defines the
// order comments are listed in.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	TaskID    uuid.UUID `json:"taskId" gorm:"type:varchar(36);not null;index"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskExecutor is a row of the task_executors join table. The composite
// primary key gives the executor set its no-duplicates property.
type TaskExecutor struct {
	TaskID    uuid.UUID `gorm:"primaryKey;type:varchar(36)"`
	PersonID  uuid.UUID `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time
}

// All returns every model the schema consists of, in migration order.
func All() []interface{} {
	return []interface{}{&Person{}, &Task{}, &TaskExecutor{}, &Comment{}}
}

// SetupJoinTables registers TaskExecutor as the join model of
// Task.Executors on db.
func SetupJoinTables(db *gorm.DB) error {
	return db.SetupJoinTable(&Task{}, "Executors", &TaskExecutor{})
}
