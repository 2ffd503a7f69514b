package services

import (
	"fmt"

	"github.com/gofrs/uuid"

	"task-tracker/backend/internal/models"
)

type Action string

const (
	ActionCreateTask        Action = "create_task"
	ActionViewTask          Action = "view_task"
	ActionUpdateTaskInfo    Action = "update_task_info"
	ActionChangePriority    Action = "change_priority"
	ActionChangeStatus      Action = "change_status"
	ActionAddExecutors      Action = "add_executors"
	ActionAddComment        Action = "add_comment"
	ActionDeleteTask        Action = "delete_task"
	ActionViewExecutorTasks Action = "view_executor_tasks"
)

// Rule decides whether actor may perform an action. target is the task
// acted on, or nil for actions without one.
type Rule func(actor Principal, target *models.Task, subject uuid.UUID) bool

func allow(Principal, *models.Task, uuid.UUID) bool { return true }

func executorOfTask(actor Principal, target *models.Task, _ uuid.UUID) bool {
	return target != nil && target.HasExecutor(actor.ID)
}

func selfOnly(actor Principal, _ *models.Task, subject uuid.UUID) bool {
	return actor.ID == subject
}

// rules maps each role to its per-action rule. A missing entry denies.
// USER may create, update, reprioritize, assign and delete any task: no
// ownership rule exists for those actions.
var rules = map[models.Role]map[Action]Rule{
	models.RoleAdmin: {
		ActionCreateTask:        allow,
		ActionViewTask:          allow,
		ActionUpdateTaskInfo:    allow,
		ActionChangePriority:    allow,
		ActionChangeStatus:      allow,
		ActionAddExecutors:      allow,
		ActionAddComment:        allow,
		ActionDeleteTask:        allow,
		ActionViewExecutorTasks: allow,
	},
	models.RoleUser: {
		ActionCreateTask:        allow,
		ActionViewTask:          allow,
		ActionUpdateTaskInfo:    allow,
		ActionChangePriority:    allow,
		ActionChangeStatus:      executorOfTask,
		ActionAddExecutors:      allow,
		ActionAddComment:        executorOfTask,
		ActionDeleteTask:        allow,
		ActionViewExecutorTasks: selfOnly,
	},
}

func decide(actor Principal, action Action, task *models.Task, subject uuid.UUID) error {
	rule, ok := rules[actor.Role][action]
	if !ok || !rule(actor, task, subject) {
		return fmt.Errorf("%w: %s may not %s", ErrPermissionDenied, actor.Role, action)
	}
	return nil
}

// Authorize returns ErrPermissionDenied when actor may not perform action on
// task.
func Authorize(actor Principal, action Action, task *models.Task) error {
	return decide(actor, action, task, uuid.Nil)
}

// AuthorizeExecutorListing guards the listing of tasks assigned to
// executorID.
func AuthorizeExecutorListing(actor Principal, executorID uuid.UUID) error {
	return decide(actor, ActionViewExecutorTasks, nil, executorID)
}
