package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"

	"task-tracker/backend/internal/cache"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"
)

const listPattern = "tasks:*"

// CachedTaskService decorates a TaskService with read-through caching of
// single tasks and list pages. Access decisions are re-evaluated on every
// call; only storage reads are served from the cache. Every mutation drops
// the task's entry and all cached pages and bumps the generation, so a read
// that loaded before the mutation never fills the cache afterwards.
type CachedTaskService struct {
	next    TaskService
	cache   cache.Cache
	taskTTL time.Duration
	pageTTL time.Duration
	logger  *logrus.Logger

	mu         sync.Mutex
	generation uint64
}

func NewCachedTaskService(next TaskService, c cache.Cache, taskTTL, pageTTL time.Duration, logger *logrus.Logger) *CachedTaskService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CachedTaskService{next: next, cache: c, taskTTL: taskTTL, pageTTL: pageTTL, logger: logger}
}

func taskKey(id uuid.UUID) string {
	return fmt.Sprintf("task:%s", id)
}

func pageKey(scope string, owner uuid.UUID, page repositories.PageRequest) string {
	return fmt.Sprintf("tasks:%s:%s:%d:%d", scope, owner, page.Page, page.Size)
}

func (s *CachedTaskService) lookup(ctx context.Context, key string, dest interface{}) bool {
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WithError(err).WithField("key", key).Warn("cache read failed")
	}
	return false
}

func (s *CachedTaskService) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

func (s *CachedTaskService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// fill stores a value read from next unless a mutation ran since gen.
func (s *CachedTaskService) fill(ctx context.Context, gen uint64, key string, value interface{}, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	s.store(ctx, key, value, ttl)
}

func (s *CachedTaskService) invalidate(ctx context.Context, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++

	if !id.IsNil() {
		if err := s.cache.Delete(ctx, taskKey(id)); err != nil {
			s.logger.WithError(err).WithField("task_id", id).Warn("cache invalidation failed")
		}
	}
	if err := s.cache.DeletePattern(ctx, listPattern); err != nil {
		s.logger.WithError(err).Warn("cache page invalidation failed")
	}
}

func (s *CachedTaskService) afterMutation(ctx context.Context, id uuid.UUID, task *models.Task, err error) (*models.Task, error) {
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return task, nil
}

func (s *CachedTaskService) CreateTask(ctx context.Context, actor Principal, in CreateTaskInput) (*models.Task, error) {
	task, err := s.next.CreateTask(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, uuid.Nil)
	return task, nil
}

func (s *CachedTaskService) GetTask(ctx context.Context, actor Principal, id uuid.UUID) (*models.Task, error) {
	var cached models.Task
	if s.lookup(ctx, taskKey(id), &cached) {
		if err := Authorize(actor, ActionViewTask, &cached); err != nil {
			return nil, err
		}
		return &cached, nil
	}

	gen := s.currentGeneration()
	task, err := s.next.GetTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, gen, taskKey(id), task, s.taskTTL)
	return task, nil
}

func (s *CachedTaskService) UpdateTaskInfo(ctx context.Context, actor Principal, id uuid.UUID, in UpdateTaskInput) (*models.Task, error) {
	task, err := s.next.UpdateTaskInfo(ctx, actor, id, in)
	return s.afterMutation(ctx, id, task, err)
}

func (s *CachedTaskService) ChangePriority(ctx context.Context, actor Principal, id uuid.UUID, priority string) (*models.Task, error) {
	task, err := s.next.ChangePriority(ctx, actor, id, priority)
	return s.afterMutation(ctx, id, task, err)
}

func (s *CachedTaskService) ChangeStatus(ctx context.Context, actor Principal, id uuid.UUID, status string) (*models.Task, error) {
	task, err := s.next.ChangeStatus(ctx, actor, id, status)
	return s.afterMutation(ctx, id, task, err)
}

func (s *CachedTaskService) AddExecutors(ctx context.Context, actor Principal, id uuid.UUID, executorIDs []uuid.UUID) (*models.Task, error) {
	task, err := s.next.AddExecutors(ctx, actor, id, executorIDs)
	return s.afterMutation(ctx, id, task, err)
}

func (s *CachedTaskService) AddComment(ctx context.Context, actor Principal, id uuid.UUID, text string) (*models.Task, error) {
	task, err := s.next.AddComment(ctx, actor, id, text)
	return s.afterMutation(ctx, id, task, err)
}

func (s *CachedTaskService) DeleteTask(ctx context.Context, actor Principal, id uuid.UUID) error {
	if err := s.next.DeleteTask(ctx, actor, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *CachedTaskService) cachedPage(ctx context.Context, key string, load func() (TaskPage, error)) (TaskPage, error) {
	var cached TaskPage
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}

	gen := s.currentGeneration()
	page, err := load()
	if err != nil {
		return TaskPage{}, err
	}
	s.fill(ctx, gen, key, page, s.pageTTL)
	return page, nil
}

func (s *CachedTaskService) ListTasks(ctx context.Context, actor Principal, page repositories.PageRequest) (TaskPage, error) {
	if err := Authorize(actor, ActionViewTask, nil); err != nil {
		return TaskPage{}, err
	}
	return s.cachedPage(ctx, pageKey("all", uuid.Nil, page), func() (TaskPage, error) {
		return s.next.ListTasks(ctx, actor, page)
	})
}

func (s *CachedTaskService) ListTasksByAuthor(ctx context.Context, actor Principal, authorID uuid.UUID, page repositories.PageRequest) (TaskPage, error) {
	if err := Authorize(actor, ActionViewTask, nil); err != nil {
		return TaskPage{}, err
	}
	return s.cachedPage(ctx, pageKey("author", authorID, page), func() (TaskPage, error) {
		return s.next.ListTasksByAuthor(ctx, actor, authorID, page)
	})
}

func (s *CachedTaskService) ListTasksByExecutor(ctx context.Context, actor Principal, executorID uuid.UUID, page repositories.PageRequest) (TaskPage, error) {
	if err := AuthorizeExecutorListing(actor, executorID); err != nil {
		return TaskPage{}, err
	}
	return s.cachedPage(ctx, pageKey("executor", executorID, page), func() (TaskPage, error) {
		return s.next.ListTasksByExecutor(ctx, actor, executorID, page)
	})
}
