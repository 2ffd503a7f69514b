package handlers_test

import (
	"context"
	"errors"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/mock"

	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"
	"task-tracker/backend/internal/services"
)

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) task(args mock.Arguments) (*models.Task, error) {
	task, _ := args.Get(0).(*models.Task)
	return task, args.Error(1)
}

func (m *MockTaskService) page(args mock.Arguments) (services.TaskPage, error) {
	page, _ := args.Get(0).(services.TaskPage)
	return page, args.Error(1)
}

func (m *MockTaskService) CreateTask(ctx context.Context, actor services.Principal, in services.CreateTaskInput) (*models.Task, error) {
	return m.task(m.Called(ctx, actor, in))
}

func (m *MockTaskService) GetTask(ctx context.Context, actor services.Principal, id uuid.UUID) (*models.Task, error) {
	return m.task(m.Called(ctx, actor, id))
}

func (m *MockTaskService) UpdateTaskInfo(ctx context.Context, actor services.Principal, id uuid.UUID, in services.UpdateTaskInput) (*models.Task, error) {
	return m.task(m.Called(ctx, actor, id, in))
}

func (m *MockTaskService) ChangePriority(ctx context.Context, actor services.Principal, id uuid.UUID, priority string) (*models.Task, error) {
	return m.task(m.Called(ctx, actor, id, priority))
}

func (m *MockTaskService) ChangeStatus(ctx context.Context, actor services.Principal, id uuid.UUID, status string) (*models.Task, error) {
	return m.task(m.Called(ctx, actor, id, status))
}

func (m *MockTaskService) AddExecutors(ctx context.Context, actor services.Principal, id uuid.UUID, executorIDs []uuid.UUID) (*models.Task, error) {
	return m.task(m.Called(ctx, actor, id, executorIDs))
}

func (m *MockTaskService) AddComment(ctx context.Context, actor services.Principal, id uuid.UUID, text string) (*models.Task, error) {
	return m.task(m.Called(ctx, actor, id, text))
}

func (m *MockTaskService) DeleteTask(ctx context.Context, actor services.Principal, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockTaskService) ListTasks(ctx context.Context, actor services.Principal, page repositories.PageRequest) (services.TaskPage, error) {
	return m.page(m.Called(ctx, actor, page))
}

func (m *MockTaskService) ListTasksByAuthor(ctx context.Context, actor services.Principal, authorID uuid.UUID, page repositories.PageRequest) (services.TaskPage, error) {
	return m.page(m.Called(ctx, actor, authorID, page))
}

func (m *MockTaskService) ListTasksByExecutor(ctx context.Context, actor services.Principal, executorID uuid.UUID, page repositories.PageRequest) (services.TaskPage, error) {
	return m.page(m.Called(ctx, actor, executorID, page))
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*models.Person, error) {
	args := m.Called(ctx, email, password)
	person, _ := args.Get(0).(*models.Person)
	return person, args.Error(1)
}

func (m *MockAuthService) GenerateToken(person *models.Person) (services.Token, error) {
	args := m.Called(person)
	return args.Get(0).(services.Token), args.Error(1)
}

func (m *MockAuthService) ParseToken(token string) (services.Principal, error) {
	args := m.Called(token)
	return args.Get(0).(services.Principal), args.Error(1)
}

type MockRegisterService struct {
	mock.Mock
}

func (m *MockRegisterService) person(args mock.Arguments) (*models.Person, error) {
	person, _ := args.Get(0).(*models.Person)
	return person, args.Error(1)
}

func (m *MockRegisterService) Register(ctx context.Context, req services.RegistrationRequest) (*models.Person, error) {
	return m.person(m.Called(ctx, req))
}

func (m *MockRegisterService) RegisterAdmin(ctx context.Context, req services.RegistrationRequest) (*models.Person, error) {
	return m.person(m.Called(ctx, req))
}

func (m *MockRegisterService) EnsureAdmin(ctx context.Context, email, password string) (*models.Person, error) {
	return m.person(m.Called(ctx, email, password))
}

type MockPersonService struct {
	mock.Mock
}

func (m *MockPersonService) Me(ctx context.Context, actor services.Principal) (*models.Person, error) {
	args := m.Called(ctx, actor)
	person, _ := args.Get(0).(*models.Person)
	return person, args.Error(1)
}

// staticParser accepts exactly one token.
type staticParser struct {
	token     string
	principal services.Principal
}

func (p staticParser) ParseToken(token string) (services.Principal, error) {
	if token != p.token {
		return services.Principal{}, errors.New("invalid token")
	}
	return p.principal, nil
}
