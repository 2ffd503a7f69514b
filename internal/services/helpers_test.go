package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"

	"task-tracker/backend/internal/database"
	"task-tracker/backend/internal/logging"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"
)

type testEnv struct {
	pool     *database.DatabasePool
	persons  *repositories.GormPersonRepository
	tasks    *repositories.GormTaskRepository
	register *RegisterServiceImpl
	service  *TaskServiceImpl
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:   "sqlite",
		DSN:      ":memory:",
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, pool.Migrate())
	t.Cleanup(func() { pool.Close() })

	log := logging.Discard()
	persons := repositories.NewPersonRepository(pool.DB)
	tasks := repositories.NewTaskRepository(pool.DB)

	return &testEnv{
		pool:     pool,
		persons:  persons,
		tasks:    tasks,
		register: NewRegisterService(pool.DB, persons, bcrypt.MinCost, log),
		service:  NewTaskService(pool.DB, tasks, persons, log),
	}
}

func (e *testEnv) person(t *testing.T, email string, role models.Role) Principal {
	t.Helper()

	req := RegistrationRequest{
		FirstName:      "Test",
		LastName:       "Person",
		Email:          email,
		Password:       "password123",
		RepeatPassword: "password123",
	}

	var (
		p   *models.Person
		err error
	)
	if role == models.RoleAdmin {
		p, err = e.register.RegisterAdmin(context.Background(), req)
	} else {
		p, err = e.register.Register(context.Background(), req)
	}
	require.NoError(t, err)
	return PrincipalOf(p)
}

func (e *testEnv) countRows(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.pool.DB.Model(model).Count(&n).Error)
	return n
}
