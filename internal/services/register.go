package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"
	"task-tracker/backend/internal/validation"
)

type RegistrationRequest struct {
	FirstName      string `json:"firstName" binding:"notblank,max=100"`
	LastName       string `json:"lastName" binding:"notblank,max=100"`
	Email          string `json:"email" binding:"required,email,max=255"`
	Password       string `json:"password" binding:"required,min=8,max=72"`
	RepeatPassword string `json:"repeatPassword" binding:"required"`
}

type RegisterService interface {
	Register(ctx context.Context, req RegistrationRequest) (*models.Person, error)
	RegisterAdmin(ctx context.Context, req RegistrationRequest) (*models.Person, error)
	EnsureAdmin(ctx context.Context, email, password string) (*models.Person, error)
}

type RegisterServiceImpl struct {
	db      *gorm.DB
	persons repositories.PersonRepository
	cost    int
	logger  *logrus.Logger
}

func NewRegisterService(db *gorm.DB, persons repositories.PersonRepository, bcryptCost int, logger *logrus.Logger) *RegisterServiceImpl {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RegisterServiceImpl{db: db, persons: persons, cost: bcryptCost, logger: logger}
}

func (s *RegisterServiceImpl) Register(ctx context.Context, req RegistrationRequest) (*models.Person, error) {
	return s.register(ctx, req, models.RoleUser)
}

func (s *RegisterServiceImpl) RegisterAdmin(ctx context.Context, req RegistrationRequest) (*models.Person, error) {
	return s.register(ctx, req, models.RoleAdmin)
}

func validateRegistration(req RegistrationRequest) error {
	verr := &ValidationError{Fields: validation.Struct(req)}
	if req.Password != req.RepeatPassword {
		verr.Add("repeatPassword", "passwords do not match")
	}
	return verr.orNil()
}

func (s *RegisterServiceImpl) register(ctx context.Context, req RegistrationRequest, role models.Role) (*models.Person, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	person := &models.Person{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     repositories.NormalizeEmail(req.Email),
		Password:  string(hashedPassword),
		Role:      role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		persons := s.persons.WithTx(tx)

		exists, err := persons.ExistsByEmail(ctx, person.Email)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateEmail
		}
		return persons.Create(ctx, person)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race with a concurrent registration of the same email.
		err = ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"person_id": person.ID,
		"role":      person.Role,
	}).Info("person registered")

	return person, nil
}

// EnsureAdmin creates the first ADMIN when no person exists yet. It returns
// nil without error when persons already exist or no credentials are given.
func (s *RegisterServiceImpl) EnsureAdmin(ctx context.Context, email, password string) (*models.Person, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, nil
	}

	count, err := s.persons.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	admin, err := s.RegisterAdmin(ctx, RegistrationRequest{
		FirstName:      "Admin",
		LastName:       "Admin",
		Email:          email,
		Password:       password,
		RepeatPassword: password,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	s.logger.WithField("email", admin.Email).Warn("created initial admin account")
	return admin, nil
}
