package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"

	"task-tracker/backend/internal/models"
)

type PersonRepository interface {
	Create(ctx context.Context, person *models.Person) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
	FindByEmail(ctx context.Context, email string) (*models.Person, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Person, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
	WithTx(tx *gorm.DB) PersonRepository
}

type GormPersonRepository struct {
	db *gorm.DB
}

func NewPersonRepository(db *gorm.DB) *GormPersonRepository {
	return &GormPersonRepository{db: db}
}

func (r *GormPersonRepository) WithTx(tx *gorm.DB) PersonRepository {
	return &GormPersonRepository{db: tx}
}

func (r *GormPersonRepository) Create(ctx context.Context, person *models.Person) error {
	person.Email = NormalizeEmail(person.Email)
	if err := r.db.WithContext(ctx).Create(person).Error; err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

func (r *GormPersonRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	var person models.Person
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&person).Error; err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *GormPersonRepository) FindByEmail(ctx context.Context, email string) (*models.Person, error) {
	var person models.Person
	if err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&person).Error; err != nil {
		return nil, err
	}
	return &person, nil
}

// FindByIDs returns the persons matching ids. Missing ids are simply absent
// from the result; callers compare lengths to detect them.
func (r *GormPersonRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Person, error) {
	if len(ids) == 0 {
		return []models.Person{}, nil
	}
	var persons []models.Person
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&persons).Error; err != nil {
		return nil, fmt.Errorf("find persons: %w", err)
	}
	return persons, nil
}

func (r *GormPersonRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Person{}).
		Where("email = ?", NormalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count persons by email: %w", err)
	}
	return count > 0, nil
}

func (r *GormPersonRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Person{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count persons: %w", err)
	}
	return count, nil
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
