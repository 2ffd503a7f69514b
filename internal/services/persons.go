package services

import (
	"context"

	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"
)

type PersonService interface {
	Me(ctx context.Context, actor Principal) (*models.Person, error)
}

type PersonServiceImpl struct {
	persons repositories.PersonRepository
}

func NewPersonService(persons repositories.PersonRepository) *PersonServiceImpl {
	return &PersonServiceImpl{persons: persons}
}

// Me returns the stored record of the caller. A valid token for a person
// that no longer resolves yields ErrNotFound.
func (s *PersonServiceImpl) Me(ctx context.Context, actor Principal) (*models.Person, error) {
	person, err := s.persons.FindByID(ctx, actor.ID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, notFound("person", actor.ID)
		}
		return nil, err
	}
	return person, nil
}
