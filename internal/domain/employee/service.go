package employee

import (
	"context"

	"github.com/google/uuid"
)

// Service validates employee input before it reaches the repository.
type Service struct {
	repo Repository
}

// NewService creates an employee Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every employee, newest first.
func (s *Service) List(ctx context.Context) ([]Employee, error) {
	return s.repo.List(ctx)
}

// Get returns the employee with the given id or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new employee. New employees are active.
func (s *Service) Create(ctx context.Context, in Input) (*Employee, error) {
	in.Active = true
	if err := in.Validate(); err != nil {
		return nil, err
	}
	e := &Employee{
		ID:      uuid.New().String(),
		Name:    in.Name,
		Contact: in.Contact,
		Active:  in.Active,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update replaces the editable fields of an existing employee.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Employee, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Name = in.Name
	e.Contact = in.Contact
	e.Active = in.Active
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes the employee. Orders keep their weak reference.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
