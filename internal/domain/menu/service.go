package menu

import (
	"context"

	"github.com/google/uuid"
)

// Service validates menu item input before it reaches the repository.
type Service struct {
	repo Repository
}

// NewService creates a menu Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Item, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	return s.repo.Get(ctx, id)
}

// Create adds a menu item.
func (s *Service) Create(ctx context.Context, in Input) (*Item, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	it := &Item{
		ID:    uuid.New().String(),
		Name:  in.Name,
		Price: in.Price,
	}
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// Update changes name and price. Existing order lines keep the unit price
// captured when they were added.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Item, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	it.Name = in.Name
	it.Price = in.Price
	if err := s.repo.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
