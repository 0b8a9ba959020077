package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"marketplace-backend/internal/domains/item/model"
	"marketplace-backend/internal/domains/item/repository"
)

// ServiceInterface exposes the item operations the marketplace kernel needs.
// Full listing management (search, moderation, media) lives outside this
// service.
type ServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error)

	// IsListable reports whether the item is in a reservable business state.
	// Consumed by the reservation manager before any hold is attempted.
	IsListable(ctx context.Context, itemID uuid.UUID) (bool, error)
}

type itemService struct {
	repo repository.RepositoryInterface
}

// NewService creates a new item service
func NewService(repo repository.RepositoryInterface) ServiceInterface {
	return &itemService{repo: repo}
}

func (s *itemService) GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *itemService) IsListable(ctx context.Context, itemID uuid.UUID) (bool, error) {
	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		if model.IsNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load item: %w", err)
	}
	return item.IsListable(), nil
}
