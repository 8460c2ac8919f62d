package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nicole-nieto/tienda-online/internal/domain"
	"github.com/nicole-nieto/tienda-online/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidName = errors.New("name must not be empty")
)

// CategoryService defines the interface for category business logic
type CategoryService interface {
	Create(ctx context.Context, name, description string) (*domain.Category, error)
	List(ctx context.Context, includeInactive bool) ([]*domain.Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	Update(ctx context.Context, id uuid.UUID, update domain.CategoryUpdate) (*domain.Category, error)
	Deactivate(ctx context.Context, id uuid.UUID) (productsDeactivated int, err error)
	DeleteCascade(ctx context.Context, id uuid.UUID) (productsDeleted int, err error)
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

// Create persists a new active category. The name is trimmed and must be
// unique among all categories, compared case-insensitively.
func (s *categoryService) Create(ctx context.Context, name, description string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	existing, err := s.categoryRepo.FindByName(ctx, name)
	if err != nil && err != repository.ErrCategoryNotFound {
		return nil, fmt.Errorf("failed to check existing category: %w", err)
	}
	if existing != nil {
		return nil, repository.ErrCategoryAlreadyExists
	}

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Active:      true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// List returns categories, active ones only unless includeInactive is set
func (s *categoryService) List(ctx context.Context, includeInactive bool) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// GetByID retrieves a category by ID
func (s *categoryService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.categoryRepo.FindByID(ctx, id)
}

// Update applies a partial update. A new name is trimmed and re-checked for
// case-insensitive uniqueness against every other category.
func (s *categoryService) Update(ctx context.Context, id uuid.UUID, update domain.CategoryUpdate) (*domain.Category, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		update.Name = &name

		existing, err := s.categoryRepo.FindByName(ctx, name)
		if err != nil && err != repository.ErrCategoryNotFound {
			return nil, fmt.Errorf("failed to check existing category: %w", err)
		}
		if existing != nil && existing.ID != id {
			return nil, repository.ErrCategoryAlreadyExists
		}
	}

	return s.categoryRepo.Update(ctx, id, update)
}

// Deactivate soft-deletes the category and cascades to every product that
// references it. The cascade is transactional: either the category and all
// its products become inactive, or none do.
func (s *categoryService) Deactivate(ctx context.Context, id uuid.UUID) (int, error) {
	return s.categoryRepo.DeactivateCascade(ctx, id)
}

// DeleteCascade physically removes the category and its products.
// Reserved for administrative use.
func (s *categoryService) DeleteCascade(ctx context.Context, id uuid.UUID) (int, error) {
	return s.categoryRepo.DeleteCascade(ctx, id)
}
