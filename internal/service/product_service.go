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
	ErrInvalidStock    = errors.New("stock cannot be negative")
	ErrInvalidPrice    = errors.New("price must be greater than zero")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// ProductService defines the interface for product business logic
type ProductService interface {
	Create(ctx context.Context, name, description string, price float64, stock int, categoryID uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID, page, pageSize int) ([]*domain.Product, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, update domain.ProductUpdate) (*domain.Product, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Buy(ctx context.Context, id uuid.UUID, quantity int) (remainingStock int, err error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// Create persists a new active product. The referenced category must exist,
// and no other active product in that category may carry the same name.
func (s *productService) Create(ctx context.Context, name, description string, price float64, stock int, categoryID uuid.UUID) (*domain.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if price <= 0 {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}

	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		if err == repository.ErrCategoryNotFound {
			return nil, repository.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to check category: %w", err)
	}

	existing, err := s.productRepo.FindActiveByNameInCategory(ctx, name, categoryID)
	if err != nil && err != repository.ErrProductNotFound {
		return nil, fmt.Errorf("failed to check existing product: %w", err)
	}
	if existing != nil {
		return nil, repository.ErrProductAlreadyExists
	}

	product := &domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Price:       price,
		Stock:       stock,
		Active:      true,
		CategoryID:  categoryID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// List returns the products matching the filter. An empty result is a valid
// empty slice, never an error.
func (s *productService) List(ctx context.Context, filter domain.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	products, total, err := s.productRepo.List(ctx, filter, page, pageSize, sortBy, sortOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// ListByCategory returns the active products of an existing category.
// Fails with ErrCategoryNotFound when the category id does not resolve;
// an existing category without products yields an empty slice.
func (s *productService) ListByCategory(ctx context.Context, categoryID uuid.UUID, page, pageSize int) ([]*domain.Product, int, error) {
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		if err == repository.ErrCategoryNotFound {
			return nil, 0, repository.ErrCategoryNotFound
		}
		return nil, 0, fmt.Errorf("failed to check category: %w", err)
	}

	filter := domain.ProductFilter{CategoryID: &categoryID}
	return s.productRepo.List(ctx, filter, page, pageSize, "name", repository.SortOrderAsc)
}

// GetByID retrieves a product by ID
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// Update applies a partial update. A negative stock or an unresolvable new
// category is rejected before anything is written, so the stored row stays
// unchanged on failure.
func (s *productService) Update(ctx context.Context, id uuid.UUID, update domain.ProductUpdate) (*domain.Product, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		update.Name = &name
	}
	if update.Price != nil && *update.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if update.Stock != nil && *update.Stock < 0 {
		return nil, ErrInvalidStock
	}
	if update.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *update.CategoryID); err != nil {
			if err == repository.ErrCategoryNotFound {
				return nil, repository.ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to check category: %w", err)
		}
	}

	return s.productRepo.Update(ctx, id, update)
}

// Deactivate soft-deletes a product. Deactivating an already-inactive
// product is a no-op.
func (s *productService) Deactivate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.Deactivate(ctx, id)
}

// Buy atomically reduces the product stock by quantity and returns the
// remaining stock. The purchase fails on a non-positive quantity, a missing
// or inactive product, or insufficient stock; stock is never driven below
// zero.
func (s *productService) Buy(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}

	return s.productRepo.ReduceStock(ctx, id, quantity)
}
