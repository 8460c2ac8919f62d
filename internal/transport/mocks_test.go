package transport

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/nicole-nieto/tienda-online/internal/domain"
	"github.com/nicole-nieto/tienda-online/internal/repository"
	"github.com/nicole-nieto/tienda-online/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mock repositories for testing

type mockStore struct {
	categories map[uuid.UUID]*domain.Category
	products   map[uuid.UUID]*domain.Product
}

func newMockStore() *mockStore {
	return &mockStore{
		categories: make(map[uuid.UUID]*domain.Category),
		products:   make(map[uuid.UUID]*domain.Product),
	}
}

func (s *mockStore) seedCategory(name string, active bool) *domain.Category {
	category := &domain.Category{
		ID:        uuid.New(),
		Name:      name,
		Active:    active,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.categories[category.ID] = category
	return category
}

func (s *mockStore) seedProduct(name string, categoryID uuid.UUID, price float64, stock int, active bool) *domain.Product {
	product := &domain.Product{
		ID:         uuid.New(),
		Name:       name,
		Price:      price,
		Stock:      stock,
		Active:     active,
		CategoryID: categoryID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	s.products[product.ID] = product
	return product
}

type mockCategoryRepository struct {
	store *mockStore
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, c := range m.store.categories {
		if strings.EqualFold(c.Name, category.Name) {
			return repository.ErrCategoryAlreadyExists
		}
	}
	copied := *category
	m.store.categories[category.ID] = &copied
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context, includeInactive bool) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, c := range m.store.categories {
		if !includeInactive && !c.Active {
			continue
		}
		copied := *c
		categories = append(categories, &copied)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	c, exists := m.store.categories[id]
	if !exists {
		return nil, repository.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockCategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	for _, c := range m.store.categories {
		if strings.EqualFold(c.Name, name) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) Update(ctx context.Context, id uuid.UUID, update domain.CategoryUpdate) (*domain.Category, error) {
	c, exists := m.store.categories[id]
	if !exists {
		return nil, repository.ErrCategoryNotFound
	}
	if update.Name != nil {
		for otherID, other := range m.store.categories {
			if otherID != id && strings.EqualFold(other.Name, *update.Name) {
				return nil, repository.ErrCategoryAlreadyExists
			}
		}
		c.Name = *update.Name
	}
	if update.Description != nil {
		c.Description = *update.Description
	}
	if update.Active != nil {
		c.Active = *update.Active
	}
	copied := *c
	return &copied, nil
}

func (m *mockCategoryRepository) DeactivateCascade(ctx context.Context, id uuid.UUID) (int, error) {
	c, exists := m.store.categories[id]
	if !exists {
		return 0, repository.ErrCategoryNotFound
	}
	c.Active = false

	affected := 0
	for _, p := range m.store.products {
		if p.CategoryID == id && p.Active {
			p.Active = false
			affected++
		}
	}
	return affected, nil
}

func (m *mockCategoryRepository) DeleteCascade(ctx context.Context, id uuid.UUID) (int, error) {
	if _, exists := m.store.categories[id]; !exists {
		return 0, repository.ErrCategoryNotFound
	}

	deleted := 0
	for productID, p := range m.store.products {
		if p.CategoryID == id {
			delete(m.store.products, productID)
			deleted++
		}
	}
	delete(m.store.categories, id)
	return deleted, nil
}

type mockProductRepository struct {
	store *mockStore
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if _, exists := m.store.categories[product.CategoryID]; !exists {
		return repository.ErrCategoryNotFound
	}
	copied := *product
	m.store.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) List(ctx context.Context, filter domain.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	matches := []*domain.Product{}
	for _, p := range m.store.products {
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.MinStock != nil && p.Stock < *filter.MinStock {
			continue
		}
		if filter.MaxPrice != nil && p.Price > *filter.MaxPrice {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if !filter.IncludeInactive && !p.Active {
			continue
		}
		copied := *p
		matches = append(matches, &copied)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	total := len(matches)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, exists := m.store.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) FindActiveByNameInCategory(ctx context.Context, name string, categoryID uuid.UUID) (*domain.Product, error) {
	for _, p := range m.store.products {
		if p.Active && p.CategoryID == categoryID && strings.EqualFold(p.Name, name) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) Update(ctx context.Context, id uuid.UUID, update domain.ProductUpdate) (*domain.Product, error) {
	p, exists := m.store.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	if update.CategoryID != nil {
		if _, exists := m.store.categories[*update.CategoryID]; !exists {
			return nil, repository.ErrCategoryNotFound
		}
		p.CategoryID = *update.CategoryID
	}
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Description != nil {
		p.Description = *update.Description
	}
	if update.Price != nil {
		p.Price = *update.Price
	}
	if update.Stock != nil {
		p.Stock = *update.Stock
	}
	if update.Active != nil {
		p.Active = *update.Active
	}
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) Deactivate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, exists := m.store.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	p.Active = false
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) ReduceStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	p, exists := m.store.products[id]
	if !exists {
		return 0, repository.ErrProductNotFound
	}
	if !p.Active {
		return 0, repository.ErrProductInactive
	}
	if p.Stock < quantity {
		return 0, repository.ErrInsufficientStock
	}
	p.Stock -= quantity
	return p.Stock, nil
}

// newTestRouterWithAdminMiddleware wires mock-backed services and handlers
// onto a real router so tests exercise the same routing and URL params as
// production. The middleware chain guards the purge route only.
func newTestRouterWithAdminMiddleware(adminMiddleware ...func(http.Handler) http.Handler) (chi.Router, *mockStore) {
	store := newMockStore()
	categoryRepo := &mockCategoryRepository{store: store}
	productRepo := &mockProductRepository{store: store}

	categoryService := service.NewCategoryService(categoryRepo)
	productService := service.NewProductService(productRepo, categoryRepo)
	logger := zap.NewNop()

	router := chi.NewRouter()
	NewCategoryHandler(categoryService, logger).RegisterRoutes(router, adminMiddleware...)
	NewProductHandler(productService, logger).RegisterRoutes(router)

	return router, store
}

func newTestRouter() (chi.Router, *mockStore) {
	return newTestRouterWithAdminMiddleware()
}
