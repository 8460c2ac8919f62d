package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nicole-nieto/tienda-online/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("active product with this name already exists in the category")
	ErrProductInactive      = errors.New("product is inactive")
	ErrInsufficientStock    = errors.New("insufficient stock")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	List(ctx context.Context, filter domain.ProductFilter, page, pageSize int, sortBy string, sortOrder SortOrder) ([]*domain.Product, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindActiveByNameInCategory(ctx context.Context, name string, categoryID uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, update domain.ProductUpdate) (*domain.Product, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ReduceStock(ctx context.Context, id uuid.UUID, quantity int) (int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = "id, name, description, price, stock, active, category_id, created_at, updated_at"

func scanProduct(row interface{ Scan(...interface{}) error }) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.Active,
		&product.CategoryID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, stock, active, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		product.Active,
		product.CategoryID,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "fk_products_category") {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// List retrieves products matching the filter, with pagination and sorting.
// Returns the page of products and the total match count.
func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter, page, pageSize int, sortBy string, sortOrder SortOrder) ([]*domain.Product, int, error) {
	// Validate sort field to prevent SQL injection
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"stock":      true,
		"created_at": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}

	// Build the WHERE clause from the set predicates
	whereClauses := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.CategoryID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("category_id = $%d", argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}
	if filter.MinStock != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("stock >= $%d", argIndex))
		args = append(args, *filter.MinStock)
		argIndex++
	}
	if filter.MaxPrice != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}
	if strings.TrimSpace(filter.Name) != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+strings.TrimSpace(filter.Name)+"%")
		argIndex++
	}
	if !filter.IncludeInactive {
		whereClauses = append(whereClauses, "active = TRUE")
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Count total matching products
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, sortBy, sortOrder, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// FindByID retrieves a product by ID using parameterized queries
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindActiveByNameInCategory retrieves an active product matching the name
// case-insensitively within the given category
func (r *productRepository) FindActiveByNameInCategory(ctx context.Context, name string, categoryID uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE LOWER(name) = LOWER($1) AND category_id = $2 AND active = TRUE
	`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, name, categoryID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by name: %w", err)
	}

	return product, nil
}

// Update applies only the fields present in the update struct and returns the stored row
func (r *productRepository) Update(ctx context.Context, id uuid.UUID, update domain.ProductUpdate) (*domain.Product, error) {
	setClauses := []string{}
	args := []interface{}{id}
	argIndex := 2

	if update.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *update.Name)
		argIndex++
	}
	if update.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIndex))
		args = append(args, *update.Description)
		argIndex++
	}
	if update.Price != nil {
		setClauses = append(setClauses, fmt.Sprintf("price = $%d", argIndex))
		args = append(args, *update.Price)
		argIndex++
	}
	if update.Stock != nil {
		setClauses = append(setClauses, fmt.Sprintf("stock = $%d", argIndex))
		args = append(args, *update.Stock)
		argIndex++
	}
	if update.Active != nil {
		setClauses = append(setClauses, fmt.Sprintf("active = $%d", argIndex))
		args = append(args, *update.Active)
		argIndex++
	}
	if update.CategoryID != nil {
		setClauses = append(setClauses, fmt.Sprintf("category_id = $%d", argIndex))
		args = append(args, *update.CategoryID)
		argIndex++
	}

	if len(setClauses) == 0 {
		return r.FindByID(ctx, id)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIndex))
	args = append(args, time.Now())

	query := fmt.Sprintf(`
		UPDATE products
		SET %s
		WHERE id = $1
		RETURNING %s
	`, strings.Join(setClauses, ", "), productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		if strings.Contains(err.Error(), "fk_products_category") {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// Deactivate marks a product inactive. Deactivating an already-inactive
// product is a no-op and returns the product unchanged.
func (r *productRepository) Deactivate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`
		UPDATE products
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to deactivate product: %w", err)
	}

	return product, nil
}

// ReduceStock decrements the product stock by quantity inside a single
// transaction, taking a row lock before the check so concurrent purchases
// cannot drive stock below zero. Returns the remaining stock.
func (r *productRepository) ReduceStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var stock int
	var active bool
	err = tx.QueryRowContext(ctx,
		`SELECT stock, active FROM products WHERE id = $1 FOR UPDATE`, id).
		Scan(&stock, &active)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("failed to lock product row: %w", err)
	}

	if !active {
		return 0, ErrProductInactive
	}
	if stock < quantity {
		return 0, ErrInsufficientStock
	}

	var remaining int
	err = tx.QueryRowContext(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 RETURNING stock`,
		id, quantity).
		Scan(&remaining)
	if err != nil {
		return 0, fmt.Errorf("failed to reduce stock: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit stock reduction: %w", err)
	}

	return remaining, nil
}
