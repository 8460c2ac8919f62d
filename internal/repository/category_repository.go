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
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	List(ctx context.Context, includeInactive bool) ([]*domain.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	FindByName(ctx context.Context, name string) (*domain.Category, error)
	Update(ctx context.Context, id uuid.UUID, update domain.CategoryUpdate) (*domain.Category, error)
	DeactivateCascade(ctx context.Context, id uuid.UUID) (int, error)
	DeleteCascade(ctx context.Context, id uuid.UUID) (int, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = "id, name, description, active, created_at, updated_at"

func scanCategory(row interface{ Scan(...interface{}) error }) (*domain.Category, error) {
	category := &domain.Category{}
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.Active,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return category, nil
}

// Create inserts a new category into the database using parameterized queries
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, description, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Description,
		category.Active,
		category.CreatedAt,
		category.UpdatedAt,
	)

	if err != nil {
		// Unique index on LOWER(name) reports SQLSTATE 23505
		if strings.Contains(err.Error(), "categories_name_lower_key") {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// List retrieves categories ordered by name, active ones only unless includeInactive is set
func (r *categoryRepository) List(ctx context.Context, includeInactive bool) ([]*domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories`, categoryColumns)
	if !includeInactive {
		query += " WHERE active = TRUE"
	}
	query += " ORDER BY name ASC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// FindByID retrieves a category by ID using parameterized queries
func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE id = $1`, categoryColumns)

	category, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return category, nil
}

// FindByName retrieves a category by name, matching case-insensitively
func (r *categoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE LOWER(name) = LOWER($1)`, categoryColumns)

	category, err := scanCategory(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by name: %w", err)
	}

	return category, nil
}

// Update applies only the fields present in the update struct and returns the stored row
func (r *categoryRepository) Update(ctx context.Context, id uuid.UUID, update domain.CategoryUpdate) (*domain.Category, error) {
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
	if update.Active != nil {
		setClauses = append(setClauses, fmt.Sprintf("active = $%d", argIndex))
		args = append(args, *update.Active)
		argIndex++
	}

	if len(setClauses) == 0 {
		return r.FindByID(ctx, id)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIndex))
	args = append(args, time.Now())

	query := fmt.Sprintf(`
		UPDATE categories
		SET %s
		WHERE id = $1
		RETURNING %s
	`, strings.Join(setClauses, ", "), categoryColumns)

	category, err := scanCategory(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCategoryNotFound
		}
		if strings.Contains(err.Error(), "categories_name_lower_key") {
			return nil, ErrCategoryAlreadyExists
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return category, nil
}

// DeactivateCascade marks the category and all its products inactive in a single
// transaction, so the cascade is all-or-nothing. Returns the number of products affected.
func (r *categoryRepository) DeactivateCascade(ctx context.Context, id uuid.UUID) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE categories SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, ErrCategoryNotFound
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE products SET active = FALSE, updated_at = NOW() WHERE category_id = $1 AND active = TRUE`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate category products: %w", err)
	}

	productsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit deactivation: %w", err)
	}

	return int(productsAffected), nil
}

// DeleteCascade physically removes the category and every product referencing it
// in a single transaction. Returns the number of products deleted.
func (r *categoryRepository) DeleteCascade(ctx context.Context, id uuid.UUID) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM products WHERE category_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete category products: %w", err)
	}

	productsDeleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	result, err = tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, ErrCategoryNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit deletion: %w", err)
	}

	return int(productsDeleted), nil
}
