package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products in the store catalog
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Product represents a sellable item belonging to a category
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Stock       int       `json:"stock" db:"stock"`
	Active      bool      `json:"active" db:"active"`
	CategoryID  uuid.UUID `json:"category_id" db:"category_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CategoryUpdate carries the fields of a partial category update.
// Nil pointers mean "leave unchanged".
type CategoryUpdate struct {
	Name        *string
	Description *string
	Active      *bool
}

// ProductUpdate carries the fields of a partial product update.
// Nil pointers mean "leave unchanged".
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	Active      *bool
	CategoryID  *uuid.UUID
}

// ProductFilter holds the optional predicates for product listing.
// All set predicates combine with AND. Unless IncludeInactive is set,
// only active products are returned.
type ProductFilter struct {
	CategoryID      *uuid.UUID
	MinStock        *int
	MaxPrice        *float64
	Name            string
	IncludeInactive bool
}
