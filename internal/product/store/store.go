// Package store provides an interface for product storage operations.
package store

import (
	"context"

	"github.com/google/uuid"
)

// Product represents a product entity in the store.
type Product struct {
	ID    uuid.UUID
	Name  string
	Price float64
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
// Implementations never validate business preconditions; returned errors are storage faults only.
type ProductStore interface {
	// List returns all available products.
	// Returns an empty slice if no products exist.
	List(ctx context.Context) ([]Product, error)

	// Get retrieves a single product by its unique identifier.
	// Returns nil and no error if no product exists with the given ID.
	Get(ctx context.Context, id uuid.UUID) (*Product, error)

	// Exists reports whether a product with the given ID is stored.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// Create inserts a product that already carries its identifier and returns the stored value.
	Create(ctx context.Context, product Product) (*Product, error)

	// Update replaces the name and price of the product with product.ID.
	// Returns nil and no error if nothing matched.
	Update(ctx context.Context, product Product) (*Product, error)

	// Delete removes a product by its ID and reports whether a record was removed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
