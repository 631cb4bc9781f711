package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	listQuery   = `SELECT id, name, price FROM products ORDER BY created_at, id`
	getQuery    = `SELECT id, name, price FROM products WHERE id = $1`
	existsQuery = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`
	createQuery = `INSERT INTO products (id, name, price) VALUES ($1, $2, $3) RETURNING id, name, price`
	updateQuery = `UPDATE products SET name = $2, price = $3, updated_at = now() WHERE id = $1 RETURNING id, name, price`
	deleteQuery = `DELETE FROM products WHERE id = $1`
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// List retrieves all products ordered by creation time.
func (p *PgStore) List(ctx context.Context) ([]Product, error) {
	rows, err := p.db.Query(ctx, listQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Product])
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}
	return products, nil
}

// Get retrieves a product by its unique identifier.
// Returns nil and no error if no product exists with the given ID.
func (p *PgStore) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	product, err := p.scanOne(ctx, getQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// Exists reports whether a product with the given ID is stored.
func (p *PgStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := p.db.QueryRow(ctx, existsQuery, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return exists, nil
}

// Create inserts a new product row.
func (p *PgStore) Create(ctx context.Context, product Product) (*Product, error) {
	created, err := p.scanOne(ctx, createQuery, product.ID, product.Name, product.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

// Update modifies an existing product's details.
// Returns nil and no error if no row matched product.ID.
func (p *PgStore) Update(ctx context.Context, product Product) (*Product, error) {
	updated, err := p.scanOne(ctx, updateQuery, product.ID, product.Name, product.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return updated, nil
}

// Delete removes a product by its unique identifier.
func (p *PgStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := p.db.Exec(ctx, deleteQuery, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product by ID: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// scanOne runs a query returning at most one product row; pgx.ErrNoRows yields nil.
func (p *PgStore) scanOne(ctx context.Context, query string, args ...any) (*Product, error) {
	var product Product
	err := p.db.QueryRow(ctx, query, args...).Scan(&product.ID, &product.Name, &product.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}
