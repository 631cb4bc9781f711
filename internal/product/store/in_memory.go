package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// InMemory implements ProductStore using an in-memory map.
// List returns products in insertion order.
type InMemory struct {
	mu       sync.RWMutex
	products map[uuid.UUID]Product
	order    []uuid.UUID
}

// NewInMemoryStore creates a new, empty in-memory ProductStore.
func NewInMemoryStore() *InMemory {
	return &InMemory{
		products: make(map[uuid.UUID]Product),
	}
}

// List retrieves all products.
func (s *InMemory) List(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, s.products[id])
	}
	return list, nil
}

// Get retrieves a product by its ID.
func (s *InMemory) Get(_ context.Context, id uuid.UUID) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Exists reports whether a product with the given ID is stored.
func (s *InMemory) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.products[id]
	return ok, nil
}

// Create stores the product under its own ID.
func (s *InMemory) Create(_ context.Context, product Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		s.order = append(s.order, product.ID)
	}
	s.products[product.ID] = product
	return &product, nil
}

// Update overwrites the fields of the product with product.ID.
func (s *InMemory) Update(_ context.Context, product Product) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; !exists {
		return nil, nil
	}
	s.products[product.ID] = product
	return &product, nil
}

// Delete removes a product by its ID.
func (s *InMemory) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return false, nil
	}
	delete(s.products, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return true, nil
}
