// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/products/internal/platform/messaging"
	"github.com/abgdnv/products/internal/platform/messaging/events"
	producterrors "github.com/abgdnv/products/internal/product/errors"
	"github.com/abgdnv/products/internal/product/store"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// GetProducts returns all available products.
	// Returns an empty slice if no products exist.
	GetProducts(ctx context.Context) ([]ProductDto, error)

	// GetProduct retrieves a single product by its unique identifier.
	// Returns ErrProductNotExists if no product exists with the given ID.
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDto, error)

	// CreateProduct assigns a fresh identifier and stores the product.
	CreateProduct(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// UpdateProduct replaces the name and price of an existing product.
	// Returns ErrProductNotExists if no product exists with the given ID.
	UpdateProduct(ctx context.Context, product ProductUpdateDto) (*ProductDto, error)

	// DeleteProduct removes a product by its ID and reports the store's result.
	// Returns ErrProductNotExists if no product exists with the given ID.
	DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service implements ProductService and provides methods to manage products.
// Mutations are serialized so that the existence check and the write happen atomically
// with respect to other mutations issued through the same Service.
type Service struct {
	store     store.ProductStore
	publisher messaging.Publisher
	mu        sync.Mutex

	createdCounter metric.Int64Counter
	updatedCounter metric.Int64Counter
	deletedCounter metric.Int64Counter
}

// NewService creates a new instance of ProductService with the provided store and event publisher.
func NewService(productStore store.ProductStore, publisher messaging.Publisher) *Service {
	meter := otel.Meter("product-service")
	return &Service{
		store:          productStore,
		publisher:      publisher,
		createdCounter: mustCounter(meter, "products_created", "Total number of created products"),
		updatedCounter: mustCounter(meter, "products_updated", "Total number of updated products"),
		deletedCounter: mustCounter(meter, "products_deleted", "Total number of deleted products"),
	}
}

func mustCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		panic(fmt.Sprintf("failed to create %s counter: %v", name, err))
	}
	return counter
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price float64   `json:"price"`
}

// ProductCreateDto represents the data transfer object for creating a new product.
type ProductCreateDto struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ProductUpdateDto represents the data transfer object for updating an existing product.
type ProductUpdateDto struct {
	ID    uuid.UUID `json:"id" validate:"required"`
	Name  string    `json:"name"`
	Price float64   `json:"price"`
}

// GetProducts retrieves all products and returns them as ProductDtos.
func (s *Service) GetProducts(ctx context.Context) ([]ProductDto, error) {
	products, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toDto(&products[i])
	}
	return dtos, nil
}

// GetProduct retrieves a product by its ID and returns it as a ProductDto.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDto, error) {
	product, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	if product == nil {
		return nil, producterrors.ErrProductNotExists
	}
	return toDto(product), nil
}

// CreateProduct stores a new product under a freshly generated ID.
func (s *Service) CreateProduct(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.store.Create(ctx, newProduct(product))
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.publish(ctx, events.ProductCreatedEvent{
		Carrier:    injectCarrier(ctx),
		ProductID:  created.ID,
		Name:       created.Name,
		Price:      created.Price,
		OccurredAt: time.Now().UTC(),
	})
	s.createdCounter.Add(ctx, 1)

	return toDto(created), nil
}

// UpdateProduct overwrites the name and price of an existing product.
func (s *Service) UpdateProduct(ctx context.Context, product ProductUpdateDto) (*ProductDto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureExists(ctx, product.ID); err != nil {
		return nil, err
	}
	updated, err := s.store.Update(ctx, fromUpdate(product))
	if err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", product.ID, err)
	}
	// removed by another writer sharing the store
	if updated == nil {
		return nil, producterrors.ErrProductNotExists
	}

	s.publish(ctx, events.ProductUpdatedEvent{
		Carrier:    injectCarrier(ctx),
		ProductID:  updated.ID,
		Name:       updated.Name,
		Price:      updated.Price,
		OccurredAt: time.Now().UTC(),
	})
	s.updatedCounter.Add(ctx, 1)

	return toDto(updated), nil
}

// DeleteProduct removes an existing product and returns whether the store removed a record.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureExists(ctx, id); err != nil {
		return false, err
	}
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	if deleted {
		s.publish(ctx, events.ProductDeletedEvent{
			Carrier:    injectCarrier(ctx),
			ProductID:  id,
			OccurredAt: time.Now().UTC(),
		})
		s.deletedCounter.Add(ctx, 1)
	}
	return deleted, nil
}

func (s *Service) ensureExists(ctx context.Context, id uuid.UUID) error {
	exists, err := s.store.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check product %s: %w", id, err)
	}
	if !exists {
		return producterrors.ErrProductNotExists
	}
	return nil
}

// publish never fails the calling operation, the mutation is already committed.
func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish product event", "subject", event.Subject(), "error", err)
	}
}

func injectCarrier(ctx context.Context) propagation.MapCarrier {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	if product == nil {
		return nil
	}
	return &ProductDto{
		ID:    product.ID,
		Name:  product.Name,
		Price: product.Price,
	}
}

// newProduct builds the entity for a create request with a new random ID.
func newProduct(dto ProductCreateDto) store.Product {
	return store.Product{
		ID:    uuid.New(),
		Name:  dto.Name,
		Price: dto.Price,
	}
}

func fromUpdate(dto ProductUpdateDto) store.Product {
	return store.Product{
		ID:    dto.ID,
		Name:  dto.Name,
		Price: dto.Price,
	}
}
