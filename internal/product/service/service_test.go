package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/abgdnv/products/internal/platform/messaging"
	"github.com/abgdnv/products/internal/platform/messaging/events"
	producterrors "github.com/abgdnv/products/internal/product/errors"
	"github.com/abgdnv/products/internal/product/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProductStore is a mock implementation of the ProductStore interface.
// It records the mutating calls so tests can assert that preconditions short-circuit them.
type mockProductStore struct {
	products []store.Product
	product  *store.Product
	exists   bool
	deleted  bool
	error    error

	existsError error
	updateCalls int
	deleteCalls int
}

func (m *mockProductStore) List(_ context.Context) ([]store.Product, error) {
	return m.products, m.error
}

func (m *mockProductStore) Get(_ context.Context, _ uuid.UUID) (*store.Product, error) {
	return m.product, m.error
}

func (m *mockProductStore) Exists(_ context.Context, _ uuid.UUID) (bool, error) {
	return m.exists, m.existsError
}

func (m *mockProductStore) Create(_ context.Context, p store.Product) (*store.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &p, nil
}

func (m *mockProductStore) Update(_ context.Context, p store.Product) (*store.Product, error) {
	m.updateCalls++
	if m.error != nil {
		return nil, m.error
	}
	if m.product == nil {
		return nil, nil
	}
	return &p, nil
}

func (m *mockProductStore) Delete(_ context.Context, _ uuid.UUID) (bool, error) {
	m.deleteCalls++
	return m.deleted, m.error
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

var errStore = errors.New("store error")

func Test_ProductService_GetProduct(t *testing.T) {
	mockID := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		expected    *ProductDto
		expectError error
	}{
		{
			name:      "Success - product found",
			mockStore: &mockProductStore{product: &store.Product{ID: mockID, Name: "Toy", Price: 9.5}},
			expected:  &ProductDto{ID: mockID, Name: "Toy", Price: 9.5},
		},
		{
			name:        "Error - product absent",
			mockStore:   &mockProductStore{},
			expectError: producterrors.ErrProductNotExists,
		},
		{
			name:        "Error - store failure",
			mockStore:   &mockProductStore{error: errStore},
			expectError: errStore,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore, &recordingPublisher{})
			// when
			found, err := service.GetProduct(context.Background(), mockID)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, found)
		})
	}
}

func Test_ProductService_GetProducts(t *testing.T) {
	mockID := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		expected    []ProductDto
		expectError error
	}{
		{
			name:      "Success - products found",
			mockStore: &mockProductStore{products: []store.Product{{ID: mockID, Name: "Toy", Price: 1}}},
			expected:  []ProductDto{{ID: mockID, Name: "Toy", Price: 1}},
		},
		{
			name:      "Success - no products",
			mockStore: &mockProductStore{},
			expected:  []ProductDto{},
		},
		{
			name:        "Error - store failure",
			mockStore:   &mockProductStore{error: errStore},
			expectError: errStore,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := NewService(tc.mockStore, &recordingPublisher{})
			// when
			list, err := service.GetProducts(context.Background())
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, list)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, list)
		})
	}
}

func Test_ProductService_CreateProduct(t *testing.T) {
	t.Run("Success - fresh id and created event", func(t *testing.T) {
		// given
		publisher := &recordingPublisher{}
		service := NewService(&mockProductStore{}, publisher)

		// when
		first, err1 := service.CreateProduct(context.Background(), ProductCreateDto{Name: "Product1", Price: 100})
		second, err2 := service.CreateProduct(context.Background(), ProductCreateDto{Name: "Product1", Price: 100})

		// then
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.NotEqual(t, uuid.Nil, first.ID)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, "Product1", first.Name)
		assert.Equal(t, 100.0, first.Price)
		require.Len(t, publisher.events, 2)
		created, ok := publisher.events[0].(events.ProductCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, first.ID, created.ProductID)
	})

	t.Run("Error - store failure publishes nothing", func(t *testing.T) {
		publisher := &recordingPublisher{}
		service := NewService(&mockProductStore{error: errStore}, publisher)

		created, err := service.CreateProduct(context.Background(), ProductCreateDto{Name: "Product1"})

		assert.ErrorIs(t, err, errStore)
		assert.Nil(t, created)
		assert.Empty(t, publisher.events)
	})

	t.Run("Success - publish failure does not fail the operation", func(t *testing.T) {
		publisher := &recordingPublisher{err: errors.New("broker down")}
		service := NewService(&mockProductStore{}, publisher)

		created, err := service.CreateProduct(context.Background(), ProductCreateDto{Name: "Product1"})

		require.NoError(t, err)
		assert.NotNil(t, created)
	})
}

func Test_ProductService_UpdateProduct(t *testing.T) {
	mockID := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	testCases := []struct {
		name                string
		mockStore           *mockProductStore
		expected            *ProductDto
		expectError         error
		expectedUpdateCalls int
		expectedEvents      int
	}{
		{
			name:                "Success - product updated",
			mockStore:           &mockProductStore{exists: true, product: &store.Product{ID: mockID}},
			expected:            &ProductDto{ID: mockID, Name: "Product1", Price: 150},
			expectedUpdateCalls: 1,
			expectedEvents:      1,
		},
		{
			name:                "Error - product does not exist, update not attempted",
			mockStore:           &mockProductStore{exists: false},
			expectError:         producterrors.ErrProductNotExists,
			expectedUpdateCalls: 0,
		},
		{
			name:                "Error - product removed between check and update",
			mockStore:           &mockProductStore{exists: true},
			expectError:         producterrors.ErrProductNotExists,
			expectedUpdateCalls: 1,
		},
		{
			name:                "Error - exists check fails",
			mockStore:           &mockProductStore{existsError: errStore},
			expectError:         errStore,
			expectedUpdateCalls: 0,
		},
		{
			name:                "Error - store update fails",
			mockStore:           &mockProductStore{exists: true, error: errStore},
			expectError:         errStore,
			expectedUpdateCalls: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			publisher := &recordingPublisher{}
			service := NewService(tc.mockStore, publisher)
			// when
			updated, err := service.UpdateProduct(context.Background(), ProductUpdateDto{ID: mockID, Name: "Product1", Price: 150})
			// then
			assert.Equal(t, tc.expectedUpdateCalls, tc.mockStore.updateCalls)
			assert.Len(t, publisher.events, tc.expectedEvents)
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, updated)
		})
	}
}

func Test_ProductService_UpdateProduct_NotExistsIsUnwrapped(t *testing.T) {
	service := NewService(&mockProductStore{}, &recordingPublisher{})

	_, err := service.UpdateProduct(context.Background(), ProductUpdateDto{ID: uuid.New()})

	require.Error(t, err)
	assert.Equal(t, "Product not exists", err.Error())
}

func Test_ProductService_DeleteProduct(t *testing.T) {
	mockID := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	testCases := []struct {
		name                string
		mockStore           *mockProductStore
		expected            bool
		expectError         error
		expectedDeleteCalls int
		expectedEvents      int
	}{
		{
			name:                "Success - product deleted",
			mockStore:           &mockProductStore{exists: true, deleted: true},
			expected:            true,
			expectedDeleteCalls: 1,
			expectedEvents:      1,
		},
		{
			name:                "Success - store reports nothing removed",
			mockStore:           &mockProductStore{exists: true, deleted: false},
			expected:            false,
			expectedDeleteCalls: 1,
		},
		{
			name:                "Error - product does not exist, delete not attempted",
			mockStore:           &mockProductStore{exists: false},
			expectError:         producterrors.ErrProductNotExists,
			expectedDeleteCalls: 0,
		},
		{
			name:                "Error - store delete fails",
			mockStore:           &mockProductStore{exists: true, error: errStore},
			expectError:         errStore,
			expectedDeleteCalls: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			publisher := &recordingPublisher{}
			service := NewService(tc.mockStore, publisher)
			// when
			deleted, err := service.DeleteProduct(context.Background(), mockID)
			// then
			assert.Equal(t, tc.expectedDeleteCalls, tc.mockStore.deleteCalls)
			assert.Len(t, publisher.events, tc.expectedEvents)
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.False(t, deleted)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, deleted)
		})
	}
}

func Test_ProductService_Lifecycle(t *testing.T) {
	// given
	ctx := context.Background()
	service := NewService(store.NewInMemoryStore(), messaging.NoopPublisher{})

	// when
	created, err := service.CreateProduct(ctx, ProductCreateDto{Name: "Product1", Price: 100})
	require.NoError(t, err)

	// then
	found, err := service.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, found)

	updated, err := service.UpdateProduct(ctx, ProductUpdateDto{ID: created.ID, Name: "Product1", Price: 150})
	require.NoError(t, err)
	assert.Equal(t, &ProductDto{ID: created.ID, Name: "Product1", Price: 150}, updated)

	found, err = service.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, found.Price)

	deleted, err := service.DeleteProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = service.GetProduct(ctx, created.ID)
	assert.ErrorIs(t, err, producterrors.ErrProductNotExists)

	_, err = service.DeleteProduct(ctx, created.ID)
	assert.ErrorIs(t, err, producterrors.ErrProductNotExists)
}

func Test_ProductService_MissingIDLeavesStoreUnchanged(t *testing.T) {
	// given
	ctx := context.Background()
	service := NewService(store.NewInMemoryStore(), messaging.NoopPublisher{})
	_, err := service.CreateProduct(ctx, ProductCreateDto{Name: "Product1", Price: 100})
	require.NoError(t, err)
	before, err := service.GetProducts(ctx)
	require.NoError(t, err)

	// when
	_, updateErr := service.UpdateProduct(ctx, ProductUpdateDto{ID: uuid.New(), Name: "X", Price: 1})
	_, deleteErr := service.DeleteProduct(ctx, uuid.New())

	// then
	assert.ErrorIs(t, updateErr, producterrors.ErrProductNotExists)
	assert.ErrorIs(t, deleteErr, producterrors.ErrProductNotExists)
	after, err := service.GetProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func Test_ProductService_ConcurrentDeleteReportsOneSuccess(t *testing.T) {
	// given
	ctx := context.Background()
	service := NewService(store.NewInMemoryStore(), messaging.NoopPublisher{})
	created, err := service.CreateProduct(ctx, ProductCreateDto{Name: "Product1", Price: 100})
	require.NoError(t, err)

	// when
	const workers = 20
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.DeleteProduct(ctx, created.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	// then
	var succeeded, notExists int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, producterrors.ErrProductNotExists):
			notExists++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, notExists)
}
