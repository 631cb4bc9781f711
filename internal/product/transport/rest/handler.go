// Package rest provides HTTP handlers for product-related operations.
package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/abgdnv/products/internal/platform/web"
	producterrors "github.com/abgdnv/products/internal/product/errors"
	"github.com/abgdnv/products/internal/product/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new product Handler backed by the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the product service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.GetProducts)
		r.Post("/", h.CreateProduct)
		r.Put("/", h.UpdateProduct)

		r.Get("/{id}", h.GetProduct)
		r.Delete("/{id}", h.DeleteProduct)
	})

	r.Get("/healthz", h.HealthCheck)
}

// GetProducts returns every product.
func (h *Handler) GetProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.GetProducts(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// GetProduct retrieves a product by its ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}

	found, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve product")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// CreateProduct stores a new product and returns it with its assigned ID.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var createDto service.ProductCreateDto
	if !web.DecodeValid(w, r, h.logger, h.validate, &createDto) {
		return
	}

	created, err := h.service.CreateProduct(r.Context(), createDto)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to create product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, created)
}

// UpdateProduct replaces the name and price of the product identified in the body.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var updateDto service.ProductUpdateDto
	if !web.DecodeValid(w, r, h.logger, h.validate, &updateDto) {
		return
	}

	updated, err := h.service.UpdateProduct(r.Context(), updateDto)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to update product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

// DeleteProduct removes a product by its ID. Success has an empty body.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteProduct(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to delete product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted", "ID", id, "deleted", deleted)
	w.WriteHeader(http.StatusOK)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// respondServiceError maps ErrProductNotExists to 404 with its message and everything else to 500.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if errors.Is(err, producterrors.ErrProductNotExists) {
		h.logger.WarnContext(r.Context(), "Product not exists", "path", r.URL.Path)
		web.RespondError(w, h.logger, http.StatusNotFound, err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), fallback, "error", err)
	web.RespondError(w, h.logger, http.StatusInternalServerError, fallback)
}
