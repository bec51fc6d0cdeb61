package transport

import (
	"errors"
	"net/http"
	"strconv"

	"inventory-api/internal/middleware"
	"inventory-api/internal/repository"
	"inventory-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductRequest is the create/update payload. Stock is a pointer so a
// missing field is distinguishable from an explicit zero.
type ProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Unit        string  `json:"unit" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	Brand       string  `json:"brand" validate:"required"`
	Stock       *int    `json:"stock" validate:"required,gte=0"`
	Image       string  `json:"image"`
	Price       float64 `json:"price" validate:"gte=0"`
	Description string  `json:"description"`
}

func (req *ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Name:        req.Name,
		Unit:        req.Unit,
		Category:    req.Category,
		Brand:       req.Brand,
		Stock:       *req.Stock,
		Image:       req.Image,
		Price:       req.Price,
		Description: req.Description,
	}
}

// ProductHandler handles HTTP requests for catalog operations
type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.Get("/{id}", h.Get)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List returns the catalog, optionally filtered by ?search= or ?category=.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	category := r.URL.Query().Get("category")

	products, err := h.products.List(r.Context(), search, category)
	if err != nil {
		h.respondError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Search handles ?name= substring lookups.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("name")

	products, err := h.products.Search(r.Context(), term)
	if err != nil {
		if errors.Is(err, service.ErrEmptySearchTerm) {
			middleware.RespondWithError(w, http.StatusBadRequest, "Name parameter is required")
			return
		}
		h.respondError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Get returns a single product.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create handles new product registration.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.Create(r.Context(), req.toInput())
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("name", product.Name),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update rewrites an existing product and audits any stock change.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := middleware.GetActor(r.Context())
	product, err := h.products.Update(r.Context(), id, req.toInput(), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("Product updated",
		zap.Int64("product_id", product.ID),
		zap.String("actor", actor),
	)
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete removes a product and, by cascade, its audit trail.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.Info("Product deleted", zap.Int64("product_id", id))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return 0, false
	}
	return id, true
}

// respondError maps service and repository errors to the HTTP contract:
// NotFound to 404, Conflict and InvalidArgument to 400, anything else is a
// storage fault reported as 503.
func (h *ProductHandler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, repository.ErrNameTaken):
		middleware.RespondWithError(w, http.StatusBadRequest, "Product name already exists")
	case errors.Is(err, service.ErrInvalidProduct):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Storage failure", zap.Error(err))
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "storage unavailable")
	}
}
