package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"
)

// DefaultActor labels stock changes when no authenticated identity is
// attached to the request.
const DefaultActor = "admin"

var (
	ErrInvalidProduct  = errors.New("invalid product")
	ErrEmptySearchTerm = errors.New("search term is required")
)

// ProductInput carries the client-writable fields of a product. Status is
// deliberately absent: it is always derived from Stock.
type ProductInput struct {
	Name        string
	Unit        string
	Category    string
	Brand       string
	Stock       int
	Image       string
	Price       float64
	Description string
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	List(ctx context.Context, search, category string) ([]*domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Search(ctx context.Context, term string) ([]*domain.Product, error)
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, input ProductInput, actor string) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	db       *sql.DB
	products repository.ProductRepository
	history  repository.HistoryRepository
}

// NewProductService creates a new instance of ProductService. The *sql.DB is
// needed for transaction boundaries around update-plus-audit.
func NewProductService(
	db *sql.DB,
	products repository.ProductRepository,
	history repository.HistoryRepository,
) ProductService {
	return &productService{
		db:       db,
		products: products,
		history:  history,
	}
}

func validateInput(input ProductInput) error {
	switch {
	case strings.TrimSpace(input.Name) == "":
		return fmt.Errorf("name is required: %w", ErrInvalidProduct)
	case strings.TrimSpace(input.Unit) == "":
		return fmt.Errorf("unit is required: %w", ErrInvalidProduct)
	case strings.TrimSpace(input.Category) == "":
		return fmt.Errorf("category is required: %w", ErrInvalidProduct)
	case strings.TrimSpace(input.Brand) == "":
		return fmt.Errorf("brand is required: %w", ErrInvalidProduct)
	case input.Stock < 0:
		return fmt.Errorf("stock must be a non-negative integer: %w", ErrInvalidProduct)
	case input.Price < 0:
		return fmt.Errorf("price must be non-negative: %w", ErrInvalidProduct)
	}
	return nil
}

func productFromInput(input ProductInput) *domain.Product {
	return &domain.Product{
		Name:        input.Name,
		Unit:        input.Unit,
		Category:    input.Category,
		Brand:       input.Brand,
		Stock:       input.Stock,
		Status:      domain.StatusForStock(input.Stock),
		Image:       input.Image,
		Price:       input.Price,
		Description: input.Description,
	}
}

// List returns the catalog newest first, optionally narrowed by a name
// substring search or an exact category. Search wins when both are present;
// the category value "all" means no category filter.
func (s *productService) List(ctx context.Context, search, category string) ([]*domain.Product, error) {
	if category == "all" {
		category = ""
	}
	return s.products.List(ctx, repository.ListFilter{
		Search:   strings.TrimSpace(search),
		Category: category,
	})
}

// Get retrieves a single product by id.
func (s *productService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

// Search finds products whose name contains the term, ordered alphabetically.
// An empty term is an error rather than a full-catalog query.
func (s *productService) Search(ctx context.Context, term string) ([]*domain.Product, error) {
	if strings.TrimSpace(term) == "" {
		return nil, ErrEmptySearchTerm
	}
	return s.products.Search(ctx, term)
}

// Create validates the input, derives the status and persists a new product.
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	product := productFromInput(input)
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Update rewrites a product. When the stock quantity changes, the audit
// record is written in the same transaction as the product row, so either
// both persist or neither does.
func (s *productService) Update(ctx context.Context, id int64, input ProductInput, actor string) (*domain.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if actor == "" {
		actor = DefaultActor
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	products := s.products.WithTx(tx)

	oldStock, err := products.FindStockForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	product := productFromInput(input)
	product.ID = id
	if err := products.Update(ctx, product); err != nil {
		return nil, err
	}

	if oldStock != product.Stock {
		if err := s.history.WithTx(tx).Record(ctx, id, oldStock, product.Stock, actor); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}

	return product, nil
}

// Delete removes a product together with its audit trail.
func (s *productService) Delete(ctx context.Context, id int64) error {
	return s.products.Delete(ctx, id)
}
