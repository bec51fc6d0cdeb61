package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-api/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNameTaken       = errors.New("product name already exists")
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can
// participate in transactions owned by the service layer.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ListFilter narrows List results. Search takes precedence over Category;
// both empty means the full catalog.
type ListFilter struct {
	Search   string
	Category string
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	CreateIfAbsent(ctx context.Context, product *domain.Product) (bool, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindByNameFold(ctx context.Context, name string) (*domain.Product, error)
	FindStockForUpdate(ctx context.Context, id int64) (int, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Product, error)
	Search(ctx context.Context, term string) ([]*domain.Product, error)
	ListAllByName(ctx context.Context) ([]*domain.Product, error)
	WithTx(tx *sql.Tx) ProductRepository
}

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *productRepository) WithTx(tx *sql.Tx) ProductRepository {
	return &productRepository{db: tx}
}

const productColumns = `id, name, unit, category, brand, stock, status, image, price, description, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Unit,
		&p.Category,
		&p.Brand,
		&p.Stock,
		&p.Status,
		&p.Image,
		&p.Price,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Create inserts a new product and fills in the store-assigned id and
// timestamps. A name collision is reported as ErrNameTaken.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, unit, category, brand, stock, status, image, price, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Unit,
		product.Category,
		product.Brand,
		product.Stock,
		product.Status,
		product.Image,
		product.Price,
		product.Description,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// CreateIfAbsent atomically inserts the product unless a product with the
// same name (case-insensitive) already exists. It reports whether a row was
// inserted, removing the check-then-act race between concurrent importers.
func (r *productRepository) CreateIfAbsent(ctx context.Context, product *domain.Product) (bool, error) {
	query := `
		INSERT INTO products (name, unit, category, brand, stock, status, image, price, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (LOWER(name)) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Unit,
		product.Category,
		product.Brand,
		product.Stock,
		product.Status,
		product.Image,
		product.Price,
		product.Description,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			// An identically named product already exists.
			return false, nil
		}
		return false, fmt.Errorf("failed to insert product: %w", err)
	}

	return true, nil
}

// Update rewrites every mutable column of an existing product. The
// updated_at refresh happens in the database trigger.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, unit = $3, category = $4, brand = $5, stock = $6,
		    status = $7, image = $8, price = $9, description = $10
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Unit,
		product.Category,
		product.Brand,
		product.Stock,
		product.Status,
		product.Image,
		product.Price,
		product.Description,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return ErrProductNotFound
		}
		if isUniqueViolation(err) {
			return ErrNameTaken
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product; its audit records go with it via the cascading
// foreign key.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by its id.
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindByNameFold retrieves a product by a case-insensitive exact name match.
func (r *productRepository) FindByNameFold(ctx context.Context, name string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE LOWER(name) = LOWER($1)`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by name: %w", err)
	}

	return product, nil
}

// FindStockForUpdate reads a product's current stock under a row lock, so a
// stock change and its audit record commit as one unit.
func (r *productRepository) FindStockForUpdate(ctx context.Context, id int64) (int, error) {
	query := `SELECT stock FROM products WHERE id = $1 FOR UPDATE`

	var stock int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&stock)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("failed to lock product row: %w", err)
	}

	return stock, nil
}

// List retrieves the catalog, most recently created first. A search term
// takes precedence over a category filter.
func (r *productRepository) List(ctx context.Context, filter ListFilter) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}

	switch {
	case filter.Search != "":
		query += ` WHERE name ILIKE $1`
		args = append(args, "%"+filter.Search+"%")
	case filter.Category != "":
		query += ` WHERE category = $1`
		args = append(args, filter.Category)
	}

	query += ` ORDER BY created_at DESC`

	return r.queryProducts(ctx, query, args...)
}

// Search finds products whose name contains the term, case-insensitively,
// ordered alphabetically.
func (r *productRepository) Search(ctx context.Context, term string) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE name ILIKE $1 ORDER BY name`

	return r.queryProducts(ctx, query, "%"+term+"%")
}

// ListAllByName retrieves the full catalog ordered by name ascending.
func (r *productRepository) ListAllByName(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name ASC`

	return r.queryProducts(ctx, query)
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
