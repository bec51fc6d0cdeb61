package service

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// exportHeader is the fixed first line of an export document.
const exportHeader = "name,unit,category,brand,stock,status,image"

// InventoryService covers the batch side of the catalog: bulk import
// reconciliation, bulk export and the per-product audit trail.
type InventoryService interface {
	Import(ctx context.Context, rows []domain.ImportRow) (*domain.ImportResult, error)
	ExportCSV(ctx context.Context, w io.Writer) error
	History(ctx context.Context, productID int64) ([]*domain.StockChangeRecord, error)
}

type inventoryService struct {
	products repository.ProductRepository
	history  repository.HistoryRepository
	logger   *zap.Logger
}

// NewInventoryService creates a new instance of InventoryService
func NewInventoryService(
	products repository.ProductRepository,
	history repository.HistoryRepository,
	logger *zap.Logger,
) InventoryService {
	return &inventoryService{
		products: products,
		history:  history,
		logger:   logger,
	}
}

// Import applies an add-or-skip policy to each row in input order. A row
// whose name matches an existing product (case-insensitive) is reported as a
// duplicate and never applied; a fresh name is inserted with its status
// derived from the parsed stock; any per-row failure skips that row and the
// batch continues. Every row is accounted for exactly once.
func (s *inventoryService) Import(ctx context.Context, rows []domain.ImportRow) (*domain.ImportResult, error) {
	result := &domain.ImportResult{Duplicates: []domain.Duplicate{}}
	if len(rows) == 0 {
		return result, nil
	}

	batchID := uuid.New().String()
	log := s.logger.With(
		zap.String("batch_id", batchID),
		zap.Int("rows", len(rows)),
	)
	log.Info("Starting product import")

	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			result.Skipped++
			continue
		}

		stock, err := strconv.Atoi(strings.TrimSpace(row.Stock))
		if err != nil || stock < 0 {
			stock = 0
		}

		// Any status value present in the row is overridden by derivation.
		product := &domain.Product{
			Name:     name,
			Unit:     row.Unit,
			Category: row.Category,
			Brand:    row.Brand,
			Stock:    stock,
			Status:   domain.StatusForStock(stock),
			Image:    row.Image,
		}

		created, err := s.products.CreateIfAbsent(ctx, product)
		if err != nil {
			log.Warn("Import row failed",
				zap.String("name", name),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}
		if created {
			result.Added++
			continue
		}

		existing, err := s.products.FindByNameFold(ctx, name)
		if err != nil {
			// The colliding product vanished between the insert attempt and
			// the lookup; the row was not applied either way.
			log.Warn("Import duplicate lookup failed",
				zap.String("name", name),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}

		result.Duplicates = append(result.Duplicates, domain.Duplicate{
			Name:       name,
			ExistingID: existing.ID,
		})
	}

	log.Info("Product import finished",
		zap.Int("added", result.Added),
		zap.Int("skipped", result.Skipped),
		zap.Int("duplicates", len(result.Duplicates)),
	)

	return result, nil
}

// ExportCSV writes the full catalog, ordered by name ascending, as a CSV
// document. Text fields are always quoted with embedded quotes doubled;
// numeric fields are written bare.
func (s *inventoryService) ExportCSV(ctx context.Context, w io.Writer) error {
	products, err := s.products.ListAllByName(ctx)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(exportHeader + "\n"); err != nil {
		return err
	}

	for _, p := range products {
		fields := []string{
			quoteCSV(p.Name),
			quoteCSV(p.Unit),
			quoteCSV(p.Category),
			quoteCSV(p.Brand),
			strconv.Itoa(p.Stock),
			quoteCSV(domain.StatusForStock(p.Stock)),
			quoteCSV(p.Image),
		}
		if _, err := bw.WriteString(strings.Join(fields, ",") + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// History returns a product's audit trail, most recent first. An unknown
// product id yields an empty trail.
func (s *inventoryService) History(ctx context.Context, productID int64) ([]*domain.StockChangeRecord, error) {
	return s.history.ListForProduct(ctx, productID)
}

// quoteCSV wraps a text field in double quotes, doubling any embedded
// quote characters.
func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
