package repository

import (
	"context"
	"database/sql"
	"fmt"

	"inventory-api/internal/domain"
)

// HistoryRepository is the append-only store for stock change records.
// Records are never updated; deletion happens only through the cascading
// foreign key when the owning product is removed.
type HistoryRepository interface {
	Record(ctx context.Context, productID int64, oldStock, newStock int, changedBy string) error
	ListForProduct(ctx context.Context, productID int64) ([]*domain.StockChangeRecord, error)
	WithTx(tx *sql.Tx) HistoryRepository
}

type historyRepository struct {
	db DBTX
}

// NewHistoryRepository creates a new instance of HistoryRepository
func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *historyRepository) WithTx(tx *sql.Tx) HistoryRepository {
	return &historyRepository{db: tx}
}

// Record appends one stock change record.
func (r *historyRepository) Record(ctx context.Context, productID int64, oldStock, newStock int, changedBy string) error {
	query := `
		INSERT INTO inventory_history (product_id, old_stock, new_stock, changed_by)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, productID, oldStock, newStock, changedBy)
	if err != nil {
		return fmt.Errorf("failed to record stock change: %w", err)
	}

	return nil
}

// ListForProduct returns the product's audit trail, most recent first. An
// unknown product id yields an empty slice, not an error; no existence check
// is performed at this boundary.
func (r *historyRepository) ListForProduct(ctx context.Context, productID int64) ([]*domain.StockChangeRecord, error) {
	query := `
		SELECT id, product_id, old_stock, new_stock, changed_by, changed_at
		FROM inventory_history
		WHERE product_id = $1
		ORDER BY changed_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock changes: %w", err)
	}
	defer rows.Close()

	records := []*domain.StockChangeRecord{}
	for rows.Next() {
		rec := &domain.StockChangeRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.ProductID,
			&rec.OldStock,
			&rec.NewStock,
			&rec.ChangedBy,
			&rec.ChangedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock change: %w", err)
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock changes: %w", err)
	}

	return records, nil
}
