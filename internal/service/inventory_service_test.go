package service

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"inventory-api/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newInventoryFixture() (*mockProductRepository, *mockHistoryRepository, InventoryService) {
	products := newMockProductRepository()
	history := &mockHistoryRepository{}
	svc := NewInventoryService(products, history, zap.NewNop())
	return products, history, svc
}

func importRow(name, stock string) domain.ImportRow {
	return domain.ImportRow{
		Name:     name,
		Unit:     "piece",
		Category: "Electronics",
		Brand:    "Acme",
		Stock:    stock,
		Status:   "whatever the feed says",
		Image:    "https://example.com/img.jpg",
	}
}

func TestImport_EmptyBatch(t *testing.T) {
	products, _, svc := newInventoryFixture()

	result, err := svc.Import(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Duplicates)
	assert.Empty(t, products.products, "empty batch must not touch the store")
}

func TestImport_CaseInsensitiveDuplicateDetection(t *testing.T) {
	products, _, svc := newInventoryFixture()
	ctx := context.Background()

	existing := &domain.Product{Name: "Widget", Unit: "piece", Category: "Misc", Brand: "Acme", Stock: 1, Status: domain.StatusInStock}
	require.NoError(t, products.Create(ctx, existing))

	result, err := svc.Import(ctx, []domain.ImportRow{
		importRow("widget", "5"),
		importRow("Gadget", "5"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, "widget", result.Duplicates[0].Name)
	assert.Equal(t, existing.ID, result.Duplicates[0].ExistingID)

	// The duplicate row was not applied: the existing product is untouched.
	kept, err := products.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, kept.Stock)
}

func TestImport_DerivesStatusAndDefaultsStock(t *testing.T) {
	products, _, svc := newInventoryFixture()
	ctx := context.Background()

	result, err := svc.Import(ctx, []domain.ImportRow{
		importRow("Stocked", "7"),
		importRow("Empty", "0"),
		importRow("Garbage", "not-a-number"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Added)

	stocked, err := products.FindByNameFold(ctx, "stocked")
	require.NoError(t, err)
	assert.Equal(t, 7, stocked.Stock)
	assert.Equal(t, domain.StatusInStock, stocked.Status)

	empty, err := products.FindByNameFold(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOutOfStock, empty.Status)

	garbage, err := products.FindByNameFold(ctx, "garbage")
	require.NoError(t, err)
	assert.Equal(t, 0, garbage.Stock, "unparseable stock defaults to zero")
	assert.Equal(t, domain.StatusOutOfStock, garbage.Status)
}

func TestImport_RowFailureDoesNotAbortBatch(t *testing.T) {
	products, _, svc := newInventoryFixture()
	ctx := context.Background()

	// First row trips a storage fault, then the store recovers.
	products.failWith = errors.New("connection reset")
	result, err := svc.Import(ctx, []domain.ImportRow{importRow("Flaky", "1")})
	require.NoError(t, err, "per-row failures are aggregated, not propagated")
	assert.Equal(t, 1, result.Skipped)

	products.failWith = nil
	result, err = svc.Import(ctx, []domain.ImportRow{importRow("Flaky", "1"), importRow("Solid", "2")})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
}

func TestImport_BlankNameIsSkipped(t *testing.T) {
	_, _, svc := newInventoryFixture()

	result, err := svc.Import(context.Background(), []domain.ImportRow{importRow("   ", "3")})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 1, result.Skipped)
}

func TestProperty_ImportAccountsForEveryRowExactlyOnce(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("added + skipped + duplicates equals the input size", prop.ForAll(
		func(names []string) bool {
			products, _, svc := newInventoryFixture()

			rows := make([]domain.ImportRow, 0, len(names))
			for i, name := range names {
				rows = append(rows, importRow(name, strconv.Itoa(i)))
			}

			result, err := svc.Import(context.Background(), rows)
			if err != nil {
				return false
			}

			total := result.Added + result.Skipped + len(result.Duplicates)
			if total != len(rows) {
				return false
			}
			return len(products.products) == result.Added
		},
		gen.SliceOf(gen.OneConstOf("Widget", "widget", "WIDGET", "Gadget", "", "Thing")),
	))

	properties.TestingRun(t)
}

func TestExportCSV_HeaderQuotingAndOrder(t *testing.T) {
	products, _, svc := newInventoryFixture()
	ctx := context.Background()

	require.NoError(t, products.Create(ctx, &domain.Product{
		Name: "Zebra Print", Unit: "piece", Category: "Decor", Brand: "Acme", Stock: 3,
	}))
	require.NoError(t, products.Create(ctx, &domain.Product{
		Name: `24" Monitor, curved`, Unit: "piece", Category: "Electronics", Brand: "Dell", Stock: 0,
	}))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,unit,category,brand,stock,status,image", lines[0])

	// Rows are ordered by name ascending; embedded quotes are doubled.
	assert.Equal(t, `"24"" Monitor, curved","piece","Electronics","Dell",0,"Out of Stock",""`, lines[1])
	assert.Equal(t, `"Zebra Print","piece","Decor","Acme",3,"In Stock",""`, lines[2])
}

func TestExportCSV_EmptyCatalog(t *testing.T) {
	_, _, svc := newInventoryFixture()

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf))
	assert.Equal(t, "name,unit,category,brand,stock,status,image\n", buf.String())
}

func TestHistory_UnknownProductYieldsEmptyTrail(t *testing.T) {
	_, _, svc := newInventoryFixture()

	records, err := svc.History(context.Background(), 9999)
	require.NoError(t, err)
	assert.Empty(t, records)
}
