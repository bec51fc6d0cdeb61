package transport

import (
	"bytes"
	"encoding/csv"
	"io"
	"net/http"
	"strconv"
	"strings"

	"inventory-api/internal/domain"
	"inventory-api/internal/metrics"
	"inventory-api/internal/middleware"
	"inventory-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxImportBytes caps the accepted upload size for bulk imports.
const maxImportBytes = 10 << 20

// InventoryHandler handles bulk import/export and audit trail requests.
type InventoryHandler struct {
	inventory service.InventoryService
	logger    *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventory service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		logger:    logger,
	}
}

// RegisterRoutes registers all inventory routes. The optional limiter guards
// the import endpoint.
func (h *InventoryHandler) RegisterRoutes(r chi.Router, limiter func(http.Handler) http.Handler) {
	r.Route("/api/inventory", func(r chi.Router) {
		if limiter != nil {
			r.With(limiter).Post("/import", h.Import)
		} else {
			r.Post("/import", h.Import)
		}
		r.Get("/export", h.Export)
		r.Get("/{id}/history", h.History)
	})
}

// Import accepts a multipart CSV upload (field "csvFile"), parses it into
// rows and hands the batch to the reconciler.
func (h *InventoryHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	file, _, err := r.FormFile("csvFile")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "No CSV file uploaded")
		return
	}
	defer file.Close()

	rows, err := parseImportRows(file)
	if err != nil {
		h.logger.Debug("CSV parse failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "Error parsing CSV file")
		return
	}

	result, err := h.inventory.Import(r.Context(), rows)
	if err != nil {
		h.logger.Error("Import failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	metrics.ImportRows.WithLabelValues("added").Add(float64(result.Added))
	metrics.ImportRows.WithLabelValues("skipped").Add(float64(result.Skipped))
	metrics.ImportRows.WithLabelValues("duplicate").Add(float64(len(result.Duplicates)))

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Export streams the catalog as an attachment named products.csv.
func (h *InventoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.inventory.ExportCSV(r.Context(), &buf); err != nil {
		h.logger.Error("Export failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	metrics.Exports.Inc()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="products.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// History returns a product's stock change records, most recent first. An
// unknown id yields an empty array rather than a 404.
func (h *InventoryHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	records, err := h.inventory.History(r.Context(), id)
	if err != nil {
		h.logger.Error("History lookup failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, records)
}

// parseImportRows reads a header-keyed CSV document into import rows.
// Unknown columns are ignored; missing columns come through as empty text.
func parseImportRows(r io.Reader) ([]domain.ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []domain.ImportRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rows = append(rows, domain.ImportRow{
			Name:     field(record, "name"),
			Unit:     field(record, "unit"),
			Category: field(record, "category"),
			Brand:    field(record, "brand"),
			Stock:    field(record, "stock"),
			Status:   field(record, "status"),
			Image:    field(record, "image"),
		})
	}

	return rows, nil
}
