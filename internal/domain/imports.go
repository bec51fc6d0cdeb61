package domain

// ImportRow is one already-parsed row from a bulk import feed. All values are
// raw text; Stock is parsed (and defaulted) by the reconciler.
type ImportRow struct {
	Name     string
	Unit     string
	Category string
	Brand    string
	Stock    string
	Status   string
	Image    string
}

// Duplicate identifies an import row that collided with an existing product.
type Duplicate struct {
	Name       string `json:"name"`
	ExistingID int64  `json:"existingId"`
}

// ImportResult aggregates the outcome of a bulk import. Every input row is
// accounted for exactly once: Added + Skipped + len(Duplicates) equals the
// number of rows in the batch.
type ImportResult struct {
	Added      int         `json:"added"`
	Skipped    int         `json:"skipped"`
	Duplicates []Duplicate `json:"duplicates"`
}
