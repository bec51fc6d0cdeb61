package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const migrationsDir = "../../migrations"

func TestMigrationFilesExist(t *testing.T) {
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	expectedMigrations := []string{
		"00001_create_products_table.sql",
		"00002_create_inventory_history_table.sql",
		"00003_create_updated_at_trigger.sql",
		"00004_seed_products.sql",
	}

	for _, migration := range expectedMigrations {
		path := filepath.Join(migrationsDir, migration)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", file.Name(), err)
			continue
		}

		contentStr := string(content)

		if !strings.Contains(contentStr, "-- +goose Up") {
			t.Errorf("Migration file %s missing '-- +goose Up' directive", file.Name())
		}
		if !strings.Contains(contentStr, "-- +goose Down") {
			t.Errorf("Migration file %s missing '-- +goose Down' directive", file.Name())
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	expectedTables := map[string]string{
		"products":          "00001_create_products_table.sql",
		"inventory_history": "00002_create_inventory_history_table.sql",
	}

	for table, file := range expectedTables {
		content, err := os.ReadFile(filepath.Join(migrationsDir, file))
		if err != nil {
			t.Fatalf("Failed to read migration file %s: %v", file, err)
		}

		contentStr := string(content)

		if !strings.Contains(contentStr, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("Migration %s does not create table %s", file, table)
		}
		if !strings.Contains(contentStr, "DROP TABLE IF EXISTS "+table) {
			t.Errorf("Migration %s does not drop table %s on rollback", file, table)
		}
	}
}

func TestProductsTableEnforcesCaseInsensitiveNames(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(migrationsDir, "00001_create_products_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read products migration: %v", err)
	}

	if !strings.Contains(string(content), "UNIQUE INDEX") ||
		!strings.Contains(string(content), "LOWER(name)") {
		t.Error("Products migration must declare a unique index on LOWER(name)")
	}
}

func TestHistoryTableCascadesOnProductDelete(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(migrationsDir, "00002_create_inventory_history_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read history migration: %v", err)
	}

	if !strings.Contains(string(content), "ON DELETE CASCADE") {
		t.Error("History migration must cascade deletes from products")
	}
}
