package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/procurement-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestPurchaseOrderMigrationCascadesChildren(t *testing.T) {
	content := readMigration(t, "create_purchase_orders")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS purchase_orders",
		"CREATE TABLE IF NOT EXISTS purchase_order_items",
		"CREATE TABLE IF NOT EXISTS purchase_order_history",
		"CREATE TABLE IF NOT EXISTS purchase_order_attachments",
		"FOREIGN KEY (order_id) REFERENCES purchase_orders(id) ON DELETE CASCADE",
		"FOREIGN KEY (supplier_id) REFERENCES suppliers(id) ON DELETE RESTRICT",
		"DROP TABLE IF EXISTS purchase_orders",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
	if got := strings.Count(content, "ON DELETE CASCADE"); got != 3 {
		t.Errorf("expected 3 cascading child tables, got %d", got)
	}
}

func TestSupplierMigrationEnforcesUniqueRUC(t *testing.T) {
	content := readMigration(t, "create_suppliers")
	for _, sub := range []string{"CONSTRAINT suppliers_ruc_key UNIQUE (ruc)", "DROP TABLE IF EXISTS suppliers"} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSequenceMigrationKeyedByYear(t *testing.T) {
	content := readMigration(t, "create_purchase_order_sequences")
	if !strings.Contains(content, "year INT PRIMARY KEY") {
		t.Errorf("expected the sequence table to be keyed by year")
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Supplier Ratings!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_supplier_ratings.sql") {
		t.Fatalf("unexpected filename %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration failed validation: %v", err)
	}
}

func TestValidateDirRejectsBrokenFiles(t *testing.T) {
	cases := map[string]string{
		"20250101000000_no_down.sql":    "-- +goose Up\nSELECT 1;\n",
		"20250101000000_reversed.sql":   "-- +goose Down\nSELECT 1;\n-- +goose Up\nSELECT 1;\n",
		"20250101000000_unbalanced.sql": "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\nSELECT 1;\n",
		"2025_bad_name.sql":             "-- +goose Up\n-- +goose Down\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			if err := migrate.ValidateDir(dir); err == nil {
				t.Fatalf("expected %s to fail validation", name)
			}
		})
	}
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	if _, err := migrate.CreateSQLMigration(t.TempDir(), "!!!"); err == nil {
		t.Fatal("expected an error for a name without usable characters")
	}
}

func TestParseCommand(t *testing.T) {
	cmd, err := migrate.ParseCommand(" UP ")
	if err != nil || cmd != migrate.CommandUp {
		t.Fatalf("ParseCommand(UP) = %q, %v", cmd, err)
	}
	if !cmd.NeedsDB() {
		t.Fatal("up must need the database")
	}
	for _, offline := range []migrate.Command{migrate.CommandCreate, migrate.CommandValidate} {
		if offline.NeedsDB() {
			t.Fatalf("%s must not need the database", offline)
		}
	}
	if _, err := migrate.ParseCommand("redo"); err == nil {
		t.Fatal("expected redo to be rejected")
	}
}

func TestRunRejectsNilDB(t *testing.T) {
	if err := migrate.Run(context.Background(), nil, "migrations", migrate.CommandUp); err == nil {
		t.Fatal("expected an error without a database")
	}
}
