package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gymnastic/shopcart-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestInitMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE cart_lines",
		"CHECK (quantity >= 1)",
		"CREATE TABLE user_profile",
		"email        TEXT NOT NULL UNIQUE",
		"CREATE TABLE addresses",
		"REFERENCES user_profile (id) ON DELETE CASCADE",
		"DROP TABLE addresses",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigrationWritesGooseTemplate(t *testing.T) {
	dir := t.TempDir()

	path, err := migrate.CreateSQLMigration(dir, "Add Wishlist Table!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_wishlist_table.sql") {
		t.Fatalf("unexpected filename: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read created migration: %v", err)
	}
	if !strings.Contains(string(data), "-- +goose Up") || !strings.Contains(string(data), "-- +goose Down") {
		t.Fatalf("missing goose headers in %q", string(data))
	}

	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created migration fails validation: %v", err)
	}
}
