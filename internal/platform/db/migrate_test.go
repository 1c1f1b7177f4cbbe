package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSortsByVersion(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"002_indexes.sql": "CREATE INDEX donor_audit_donor_idx ON donor_audit (donor_id);",
		"001_audit.sql":   "CREATE TABLE donor_audit (id UUID PRIMARY KEY);",
		"notes.txt":       "not a migration",
		"README.sql":      "no numeric prefix",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	migrations, err := NewMigrator(nil, dir).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(migrations) != 2 {
		t.Fatalf("migrations = %d, want 2", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "001_audit.sql" {
		t.Errorf("first migration = %+v", migrations[0])
	}
	if migrations[1].Version != 2 {
		t.Errorf("second migration = %+v", migrations[1])
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	if _, err := NewMigrator(nil, "/nonexistent/migrations").Load(); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
