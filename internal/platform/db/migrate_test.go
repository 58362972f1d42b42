package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jay270804/medical-claim-processing-server/migrations"
)

func TestLoadMigrations_SortOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"010_tables.sql": {Data: []byte("SELECT 10;")},
		"002_second.sql": {Data: []byte("SELECT 2;")},
		"001_first.sql":  {Data: []byte("SELECT 1;")},
		"005_middle.sql": {Data: []byte("SELECT 5;")},
	}

	migrations, err := NewMigrator(nil, fsys).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 4 {
		t.Fatalf("expected 4 migrations, got %d", len(migrations))
	}
	for i, want := range []int{1, 2, 5, 10} {
		if migrations[i].Version != want {
			t.Errorf("migration[%d]: expected version %d, got %d", i, want, migrations[i].Version)
		}
	}
	if migrations[0].SQL != "SELECT 1;" || migrations[0].Name != "001_first.sql" {
		t.Errorf("unexpected first migration %+v", migrations[0])
	}
}

func TestLoadMigrations_InvalidFilename(t *testing.T) {
	fsys := fstest.MapFS{
		"001_valid.sql":      {Data: []byte("SELECT 1;")},
		"readme.sql":         {Data: []byte("-- no version prefix")},
		"notes.txt":          {Data: []byte("not sql")},
		"abc_invalid.sql":    {Data: []byte("-- non-numeric prefix")},
		"002_also_valid.sql": {Data: []byte("SELECT 2;")},
		"sub/003_nested.sql": {Data: []byte("SELECT 3;")},
	}

	migrations, err := NewMigrator(nil, fsys).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 valid migrations, got %d", len(migrations))
	}
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql":  {Data: []byte("SELECT 1;")},
		"0001_b.sql": {Data: []byte("SELECT 1;")},
	}
	if _, err := NewMigrator(nil, fsys).LoadMigrations(); err == nil {
		t.Error("expected error for duplicate version")
	}
}

func TestNewDirMigrator(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_users.sql"), []byte("SELECT 1;"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	migrations, err := NewDirMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 1 || migrations[0].Version != 1 {
		t.Errorf("unexpected migrations %+v", migrations)
	}
}

func TestLoadMigrations_NonExistentDir(t *testing.T) {
	if _, err := NewDirMigrator(nil, "/nonexistent/path/that/does/not/exist").LoadMigrations(); err == nil {
		t.Error("expected error for non-existent directory")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	loaded, err := NewMigrator(nil, migrations.FS).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(loaded) < 2 {
		t.Fatalf("expected at least 2 embedded migrations, got %d", len(loaded))
	}
	if !strings.Contains(loaded[0].SQL, "CREATE TABLE IF NOT EXISTS users") {
		t.Error("expected first migration to create users")
	}
	if !strings.Contains(loaded[1].SQL, "CREATE TABLE IF NOT EXISTS claims") {
		t.Error("expected second migration to create claims")
	}
}
