package db

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

// TestEmbeddedMigrations verifies the embedded migrations filesystem holds
// paired up/down files.
func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no embedded migration files")
	}
	if len(entries)%2 != 0 {
		t.Errorf("expected paired up/down migrations, got %d files", len(entries))
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") && !strings.HasSuffix(name, ".down.sql") {
			t.Errorf("unexpected migration file name %q", name)
		}
	}
}

func TestMigrateUpDown(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	defer db.Close()

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("fresh database at version %d (dirty %v), want 0 clean", version, dirty)
	}

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	version, dirty, err = db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version == 0 || dirty {
		t.Errorf("after MigrateUp: version %d (dirty %v)", version, dirty)
	}

	// Schema exists now.
	if _, err := db.Exec("SELECT count(*) FROM trajectories"); err != nil {
		t.Errorf("trajectories table missing after MigrateUp: %v", err)
	}

	// Up again is a no-op.
	if err := db.MigrateUp(); err != nil {
		t.Fatalf("second MigrateUp failed: %v", err)
	}

	if err := db.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	if _, err := db.Exec("SELECT count(*) FROM trajectories"); err == nil {
		t.Error("trajectories table still present after MigrateDown")
	}
}
