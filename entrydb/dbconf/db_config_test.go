package dbconf

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // register sqlite3 driver

	rserr "github.com/sigstore/rekor-search-ui/errors"
)

func TestLoadFile(t *testing.T) {
	config, err := LoadFile("testdata/db-config.json")
	if err != nil || config == nil {
		t.Fatal("Failed to load test db-config file ", err)
	}
	if config.DriverName != "sqlite3" {
		t.Fatalf("unexpected driver %q", config.DriverName)
	}

	config, err = LoadFile("nonexistent")
	if err == nil || config != nil {
		t.Fatal("Expected failure loading nonexistent configuration file")
	}

	config, err = LoadFile("testdata/malformed-db-config.json")
	if err == nil || config != nil {
		t.Fatal("Expected failure loading malformed configuration file")
	}
	if !rserr.InCategory(err, rserr.ConfigError) {
		t.Fatalf("want a config error, got %v", err)
	}

	if _, err = LoadFile(""); err == nil {
		t.Fatal("Expected failure loading an empty path")
	}
}

func TestDBFromConfig(t *testing.T) {
	db, err := DBFromConfig("testdata/db-config.json")
	if err != nil || db == nil {
		t.Fatal("Failed to open db from test db-config file")
	}
	db.Close()

	db, err = DBFromConfig("testdata/bad-db-config.json")
	if err == nil || db != nil {
		t.Fatal("Expected failure opening invalid db")
	}
}

func TestMigrate(t *testing.T) {
	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "entries.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := Migrate(db, "sqlite3", "../sqlite/migrations"); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := db.Get(&n, "SELECT COUNT(*) FROM entries"); err != nil {
		t.Fatalf("entries table missing after migration: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected an empty table, got %d rows", n)
	}
}

func TestMigrateUnknownDriver(t *testing.T) {
	db, err := DBFromConfig("testdata/db-config.json")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := Migrate(db, "oracle", "../sqlite/migrations"); err == nil {
		t.Fatal("expected an error for a driver without a dialect")
	}
}
