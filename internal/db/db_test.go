/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"testing"

	"github.com/friendsincode/technicaldirector/internal/config"
	"github.com/friendsincode/technicaldirector/internal/models"
)

func TestConnectAndMigrateSQLite(t *testing.T) {
	cfg := &config.Config{
		Environment: "test",
		DBBackend:   config.DatabaseSQLite,
		DBDSN:       "file::memory:?cache=shared",
	}

	database, err := Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer Close(database)

	if err := Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, table := range []any{&models.CommercialSpotRecord{}, &models.ListingRecord{}, &models.AsRunEntry{}} {
		if !database.Migrator().HasTable(table) {
			t.Fatalf("table for %T missing", table)
		}
	}

	// Migrate is idempotent.
	if err := Migrate(database); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestDialectorRejectsUnknownBackend(t *testing.T) {
	if _, err := Dialector("oracle", "dsn"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	for _, backend := range []config.DatabaseBackend{config.DatabaseSQLite, config.DatabasePostgres, config.DatabaseMySQL} {
		if _, err := Dialector(backend, "dsn"); err != nil {
			t.Fatalf("%s: %v", backend, err)
		}
	}
}
