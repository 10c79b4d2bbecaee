/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/friendsincode/technicaldirector/internal/models"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.CommercialSpotRecord{},
		&models.ListingRecord{},
		&models.AsRunEntry{},
	); err != nil {
		return err
	}

	if err := applyPostgresListingOverlapGuard(database); err != nil {
		return err
	}

	return nil
}

// applyPostgresListingOverlapGuard rejects listings that end before they
// start or overlap another listing on the same channel.
func applyPostgresListingOverlapGuard(database *gorm.DB) error {
	if database.Dialector.Name() != "postgres" {
		return nil
	}

	stmt := `
CREATE OR REPLACE FUNCTION prevent_channel_listing_overlap()
RETURNS trigger
LANGUAGE plpgsql
AS $$
BEGIN
  IF NEW.ends_at <= NEW.starts_at THEN
    RAISE EXCEPTION 'listing end must be after start'
      USING ERRCODE = '23514';
  END IF;

  IF EXISTS (
    SELECT 1
    FROM listings l
    WHERE l.channel = NEW.channel
      AND l.id <> NEW.id
      AND tstzrange(l.starts_at, l.ends_at, '[)') && tstzrange(NEW.starts_at, NEW.ends_at, '[)')
  ) THEN
    RAISE EXCEPTION 'overlapping listings are not allowed on channel %', NEW.channel
      USING ERRCODE = '23514';
  END IF;

  RETURN NEW;
END;
$$;

DROP TRIGGER IF EXISTS trg_prevent_channel_listing_overlap ON listings;

CREATE TRIGGER trg_prevent_channel_listing_overlap
BEFORE INSERT OR UPDATE OF channel, starts_at, ends_at
ON listings
FOR EACH ROW
EXECUTE FUNCTION prevent_channel_listing_overlap();
`
	if err := database.Exec(stmt).Error; err != nil {
		return fmt.Errorf("apply postgres listing overlap guard: %w", err)
	}

	return nil
}
