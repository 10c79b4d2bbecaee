/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package store keeps the commercial catalog and channel listings in the
// database.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/technicaldirector/internal/models"
)

// Catalog serves the active commercial spots.
type Catalog struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewCatalog creates a database-backed catalog.
func NewCatalog(db *gorm.DB, logger zerolog.Logger) *Catalog {
	return &Catalog{db: db, logger: logger.With().Str("component", "catalog").Logger()}
}

// FetchCommercialPool returns every active spot ordered by ref.
func (c *Catalog) FetchCommercialPool(ctx context.Context) ([]models.Spot, error) {
	var records []models.CommercialSpotRecord
	if err := c.db.WithContext(ctx).
		Where("active = ?", true).
		Order("ref ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load commercial spots: %w", err)
	}

	spots := make([]models.Spot, len(records))
	for i, r := range records {
		spots[i] = r.Spot()
	}
	return spots, nil
}

// ImportResult summarizes a catalog import.
type ImportResult struct {
	Upserted    int `json:"upserted"`
	Deactivated int `json:"deactivated"`
}

// Import upserts spots by ref. With replace set, spots missing from the
// import are deactivated rather than deleted so as-run history keeps its refs.
func (c *Catalog) Import(ctx context.Context, spots []models.Spot, replace bool) (ImportResult, error) {
	var result ImportResult

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		refs := make([]string, 0, len(spots))
		for _, spot := range spots {
			record := models.CommercialSpotRecord{
				ID:         uuid.NewString(),
				Ref:        spot.Ref,
				DurationNS: int64(spot.Duration),
				Subject:    spot.Subject,
				Active:     true,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "ref"}},
				DoUpdates: clause.AssignmentColumns([]string{"duration_ns", "subject", "active", "updated_at"}),
			}).Create(&record).Error; err != nil {
				return fmt.Errorf("upsert spot %s: %w", spot.Ref, err)
			}
			refs = append(refs, spot.Ref)
		}
		result.Upserted = len(refs)

		if !replace {
			return nil
		}

		q := tx.Model(&models.CommercialSpotRecord{}).Where("active = ?", true)
		if len(refs) > 0 {
			q = q.Where("ref NOT IN ?", refs)
		}
		res := q.Updates(map[string]any{"active": false, "updated_at": time.Now()})
		if res.Error != nil {
			return fmt.Errorf("deactivate missing spots: %w", res.Error)
		}
		result.Deactivated = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	c.logger.Info().
		Int("upserted", result.Upserted).
		Int("deactivated", result.Deactivated).
		Msg("commercial catalog imported")
	return result, nil
}

// LoadCatalogFile reads a list of spots from a JSON or YAML file. The format
// is chosen by extension; both use the scheduler feed's field names.
func LoadCatalogFile(path string) ([]models.Spot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var spots []models.Spot
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &spots)
	case ".json":
		err = json.Unmarshal(data, &spots)
	default:
		return nil, fmt.Errorf("catalog file %s: unsupported extension", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	return spots, nil
}
