/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/technicaldirector/internal/models"
	"github.com/friendsincode/technicaldirector/internal/schedule"
)

// Listings is a programming source backed by the listings table.
type Listings struct {
	db      *gorm.DB
	channel int
}

// NewListings serves one channel's listings.
func NewListings(db *gorm.DB, channel int) *Listings {
	return &Listings{db: db, channel: channel}
}

// CurrentBlock returns the listing airing at the given instant. When listings
// overlap, the one that started last wins.
func (l *Listings) CurrentBlock(ctx context.Context, at time.Time) (models.Block, error) {
	var rec models.ListingRecord
	err := l.db.WithContext(ctx).
		Where("channel = ? AND starts_at <= ? AND ends_at > ?", l.channel, at.UTC(), at.UTC()).
		Order("starts_at DESC").
		First(&rec).Error
	return l.block(rec, err, at)
}

// NextBlock returns the first listing starting after at.
func (l *Listings) NextBlock(ctx context.Context, at time.Time) (models.Block, error) {
	var rec models.ListingRecord
	err := l.db.WithContext(ctx).
		Where("channel = ? AND starts_at > ?", l.channel, at.UTC()).
		Order("starts_at ASC").
		First(&rec).Error
	return l.block(rec, err, at)
}

func (l *Listings) block(rec models.ListingRecord, err error, at time.Time) (models.Block, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Block{}, fmt.Errorf("channel %d at %s: %w", l.channel, at.Format(time.RFC3339), schedule.ErrNoBlock)
	}
	if err != nil {
		return models.Block{}, fmt.Errorf("load listing: %w", err)
	}
	return rec.Block(), nil
}

// Replace swaps every listing of the channel inside [from, to) for blocks.
// It is used to mirror a lineup fetched from the scheduling service.
func (l *Listings) Replace(ctx context.Context, from, to time.Time, blocks []models.Block) (int, error) {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("channel = ? AND starts_at >= ? AND starts_at < ?", l.channel, from.UTC(), to.UTC()).
			Delete(&models.ListingRecord{}).Error; err != nil {
			return fmt.Errorf("clear listings: %w", err)
		}
		for _, b := range blocks {
			id := b.ID
			if id == "" {
				id = uuid.NewString()
			}
			rec := models.ListingRecord{
				ID:              id,
				Channel:         l.channel,
				Title:           b.Label,
				ContentRef:      b.ContentRef,
				StartsAt:        b.Start.UTC(),
				EndsAt:          b.End().UTC(),
				ShowCommercials: b.ShowCommercials,
			}
			// Select keeps an explicit false for ShowCommercials.
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Select("*").Create(&rec).Error; err != nil {
				return fmt.Errorf("insert listing %s: %w", b.Label, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(blocks), nil
}
