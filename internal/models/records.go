/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// CommercialSpotRecord persists one catalog entry.
type CommercialSpotRecord struct {
	ID         string `gorm:"type:varchar(36);primaryKey"`
	Ref        string `gorm:"type:varchar(1024);uniqueIndex"`
	DurationNS int64
	Subject    string `gorm:"type:varchar(128);index"`
	Active     bool   `gorm:"default:true;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName pins the table name.
func (CommercialSpotRecord) TableName() string { return "commercial_spots" }

// Spot converts the record to the in-memory catalog type.
func (r CommercialSpotRecord) Spot() Spot {
	return Spot{Ref: r.Ref, Duration: time.Duration(r.DurationNS), Subject: r.Subject}
}

// ListingRecord persists one programming block of a channel lineup.
type ListingRecord struct {
	ID              string `gorm:"type:varchar(36);primaryKey"`
	Channel         int    `gorm:"index:idx_listing_channel_start"`
	Title           string
	ContentRef      string    `gorm:"type:varchar(1024)"`
	StartsAt        time.Time `gorm:"index:idx_listing_channel_start"`
	EndsAt          time.Time
	ShowCommercials bool `gorm:"default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName pins the table name.
func (ListingRecord) TableName() string { return "listings" }

// Block converts the record to a programming block.
func (r ListingRecord) Block() Block {
	return Block{
		ID:              r.ID,
		Label:           r.Title,
		Start:           r.StartsAt,
		Duration:        r.EndsAt.Sub(r.StartsAt),
		ContentRef:      r.ContentRef,
		ShowCommercials: r.ShowCommercials,
	}
}

// AsRunEntry records a segment that was handed to the player.
type AsRunEntry struct {
	ID         string `gorm:"type:varchar(36);primaryKey"`
	Channel    int    `gorm:"index"`
	Batch      string `gorm:"type:varchar(36);index"`
	Kind       string `gorm:"type:varchar(16)"`
	Source     string `gorm:"type:varchar(1024)"`
	StartMS    *int64
	EndMS      *int64
	DurationMS int64
	StartedAt  time.Time `gorm:"index"`
	CreatedAt  time.Time
}

// TableName pins the table name.
func (AsRunEntry) TableName() string { return "as_run" }
