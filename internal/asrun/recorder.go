/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package asrun keeps the as-run log: one row per segment handed to the
// player.
package asrun

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/technicaldirector/internal/events"
	"github.com/friendsincode/technicaldirector/internal/models"
	"github.com/friendsincode/technicaldirector/internal/telemetry"
)

// subscriberBuffer absorbs runs of short spots while a slow database catches up.
const subscriberBuffer = 256

// Recorder stores segment.started events.
type Recorder struct {
	db      *gorm.DB
	channel int
	logger  zerolog.Logger
}

// NewRecorder creates a recorder for one channel.
func NewRecorder(db *gorm.DB, channel int, logger zerolog.Logger) *Recorder {
	return &Recorder{
		db:      db,
		channel: channel,
		logger:  logger.With().Str("component", "asrun").Logger(),
	}
}

// Run consumes segment.started events from bus until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context, bus *events.Bus) error {
	sub := bus.SubscribeBuffered(events.EventSegmentStarted, subscriberBuffer)
	defer bus.Unsubscribe(events.EventSegmentStarted, sub)

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-sub:
			if !ok {
				return nil
			}
			if err := r.Record(ctx, payload); err != nil {
				telemetry.AsRunWriteErrorsTotal.Inc()
				r.logger.Error().Err(err).Interface("payload", payload).Msg("as-run write failed")
			}
		}
	}
}

// Record stores one segment.started payload.
func (r *Recorder) Record(ctx context.Context, payload events.Payload) error {
	entry, err := r.entry(payload)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("insert as-run entry: %w", err)
	}
	r.logger.Debug().
		Str("source", entry.Source).
		Str("batch", entry.Batch).
		Msg("as-run recorded")
	return nil
}

func (r *Recorder) entry(payload events.Payload) (models.AsRunEntry, error) {
	str := func(key string) string {
		s, _ := payload[key].(string)
		return s
	}

	startedAt, err := time.Parse(time.RFC3339Nano, str("started_at"))
	if err != nil {
		return models.AsRunEntry{}, fmt.Errorf("started_at: %w", err)
	}
	duration, err := models.ParseSeconds(str("duration"))
	if err != nil {
		return models.AsRunEntry{}, fmt.Errorf("duration: %w", err)
	}

	entry := models.AsRunEntry{
		ID:         uuid.NewString(),
		Channel:    r.channel,
		Batch:      str("batch"),
		Kind:       str("kind"),
		Source:     str("source"),
		DurationMS: duration.Milliseconds(),
		StartedAt:  startedAt.UTC(),
	}
	if entry.StartMS, err = optionalMS(str("start")); err != nil {
		return models.AsRunEntry{}, fmt.Errorf("start: %w", err)
	}
	if entry.EndMS, err = optionalMS(str("end")); err != nil {
		return models.AsRunEntry{}, fmt.Errorf("end: %w", err)
	}
	return entry, nil
}

func optionalMS(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	d, err := models.ParseSeconds(s)
	if err != nil {
		return nil, err
	}
	ms := d.Milliseconds()
	return &ms, nil
}

// Recent returns the newest entries first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]models.AsRunEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var entries []models.AsRunEntry
	if err := r.db.WithContext(ctx).
		Where("channel = ?", r.channel).
		Order("started_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load as-run: %w", err)
	}
	return entries, nil
}
