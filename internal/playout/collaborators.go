/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playout

import (
	"context"
	"time"

	"github.com/friendsincode/technicaldirector/internal/models"
	"github.com/friendsincode/technicaldirector/internal/planner"
)

// ProgrammingSource says what should air. Both lookups return an error
// wrapping schedule.ErrNoBlock when nothing is scheduled.
type ProgrammingSource interface {
	// CurrentBlock returns the block whose window contains at.
	CurrentBlock(ctx context.Context, at time.Time) (models.Block, error)
	// NextBlock returns the first block starting after at.
	NextBlock(ctx context.Context, at time.Time) (models.Block, error)
}

// MetadataSource reports the duration and chapters of a media file.
type MetadataSource interface {
	Probe(ctx context.Context, ref string) (models.Metadata, error)
}

// PlaybackSink plays segments.
type PlaybackSink interface {
	Load(ctx context.Context, segment models.Segment) error
	Play(ctx context.Context) error
	// OnPlaybackEnded registers the callback fired when the loaded segment
	// finishes. It runs on the sink's goroutine.
	OnPlaybackEnded(fn func())
}

// BlockPlanner plans one programming block.
type BlockPlanner interface {
	Plan(ctx context.Context, at time.Time, block models.Block, content models.Content) (*planner.Plan, error)
}
