/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"time"

	"github.com/friendsincode/technicaldirector/internal/commercial"
	"github.com/friendsincode/technicaldirector/internal/models"
)

// Plan is the outcome of planning one programming block.
type Plan struct {
	Block models.Block
	// Batch labels every segment produced by this plan.
	Batch           string
	At              time.Time
	Remaining       time.Duration
	ContentDuration time.Duration
	Truncated       bool
	// ForcedBreak is set when neither chapters nor the coin flips asked for
	// a break and one was added after the content.
	ForcedBreak bool
	Budget      time.Duration
	// Breaks in creation order. Segments consume them from the end.
	Breaks   []commercial.Break
	Segments []models.Segment
}

// Duration sums the planned segments.
func (p *Plan) Duration() time.Duration {
	var total time.Duration
	for _, seg := range p.Segments {
		total += seg.Duration()
	}
	return total
}

// CommercialCount returns the number of commercial segments.
func (p *Plan) CommercialCount() int {
	n := 0
	for _, seg := range p.Segments {
		if seg.Kind == models.SegmentCommercial {
			n++
		}
	}
	return n
}
