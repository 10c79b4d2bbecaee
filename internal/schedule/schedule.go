/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package schedule provides programming sources: the remote scheduling
// service and a local cron-driven grid.
package schedule

import (
	"errors"
	"sort"
	"time"

	"github.com/friendsincode/technicaldirector/internal/models"
)

// ErrNoBlock is returned when no programming block matches the lookup.
var ErrNoBlock = errors.New("no programming block scheduled")

// Lineup is a list of blocks ordered by start.
type Lineup []models.Block

// NewLineup sorts blocks by start.
func NewLineup(blocks []models.Block) Lineup {
	out := make(Lineup, len(blocks))
	copy(out, blocks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// At returns the block whose window contains at. When windows overlap the
// block that started last wins.
func (l Lineup) At(at time.Time) (models.Block, bool) {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].Contains(at) {
			return l[i], true
		}
	}
	return models.Block{}, false
}

// After returns the first block starting strictly after at.
func (l Lineup) After(at time.Time) (models.Block, bool) {
	for _, block := range l {
		if block.Start.After(at) {
			return block, true
		}
	}
	return models.Block{}, false
}
