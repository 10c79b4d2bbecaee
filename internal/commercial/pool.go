/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package commercial

import (
	"time"

	"github.com/friendsincode/technicaldirector/internal/models"
)

// Pool is the set of spots still available during one assembly pass.
//
// A Pool is owned by exactly one assembly pass. The Assembler hands the same
// *Pool to every Fill call for a block, and each accepted spot is removed, so
// no spot can air twice within a block. Callers must not share a Pool across
// blocks or goroutines; take a fresh catalog snapshot per pass instead.
type Pool struct {
	spots []models.Spot
}

// NewPool copies spots into a new pool. The caller's slice is never mutated.
func NewPool(spots []models.Spot) *Pool {
	owned := make([]models.Spot, len(spots))
	copy(owned, spots)
	return &Pool{spots: owned}
}

// Len returns the number of spots left.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.spots)
}

// At returns the spot at index i without removing it.
func (p *Pool) At(i int) models.Spot {
	return p.spots[i]
}

// Take removes and returns the spot at index i, preserving the order of the
// remaining spots.
func (p *Pool) Take(i int) models.Spot {
	spot := p.spots[i]
	p.spots = append(p.spots[:i], p.spots[i+1:]...)
	return spot
}

// Spots returns a copy of the remaining spots.
func (p *Pool) Spots() []models.Spot {
	out := make([]models.Spot, len(p.spots))
	copy(out, p.spots)
	return out
}

// Duration sums the remaining spots.
func (p *Pool) Duration() time.Duration {
	var total time.Duration
	for _, spot := range p.spots {
		total += spot.Duration
	}
	return total
}

// eligible returns the indexes of spots whose subject has not been used yet.
// Spots without a subject are always eligible.
func (p *Pool) eligible(used map[string]struct{}) []int {
	out := make([]int, 0, len(p.spots))
	for i, spot := range p.spots {
		if spot.Subject != "" {
			if _, taken := used[spot.Subject]; taken {
				continue
			}
		}
		out = append(out, i)
	}
	return out
}
