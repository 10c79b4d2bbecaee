/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package commercial

import (
	"math/rand"
	"time"

	"github.com/friendsincode/technicaldirector/internal/models"
	"github.com/rs/zerolog"
)

const (
	// DefaultOvershootTolerance is how far a break may run past its target
	// before a candidate is rejected.
	DefaultOvershootTolerance = 10 * time.Second

	// DefaultMaxAttempts is the number of consecutive over-tolerance
	// rejections after which the next candidate is taken regardless.
	DefaultMaxAttempts = 5
)

// FillerConfig tunes the time-budget fill.
type FillerConfig struct {
	OvershootTolerance time.Duration
	MaxAttempts        int
}

// DefaultFillerConfig returns the broadcast defaults.
func DefaultFillerConfig() FillerConfig {
	return FillerConfig{
		OvershootTolerance: DefaultOvershootTolerance,
		MaxAttempts:        DefaultMaxAttempts,
	}
}

// Break is one commercial break as filled from the pool.
type Break struct {
	Target time.Duration
	Spots  []models.Spot
	Filled time.Duration
	// Exhausted is set when no eligible spot was left before the target was met.
	Exhausted bool
	// Forced counts spots accepted past the overshoot tolerance.
	Forced int
}

// Underfilled reports whether the break is shorter than its target.
func (b Break) Underfilled() bool {
	return b.Filled < b.Target
}

// Overshoot returns how far the break runs past its target, zero if it does not.
func (b Break) Overshoot() time.Duration {
	if b.Filled <= b.Target {
		return 0
	}
	return b.Filled - b.Target
}

// Filler selects spots approximating a target duration.
//
// A Filler is not safe for concurrent use; it shares its random source with
// the rest of the assembly pass.
type Filler struct {
	cfg    FillerConfig
	rng    *rand.Rand
	logger zerolog.Logger
}

// NewFiller creates a filler drawing from rng.
func NewFiller(cfg FillerConfig, rng *rand.Rand, logger zerolog.Logger) *Filler {
	if cfg.OvershootTolerance < 0 {
		cfg.OvershootTolerance = 0
	}
	if cfg.MaxAttempts < 0 {
		cfg.MaxAttempts = 0
	}
	return &Filler{cfg: cfg, rng: rng, logger: logger.With().Str("component", "filler").Logger()}
}

// Fill draws random spots from pool until their total reaches target or the
// pool runs dry. Accepted spots are removed from pool.
//
// A candidate that would overshoot target by more than the tolerance is put
// back and another one is drawn. Once the consecutive rejections exceed
// MaxAttempts, the candidate in hand is accepted anyway: a long break is
// preferred to dead air. At least one candidate is always accepted when the
// pool has one, so even a zero or negative target yields a playable break.
//
// Within one break no two spots share a non-empty subject.
func (f *Filler) Fill(target time.Duration, pool *Pool) Break {
	br := Break{Target: target}
	used := make(map[string]struct{})
	attempts := 0

	for br.Filled < target || len(br.Spots) == 0 {
		candidates := pool.eligible(used)
		if len(candidates) == 0 {
			br.Exhausted = true
			break
		}

		idx := candidates[f.rng.Intn(len(candidates))]
		candidate := pool.At(idx)

		if br.Filled+candidate.Duration-target > f.cfg.OvershootTolerance {
			attempts++
			if attempts <= f.cfg.MaxAttempts {
				continue
			}
			br.Forced++
			f.logger.Debug().
				Str("spot", candidate.Ref).
				Int("attempts", attempts).
				Dur("target", target).
				Msg("accepting spot past overshoot tolerance")
		}
		attempts = 0

		spot := pool.Take(idx)
		br.Spots = append(br.Spots, spot)
		br.Filled += spot.Duration
		if spot.Subject != "" {
			used[spot.Subject] = struct{}{}
		}
	}

	return br
}
