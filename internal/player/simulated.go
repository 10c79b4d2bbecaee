/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package player

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/technicaldirector/internal/models"
)

// Simulated pretends to play segments: it reports the end of each one after
// its duration divided by speed has passed. Now runs at the same speed, so a
// director driven by it schedules against the time the sink pretends it is.
type Simulated struct {
	speed  float64
	anchor time.Time
	logger zerolog.Logger
	ended  endedHook

	mu      sync.Mutex
	loaded  *models.Segment
	playing *models.Segment
	timer   *time.Timer
}

// NewSimulated creates a simulated sink. speed 1 plays in real time.
func NewSimulated(speed float64, logger zerolog.Logger) *Simulated {
	if speed <= 0 {
		speed = 1
	}
	return &Simulated{
		speed:  speed,
		anchor: time.Now(),
		logger: logger.With().Str("component", "player").Str("player", "simulated").Logger(),
	}
}

// Now returns the simulated time: the wall time elapsed since the sink was
// created, scaled by speed, added to the creation instant.
func (s *Simulated) Now() time.Time {
	elapsed := time.Since(s.anchor)
	return s.anchor.Add(time.Duration(float64(elapsed) * s.speed))
}

// OnPlaybackEnded registers the end-of-media callback.
func (s *Simulated) OnPlaybackEnded(fn func()) {
	s.ended.set(fn)
}

// Load stages seg for the next Play.
func (s *Simulated) Load(_ context.Context, seg models.Segment) error {
	s.mu.Lock()
	s.loaded = &seg
	s.mu.Unlock()
	return nil
}

// Play starts the loaded segment.
func (s *Simulated) Play(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded == nil {
		return ErrNothingLoaded
	}
	if s.timer != nil {
		s.timer.Stop()
	}

	seg := *s.loaded
	s.playing = &seg
	wait := time.Duration(float64(seg.Duration()) / s.speed)
	s.timer = time.AfterFunc(wait, s.ended.fire)

	s.logger.Info().
		Str("kind", string(seg.Kind)).
		Str("source", seg.Source).
		Dur("duration", seg.Duration()).
		Msg("playing")
	return nil
}

// NowPlaying returns the segment last started.
func (s *Simulated) NowPlaying() (models.Segment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing == nil {
		return models.Segment{}, false
	}
	return *s.playing, true
}

// Stop cancels the pending end-of-media notification.
func (s *Simulated) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.playing = nil
	return nil
}
