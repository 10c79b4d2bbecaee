/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendsincode/technicaldirector/internal/models"
)

func TestArgs(t *testing.T) {
	chapter := models.NewContentSegment("/video/ep.mkv", 1500*time.Second, "b")
	chapter.SetStart(480*time.Second + 1234567*time.Nanosecond)
	chapter.SetEnd(1000 * time.Second)

	tail := models.NewContentSegment("/video/ep.mkv", 1500*time.Second, "b")
	tail.SetStart(100 * time.Second)

	whole := models.NewCommercialSegment(models.Spot{Ref: "/video/spot.mp4", Duration: 30 * time.Second}, "b")

	tests := []struct {
		name string
		bin  string
		seg  models.Segment
		want []string
	}{
		{"mpv window", "/usr/bin/mpv", chapter, []string{"--fullscreen", "--really-quiet", "--no-terminal", "--start=480.001", "--end=1000.000", "/video/ep.mkv"}},
		{"mpv start only", "mpv", tail, []string{"--fullscreen", "--really-quiet", "--no-terminal", "--start=100.000", "/video/ep.mkv"}},
		{"vlc window", "cvlc", chapter, []string{"--play-and-exit", "--fullscreen", "--no-video-title-show", "--start-time=480.001", "--stop-time=1000.000", "/video/ep.mkv"}},
		{"whole spot", "mpv", whole, []string{"--fullscreen", "--really-quiet", "--no-terminal", "/video/spot.mp4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Args(tt.bin, tt.seg))
		})
	}
}

func TestProcessPlayWithoutLoad(t *testing.T) {
	p := NewProcess("mpv", zerolog.Nop())
	err := p.Play(context.Background())
	assert.True(t, errors.Is(err, ErrNothingLoaded))
}

func TestSimulatedReportsEnd(t *testing.T) {
	s := NewSimulated(1000, zerolog.Nop())
	ended := make(chan struct{}, 1)
	s.OnPlaybackEnded(func() { ended <- struct{}{} })

	require.True(t, errors.Is(s.Play(context.Background()), ErrNothingLoaded))

	seg := models.NewContentSegment("/video/a.mkv", 5*time.Second, "b")
	require.NoError(t, s.Load(context.Background(), seg))
	require.NoError(t, s.Play(context.Background()))

	playing, ok := s.NowPlaying()
	require.True(t, ok)
	assert.Equal(t, "/video/a.mkv", playing.Source)

	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatal("simulated player never reported end of media")
	}
}

func TestSimulatedStopCancelsEnd(t *testing.T) {
	s := NewSimulated(1, zerolog.Nop())
	ended := make(chan struct{}, 1)
	s.OnPlaybackEnded(func() { ended <- struct{}{} })

	require.NoError(t, s.Load(context.Background(), models.NewContentSegment("/video/a.mkv", 50*time.Millisecond, "b")))
	require.NoError(t, s.Play(context.Background()))
	require.NoError(t, s.Stop())

	select {
	case <-ended:
		t.Fatal("stopped segment reported end")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestSimulatedClockRunsAtSpeed(t *testing.T) {
	s := NewSimulated(3600, zerolog.Nop())
	wallStart := time.Now()
	simStart := s.Now()

	time.Sleep(20 * time.Millisecond)

	wall := time.Since(wallStart)
	sim := s.Now().Sub(simStart)
	// 20ms of wall time is at least 72s of simulated time.
	assert.GreaterOrEqual(t, sim, 72*time.Second)
	assert.LessOrEqual(t, sim, time.Duration(float64(wall+10*time.Millisecond)*3600))

	realtime := NewSimulated(1, zerolog.Nop())
	assert.WithinDuration(t, time.Now(), realtime.Now(), 50*time.Millisecond)
}
