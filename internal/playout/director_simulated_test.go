/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendsincode/technicaldirector/internal/models"
	"github.com/friendsincode/technicaldirector/internal/player"
	"github.com/friendsincode/technicaldirector/internal/schedule"
)

func TestSpedUpPlaybackPlansEachBlockOnce(t *testing.T) {
	const speed = 36000 // a half-hour block airs in 50ms
	sim := player.NewSimulated(speed, zerolog.Nop())

	first := sim.Now().Truncate(30 * time.Minute)
	blocks := make([]models.Block, 20)
	for i := range blocks {
		blocks[i] = models.Block{
			ID:         fmt.Sprintf("b%02d", i),
			Start:      first.Add(time.Duration(i) * 30 * time.Minute),
			Duration:   30 * time.Minute,
			ContentRef: fmt.Sprintf("/video/%02d.mkv", i),
		}
	}

	plan := &fakePlanner{}
	d := NewDirector(Config{PollInterval: time.Millisecond}, plan,
		&fakeProgramming{lineup: schedule.NewLineup(blocks)}, &fakeMetadata{}, sim, zerolog.Nop(),
		WithClock(sim.Now))

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	d.Start(ctx)
	_ = d.Run(ctx)
	require.NoError(t, sim.Stop())

	seen := make(map[string]int)
	var order []string
	for _, call := range plan.calls {
		seen[call.block.ID]++
		order = append(order, call.block.ID)
	}
	require.GreaterOrEqual(t, len(order), 3, "several blocks air in the run")
	for id, n := range seen {
		assert.Equal(t, 1, n, "block %s planned %d times: %v", id, n, order)
	}
}
