/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gridYAML = `
timezone: UTC
slots:
  - name: sitcoms
    cron: "0 0,30 * * * *"
    minutes: 30
    show_commercials: true
    rotation:
      - /video/ep01.mkv
      - /video/ep02.mkv
      - /video/ep03.mkv
  - name: movie
    cron: "0 0 21 * * *"
    minutes: 120
    rotation:
      - /video/movie.mkv
`

func loadTestGrid(t *testing.T) *Grid {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(gridYAML), 0o644))
	g, err := LoadGrid(path)
	require.NoError(t, err)
	return g
}

func TestGridCurrentBlock(t *testing.T) {
	g := loadTestGrid(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		at    time.Time
		label string
		start time.Time
	}{
		{"half hour slot", time.Date(2026, 3, 14, 20, 12, 0, 0, time.UTC), "sitcoms", time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)},
		{"exact start", time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC), "sitcoms", time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC)},
		{"later start wins", time.Date(2026, 3, 14, 21, 10, 0, 0, time.UTC), "movie", time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)},
		{"sitcom restarts inside movie", time.Date(2026, 3, 14, 21, 40, 0, 0, time.UTC), "sitcoms", time.Date(2026, 3, 14, 21, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := g.CurrentBlock(ctx, tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.label, block.Label)
			assert.True(t, block.Start.Equal(tt.start), "start %s", block.Start)
			assert.True(t, block.Contains(tt.at))
		})
	}
}

func TestGridNextBlock(t *testing.T) {
	g := loadTestGrid(t)

	block, err := g.NextBlock(context.Background(), time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, block.Start.Equal(time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)))
	assert.Equal(t, "movie", block.Label)
	assert.Equal(t, 2*time.Hour, block.Duration)

	block, err = g.NextBlock(context.Background(), time.Date(2026, 3, 14, 21, 10, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "sitcoms", block.Label)
	assert.True(t, block.Start.Equal(time.Date(2026, 3, 14, 21, 30, 0, 0, time.UTC)))
}

func TestGridRotationIsStable(t *testing.T) {
	g := loadTestGrid(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 20, 5, 0, 0, time.UTC)

	a, err := g.CurrentBlock(ctx, at)
	require.NoError(t, err)
	b, err := g.CurrentBlock(ctx, at.Add(20*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	next, err := g.NextBlock(ctx, at)
	require.NoError(t, err)
	assert.NotEqual(t, a.ContentRef, next.ContentRef, "consecutive blocks rotate")
	assert.NotEqual(t, a.ID, next.ID)
}

func TestGridNoBlock(t *testing.T) {
	g, err := NewGrid(GridFile{Slots: []GridSlot{{
		Name: "morning", Cron: "0 0 6 * * *", Minutes: 60, Rotation: []string{"/video/news.mkv"},
	}}, Timezone: "UTC"})
	require.NoError(t, err)

	_, err = g.CurrentBlock(context.Background(), time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, ErrNoBlock))
}

func TestNewGridValidation(t *testing.T) {
	tests := []struct {
		name string
		file GridFile
	}{
		{"no slots", GridFile{}},
		{"bad cron", GridFile{Slots: []GridSlot{{Cron: "every hour", Minutes: 30, Rotation: []string{"a"}}}}},
		{"no minutes", GridFile{Slots: []GridSlot{{Cron: "0 0 * * * *", Rotation: []string{"a"}}}}},
		{"empty rotation", GridFile{Slots: []GridSlot{{Cron: "0 0 * * * *", Minutes: 30}}}},
		{"bad timezone", GridFile{Timezone: "Mars/Olympus", Slots: []GridSlot{{Cron: "0 0 * * * *", Minutes: 30, Rotation: []string{"a"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.file)
			assert.Error(t, err)
		})
	}
}
