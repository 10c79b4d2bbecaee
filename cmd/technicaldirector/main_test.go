/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendsincode/technicaldirector/internal/models"
	"github.com/friendsincode/technicaldirector/internal/playout"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestImportThenPlan(t *testing.T) {
	dir := t.TempDir()

	grid := filepath.Join(dir, "grid.yaml")
	require.NoError(t, os.WriteFile(grid, []byte(`
timezone: UTC
slots:
  - name: sitcoms
    cron: "0 0,30 * * * *"
    minutes: 30
    show_commercials: false
    rotation:
      - /tv/ep1.mkv
`), 0o644))

	var catalog strings.Builder
	catalog.WriteString("[")
	for i := 0; i < 30; i++ {
		if i > 0 {
			catalog.WriteString(",")
		}
		fmt.Fprintf(&catalog, `{"filepath": "/ads/%02d.mp4", "duration": "30.000"}`, i)
	}
	catalog.WriteString("]")
	catalogPath := filepath.Join(dir, "commercials.json")
	require.NoError(t, os.WriteFile(catalogPath, []byte(catalog.String()), 0o644))

	t.Setenv("TD_ENV", "test")
	t.Setenv("TD_DB_BACKEND", "sqlite")
	t.Setenv("TD_DB_DSN", filepath.Join(dir, "td.db"))
	t.Setenv("TD_PROGRAMMING_SOURCE", "grid")
	t.Setenv("TD_GRID_FILE", grid)
	t.Setenv("TD_CATALOG_SOURCE", "db")
	t.Setenv("TD_METADATA_SOURCE", "static")
	t.Setenv("TD_STATIC_DURATION_MINUTES", "24")
	t.Setenv("TD_SEED", "7")

	out := execute(t, "--env-file", filepath.Join(dir, "missing.env"), "import", "commercials", catalogPath)
	assert.Contains(t, out, "imported 30 spots")

	out = execute(t, "--env-file", filepath.Join(dir, "missing.env"), "plan", "--at", "2026-03-14T20:00:00Z", "--horizon", "1h", "--json")

	var snap struct {
		Queue []struct {
			Segment        json.RawMessage `json:"segment"`
			EstimatedStart time.Time       `json:"estimated_start"`
		} `json:"queue"`
		Remaining json.Number `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &snap), out)
	require.NotEmpty(t, snap.Queue)

	start := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	assert.True(t, snap.Queue[0].EstimatedStart.Equal(start))

	var content, commercials int
	for _, e := range snap.Queue {
		var seg struct {
			Kind   models.SegmentKind `json:"kind"`
			Source string             `json:"source"`
		}
		require.NoError(t, json.Unmarshal(e.Segment, &seg))
		switch seg.Kind {
		case models.SegmentContent:
			content++
			assert.Equal(t, "/tv/ep1.mkv", seg.Source)
		case models.SegmentCommercial:
			commercials++
		}
	}
	assert.GreaterOrEqual(t, content, 2, "an hour covers at least two half-hour blocks")
	assert.Positive(t, commercials)

	remaining, err := models.ParseSeconds(snap.Remaining.String())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, remaining, time.Hour)
}

func TestPrintQueue(t *testing.T) {
	at := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	content := models.NewContentSegment("/tv/movie.mkv", time.Hour, "b-1")
	content.SetStart(10 * time.Minute)
	content.SetEnd(25 * time.Minute)
	spot := models.NewCommercialSegment(models.Spot{Ref: "/ads/a.mp4", Duration: 15 * time.Second}, "b-1")

	snap := playout.Snapshot{
		Queue: []playout.Entry{
			{Segment: content, EstimatedStart: at},
			{Segment: spot, EstimatedStart: at.Add(15 * time.Minute)},
		},
		Remaining: models.Seconds(15*time.Minute + 15*time.Second),
		DrainAt:   at.Add(15*time.Minute + 15*time.Second),
	}

	var out bytes.Buffer
	require.NoError(t, printQueue(&out, snap))

	text := out.String()
	assert.Contains(t, text, "600.000..1500.000")
	assert.Contains(t, text, "2026-03-14 20:15:00.000")
	assert.Contains(t, text, "/ads/a.mp4")
	assert.Contains(t, text, "2 segments, 915.000s queued")
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestCachePurgeRejectsUnknownScope(t *testing.T) {
	rootCmd.SetArgs([]string{"cache", "purge", "everything"})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	assert.ErrorContains(t, err, "unknown cache scope")
}

func TestCachePurgeNeedsRedis(t *testing.T) {
	t.Setenv("TD_REDIS_ENABLED", "false")
	t.Setenv("TD_SCHEDULER_URL", "")
	t.Setenv("SCHEDULER_URL", "")
	rootCmd.SetArgs([]string{"cache", "purge", "metadata", "--env-file", filepath.Join(t.TempDir(), "missing.env")})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	assert.ErrorContains(t, err, "TD_REDIS_ENABLED")
}
