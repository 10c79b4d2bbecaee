/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commercialsJSON = `[
  {"filepath": "/video/commercials/soda.mp4", "duration": "30.030", "subject": "soda"},
  {"filepath": "/video/commercials/bank.mp4", "duration": 15.5, "subject": null},
  {"filepath": "/video/commercials/psa.mp4", "duration": "60"}
]`

const lineupJSON = `{
  "lineup": [
    {"listing_id": 12, "title": "Late Movie", "file_path": "/video/movie.mkv",
     "start_time": "2026-03-14T21:00:00Z", "end_time": "2026-03-14T23:00:00Z"},
    {"listing_id": "11", "title": "Sitcom", "file_path": "/video/sitcom.mkv",
     "start_time": "2026-03-14T20:30:00Z", "end_time": "2026-03-14T21:00:00Z",
     "show_commercials": false},
    {"listing_id": 13, "title": "Broken", "file_path": "",
     "start_time": "2026-03-14T23:00:00Z", "end_time": "2026-03-14T23:30:00Z"}
  ]
}`

func newSchedulerServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/commercials.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(commercialsJSON))
	})
	mux.HandleFunc("/channels/ch3/schedule.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(lineupJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient("  ", 3, zerolog.Nop())
	assert.True(t, errors.Is(err, ErrNoSchedulerURL))
}

func TestClientFetchCommercialPool(t *testing.T) {
	srv := newSchedulerServer(t)
	c, err := NewClient(srv.URL+"/", 3, zerolog.Nop())
	require.NoError(t, err)

	spots, err := c.FetchCommercialPool(context.Background())
	require.NoError(t, err)
	require.Len(t, spots, 3)

	assert.Equal(t, "/video/commercials/soda.mp4", spots[0].Ref)
	assert.Equal(t, 30*time.Second+30*time.Millisecond, spots[0].Duration)
	assert.Equal(t, "soda", spots[0].Subject)
	assert.Equal(t, 15500*time.Millisecond, spots[1].Duration)
	assert.Empty(t, spots[1].Subject)
	assert.Equal(t, time.Minute, spots[2].Duration)
}

func TestClientBlocks(t *testing.T) {
	srv := newSchedulerServer(t)
	c, err := NewClient(srv.URL, 3, zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	lineup, err := c.Lineup(ctx)
	require.NoError(t, err)
	require.Len(t, lineup, 2, "malformed listing skipped")
	assert.Equal(t, "11", lineup[0].ID)

	current, err := c.CurrentBlock(ctx, time.Date(2026, 3, 14, 20, 45, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Sitcom", current.Label)
	assert.Equal(t, 30*time.Minute, current.Duration)
	assert.False(t, current.ShowCommercials)

	next, err := c.NextBlock(ctx, time.Date(2026, 3, 14, 20, 45, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "12", next.ID)
	assert.Equal(t, 2*time.Hour, next.Duration)
	assert.True(t, next.ShowCommercials, "commercials default on")

	_, err = c.CurrentBlock(ctx, time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, ErrNoBlock))

	_, err = c.NextBlock(ctx, time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, ErrNoBlock))
}

func TestClientNaiveTimesUseLocation(t *testing.T) {
	loc := time.FixedZone("CST", -6*3600)
	c, err := NewClient("http://scheduler.invalid", 1, zerolog.Nop(), WithLocation(loc))
	require.NoError(t, err)

	got, err := c.parseTime("2026-03-14T20:00:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 15, 2, 0, 0, 0, time.UTC)))
}

func TestClientHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, 3, zerolog.Nop())
	require.NoError(t, err)

	_, err = c.FetchCommercialPool(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
