/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/friendsincode/technicaldirector/internal/models"
	"github.com/friendsincode/technicaldirector/internal/telemetry"
)

// ErrNoSchedulerURL is returned when the scheduling service address is missing.
var ErrNoSchedulerURL = errors.New("scheduler URL not configured (example: TD_SCHEDULER_URL=http://scheduler.local)")

const maxResponseBytes = 8 << 20

// listing is one entry of a channel lineup as served by the scheduler.
type listing struct {
	ListingID       json.RawMessage `json:"listing_id"`
	Title           string          `json:"title"`
	FilePath        string          `json:"file_path"`
	StartTime       string          `json:"start_time"`
	EndTime         string          `json:"end_time"`
	ShowCommercials *bool           `json:"show_commercials"`
}

type channelSchedule struct {
	Lineup []listing `json:"lineup"`
}

// Client talks to the remote scheduling service. It is both the catalog
// provider and the programming source for one channel.
type Client struct {
	baseURL  string
	channel  int
	location *time.Location
	http     *http.Client
	logger   zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithLocation sets the zone for listing times that carry no offset.
func WithLocation(loc *time.Location) ClientOption {
	return func(c *Client) { c.location = loc }
}

// NewClient creates a scheduler client for channel.
func NewClient(baseURL string, channel int, logger zerolog.Logger, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrNoSchedulerURL
	}
	c := &Client{
		baseURL:  baseURL,
		channel:  channel,
		location: time.Local,
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.With().Str("component", "scheduler_client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchCommercialPool downloads the commercial catalog.
func (c *Client) FetchCommercialPool(ctx context.Context) ([]models.Spot, error) {
	var spots []models.Spot
	if err := c.getJSON(ctx, "/commercials.json", &spots); err != nil {
		return nil, fmt.Errorf("fetch commercials: %w", err)
	}
	c.logger.Debug().Int("spots", len(spots)).Msg("commercial catalog fetched")
	return spots, nil
}

// Lineup downloads the channel lineup.
func (c *Client) Lineup(ctx context.Context) (Lineup, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.ScopeSchedule, "scheduler.lineup")
	defer span.End()

	var sched channelSchedule
	path := fmt.Sprintf("/channels/ch%d/schedule.json", c.channel)
	if err := c.getJSON(ctx, path, &sched); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("fetch lineup: %w", err)
	}

	blocks := make([]models.Block, 0, len(sched.Lineup))
	for i, l := range sched.Lineup {
		block, err := c.toBlock(l)
		if err != nil {
			c.logger.Warn().Err(err).Int("index", i).Str("title", l.Title).Msg("skipping malformed listing")
			continue
		}
		blocks = append(blocks, block)
	}
	return NewLineup(blocks), nil
}

// CurrentBlock returns the listing airing at at.
func (c *Client) CurrentBlock(ctx context.Context, at time.Time) (models.Block, error) {
	lineup, err := c.Lineup(ctx)
	if err != nil {
		return models.Block{}, err
	}
	block, ok := lineup.At(at)
	if !ok {
		return models.Block{}, fmt.Errorf("channel %d at %s: %w", c.channel, at.Format(time.RFC3339), ErrNoBlock)
	}
	return block, nil
}

// NextBlock returns the first listing starting after at.
func (c *Client) NextBlock(ctx context.Context, at time.Time) (models.Block, error) {
	lineup, err := c.Lineup(ctx)
	if err != nil {
		return models.Block{}, err
	}
	block, ok := lineup.After(at)
	if !ok {
		return models.Block{}, fmt.Errorf("channel %d after %s: %w", c.channel, at.Format(time.RFC3339), ErrNoBlock)
	}
	return block, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) toBlock(l listing) (models.Block, error) {
	start, err := c.parseTime(l.StartTime)
	if err != nil {
		return models.Block{}, fmt.Errorf("start_time: %w", err)
	}
	end, err := c.parseTime(l.EndTime)
	if err != nil {
		return models.Block{}, fmt.Errorf("end_time: %w", err)
	}
	if !end.After(start) {
		return models.Block{}, fmt.Errorf("listing ends at or before its start")
	}
	if l.FilePath == "" {
		return models.Block{}, fmt.Errorf("listing has no file_path")
	}

	showCommercials := true
	if l.ShowCommercials != nil {
		showCommercials = *l.ShowCommercials
	}

	return models.Block{
		ID:              listingID(l.ListingID),
		Label:           l.Title,
		Start:           start,
		Duration:        end.Sub(start),
		ContentRef:      l.FilePath,
		ShowCommercials: showCommercials,
	}, nil
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTime accepts RFC 3339 and, for schedulers that omit the offset, local
// wall-clock times in the client's zone.
func (c *Client) parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, c.location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// listingID accepts numeric and string ids.
func listingID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
