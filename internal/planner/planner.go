/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/technicaldirector/internal/commercial"
	"github.com/friendsincode/technicaldirector/internal/events"
	"github.com/friendsincode/technicaldirector/internal/models"
	"github.com/friendsincode/technicaldirector/internal/telemetry"
)

// ErrBlockElapsed is returned when a block has no airtime left at the planning instant.
var ErrBlockElapsed = errors.New("programming block already ended")

// CatalogProvider supplies the commercial spots available for one assembly pass.
type CatalogProvider interface {
	FetchCommercialPool(ctx context.Context) ([]models.Spot, error)
}

// BreakAssembler turns a break count and time budget into filled breaks.
type BreakAssembler interface {
	Assemble(count int, budget time.Duration, pool *commercial.Pool) ([]commercial.Break, error)
}

// CoinFunc decides the optional head and tail breaks.
type CoinFunc func() bool

// Option configures a Planner.
type Option func(*Planner)

// WithCoin replaces the random head/tail decision.
func WithCoin(coin CoinFunc) Option {
	return func(p *Planner) { p.coin = coin }
}

// WithBus publishes planning events to bus.
func WithBus(bus *events.Bus) Option {
	return func(p *Planner) { p.bus = bus }
}

// WithBatchLabels replaces the batch label generator.
func WithBatchLabels(next func() string) Option {
	return func(p *Planner) { p.nextBatch = next }
}

// Planner turns a programming block and its content into playable segments.
type Planner struct {
	catalog   CatalogProvider
	assembler BreakAssembler
	coin      CoinFunc
	nextBatch func() string
	bus       *events.Bus
	logger    zerolog.Logger

	// serializes use of the random source shared with the filler
	mu sync.Mutex
}

// New creates a planner. rng drives the head/tail break decision and must be
// the same source the assembler's filler draws from, or one not shared with
// any other goroutine.
func New(catalog CatalogProvider, assembler BreakAssembler, rng *rand.Rand, logger zerolog.Logger, opts ...Option) *Planner {
	p := &Planner{
		catalog:   catalog,
		assembler: assembler,
		coin:      func() bool { return rng.Intn(2) == 1 },
		nextBatch: uuid.NewString,
		logger:    logger.With().Str("component", "planner").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan decides how block airs when planned at instant at.
//
// If less time is left in the block than the content runs, the block was
// joined mid-air: the tail of the content is played so it ends with the block
// and no commercials are scheduled. Otherwise the whole content airs with
// breaks before, between chapters and after it, filled from a fresh catalog
// snapshot to cover the difference between block and content length. At
// least one break is always scheduled.
//
// content must be resolved. Catalog failures are returned as-is.
func (p *Planner) Plan(ctx context.Context, at time.Time, block models.Block, content models.Content) (*Plan, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.ScopePlanner, "planner.plan")
	defer span.End()

	started := time.Now()
	defer func() { telemetry.PlanDuration.Observe(time.Since(started).Seconds()) }()

	remaining := block.Remaining(at)
	if remaining <= 0 {
		err := fmt.Errorf("%w: block %s ended at %s", ErrBlockElapsed, block.ID, block.End().Format(time.RFC3339))
		telemetry.RecordError(span, err)
		return nil, err
	}

	contentDuration, err := content.Duration()
	if err != nil {
		err = fmt.Errorf("content %s: %w", content.Ref, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	plan := &Plan{
		Block:           block,
		Batch:           p.nextBatch(),
		At:              at,
		Remaining:       remaining,
		ContentDuration: contentDuration,
	}

	if remaining < contentDuration {
		p.planTruncated(plan, content)
	} else if err := p.planFull(ctx, plan, content); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, map[string]any{
		"block.id":         block.ID,
		"block.remaining":  remaining,
		"content.ref":      content.Ref,
		"content.duration": contentDuration,
		"plan.truncated":   plan.Truncated,
		"plan.breaks":      len(plan.Breaks),
		"plan.segments":    len(plan.Segments),
	})

	p.report(plan)
	return plan, nil
}

func (p *Planner) planTruncated(plan *Plan, content models.Content) {
	seg := models.NewContentSegment(content.Ref, plan.ContentDuration, plan.Batch)
	seg.SetStart(plan.ContentDuration - plan.Remaining)

	plan.Truncated = true
	plan.Segments = []models.Segment{seg}

	p.logger.Info().
		Str("block", plan.Block.ID).
		Dur("remaining", plan.Remaining).
		Dur("content", plan.ContentDuration).
		Dur("start", plan.ContentDuration-plan.Remaining).
		Msg("joining block mid-content")
}

func (p *Planner) planFull(ctx context.Context, plan *Plan, content models.Content) error {
	head := p.coin()
	tail := p.coin()

	var chapters []models.Chapter
	if plan.Block.ShowCommercials {
		chapters = content.Chapters()
	}

	count := max(len(chapters)-1, 0)
	if head {
		count++
	}
	if tail {
		count++
	}
	if count == 0 {
		// Block runs longer than the content; without a break the rest is dead air.
		count = 1
		plan.ForcedBreak = true
		tail = true
	}

	plan.Budget = plan.Block.Duration - plan.ContentDuration

	spots, err := p.catalog.FetchCommercialPool(ctx)
	if err != nil {
		return fmt.Errorf("fetch commercial pool: %w", err)
	}

	pool := commercial.NewPool(spots)
	breaks, err := p.assembler.Assemble(count, plan.Budget, pool)
	if err != nil {
		return fmt.Errorf("assemble %d breaks: %w", count, err)
	}
	plan.Breaks = breaks

	// Breaks are handed out from the end of the assembled list.
	pending := append([]commercial.Break(nil), breaks...)
	popBreak := func() {
		if len(pending) == 0 {
			return
		}
		br := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		for _, spot := range br.Spots {
			plan.Segments = append(plan.Segments, models.NewCommercialSegment(spot, plan.Batch))
		}
	}

	if head {
		popBreak()
	}

	if len(chapters) > 0 {
		for i, ch := range chapters {
			seg := models.NewContentSegment(content.Ref, plan.ContentDuration, plan.Batch)
			seg.SetStart(ch.Start)
			seg.SetEnd(ch.End)
			plan.Segments = append(plan.Segments, seg)
			if i < len(chapters)-1 {
				popBreak()
			}
		}
	} else {
		plan.Segments = append(plan.Segments, models.NewContentSegment(content.Ref, plan.ContentDuration, plan.Batch))
	}

	if tail {
		popBreak()
	}

	return nil
}

func (p *Planner) report(plan *Plan) {
	branch := "full"
	if plan.Truncated {
		branch = "truncated"
	}
	telemetry.BlocksPlannedTotal.WithLabelValues(branch).Inc()

	for i, br := range plan.Breaks {
		telemetry.BreaksAssembledTotal.Inc()
		telemetry.SpotsForcedTotal.Add(float64(br.Forced))
		if br.Target > 0 {
			telemetry.BreakFillRatio.Observe(float64(br.Filled) / float64(br.Target))
		}
		if !br.Underfilled() {
			continue
		}

		telemetry.BreaksUnderfilledTotal.Inc()
		p.logger.Warn().
			Str("block", plan.Block.ID).
			Str("batch", plan.Batch).
			Int("break", i).
			Dur("target", br.Target).
			Dur("filled", br.Filled).
			Msg("commercial break underfilled")
		p.publish(events.EventBreakUnderfilled, events.Payload{
			"block_id": plan.Block.ID,
			"batch":    plan.Batch,
			"break":    i,
			"target":   models.FormatSeconds(br.Target),
			"filled":   models.FormatSeconds(br.Filled),
			"spots":    len(br.Spots),
		})
	}

	p.logger.Debug().
		Str("block", plan.Block.ID).
		Str("batch", plan.Batch).
		Str("branch", branch).
		Int("segments", len(plan.Segments)).
		Int("breaks", len(plan.Breaks)).
		Dur("budget", plan.Budget).
		Dur("duration", plan.Duration()).
		Msg("block planned")

	p.publish(events.EventBlockPlanned, events.Payload{
		"block_id":  plan.Block.ID,
		"label":     plan.Block.Label,
		"batch":     plan.Batch,
		"branch":    branch,
		"segments":  len(plan.Segments),
		"breaks":    len(plan.Breaks),
		"duration":  models.FormatSeconds(plan.Duration()),
		"block_end": plan.Block.End().UTC().Format(time.RFC3339),
	})
}

func (p *Planner) publish(eventType events.EventType, payload events.Payload) {
	if p.bus != nil {
		p.bus.Publish(eventType, payload)
	}
}
