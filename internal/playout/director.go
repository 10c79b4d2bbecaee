/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/technicaldirector/internal/events"
	"github.com/friendsincode/technicaldirector/internal/models"
	"github.com/friendsincode/technicaldirector/internal/schedule"
	"github.com/friendsincode/technicaldirector/internal/telemetry"
)

const (
	// DefaultPollInterval is how often the control loop runs.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultReplenishThreshold is the queued airtime below which the next
	// block is planned.
	DefaultReplenishThreshold = 30 * time.Minute

	// ReplenishRetryDelay is the pause after a failed replenish.
	ReplenishRetryDelay = 5 * time.Second

	healthInterval = 30 * time.Second
)

// State is the externally visible playout state.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "RUNNING"
	}
	return "IDLE"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Config tunes the director.
type Config struct {
	PollInterval       time.Duration
	ReplenishThreshold time.Duration
}

// Option configures a Director.
type Option func(*Director)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(d *Director) { d.now = now }
}

// WithBus publishes playout events to bus.
func WithBus(bus *events.Bus) Option {
	return func(d *Director) { d.bus = bus }
}

type nowPlaying struct {
	segment models.Segment
	started time.Time
}

func (n nowPlaying) ends() time.Time {
	return n.started.Add(n.segment.Duration())
}

// Director owns the playout queue. It advances it when the player reports the
// end of a segment and keeps it topped up from the programming schedule.
//
// All queue changes happen on the goroutine running Start and Run. The
// player's end-of-media callback only raises a flag that the loop picks up on
// its next poll.
type Director struct {
	cfg         Config
	planner     BlockPlanner
	programming ProgrammingSource
	metadata    MetadataSource
	sink        PlaybackSink
	bus         *events.Bus
	logger      zerolog.Logger
	now         func() time.Time

	advanceRequested atomic.Bool

	mu        sync.Mutex
	queue     Queue
	current   *nowPlaying
	state     State
	lastBlock string
	retryAt   time.Time
}

// NewDirector creates a playout director.
func NewDirector(cfg Config, plan BlockPlanner, programming ProgrammingSource, metadata MetadataSource, sink PlaybackSink, logger zerolog.Logger, opts ...Option) *Director {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ReplenishThreshold <= 0 {
		cfg.ReplenishThreshold = DefaultReplenishThreshold
	}
	d := &Director{
		cfg:         cfg,
		planner:     plan,
		programming: programming,
		metadata:    metadata,
		sink:        sink,
		logger:      logger.With().Str("component", "director").Logger(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue appends segments to the tail of the queue.
func (d *Director) Enqueue(segments ...models.Segment) {
	d.mu.Lock()
	d.queue.Push(segments...)
	d.mu.Unlock()
	d.updateGauges()
}

// RemainingDuration is the summed duration of all queued, not yet playing, segments.
func (d *Director) RemainingDuration() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Duration()
}

// State reports whether a segment is playing.
func (d *Director) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// RequestAdvance asks the control loop to move to the next segment. It is the
// player's end-of-media callback and does nothing else.
func (d *Director) RequestAdvance() {
	d.advanceRequested.Store(true)
}

// Advance pops the head of the queue and hands it to the player. It reports
// whether a segment was started. An empty queue is dead air: the director
// goes idle, and the condition is logged, counted and published but not
// returned as an error.
func (d *Director) Advance(ctx context.Context) bool {
	now := d.now()

	d.mu.Lock()
	prev := d.current
	seg, ok := d.queue.Pop()
	if !ok {
		d.current = nil
		d.state = StateIdle
		d.mu.Unlock()

		d.endSegment(prev, now)
		telemetry.DeadAirTotal.Inc()
		d.logger.Warn().Str("event", "dead_air").Msg("advance requested with empty queue")
		d.publish(events.EventDeadAir, events.Payload{"at": now.UTC().Format(time.RFC3339Nano)})
		d.updateGauges()
		return false
	}
	d.current = &nowPlaying{segment: seg, started: now}
	d.state = StateRunning
	d.mu.Unlock()

	d.endSegment(prev, now)

	if err := d.play(ctx, seg); err != nil {
		telemetry.PlayerErrorsTotal.Inc()
		d.logger.Error().Err(err).Str("source", seg.Source).Msg("player failed, skipping segment")
		d.mu.Lock()
		d.current = nil
		d.state = StateIdle
		d.mu.Unlock()
		d.updateGauges()
		return false
	}

	telemetry.SegmentsAdvancedTotal.WithLabelValues(string(seg.Kind)).Inc()
	d.logger.Info().
		Str("kind", string(seg.Kind)).
		Str("source", seg.Source).
		Str("batch", seg.Batch).
		Dur("duration", seg.Duration()).
		Msg("segment started")
	d.publish(events.EventSegmentStarted, segmentPayload(seg, now))
	d.updateGauges()
	return true
}

func (d *Director) play(ctx context.Context, seg models.Segment) error {
	if err := d.sink.Load(ctx, seg); err != nil {
		return fmt.Errorf("load %s: %w", seg.Source, err)
	}
	if err := d.sink.Play(ctx); err != nil {
		return fmt.Errorf("play %s: %w", seg.Source, err)
	}
	return nil
}

func (d *Director) endSegment(prev *nowPlaying, now time.Time) {
	if prev == nil {
		return
	}
	payload := segmentPayload(prev.segment, prev.started)
	payload["ended_at"] = now.UTC().Format(time.RFC3339Nano)
	d.publish(events.EventSegmentEnded, payload)
}

// drainInstant projects when the queue would run dry if nothing is added.
func (d *Director) drainInstant(now time.Time) time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()

	from := now
	if d.current != nil && d.current.ends().After(from) {
		from = d.current.ends()
	}
	return from.Add(d.queue.Duration())
}

// MaybeReplenish plans and enqueues the block airing when the queue would run
// dry, provided less than the replenish threshold is queued. Above the
// threshold, or within ReplenishRetryDelay of a failure, it does nothing. It
// reports whether segments were added.
//
// The block is chosen at the projected drain instant, not at now, so a queue
// reaching into the next block plans that one. A block already planned is
// never planned twice; the one after it is used instead.
func (d *Director) MaybeReplenish(ctx context.Context, now time.Time) (bool, error) {
	d.mu.Lock()
	remaining := d.queue.Duration()
	backoff := now.Before(d.retryAt)
	d.mu.Unlock()
	if remaining >= d.cfg.ReplenishThreshold || backoff {
		return false, nil
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.ScopePlayout, "director.replenish")
	defer span.End()

	drain := d.drainInstant(now)

	block, err := d.blockAt(ctx, drain)
	if err != nil {
		telemetry.RecordError(span, err)
		return false, d.replenishFailed(now, "schedule", err)
	}

	meta, err := d.metadata.Probe(ctx, block.ContentRef)
	if err != nil {
		err = fmt.Errorf("probe %s: %w", block.ContentRef, err)
		telemetry.RecordError(span, err)
		return false, d.replenishFailed(now, "probe", err)
	}

	plan, err := d.planner.Plan(ctx, drain, block, models.ResolvedContent(block.ContentRef, meta))
	if err != nil {
		telemetry.RecordError(span, err)
		return false, d.replenishFailed(now, "plan", err)
	}

	d.mu.Lock()
	d.queue.Push(plan.Segments...)
	d.lastBlock = block.ID
	d.retryAt = time.Time{}
	depth := d.queue.Len()
	d.mu.Unlock()

	telemetry.ReplenishTotal.Inc()
	telemetry.AddSpanAttributes(span, map[string]any{
		"block.id":        block.ID,
		"queue.drain_at":  drain,
		"queue.remaining": remaining,
		"plan.segments":   len(plan.Segments),
	})

	d.logger.Info().
		Str("block", block.ID).
		Str("label", block.Label).
		Str("batch", plan.Batch).
		Time("drain_at", drain).
		Dur("remaining_before", remaining).
		Int("segments", len(plan.Segments)).
		Int("depth", depth).
		Msg("queue replenished")
	d.publish(events.EventQueueReplenished, events.Payload{
		"block_id": block.ID,
		"batch":    plan.Batch,
		"drain_at": drain.UTC().Format(time.RFC3339Nano),
		"segments": len(plan.Segments),
		"added":    models.FormatSeconds(plan.Duration()),
	})
	d.updateGauges()
	return true, nil
}

func (d *Director) blockAt(ctx context.Context, at time.Time) (models.Block, error) {
	block, err := d.programming.CurrentBlock(ctx, at)
	switch {
	case err == nil:
		d.mu.Lock()
		planned := block.ID != "" && block.ID == d.lastBlock
		d.mu.Unlock()
		if !planned {
			return block, nil
		}
	case !errors.Is(err, schedule.ErrNoBlock):
		return models.Block{}, fmt.Errorf("current block at %s: %w", at.Format(time.RFC3339), err)
	}

	block, err = d.programming.NextBlock(ctx, at)
	if err != nil {
		return models.Block{}, fmt.Errorf("next block after %s: %w", at.Format(time.RFC3339), err)
	}
	return block, nil
}

func (d *Director) replenishFailed(now time.Time, stage string, err error) error {
	d.mu.Lock()
	d.retryAt = now.Add(ReplenishRetryDelay)
	d.mu.Unlock()

	telemetry.ReplenishErrorsTotal.WithLabelValues(stage).Inc()
	d.logger.Error().Err(err).Str("stage", stage).Msg("queue replenish failed")
	d.publish(events.EventReplenishFailed, events.Payload{"stage": stage, "error": err.Error()})
	return err
}

// Start registers the end-of-media callback, fills the queue and starts the
// first segment. If nothing can be started, the poll loop starts the queue
// once it is refilled.
func (d *Director) Start(ctx context.Context) {
	d.sink.OnPlaybackEnded(d.RequestAdvance)
	if _, err := d.MaybeReplenish(ctx, d.now()); err != nil {
		d.logger.Warn().Err(err).Msg("initial replenish failed, retrying on poll")
	}
	d.Advance(ctx)
}

// Run executes the director loop until context cancellation.
func (d *Director) Run(ctx context.Context) error {
	d.logger.Info().Dur("poll", d.cfg.PollInterval).Msg("playout director started")

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()
	health := time.NewTicker(healthInterval)
	defer health.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("playout director stopped")
			return ctx.Err()
		case <-ticker.C:
			d.tick(ctx)
		case <-health.C:
			d.emitHealthSnapshot()
		}
	}
}

func (d *Director) tick(ctx context.Context) {
	if d.advanceRequested.CompareAndSwap(true, false) {
		d.Advance(ctx)
	}
	// Errors are logged and counted; the next poll retries.
	_, _ = d.MaybeReplenish(ctx, d.now())

	// An idle player never reports an end of media, so nothing else would
	// start a queue refilled after dead air or a rejected segment.
	if d.idleWithQueue() {
		d.Advance(ctx)
	}
}

func (d *Director) idleWithQueue() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == StateIdle && d.queue.Len() > 0
}

func (d *Director) emitHealthSnapshot() {
	snap := d.Snapshot()
	d.publish(events.EventHealth, events.Payload{
		"state":     snap.State.String(),
		"depth":     len(snap.Queue),
		"remaining": models.FormatSeconds(snap.Remaining.Duration()),
	})
}

func (d *Director) updateGauges() {
	d.mu.Lock()
	depth := d.queue.Len()
	remaining := d.queue.Duration()
	d.mu.Unlock()
	telemetry.QueueDepth.Set(float64(depth))
	telemetry.QueueRemainingSeconds.Set(remaining.Seconds())
}

func (d *Director) publish(eventType events.EventType, payload events.Payload) {
	if d.bus != nil {
		d.bus.Publish(eventType, payload)
	}
}

func segmentPayload(seg models.Segment, started time.Time) events.Payload {
	payload := events.Payload{
		"kind":       string(seg.Kind),
		"source":     seg.Source,
		"batch":      seg.Batch,
		"duration":   models.FormatSeconds(seg.Duration()),
		"started_at": started.UTC().Format(time.RFC3339Nano),
	}
	if start, ok := seg.Start(); ok {
		payload["start"] = models.FormatSeconds(start)
	}
	if end, ok := seg.End(); ok {
		payload["end"] = models.FormatSeconds(end)
	}
	return payload
}
