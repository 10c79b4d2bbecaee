/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus relays in-process events to NATS so that other services
// (dashboards, as-run archivers, alerting) can follow the playout queue.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/friendsincode/technicaldirector/internal/events"
	"github.com/friendsincode/technicaldirector/internal/telemetry"
)

// SubjectPrefix is prepended to the event type to form the NATS subject.
const SubjectPrefix = "technicaldirector.events."

// Publisher is the subset of *nats.Conn the forwarder needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSConfig contains NATS connection configuration.
type NATSConfig struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultNATSConfig returns default NATS configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "technicaldirector",
		MaxReconnects: -1, // Unlimited
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// Connect dials NATS with reconnect handlers that log through zerolog.
func Connect(cfg NATSConfig, logger zerolog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}
	return conn, nil
}

// Message is the envelope published for every event.
type Message struct {
	EventType events.EventType `json:"event_type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
	NodeID    string           `json:"node_id"`
	MessageID string           `json:"message_id"`
}

// Forwarder subscribes to a local bus and republishes every event to NATS.
type Forwarder struct {
	bus    *events.Bus
	pub    Publisher
	nodeID string
	now    func() time.Time
	logger zerolog.Logger

	wg sync.WaitGroup
}

// NewForwarder creates a forwarder. Run starts relaying.
func NewForwarder(bus *events.Bus, pub Publisher, logger zerolog.Logger) *Forwarder {
	return &Forwarder{
		bus:    bus,
		pub:    pub,
		nodeID: generateNodeID(),
		now:    time.Now,
		logger: logger.With().Str("component", "eventbus").Logger(),
	}
}

// Run relays events until ctx is cancelled.
func (f *Forwarder) Run(ctx context.Context) error {
	subs := make(map[events.EventType]events.Subscriber, len(events.AllEventTypes))
	for _, et := range events.AllEventTypes {
		subs[et] = f.bus.Subscribe(et)
	}

	for et, sub := range subs {
		f.wg.Add(1)
		go f.relay(ctx, et, sub)
	}

	f.logger.Info().Int("event_types", len(subs)).Msg("nats forwarder started")
	<-ctx.Done()

	for et, sub := range subs {
		f.bus.Unsubscribe(et, sub)
	}
	f.wg.Wait()
	f.logger.Info().Msg("nats forwarder stopped")
	return nil
}

func (f *Forwarder) relay(ctx context.Context, eventType events.EventType, sub events.Subscriber) {
	defer f.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub:
			if !ok {
				return
			}
			if err := f.forward(eventType, payload); err != nil {
				f.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("forward event failed")
			}
		}
	}
}

func (f *Forwarder) forward(eventType events.EventType, payload events.Payload) error {
	data, err := json.Marshal(Message{
		EventType: eventType,
		Payload:   payload,
		Timestamp: f.now().UTC(),
		NodeID:    f.nodeID,
		MessageID: uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("marshal nats message: %w", err)
	}
	if err := f.pub.Publish(Subject(eventType), data); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	telemetry.EventsForwardedTotal.WithLabelValues(string(eventType)).Inc()
	return nil
}

// Subject returns the NATS subject for an event type.
func Subject(eventType events.EventType) string {
	return SubjectPrefix + string(eventType)
}

func generateNodeID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "node"
	}
	return host + "-" + uuid.NewString()[:8]
}
