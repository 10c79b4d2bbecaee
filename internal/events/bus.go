/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import (
	"sync"

	"github.com/friendsincode/technicaldirector/internal/telemetry"
)

// EventType enumerates event categories.
type EventType string

const (
	EventSegmentStarted   EventType = "segment.started"
	EventSegmentEnded     EventType = "segment.ended"
	EventDeadAir          EventType = "queue.dead_air"
	EventQueueReplenished EventType = "queue.replenished"
	EventReplenishFailed  EventType = "queue.replenish_failed"
	EventBlockPlanned     EventType = "block.planned"
	EventBreakUnderfilled EventType = "break.underfilled"
	EventHealth           EventType = "health"
)

// AllEventTypes lists every event the service publishes, for subscribers
// that relay the whole stream.
var AllEventTypes = []EventType{
	EventSegmentStarted,
	EventSegmentEnded,
	EventDeadAir,
	EventQueueReplenished,
	EventReplenishFailed,
	EventBlockPlanned,
	EventBreakUnderfilled,
	EventHealth,
}

// Payload generic event payload.
type Payload map[string]any

// Subscriber receives event payloads.
type Subscriber chan Payload

// Bus implements a simple in-process pubsub.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType][]Subscriber
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]Subscriber)}
}

// DefaultBuffer is the channel capacity of Subscribe.
const DefaultBuffer = 8

// Subscribe registers a subscriber for event type.
func (b *Bus) Subscribe(eventType EventType) Subscriber {
	return b.SubscribeBuffered(eventType, DefaultBuffer)
}

// SubscribeBuffered registers a subscriber with room for size undelivered
// payloads. Payloads published while it is full are dropped and counted.
func (b *Bus) SubscribeBuffered(eventType EventType, size int) Subscriber {
	if size < 1 {
		size = 1
	}
	ch := make(Subscriber, size)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends payload to subscribers.
func (b *Bus) Publish(eventType EventType, payload Payload) {
	// Held across the sends so Unsubscribe cannot close a channel mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs[eventType] {
		select {
		case sub <- payload:
		default:
			telemetry.EventsDroppedTotal.WithLabelValues(string(eventType)).Inc()
		}
	}
}

// Unsubscribe removes the subscriber.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, candidate := range subs {
		if candidate == sub {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	b.subs[eventType] = subs
	close(sub)
}
