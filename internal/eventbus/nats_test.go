/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendsincode/technicaldirector/internal/events"
)

type published struct {
	subject string
	data    []byte
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{subject: subject, data: data})
	return nil
}

func (p *recordingPublisher) snapshot() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.msgs...)
}

func TestForwarderRelaysEvents(t *testing.T) {
	bus := events.NewBus()
	pub := &recordingPublisher{}
	fwd := NewForwarder(bus, pub, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = fwd.Run(ctx)
		close(done)
	}()

	// Run subscribes asynchronously; publish until the first message lands.
	require.Eventually(t, func() bool {
		bus.Publish(events.EventDeadAir, events.Payload{"channel": 3})
		return len(pub.snapshot()) > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	msg := pub.snapshot()[0]
	assert.Equal(t, "technicaldirector.events.queue.dead_air", msg.subject)

	var decoded Message
	require.NoError(t, json.Unmarshal(msg.data, &decoded))
	assert.Equal(t, events.EventDeadAir, decoded.EventType)
	assert.EqualValues(t, 3, decoded.Payload["channel"])
	assert.NotEmpty(t, decoded.MessageID)
	assert.Equal(t, fwd.nodeID, decoded.NodeID)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "technicaldirector.events.block.planned", Subject(events.EventBlockPlanned))
}
