/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	ws "nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/friendsincode/technicaldirector/internal/events"
	"github.com/friendsincode/technicaldirector/internal/telemetry"
)

type wsMessage struct {
	Type      events.EventType `json:"type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
}

type typedPayload struct {
	eventType events.EventType
	payload   events.Payload
}

// handleEvents streams bus events to a websocket client. The optional types
// query parameter is a comma-separated list of event types.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		writeError(w, http.StatusNotFound, "event stream disabled")
		return
	}
	types, ok := parseEventTypes(r.URL.Query().Get("types"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown event type")
		return
	}

	conn, err := ws.Accept(w, r, &ws.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(ws.StatusInternalError, "server error")

	telemetry.APIWebSocketConnections.Inc()
	defer telemetry.APIWebSocketConnections.Dec()

	// The stream is write-only; CloseRead handles control frames and cancels
	// ctx when the client goes away.
	ctx, cancel := context.WithCancel(conn.CloseRead(r.Context()))
	defer cancel()

	merged := make(chan typedPayload, 32)
	for _, et := range types {
		sub := s.bus.Subscribe(et)
		defer s.bus.Unsubscribe(et, sub)
		go pump(ctx, et, sub, merged)
	}

	s.logger.Debug().Int("types", len(types)).Msg("event stream connected")

	pingTicker := time.NewTicker(15 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(ws.StatusNormalClosure, "client disconnected")
			return

		case <-pingTicker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				s.logger.Debug().Err(err).Msg("websocket ping failed")
				return
			}

		case msg := <-merged:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, wsMessage{
				Type:      msg.eventType,
				Payload:   msg.payload,
				Timestamp: time.Now().UTC(),
			})
			cancel()
			if err != nil {
				s.logger.Debug().Err(err).Msg("websocket write failed")
				return
			}
		}
	}
}

func pump(ctx context.Context, et events.EventType, sub events.Subscriber, out chan<- typedPayload) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-sub:
			if !ok {
				return
			}
			select {
			case out <- typedPayload{eventType: et, payload: p}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func parseEventTypes(raw string) ([]events.EventType, bool) {
	if raw == "" {
		return events.AllEventTypes, true
	}
	known := make(map[events.EventType]bool, len(events.AllEventTypes))
	for _, et := range events.AllEventTypes {
		known[et] = true
	}
	var out []events.EventType
	for _, part := range strings.Split(raw, ",") {
		et := events.EventType(strings.TrimSpace(part))
		if et == "" {
			continue
		}
		if !known[et] {
			return nil, false
		}
		out = append(out, et)
	}
	return out, len(out) > 0
}
