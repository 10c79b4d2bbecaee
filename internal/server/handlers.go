/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/friendsincode/technicaldirector/internal/logbuffer"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.queue.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"state":   snap.State,
		"depth":   len(snap.Queue),
		"channel": s.cfg.Channel,
	})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.queue.Snapshot())
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s.queue.RequestAdvance()
	s.logger.Info().Str("remote", r.RemoteAddr).Msg("operator requested advance")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "advance requested"})
}

func (s *Server) handleAsRun(w http.ResponseWriter, r *http.Request) {
	if s.asrun == nil {
		writeError(w, http.StatusNotFound, "as-run log disabled")
		return
	}
	limit, err := intParam(r, "limit", 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.asrun.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("load as-run failed")
		writeError(w, http.StatusInternalServerError, "load as-run failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.logBuffer == nil {
		writeError(w, http.StatusNotFound, "log buffer disabled")
		return
	}

	q := r.URL.Query()
	params := logbuffer.QueryParams{
		Level:      q.Get("level"),
		Component:  q.Get("component"),
		Batch:      q.Get("batch"),
		Search:     q.Get("search"),
		Descending: q.Get("order") != "asc",
	}
	limit, err := intParam(r, "limit", 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	params.Limit = limit
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		params.Since = t
	}

	entries := s.logBuffer.Query(params)
	if entries == nil {
		entries = []logbuffer.LogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleLogStats(w http.ResponseWriter, r *http.Request) {
	if s.logBuffer == nil {
		writeError(w, http.StatusNotFound, "log buffer disabled")
		return
	}
	writeJSON(w, http.StatusOK, s.logBuffer.Stats())
}

type paramError string

func (e paramError) Error() string { return string(e) }

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, paramError(name + " must be a non-negative integer")
	}
	return v, nil
}
