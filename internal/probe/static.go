/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/friendsincode/technicaldirector/internal/models"
)

// Static answers probes from a fixed table, for dry runs without media files.
type Static struct {
	entries  map[string]models.Metadata
	fallback time.Duration
}

// NewStatic returns a source that reports fallback for unknown refs. A zero
// fallback makes unknown refs an error.
func NewStatic(entries map[string]models.Metadata, fallback time.Duration) *Static {
	copied := make(map[string]models.Metadata, len(entries))
	for k, v := range entries {
		copied[k] = v
	}
	return &Static{entries: copied, fallback: fallback}
}

// Probe implements the metadata source.
func (s *Static) Probe(_ context.Context, ref string) (models.Metadata, error) {
	if meta, ok := s.entries[ref]; ok {
		return meta, nil
	}
	if s.fallback > 0 {
		return models.Metadata{StreamDuration: s.fallback}, nil
	}
	return models.Metadata{}, fmt.Errorf("no metadata for %s", ref)
}
