/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"encoding/json"
	"time"
)

// SegmentKind distinguishes program content from commercial spots.
type SegmentKind string

const (
	SegmentContent    SegmentKind = "content"
	SegmentCommercial SegmentKind = "commercial"
)

// Segment is one playable unit in the queue: a slice of a content file or a
// whole commercial spot.
//
// The effective duration is derived from the playback window:
//
//	start and end set  -> end - start
//	only start set     -> total - start
//	only end set       -> end
//	neither set        -> total
//
// It is recomputed by every setter, so a Segment never carries a stale value.
type Segment struct {
	Kind   SegmentKind
	Source string
	Batch  string

	total    time.Duration
	start    time.Duration
	end      time.Duration
	hasStart bool
	hasEnd   bool
	duration time.Duration
}

// NewContentSegment returns a segment covering the whole content file.
func NewContentSegment(ref string, total time.Duration, batch string) Segment {
	s := Segment{Kind: SegmentContent, Source: ref, Batch: batch, total: total}
	s.resolve()
	return s
}

// NewCommercialSegment returns a segment playing one spot in full.
func NewCommercialSegment(spot Spot, batch string) Segment {
	s := Segment{Kind: SegmentCommercial, Source: spot.Ref, Batch: batch, total: spot.Duration}
	s.resolve()
	return s
}

// SetStart sets the start offset into the source.
func (s *Segment) SetStart(d time.Duration) {
	s.start, s.hasStart = d, true
	s.resolve()
}

// SetEnd sets the stop offset into the source.
func (s *Segment) SetEnd(d time.Duration) {
	s.end, s.hasEnd = d, true
	s.resolve()
}

// ClearWindow removes both offsets so the whole source plays.
func (s *Segment) ClearWindow() {
	s.start, s.end, s.hasStart, s.hasEnd = 0, 0, false, false
	s.resolve()
}

// Start returns the start offset and whether it is set.
func (s Segment) Start() (time.Duration, bool) { return s.start, s.hasStart }

// End returns the stop offset and whether it is set.
func (s Segment) End() (time.Duration, bool) { return s.end, s.hasEnd }

// Total returns the full length of the source media.
func (s Segment) Total() time.Duration { return s.total }

// Duration returns the effective playback duration. It is never negative.
func (s Segment) Duration() time.Duration { return s.duration }

func (s *Segment) resolve() {
	var d time.Duration
	switch {
	case s.hasStart && s.hasEnd:
		d = s.end - s.start
	case s.hasStart:
		d = s.total - s.start
	case s.hasEnd:
		d = s.end
	default:
		d = s.total
	}
	if d < 0 {
		d = 0
	}
	s.duration = d
}

type segmentJSON struct {
	Kind     SegmentKind `json:"kind"`
	Source   string      `json:"source"`
	Batch    string      `json:"batch"`
	Start    *Seconds    `json:"start,omitempty"`
	End      *Seconds    `json:"end,omitempty"`
	Duration Seconds     `json:"duration"`
}

// MarshalJSON implements json.Marshaler.
func (s Segment) MarshalJSON() ([]byte, error) {
	out := segmentJSON{
		Kind:     s.Kind,
		Source:   s.Source,
		Batch:    s.Batch,
		Duration: Seconds(s.duration),
	}
	if s.hasStart {
		v := Seconds(s.start)
		out.Start = &v
	}
	if s.hasEnd {
		v := Seconds(s.end)
		out.End = &v
	}
	return json.Marshal(out)
}
