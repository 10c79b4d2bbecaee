/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playout

import (
	"time"

	"github.com/friendsincode/technicaldirector/internal/models"
)

// Entry is a segment with the instant it is expected to start airing.
type Entry struct {
	Segment        models.Segment `json:"segment"`
	EstimatedStart time.Time      `json:"estimated_start"`
}

// Snapshot is a point-in-time view of the director.
type Snapshot struct {
	State      State          `json:"state"`
	At         time.Time      `json:"at"`
	NowPlaying *Entry         `json:"now_playing,omitempty"`
	Queue      []Entry        `json:"queue"`
	Remaining  models.Seconds `json:"remaining"`
	DrainAt    time.Time      `json:"drain_at"`
}

// Snapshot returns the playing segment and every queued segment with its
// estimated airtime.
func (d *Director) Snapshot() Snapshot {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	snap := Snapshot{State: d.state, At: now, Queue: make([]Entry, 0, d.queue.Len())}

	cursor := now
	if d.current != nil {
		snap.NowPlaying = &Entry{Segment: d.current.segment, EstimatedStart: d.current.started}
		if d.current.ends().After(cursor) {
			cursor = d.current.ends()
		}
	}

	var remaining time.Duration
	for _, seg := range d.queue.Segments() {
		snap.Queue = append(snap.Queue, Entry{Segment: seg, EstimatedStart: cursor})
		cursor = cursor.Add(seg.Duration())
		remaining += seg.Duration()
	}
	snap.Remaining = models.Seconds(remaining)
	snap.DrainAt = cursor

	return snap
}
