/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playout

import (
	"time"

	"github.com/friendsincode/technicaldirector/internal/models"
)

// Queue is the ordered list of segments waiting to air. Segments are appended
// at the tail and consumed from the head. It is not safe for concurrent use;
// the Director guards it.
type Queue struct {
	segments []models.Segment
}

// Push appends segments to the tail.
func (q *Queue) Push(segments ...models.Segment) {
	q.segments = append(q.segments, segments...)
}

// Pop removes the head segment.
func (q *Queue) Pop() (models.Segment, bool) {
	if len(q.segments) == 0 {
		return models.Segment{}, false
	}
	seg := q.segments[0]
	q.segments[0] = models.Segment{}
	q.segments = q.segments[1:]
	return seg, true
}

// Len returns the number of queued segments.
func (q *Queue) Len() int {
	return len(q.segments)
}

// Duration is the exact sum of the queued segment durations.
func (q *Queue) Duration() time.Duration {
	var total time.Duration
	for _, seg := range q.segments {
		total += seg.Duration()
	}
	return total
}

// Segments returns a copy of the queued segments in play order.
func (q *Queue) Segments() []models.Segment {
	out := make([]models.Segment, len(q.segments))
	copy(out, q.segments)
	return out
}
