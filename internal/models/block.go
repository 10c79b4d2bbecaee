/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// Block is a programming block: a fixed window of airtime assigned to one
// piece of content.
type Block struct {
	ID         string        `json:"id"`
	Label      string        `json:"label"`
	Start      time.Time     `json:"start"`
	Duration   time.Duration `json:"duration"`
	ContentRef string        `json:"content_ref"`
	// ShowCommercials permits breaks at chapter marks inside the content.
	ShowCommercials bool `json:"show_commercials"`
}

// End returns the scheduled end of the block.
func (b Block) End() time.Time {
	return b.Start.Add(b.Duration)
}

// Contains reports whether at falls inside [Start, End).
func (b Block) Contains(at time.Time) bool {
	return !at.Before(b.Start) && at.Before(b.End())
}

// Remaining returns the airtime left in the block as seen from at. Instants
// before the block start report the full duration; instants past the end
// report zero.
func (b Block) Remaining(at time.Time) time.Duration {
	from := at
	if from.Before(b.Start) {
		from = b.Start
	}
	remaining := b.End().Sub(from)
	if remaining < 0 {
		return 0
	}
	return remaining
}
