/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBlockRemaining(t *testing.T) {
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	block := Block{Start: start, Duration: 30 * time.Minute}

	assert.Equal(t, 30*time.Minute, block.Remaining(start.Add(-10*time.Minute)), "before start reports the full block")
	assert.Equal(t, 30*time.Minute, block.Remaining(start))
	assert.Equal(t, 2*time.Minute+30*time.Second, block.Remaining(start.Add(27*time.Minute+30*time.Second)))
	assert.Equal(t, time.Duration(0), block.Remaining(start.Add(45*time.Minute)))

	assert.True(t, block.Contains(start))
	assert.False(t, block.Contains(block.End()))
}

func TestContentDuration(t *testing.T) {
	_, err := NewContent("/video/a.mp4").Duration()
	assert.ErrorIs(t, err, ErrUnresolved)

	plain := ResolvedContent("/video/a.mp4", Metadata{StreamDuration: 1320 * time.Second})
	d, err := plain.Duration()
	assert.NoError(t, err)
	assert.Equal(t, 1320*time.Second, d)

	chaptered := ResolvedContent("/video/b.mp4", Metadata{
		StreamDuration: 1400 * time.Second,
		Chapters: []Chapter{
			{Start: 0, End: 400 * time.Second},
			{Start: 400 * time.Second, End: 900 * time.Second},
			{Start: 905 * time.Second, End: 1300 * time.Second},
		},
	})
	d, err = chaptered.Duration()
	assert.NoError(t, err)
	assert.Equal(t, 1295*time.Second, d, "chapter spans win over stream duration")
	assert.Len(t, chaptered.Chapters(), 3)
}
