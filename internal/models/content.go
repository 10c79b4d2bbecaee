/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"errors"
	"time"
)

// ErrUnresolved is returned when content metadata has not been probed yet.
var ErrUnresolved = errors.New("content metadata not resolved")

// Chapter is a chapter mark inside a media file. Gaps and overlaps between
// chapters are taken as reported by the metadata source.
type Chapter struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
}

// Span returns the chapter length.
func (c Chapter) Span() time.Duration {
	return c.End - c.Start
}

// Metadata is what a metadata source reports for a media file.
type Metadata struct {
	StreamDuration time.Duration `json:"stream_duration"`
	Chapters       []Chapter     `json:"chapters,omitempty"`
}

// Duration is the sum of chapter spans when chapters exist, else the stream
// duration.
func (m Metadata) Duration() time.Duration {
	if len(m.Chapters) == 0 {
		return m.StreamDuration
	}
	var total time.Duration
	for _, ch := range m.Chapters {
		total += ch.Span()
	}
	return total
}

// Content is a media file together with its probed metadata.
type Content struct {
	Ref      string
	metadata Metadata
	resolved bool
}

// NewContent returns content whose metadata is still unknown.
func NewContent(ref string) Content {
	return Content{Ref: ref}
}

// ResolvedContent returns content with probed metadata attached.
func ResolvedContent(ref string, meta Metadata) Content {
	return Content{Ref: ref, metadata: meta, resolved: true}
}

// Resolved reports whether metadata is attached.
func (c Content) Resolved() bool {
	return c.resolved
}

// Metadata returns the probed metadata.
func (c Content) Metadata() (Metadata, error) {
	if !c.resolved {
		return Metadata{}, ErrUnresolved
	}
	return c.metadata, nil
}

// Duration returns the content's total playable duration.
func (c Content) Duration() (time.Duration, error) {
	if !c.resolved {
		return 0, ErrUnresolved
	}
	return c.metadata.Duration(), nil
}

// Chapters returns the chapter marks, nil when unresolved or unchaptered.
func (c Content) Chapters() []Chapter {
	if !c.resolved {
		return nil
	}
	return c.metadata.Chapters
}
