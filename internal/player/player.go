/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package player holds the playback sinks the director drives.
package player

import (
	"errors"
	"sync"
)

// ErrNothingLoaded is returned by Play when no segment has been loaded.
var ErrNothingLoaded = errors.New("no segment loaded")

// endedHook stores the single end-of-media callback.
type endedHook struct {
	mu sync.Mutex
	fn func()
}

func (h *endedHook) set(fn func()) {
	h.mu.Lock()
	h.fn = fn
	h.mu.Unlock()
}

func (h *endedHook) fire() {
	h.mu.Lock()
	fn := h.fn
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}
