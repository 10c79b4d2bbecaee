/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package player

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/technicaldirector/internal/models"
)

// Process plays each segment in an external media player process (mpv or
// VLC). The end-of-media callback fires when the process exits on its own.
type Process struct {
	bin    string
	logger zerolog.Logger
	ended  endedHook

	mu         sync.Mutex
	loaded     *models.Segment
	cmd        *exec.Cmd
	done       chan struct{} // closed when the process has exited
	generation uint64
	stopped    uint64 // generation stopped on purpose
}

// NewProcess creates a process sink for the player binary bin.
func NewProcess(bin string, logger zerolog.Logger) *Process {
	return &Process{bin: bin, logger: logger.With().Str("component", "player").Str("bin", bin).Logger()}
}

// OnPlaybackEnded registers the end-of-media callback.
func (p *Process) OnPlaybackEnded(fn func()) {
	p.ended.set(fn)
}

// Load stages seg for the next Play.
func (p *Process) Load(_ context.Context, seg models.Segment) error {
	if seg.Source == "" {
		return fmt.Errorf("segment has no source")
	}
	p.mu.Lock()
	p.loaded = &seg
	p.mu.Unlock()
	return nil
}

// Play stops whatever is playing and starts the loaded segment.
func (p *Process) Play(ctx context.Context) error {
	p.mu.Lock()
	seg := p.loaded
	p.mu.Unlock()
	if seg == nil {
		return ErrNothingLoaded
	}

	if err := p.Stop(); err != nil {
		p.logger.Debug().Err(err).Msg("stop previous player failed")
	}

	args := Args(p.bin, *seg)
	cmd := exec.CommandContext(ctx, p.bin, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.bin, err)
	}

	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.cmd = cmd
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	p.logger.Debug().Strs("args", args).Msg("player started")

	go func() {
		err := cmd.Wait()
		close(done)

		p.mu.Lock()
		stopped := p.stopped == gen
		p.mu.Unlock()
		if stopped {
			return
		}
		if err != nil {
			p.logger.Warn().Err(err).Str("source", seg.Source).Msg("player exited with error")
		}
		p.ended.fire()
	}()

	return nil
}

// Stop terminates the running player, if any. The end-of-media callback is
// not fired for a stopped process.
func (p *Process) Stop() error {
	p.mu.Lock()
	cmd := p.cmd
	done := p.done
	p.stopped = p.generation
	p.mu.Unlock()

	if cmd == nil || done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	default:
	}

	if cmd.Process != nil {
		_ = cmd.Process.Signal(os.Interrupt)
	}

	select {
	case <-time.After(5 * time.Second):
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
	case <-done:
	}

	return nil
}

// Args builds the command line for bin playing seg. Offsets are rounded to
// milliseconds.
func Args(bin string, seg models.Segment) []string {
	start, hasStart := seg.Start()
	end, hasEnd := seg.End()

	name := strings.ToLower(filepath.Base(bin))
	var args []string
	switch {
	case strings.Contains(name, "vlc"):
		args = append(args, "--play-and-exit", "--fullscreen", "--no-video-title-show")
		if hasStart {
			args = append(args, "--start-time="+models.FormatSeconds(start))
		}
		if hasEnd {
			args = append(args, "--stop-time="+models.FormatSeconds(end))
		}
	default:
		args = append(args, "--fullscreen", "--really-quiet", "--no-terminal")
		if hasStart {
			args = append(args, "--start="+models.FormatSeconds(start))
		}
		if hasEnd {
			args = append(args, "--end="+models.FormatSeconds(end))
		}
	}
	return append(args, seg.Source)
}
