/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package probe reads media durations and chapter marks.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/friendsincode/technicaldirector/internal/models"
)

// ErrNoDuration is returned when ffprobe output carries no usable duration.
var ErrNoDuration = errors.New("media reports no duration")

// FFprobe probes media files with the ffprobe binary.
type FFprobe struct {
	bin    string
	logger zerolog.Logger
}

// NewFFprobe creates a prober using bin.
func NewFFprobe(bin string, logger zerolog.Logger) *FFprobe {
	if bin == "" {
		bin = "ffprobe"
	}
	return &FFprobe{bin: bin, logger: logger.With().Str("component", "ffprobe").Logger()}
}

// Probe runs ffprobe on ref.
func (f *FFprobe) Probe(ctx context.Context, ref string) (models.Metadata, error) {
	cmdPath, err := exec.LookPath(f.bin)
	if err != nil {
		return models.Metadata{}, err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, cmdPath, probeArgs(ref)...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return models.Metadata{}, fmt.Errorf("ffprobe %s: %w: %s", ref, err, strings.TrimSpace(stderr.String()))
	}

	meta, err := Parse(out)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("ffprobe %s: %w", ref, err)
	}

	f.logger.Debug().
		Str("ref", ref).
		Dur("duration", meta.Duration()).
		Int("chapters", len(meta.Chapters)).
		Msg("probed")
	return meta, nil
}

func probeArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_chapters",
		"-show_format",
		path,
	}
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
	Chapters []struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	} `json:"chapters"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Parse reads ffprobe JSON output. The stream duration is taken from the
// first video stream, then the first stream with a duration, then the
// container.
func Parse(data []byte) (models.Metadata, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return models.Metadata{}, fmt.Errorf("decode ffprobe output: %w", err)
	}

	var meta models.Metadata
	for i, ch := range out.Chapters {
		start, err := models.ParseSeconds(ch.StartTime)
		if err != nil {
			return models.Metadata{}, fmt.Errorf("chapter %d start: %w", i, err)
		}
		end, err := models.ParseSeconds(ch.EndTime)
		if err != nil {
			return models.Metadata{}, fmt.Errorf("chapter %d end: %w", i, err)
		}
		meta.Chapters = append(meta.Chapters, models.Chapter{Start: start, End: end})
	}

	candidates := make([]string, 0, len(out.Streams)+1)
	for _, s := range out.Streams {
		if s.CodecType == "video" {
			candidates = append(candidates, s.Duration)
		}
	}
	for _, s := range out.Streams {
		candidates = append(candidates, s.Duration)
	}
	candidates = append(candidates, out.Format.Duration)

	for _, raw := range candidates {
		if raw == "" || raw == "N/A" {
			continue
		}
		d, err := models.ParseSeconds(raw)
		if err != nil {
			continue
		}
		meta.StreamDuration = d
		break
	}

	if meta.StreamDuration == 0 && len(meta.Chapters) == 0 {
		return models.Metadata{}, ErrNoDuration
	}
	return meta, nil
}
