/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/friendsincode/technicaldirector/internal/models"
)

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour |
	cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// GridFile is the YAML layout of a local programming grid.
//
//	timezone: America/Chicago
//	slots:
//	  - name: sitcoms
//	    cron: "0 0,30 * * * *"
//	    minutes: 30
//	    show_commercials: true
//	    rotation:
//	      - /video/shows/ep01.mkv
//	      - /video/shows/ep02.mkv
type GridFile struct {
	Timezone string     `yaml:"timezone"`
	Slots    []GridSlot `yaml:"slots"`
}

// GridSlot is a recurring block.
type GridSlot struct {
	Name            string   `yaml:"name"`
	Cron            string   `yaml:"cron"`
	Minutes         int      `yaml:"minutes"`
	ShowCommercials bool     `yaml:"show_commercials"`
	Rotation        []string `yaml:"rotation"`
}

type gridSlot struct {
	GridSlot
	schedule cron.Schedule
	duration time.Duration
}

// Grid is a programming source built from recurring slots. The same block
// start always maps to the same rotation entry.
type Grid struct {
	location *time.Location
	slots    []gridSlot
}

// LoadGrid reads a grid from a YAML file.
func LoadGrid(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}
	var file GridFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse grid %s: %w", path, err)
	}
	return NewGrid(file)
}

// NewGrid validates a grid definition.
func NewGrid(file GridFile) (*Grid, error) {
	loc := time.Local
	if file.Timezone != "" {
		l, err := time.LoadLocation(file.Timezone)
		if err != nil {
			return nil, fmt.Errorf("grid timezone: %w", err)
		}
		loc = l
	}

	if len(file.Slots) == 0 {
		return nil, fmt.Errorf("grid has no slots")
	}

	g := &Grid{location: loc}
	for i, slot := range file.Slots {
		if slot.Name == "" {
			slot.Name = fmt.Sprintf("slot-%d", i)
		}
		sched, err := cronParser.Parse(slot.Cron)
		if err != nil {
			return nil, fmt.Errorf("slot %s: invalid cron expression: %w", slot.Name, err)
		}
		if slot.Minutes <= 0 {
			return nil, fmt.Errorf("slot %s: minutes must be positive", slot.Name)
		}
		if len(slot.Rotation) == 0 {
			return nil, fmt.Errorf("slot %s: rotation is empty", slot.Name)
		}
		g.slots = append(g.slots, gridSlot{
			GridSlot: slot,
			schedule: sched,
			duration: time.Duration(slot.Minutes) * time.Minute,
		})
	}
	return g, nil
}

// CurrentBlock returns the block airing at at. Overlapping slots resolve to
// the one that started last; ties go to the slot listed last.
func (g *Grid) CurrentBlock(_ context.Context, at time.Time) (models.Block, error) {
	at = at.In(g.location)

	var (
		best  models.Block
		found bool
	)
	for _, slot := range g.slots {
		start, ok := slot.lastStart(at)
		if !ok || !at.Before(start.Add(slot.duration)) {
			continue
		}
		if !found || !start.Before(best.Start) {
			best, found = slot.block(start), true
		}
	}
	if !found {
		return models.Block{}, fmt.Errorf("grid at %s: %w", at.Format(time.RFC3339), ErrNoBlock)
	}
	return best, nil
}

// NextBlock returns the first block starting after at, with the same tie
// rule as CurrentBlock.
func (g *Grid) NextBlock(_ context.Context, at time.Time) (models.Block, error) {
	at = at.In(g.location)

	var (
		best  models.Block
		found bool
	)
	for _, slot := range g.slots {
		start := slot.schedule.Next(at)
		if start.IsZero() {
			continue
		}
		if !found || !start.After(best.Start) {
			best, found = slot.block(start), true
		}
	}
	if !found {
		return models.Block{}, fmt.Errorf("grid after %s: %w", at.Format(time.RFC3339), ErrNoBlock)
	}
	return best, nil
}

// lastStart finds the latest slot start at or before at that could still be
// on air.
func (s gridSlot) lastStart(at time.Time) (time.Time, bool) {
	var last time.Time
	// cron.Next is exclusive, so step back one second to include a start at exactly at - duration.
	next := s.schedule.Next(at.Add(-s.duration - time.Second))
	for !next.IsZero() && !next.After(at) {
		last = next
		next = s.schedule.Next(next)
	}
	return last, !last.IsZero()
}

func (s gridSlot) block(start time.Time) models.Block {
	idx := (start.Unix() / int64(s.duration/time.Second)) % int64(len(s.Rotation))
	if idx < 0 {
		idx += int64(len(s.Rotation))
	}
	return models.Block{
		ID:              fmt.Sprintf("%s@%s", s.Name, start.UTC().Format(time.RFC3339)),
		Label:           s.Name,
		Start:           start,
		Duration:        s.duration,
		ContentRef:      s.Rotation[idx],
		ShowCommercials: s.ShowCommercials,
	}
}
