/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Spot is a single commercial from the catalog. An empty Subject means the
// spot is exempt from the per-break subject diversity rule.
type Spot struct {
	Ref      string
	Duration time.Duration
	Subject  string
}

// spotWire is the catalog feed representation shared by JSON and YAML.
type spotWire struct {
	Ref      string  `json:"filepath" yaml:"filepath"`
	Duration Seconds `json:"duration" yaml:"duration"`
	Subject  *string `json:"subject,omitempty" yaml:"subject,omitempty"`
}

func (w spotWire) spot() (Spot, error) {
	if w.Ref == "" {
		return Spot{}, fmt.Errorf("commercial spot has no filepath")
	}
	if w.Duration < 0 {
		return Spot{}, fmt.Errorf("commercial spot %s has negative duration", w.Ref)
	}
	spot := Spot{Ref: w.Ref, Duration: w.Duration.Duration()}
	if w.Subject != nil {
		spot.Subject = *w.Subject
	}
	return spot, nil
}

func (s Spot) wire() spotWire {
	w := spotWire{Ref: s.Ref, Duration: Seconds(s.Duration)}
	if s.Subject != "" {
		subject := s.Subject
		w.Subject = &subject
	}
	return w
}

// MarshalJSON implements json.Marshaler.
func (s Spot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.wire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Spot) UnmarshalJSON(data []byte) error {
	var w spotWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	spot, err := w.spot()
	if err != nil {
		return err
	}
	*s = spot
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Spot) UnmarshalYAML(value *yaml.Node) error {
	var w spotWire
	if err := value.Decode(&w); err != nil {
		return err
	}
	spot, err := w.spot()
	if err != nil {
		return err
	}
	*s = spot
	return nil
}
