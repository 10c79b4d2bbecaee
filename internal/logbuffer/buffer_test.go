/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package logbuffer

import (
	"testing"
	"time"
)

func TestBufferWrapsAround(t *testing.T) {
	b := New(3)
	for _, msg := range []string{"a", "b", "c", "d"} {
		b.Add(LogEntry{Message: msg})
	}

	all := b.GetAll()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, want := range []string{"b", "c", "d"} {
		if all[i].Message != want {
			t.Fatalf("entry %d = %q, want %q", i, all[i].Message, want)
		}
	}
}

func TestWriterParsesZerologJSON(t *testing.T) {
	b := New(10)
	w := NewWriter(b, nil)

	line := `{"level":"warn","component":"planner","batch":"b-1","time":1773518400,"message":"commercial break underfilled"}` + "\n"
	if _, err := w.Write([]byte(line)); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("not json\n")); err != nil {
		t.Fatal(err)
	}

	all := b.GetAll()
	if len(all) != 1 {
		t.Fatalf("len = %d, want 1", len(all))
	}
	e := all[0]
	if e.Level != "warn" || e.Component != "planner" || e.Message != "commercial break underfilled" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if !e.Timestamp.Equal(time.Unix(1773518400, 0)) {
		t.Fatalf("timestamp = %s", e.Timestamp)
	}
	if e.Fields["batch"] != "b-1" {
		t.Fatalf("fields = %v", e.Fields)
	}
}

func TestQuery(t *testing.T) {
	b := New(10)
	base := time.Unix(1773518400, 0)
	b.Add(LogEntry{Timestamp: base, Level: "info", Component: "director", Message: "segment started", Fields: map[string]any{"batch": "x"}})
	b.Add(LogEntry{Timestamp: base.Add(time.Second), Level: "warn", Component: "planner", Message: "commercial break underfilled", Fields: map[string]any{"batch": "y"}})
	b.Add(LogEntry{Timestamp: base.Add(2 * time.Second), Level: "info", Component: "planner", Message: "block planned", Fields: map[string]any{"batch": "y"}})

	tests := []struct {
		name   string
		params QueryParams
		want   []string
	}{
		{"all", QueryParams{}, []string{"segment started", "commercial break underfilled", "block planned"}},
		{"level", QueryParams{Level: "warn"}, []string{"commercial break underfilled"}},
		{"component", QueryParams{Component: "planner"}, []string{"commercial break underfilled", "block planned"}},
		{"batch", QueryParams{Batch: "x"}, []string{"segment started"}},
		{"search", QueryParams{Search: "UNDERFILLED"}, []string{"commercial break underfilled"}},
		{"since", QueryParams{Since: base.Add(time.Second)}, []string{"commercial break underfilled", "block planned"}},
		{"newest first limited", QueryParams{Descending: true, Limit: 2}, []string{"block planned", "commercial break underfilled"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.Query(tt.params)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Message != tt.want[i] {
					t.Fatalf("entry %d = %q, want %q", i, got[i].Message, tt.want[i])
				}
			}
		})
	}

	stats := b.Stats()
	if stats.Count != 3 || stats.LevelCount["info"] != 2 || len(stats.Components) != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
