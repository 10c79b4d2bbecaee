/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendsincode/technicaldirector/internal/models"
)

const chapteredOutput = `{
  "streams": [
    {"index": 0, "codec_type": "audio", "duration": "1441.002000"},
    {"index": 1, "codec_type": "video", "duration": "1440.973000"}
  ],
  "chapters": [
    {"id": 0, "start_time": "0.000000", "end_time": "512.300000"},
    {"id": 1, "start_time": "512.300000", "end_time": "1010.010000"},
    {"id": 2, "start_time": "1010.010000", "end_time": "1440.973000"}
  ],
  "format": {"duration": "1441.002000"}
}`

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		stream   time.Duration
		chapters int
		total    time.Duration
	}{
		{
			name:     "chapters win over stream",
			input:    chapteredOutput,
			stream:   1440973 * time.Millisecond,
			chapters: 3,
			total:    1440973 * time.Millisecond,
		},
		{
			name:   "first video stream",
			input:  `{"streams":[{"codec_type":"audio","duration":"30.100000"},{"codec_type":"video","duration":"30.030000"}],"chapters":[]}`,
			stream: 30030 * time.Millisecond,
			total:  30030 * time.Millisecond,
		},
		{
			name:   "audio only",
			input:  `{"streams":[{"codec_type":"audio","duration":"15.000000"}]}`,
			stream: 15 * time.Second,
			total:  15 * time.Second,
		},
		{
			name:   "container duration",
			input:  `{"streams":[{"codec_type":"video","duration":"N/A"}],"format":{"duration":"1799.5"}}`,
			stream: 1799500 * time.Millisecond,
			total:  1799500 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.stream, meta.StreamDuration)
			assert.Len(t, meta.Chapters, tt.chapters)
			assert.Equal(t, tt.total, meta.Duration())
		})
	}
}

func TestParseChapterBounds(t *testing.T) {
	meta, err := Parse([]byte(chapteredOutput))
	require.NoError(t, err)
	assert.Equal(t, models.Chapter{Start: 512300 * time.Millisecond, End: 1010010 * time.Millisecond}, meta.Chapters[1])
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{"streams":[]}`))
	assert.True(t, errors.Is(err, ErrNoDuration))

	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"chapters":[{"start_time":"abc","end_time":"1"}]}`))
	assert.Error(t, err)
}

func TestStatic(t *testing.T) {
	s := NewStatic(map[string]models.Metadata{
		"/video/known.mkv": {StreamDuration: time.Minute},
	}, 0)

	meta, err := s.Probe(context.Background(), "/video/known.mkv")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, meta.Duration())

	_, err = s.Probe(context.Background(), "/video/unknown.mkv")
	assert.Error(t, err)

	withFallback := NewStatic(nil, 24*time.Minute)
	meta, err = withFallback.Probe(context.Background(), "/video/any.mkv")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Minute, meta.Duration())
}
