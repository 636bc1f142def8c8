// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package anacrolix

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anteo/okinod/internal/stream"
)

func TestMediaTypeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want stream.MediaType
	}{
		{"Начало/Начало.mkv", stream.MediaVideo},
		{"season 1/s01e02.AVI", stream.MediaVideo},
		{"movie.mp4", stream.MediaVideo},
		{"subs/ru.srt", stream.MediaSubtitles},
		{"subs/ru.ASS", stream.MediaSubtitles},
		{"soundtrack/main.flac", stream.MediaAudio},
		{"readme.nfo", stream.MediaType(-1)},
		{"noextension", stream.MediaType(-1)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mediaTypeOf(tt.path), tt.path)
	}
}
