// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

// PlayerEvent is a playback lifecycle notification.
type PlayerEvent int

const (
	PlaybackStarted PlayerEvent = iota
	PlaybackStopped
	PlaybackEnded
	PlaybackPaused
	PlaybackResumed
)

// PlayItem is what gets handed to the player once the stream is ready.
type PlayItem struct {
	Label string
	Path  string
}

// Player is a media player under external control. Attach registers a
// callback for a lifecycle event and returns its detach function.
type Player interface {
	Play(item PlayItem, subtitleURL string) error
	IsPlaying() bool
	Percent() float64
	Attach(event PlayerEvent, fn func()) (detach func())
}
