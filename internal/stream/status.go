// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

// Status is the user-visible transfer state of a stream session.
type Status int

const (
	StatusQueued Status = iota
	StatusCheckPending
	StatusChecking
	StatusDownloadingMetadata
	StatusDownloading
	StatusAllocating
	StatusPreBuffering
	StatusPlaying
	StatusSeeding
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusCheckPending:
		return "check pending"
	case StatusChecking:
		return "checking"
	case StatusDownloadingMetadata:
		return "downloading metadata"
	case StatusDownloading:
		return "downloading"
	case StatusAllocating:
		return "allocating"
	case StatusPreBuffering:
		return "pre-buffering"
	case StatusPlaying:
		return "playing"
	case StatusSeeding:
		return "seeding"
	case StatusStopped:
		return "stopped"
	}
	return "unknown"
}
