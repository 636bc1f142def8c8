// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

import (
	"context"
	"fmt"
)

// MediaType filters engine file listings.
type MediaType int

const (
	MediaVideo MediaType = iota
	MediaAudio
	MediaSubtitles
)

// EngineState is the raw state reported by the download engine.
type EngineState int

const (
	StateQueuedForChecking EngineState = iota
	StateCheckingFiles
	StateDownloadingMetadata
	StateDownloading
	StateFinished
	StateSeeding
	StateAllocating
	StateCheckingResumeData
)

// toStatus maps an engine state to the user-visible transfer state.
func (s EngineState) toStatus() Status {
	switch s {
	case StateQueuedForChecking, StateCheckingResumeData:
		return StatusCheckPending
	case StateCheckingFiles:
		return StatusChecking
	case StateDownloadingMetadata:
		return StatusDownloadingMetadata
	case StateDownloading:
		return StatusDownloading
	case StateFinished, StateSeeding:
		return StatusSeeding
	case StateAllocating:
		return StatusAllocating
	}
	return StatusQueued
}

// EngineStatus is a point-in-time snapshot of the engine.
type EngineStatus struct {
	State        EngineState
	Name         string
	DownloadRate int64
	UploadRate   int64
	NumSeeds     int
	NumPeers     int
}

// EngineFileStatus describes one file the engine knows about.
type EngineFileStatus struct {
	Index    int
	Path     string
	Size     int64
	Download int64
	URL      string
	Media    MediaType
}

// EngineErrorCode is the engine's fixed failure code set.
type EngineErrorCode int

const (
	CodeUnsupportedPlatform EngineErrorCode = iota
	CodeMissingHomeDir
	CodeRestrictedFilesystem
	CodeProcessFailed
	CodeBindFailed
	CodeLaunchFailed
	CodeBadRequest
	CodeInvalidFileIndex
	CodeInvalidDownloadPath
	CodeTimeout
	CodeTorrentFailed
)

// EngineError is a typed engine failure, carrying the torrent-specific
// reason when the code is CodeTorrentFailed.
type EngineError struct {
	Code   EngineErrorCode
	Reason string
	Cause  error
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("engine error %d: %s: %v", e.Code, e.Reason, e.Cause)
	}
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Reason)
}

func (e *EngineError) Unwrap() error { return e.Cause }

// Engine is a download engine able to stream a torrent over HTTP. One
// session at a time: Start before any other call, Stop on every exit path.
type Engine interface {
	// Start begins downloading the torrent, prioritizing fileIndex when it
	// is non-negative.
	Start(ctx context.Context, uri string, fileIndex int) error

	// Stop shuts the session down. Safe to call more than once.
	Stop() error

	// Status reports the current engine snapshot.
	Status(ctx context.Context) (EngineStatus, error)

	// List returns the files matching the media type, or nil while the
	// torrent metadata is still downloading.
	List(ctx context.Context, media MediaType) ([]EngineFileStatus, error)

	// FileStatus reports one file by index; found is false while metadata
	// is still downloading.
	FileStatus(ctx context.Context, index int) (status EngineFileStatus, found bool, err error)
}
