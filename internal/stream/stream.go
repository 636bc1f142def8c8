// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stream

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultPollInterval  = 500 * time.Millisecond
	defaultPlaybackGrace = 5 * time.Second
)

// TorrentFile is one playable file discovered inside a torrent.
type TorrentFile struct {
	Index int
	Path  string
	Size  int64
}

type Options struct {
	Engine Engine

	BufferingProgress Progress
	PlayingProgress   Progress

	// PreBufferBytes holds playback until this many bytes of the target
	// file are local. Zero starts playback as soon as downloading begins.
	PreBufferBytes int64

	// PollInterval is the delay between engine polls. Tests inject a
	// near-zero interval.
	PollInterval time.Duration

	// PlaybackGrace keeps the session alive this long after the player
	// stops reporting playback, covering slow player startup.
	PlaybackGrace time.Duration

	// Abort is a host-level abort signal checked once per poll interval.
	Abort func() bool

	// Sleep waits between polls; it returns false when the context ended
	// during the wait. Tests inject a fake.
	Sleep func(ctx context.Context, d time.Duration) bool
}

// Stream drives a download engine through cooperative status polling. The
// engine is stopped on every exit path.
type Stream struct {
	engine        Engine
	buffering     Progress
	playing       Progress
	preBuffer     int64
	pollInterval  time.Duration
	playbackGrace time.Duration
	abort         func() bool
	sleep         func(ctx context.Context, d time.Duration) bool
}

func New(opts Options) *Stream {
	s := &Stream{
		engine:        opts.Engine,
		buffering:     opts.BufferingProgress,
		playing:       opts.PlayingProgress,
		preBuffer:     opts.PreBufferBytes,
		pollInterval:  opts.PollInterval,
		playbackGrace: opts.PlaybackGrace,
		abort:         opts.Abort,
		sleep:         opts.Sleep,
	}
	if s.buffering == nil {
		s.buffering = NopProgress{}
	}
	if s.playing == nil {
		s.playing = NopProgress{}
	}
	if s.pollInterval <= 0 {
		s.pollInterval = defaultPollInterval
	}
	if s.playbackGrace <= 0 {
		s.playbackGrace = defaultPlaybackGrace
	}
	if s.abort == nil {
		s.abort = func() bool { return false }
	}
	if s.sleep == nil {
		s.sleep = sleepFor
	}
	return s
}

func sleepFor(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Stream) aborted(ctx context.Context) bool {
	return ctx.Err() != nil || s.abort() || s.buffering.IsCancelled() || s.playing.IsCancelled()
}

// List starts the engine and polls until the torrent's video files become
// known, then stops it.
func (s *Stream) List(ctx context.Context, uri string) ([]TorrentFile, error) {
	if err := s.engine.Start(ctx, uri, -1); err != nil {
		return nil, translateEngineError(err)
	}
	defer s.stopEngine()

	for {
		files, err := s.engine.List(ctx, MediaVideo)
		if err != nil {
			return nil, translateEngineError(err)
		}
		if len(files) > 0 {
			result := make([]TorrentFile, 0, len(files))
			for _, f := range files {
				result = append(result, TorrentFile{Index: f.Index, Path: f.Path, Size: f.Size})
			}
			return result, nil
		}
		if _, err := s.engine.Status(ctx); err != nil {
			return nil, translateEngineError(err)
		}
		if s.aborted(ctx) {
			return nil, ctx.Err()
		}
		s.sleep(ctx, s.pollInterval)
	}
}

// Play streams one file of the torrent to the player. A negative fileIndex
// auto-selects the first video file and attaches the first subtitle track
// found. The call returns once playback stops or is aborted.
func (s *Stream) Play(ctx context.Context, player Player, uri string, item PlayItem, fileIndex int) error {
	log.Info().Str("uri", uri).Int("fileIndex", fileIndex).Msg("starting stream engine")
	startIndex := fileIndex
	if startIndex < 0 {
		startIndex = 0
	}
	if err := s.engine.Start(ctx, uri, startIndex); err != nil {
		return translateEngineError(err)
	}
	defer s.stopEngine()

	var (
		ready       bool
		subtitleURL string
		status      EngineStatus
		err         error
	)

	if s.preBuffer > 0 {
		log.Info().Int64("bytes", s.preBuffer).Msg("pre-buffering")
		s.buffering.Open()
		ready, fileIndex, subtitleURL, status, err = s.preBufferLoop(ctx, fileIndex)
		s.buffering.Close()
		if err != nil {
			return err
		}
	} else {
		for !s.aborted(ctx) {
			s.sleep(ctx, s.pollInterval)
			status, err = s.engine.Status(ctx)
			if err != nil {
				return translateEngineError(err)
			}
			switch status.State {
			case StateDownloading, StateFinished, StateSeeding, StateCheckingFiles:
				ready = true
			}
			if ready {
				break
			}
		}
		if ready && fileIndex < 0 {
			files, err := s.engine.List(ctx, MediaVideo)
			if err != nil {
				return translateEngineError(err)
			}
			if len(files) == 0 {
				return noPlayableFilesError()
			}
			fileIndex = files[0].Index
		}
	}

	if !ready {
		log.Info().Msg("stream aborted before playback")
		return nil
	}
	return s.playback(ctx, player, item, fileIndex, subtitleURL, status)
}

// preBufferLoop polls until enough of the target file is local, the engine
// reports the torrent is already complete, or the operation is aborted.
func (s *Stream) preBufferLoop(ctx context.Context, fileIndex int) (ready bool, index int, subtitleURL string, status EngineStatus, err error) {
	index = fileIndex
	for !s.aborted(ctx) {
		s.sleep(ctx, s.pollInterval)
		status, err = s.engine.Status(ctx)
		if err != nil {
			return false, index, "", status, translateEngineError(err)
		}

		var fileStatus EngineFileStatus
		if index < 0 {
			files, err := s.engine.List(ctx, MediaVideo)
			if err != nil {
				return false, index, "", status, translateEngineError(err)
			}
			if files == nil {
				continue
			}
			if len(files) == 0 {
				return false, index, "", status, noPlayableFilesError()
			}
			index = files[0].Index
			fileStatus = files[0]
			log.Info().Str("path", fileStatus.Path).Msg("detected video file")
			subs, err := s.engine.List(ctx, MediaSubtitles)
			if err != nil {
				return false, index, "", status, translateEngineError(err)
			}
			if len(subs) > 0 {
				log.Info().Str("path", subs[0].Path).Msg("detected subtitles")
				subtitleURL = subs[0].URL
			}
		} else {
			var found bool
			fileStatus, found, err = s.engine.FileStatus(ctx, index)
			if err != nil {
				return false, index, "", status, translateEngineError(err)
			}
			if !found {
				continue
			}
		}

		state := TransferState{
			Name:         status.Name,
			Downloaded:   fileStatus.Download,
			DownloadRate: status.DownloadRate,
			UploadRate:   status.UploadRate,
			Seeds:        status.NumSeeds,
			Peers:        status.NumPeers,
		}
		switch status.State {
		case StateDownloading:
			state.Status = StatusPreBuffering
			state.Size = s.preBuffer
			if fileStatus.Download >= s.preBuffer {
				return true, index, subtitleURL, status, nil
			}
		case StateFinished, StateSeeding, StateCheckingFiles:
			return true, index, subtitleURL, status, nil
		default:
			state.Status = status.State.toStatus()
			state.Size = fileStatus.Size
		}
		s.buffering.Update(state)
	}
	return false, index, subtitleURL, status, nil
}

// playback hands the stream URL to the player and keeps polling while the
// player reports activity, plus a short grace window after it goes quiet.
func (s *Stream) playback(ctx context.Context, player Player, item PlayItem, fileIndex int, subtitleURL string, status EngineStatus) error {
	log.Info().Msg("starting playback")
	s.playing.Open()
	defer s.playing.Close()
	detachPaused := player.Attach(PlaybackPaused, s.playing.Open)
	defer detachPaused()
	detachResumed := player.Attach(PlaybackResumed, s.playing.Close)
	defer detachResumed()

	if item.Label == "" {
		item.Label = status.Name
	}
	fileStatus, found, err := s.engine.FileStatus(ctx, fileIndex)
	if err != nil {
		return translateEngineError(err)
	}
	if !found {
		return noPlayableFilesError()
	}
	item.Path = fileStatus.URL

	if err := player.Play(item, subtitleURL); err != nil {
		return err
	}

	start := time.Now()
	for !s.aborted(ctx) && (player.IsPlaying() || time.Since(start) < s.playbackGrace) {
		s.sleep(ctx, s.pollInterval)
		status, err = s.engine.Status(ctx)
		if err != nil {
			return translateEngineError(err)
		}
		fileStatus, _, err = s.engine.FileStatus(ctx, fileIndex)
		if err != nil {
			return translateEngineError(err)
		}
		s.playing.Update(TransferState{
			Status:       status.State.toStatus(),
			Name:         status.Name,
			Size:         fileStatus.Size,
			Downloaded:   fileStatus.Download,
			DownloadRate: status.DownloadRate,
			UploadRate:   status.UploadRate,
			Seeds:        status.NumSeeds,
			Peers:        status.NumPeers,
		})
	}
	s.sleep(ctx, s.pollInterval)
	return nil
}

func (s *Stream) stopEngine() {
	if err := s.engine.Stop(); err != nil {
		log.Warn().Err(err).Msg("failed to stop stream engine")
	}
}
