// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package anacrolix

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/anteo/okinod/internal/httpclient"
	"github.com/anteo/okinod/internal/stream"
)

var (
	videoExtensions    = extSet(".mkv", ".avi", ".mp4", ".m4v", ".mov", ".wmv", ".ts", ".m2ts", ".webm")
	audioExtensions    = extSet(".mp3", ".flac", ".ogg", ".m4a", ".wav", ".ac3", ".dts")
	subtitleExtensions = extSet(".srt", ".sub", ".ass", ".ssa", ".smi", ".vtt")
)

func extSet(exts ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		m[e] = struct{}{}
	}
	return m
}

type Config struct {
	DataDir string
	Host    string
	Port    int

	// HTTP downloads .torrent files when the session URI is not a magnet
	// link or a local path.
	HTTP *httpclient.Client
}

// Engine streams torrents via an embedded anacrolix client and serves file
// contents over a local HTTP gateway. One session at a time.
type Engine struct {
	client   *torrent.Client
	http     *httpclient.Client
	host     string
	port     int
	server   *http.Server
	listener net.Listener

	mu          sync.Mutex
	current     *torrent.Torrent
	targetIndex int
	prioritized bool
	speed       speedSample
}

type speedSample struct {
	at           time.Time
	bytesRead    int64
	bytesWritten int64
}

func New(cfg Config) (*Engine, error) {
	clientConfig := torrent.NewDefaultClientConfig()
	if cfg.DataDir != "" {
		clientConfig.DataDir = cfg.DataDir
	}
	client, err := torrent.NewClient(clientConfig)
	if err != nil {
		return nil, &stream.EngineError{Code: stream.CodeLaunchFailed, Reason: "can't create torrent client", Cause: err}
	}

	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	e := &Engine{
		client:      client,
		http:        cfg.HTTP,
		host:        host,
		port:        cfg.Port,
		targetIndex: -1,
	}

	r := chi.NewRouter()
	r.Get("/files/{index}", e.handleFile)
	e.server = &http.Server{Handler: r}

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, cfg.Port))
	if err != nil {
		client.Close()
		return nil, &stream.EngineError{Code: stream.CodeBindFailed, Reason: "can't bind stream gateway", Cause: err}
	}
	e.listener = listener
	go func() {
		if err := e.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("stream gateway stopped")
		}
	}()
	log.Info().Str("addr", listener.Addr().String()).Msg("stream gateway listening")

	return e, nil
}

// Start adds the torrent from a magnet link, a local .torrent file, or a
// remote URL. Metadata may still be missing when Start returns.
func (e *Engine) Start(ctx context.Context, uri string, fileIndex int) error {
	var (
		t   *torrent.Torrent
		err error
	)
	switch {
	case strings.HasPrefix(uri, "magnet:"):
		t, err = e.client.AddMagnet(uri)
		if err != nil {
			err = &stream.EngineError{Code: stream.CodeBadRequest, Reason: "can't add magnet link", Cause: err}
		}
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		t, err = e.addFromURL(ctx, uri)
	default:
		t, err = e.client.AddTorrentFromFile(uri)
		if err != nil {
			err = &stream.EngineError{Code: stream.CodeInvalidDownloadPath, Reason: "can't read torrent file", Cause: err}
		}
	}
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.current != nil {
		e.current.Drop()
	}
	e.current = t
	e.targetIndex = fileIndex
	e.prioritized = false
	e.speed = speedSample{}
	e.mu.Unlock()
	return nil
}

func (e *Engine) addFromURL(ctx context.Context, uri string) (*torrent.Torrent, error) {
	if e.http == nil {
		return nil, &stream.EngineError{Code: stream.CodeBadRequest, Reason: "no HTTP client for torrent URLs"}
	}
	resp, err := e.http.Fetch(ctx, &httpclient.Request{URL: uri})
	if err != nil {
		return nil, &stream.EngineError{Code: stream.CodeTorrentFailed, Reason: "can't download torrent file", Cause: err}
	}
	mi, err := metainfo.Load(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, &stream.EngineError{Code: stream.CodeTorrentFailed, Reason: "invalid torrent file", Cause: err}
	}
	t, err := e.client.AddTorrent(mi)
	if err != nil {
		return nil, &stream.EngineError{Code: stream.CodeTorrentFailed, Reason: "can't add torrent", Cause: err}
	}
	return t, nil
}

// Stop drops the active torrent. The client and gateway stay up for the
// next session.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		e.current.Drop()
		e.current = nil
	}
	e.targetIndex = -1
	e.prioritized = false
	return nil
}

// Close shuts down the gateway and the torrent client.
func (e *Engine) Close() error {
	_ = e.Stop()
	_ = e.server.Close()
	e.client.Close()
	return nil
}

func (e *Engine) torrent() (*torrent.Torrent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil, &stream.EngineError{Code: stream.CodeBadRequest, Reason: "no active session"}
	}
	return e.current, nil
}

func infoReady(t *torrent.Torrent) bool {
	select {
	case <-t.GotInfo():
		return true
	default:
		return false
	}
}

// prioritize focuses download bandwidth on the target file once metadata
// is available.
func (e *Engine) prioritize(t *torrent.Torrent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.prioritized || !infoReady(t) {
		return
	}
	files := t.Files()
	if e.targetIndex >= 0 && e.targetIndex < len(files) {
		for _, f := range files {
			f.SetPriority(torrent.PiecePriorityNone)
		}
		files[e.targetIndex].SetPriority(torrent.PiecePriorityNormal)
	} else {
		t.DownloadAll()
	}
	e.prioritized = true
}

func (e *Engine) Status(ctx context.Context) (stream.EngineStatus, error) {
	t, err := e.torrent()
	if err != nil {
		return stream.EngineStatus{}, err
	}

	status := stream.EngineStatus{Name: t.Name()}
	if !infoReady(t) {
		status.State = stream.StateDownloadingMetadata
		stats := t.Stats()
		status.NumPeers = stats.ActivePeers
		return status, nil
	}
	e.prioritize(t)

	if t.BytesCompleted() >= t.Length() {
		status.State = stream.StateSeeding
	} else {
		status.State = stream.StateDownloading
	}

	stats := t.Stats()
	status.NumPeers = stats.ActivePeers
	status.NumSeeds = stats.ConnectedSeeders
	status.DownloadRate, status.UploadRate = e.sampleSpeed(stats)
	return status, nil
}

func (e *Engine) sampleSpeed(stats torrent.TorrentStats) (int64, int64) {
	now := time.Now()
	read := stats.BytesReadUsefulData.Int64()
	written := stats.BytesWrittenData.Int64()

	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.speed
	e.speed = speedSample{at: now, bytesRead: read, bytesWritten: written}
	if prev.at.IsZero() {
		return 0, 0
	}
	dt := now.Sub(prev.at).Seconds()
	if dt <= 0 {
		return 0, 0
	}
	download := int64(float64(read-prev.bytesRead) / dt)
	upload := int64(float64(written-prev.bytesWritten) / dt)
	if download < 0 {
		download = 0
	}
	if upload < 0 {
		upload = 0
	}
	return download, upload
}

// List returns the files of the requested media type, or nil while the
// torrent metadata is still downloading.
func (e *Engine) List(ctx context.Context, media stream.MediaType) ([]stream.EngineFileStatus, error) {
	t, err := e.torrent()
	if err != nil {
		return nil, err
	}
	if !infoReady(t) {
		return nil, nil
	}
	e.prioritize(t)

	matched := make([]stream.EngineFileStatus, 0)
	for i, f := range t.Files() {
		if mediaTypeOf(f.Path()) != media {
			continue
		}
		matched = append(matched, e.fileStatus(t, i, f))
	}
	return matched, nil
}

func (e *Engine) FileStatus(ctx context.Context, index int) (stream.EngineFileStatus, bool, error) {
	t, err := e.torrent()
	if err != nil {
		return stream.EngineFileStatus{}, false, err
	}
	if !infoReady(t) {
		return stream.EngineFileStatus{}, false, nil
	}
	files := t.Files()
	if index < 0 || index >= len(files) {
		return stream.EngineFileStatus{}, false, &stream.EngineError{
			Code:   stream.CodeInvalidFileIndex,
			Reason: fmt.Sprintf("file index %d out of range", index),
		}
	}
	return e.fileStatus(t, index, files[index]), true, nil
}

func (e *Engine) fileStatus(t *torrent.Torrent, index int, f *torrent.File) stream.EngineFileStatus {
	return stream.EngineFileStatus{
		Index:    index,
		Path:     f.Path(),
		Size:     f.Length(),
		Download: f.BytesCompleted(),
		URL:      fmt.Sprintf("http://%s/files/%d", e.listener.Addr().String(), index),
		Media:    mediaTypeOf(f.Path()),
	}
}

func mediaTypeOf(p string) stream.MediaType {
	ext := strings.ToLower(path.Ext(p))
	if _, ok := videoExtensions[ext]; ok {
		return stream.MediaVideo
	}
	if _, ok := subtitleExtensions[ext]; ok {
		return stream.MediaSubtitles
	}
	if _, ok := audioExtensions[ext]; ok {
		return stream.MediaAudio
	}
	return stream.MediaType(-1)
}
