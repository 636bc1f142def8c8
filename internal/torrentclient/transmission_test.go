// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torrentclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anteo/okinod/internal/httpclient"
)

func newTestHTTPClient(t *testing.T) *httpclient.Client {
	t.Helper()
	h, err := httpclient.New(httpclient.Options{
		Defaults: httpclient.Request{Tries: 1, RetryDelay: time.Millisecond},
	})
	require.NoError(t, err)
	return h
}

// rpcDaemon fakes a Transmission endpoint with session token rotation and
// optional basic auth.
type rpcDaemon struct {
	t *testing.T

	token    string
	username string
	password string

	// requireProbe rejects POSTs with 401 until a GET probe opened the
	// session, forcing the re-authentication round.
	requireProbe bool

	requests []rpcRequest
	posts    int
	probes   int

	respond func(req rpcRequest) map[string]any
}

func (d *rpcDaemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if d.username != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != d.username || pass != d.password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}
	if r.Method != http.MethodPost {
		d.probes++
		w.Header().Set(sessionHeader, d.token)
		w.WriteHeader(http.StatusConflict)
		return
	}
	d.posts++
	if d.requireProbe && d.probes == 0 {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.Header.Get(sessionHeader) != d.token {
		w.Header().Set(sessionHeader, d.token)
		w.WriteHeader(http.StatusConflict)
		return
	}

	var req rpcRequest
	require.NoError(d.t, json.NewDecoder(r.Body).Decode(&req))
	d.requests = append(d.requests, req)

	args := map[string]any{}
	if d.respond != nil {
		args = d.respond(req)
	}
	json.NewEncoder(w).Encode(map[string]any{"result": "success", "arguments": args})
}

func newRPCDaemon(t *testing.T, d *rpcDaemon) *Transmission {
	t.Helper()
	d.t = t

	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)

	host := srv.Listener.Addr().String()
	tr, err := NewTransmission(TransmissionOptions{
		Host:     host,
		Path:     "/transmission",
		Username: d.username,
		Password: d.password,
		HTTP:     newTestHTTPClient(t),
	})
	require.NoError(t, err)
	return tr
}

func TestTransmissionRenewsSessionToken(t *testing.T) {
	t.Parallel()

	daemon := &rpcDaemon{token: "fresh-token"}
	tr := newRPCDaemon(t, daemon)

	infos, err := tr.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, infos)

	// First POST carries the stale token and bounces with 409, the second
	// one succeeds with the renewed token.
	assert.Equal(t, 2, daemon.posts)
	require.Len(t, daemon.requests, 1)
	assert.Equal(t, "torrent-get", daemon.requests[0].Method)
}

func TestTransmissionReauthenticates(t *testing.T) {
	t.Parallel()

	daemon := &rpcDaemon{token: "tok", username: "admin", password: "hunter2", requireProbe: true}
	tr := newRPCDaemon(t, daemon)

	_, err := tr.List(context.Background())
	require.NoError(t, err)

	// The first POST bounces with 401, the probe opens the session and
	// hands out the token, and the retried POST goes through.
	assert.Equal(t, 1, daemon.probes)
	require.Len(t, daemon.requests, 1)
	assert.Equal(t, "torrent-get", daemon.requests[0].Method)
}

func TestTransmissionAuthFailure(t *testing.T) {
	t.Parallel()

	daemon := &rpcDaemon{token: "tok", username: "admin", password: "hunter2"}
	srv := httptest.NewServer(daemon)
	t.Cleanup(srv.Close)

	tr, err := NewTransmission(TransmissionOptions{
		Host:     srv.Listener.Addr().String(),
		Username: "admin",
		Password: "wrong",
		HTTP:     newTestHTTPClient(t),
	})
	require.NoError(t, err)

	_, err = tr.List(context.Background())
	require.Error(t, err)

	var clientErr *Error
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, ErrAuth, clientErr.Kind)
	assert.Equal(t, LangAuth, clientErr.LangID)
	assert.True(t, clientErr.CheckSettings)
}

func TestTransmissionTokenKeepsExpiring(t *testing.T) {
	t.Parallel()

	// The daemon rejects every token, handing out a new one each time.
	n := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		w.Header().Set(sessionHeader, "rotated-"+string(rune('a'+n)))
		w.WriteHeader(http.StatusConflict)
	}))
	t.Cleanup(srv.Close)

	tr, err := NewTransmission(TransmissionOptions{
		Host: srv.Listener.Addr().String(),
		HTTP: newTestHTTPClient(t),
	})
	require.NoError(t, err)

	_, err = tr.List(context.Background())
	require.Error(t, err)

	var clientErr *Error
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, ErrConnection, clientErr.Kind)
}

func TestTransmissionListMapsFields(t *testing.T) {
	t.Parallel()

	daemon := &rpcDaemon{token: "tok", respond: func(req rpcRequest) map[string]any {
		return map[string]any{
			"torrents": []map[string]any{{
				"id":                 42,
				"status":             4,
				"name":               "Начало.mkv",
				"totalSize":          1000,
				"sizeWhenDone":       1000,
				"leftUntilDone":      250,
				"downloadedEver":     750,
				"uploadedEver":       100,
				"uploadRatio":        0.13,
				"rateUpload":         1024,
				"rateDownload":       2048,
				"eta":                120,
				"peersConnected":     8,
				"peersSendingToUs":   5,
				"peersGettingFromUs": 3,
				"addedDate":          1700000000,
				"doneDate":           0,
				"downloadDir":        "/downloads",
			}},
		}
	}}
	tr := newRPCDaemon(t, daemon)

	infos, err := tr.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)

	info := infos[0]
	assert.Equal(t, "42", info.ID)
	assert.Equal(t, StatusDownloading, info.Status)
	assert.Equal(t, "Начало.mkv", info.Name)
	assert.Equal(t, int64(1000), info.Size)
	assert.Equal(t, 75, info.Progress)
	assert.Equal(t, int64(750), info.Downloaded)
	assert.Equal(t, int64(2048), info.DownloadRate)
	assert.Equal(t, 5, info.Seeds)
	assert.Equal(t, 3, info.Leeches)
	assert.Equal(t, 8, info.Peers)
	assert.Equal(t, "/downloads", info.DownloadDir)
}

func TestTransmissionAddByURL(t *testing.T) {
	t.Parallel()

	daemon := &rpcDaemon{token: "tok"}
	tr := newRPCDaemon(t, daemon)

	err := tr.Add(context.Background(), &Torrent{URL: "magnet:?xt=urn:btih:abc"}, "/downloads")
	require.NoError(t, err)

	require.Len(t, daemon.requests, 1)
	req := daemon.requests[0]
	assert.Equal(t, "torrent-add", req.Method)
	assert.Equal(t, "magnet:?xt=urn:btih:abc", req.Arguments["filename"])
	assert.Equal(t, "/downloads", req.Arguments["download-dir"])
	assert.Equal(t, false, req.Arguments["paused"])
}

func TestTransmissionAddByMetainfo(t *testing.T) {
	t.Parallel()

	daemon := &rpcDaemon{token: "tok"}
	tr := newRPCDaemon(t, daemon)

	meta := []byte("d4:infod4:name10:medium.aviee")
	err := tr.Add(context.Background(), &Torrent{Data: meta}, "/downloads")
	require.NoError(t, err)

	require.Len(t, daemon.requests, 1)
	req := daemon.requests[0]
	assert.Equal(t, "torrent-add", req.Method)
	assert.Equal(t, base64.StdEncoding.EncodeToString(meta), req.Arguments["metainfo"])
	_, hasFilename := req.Arguments["filename"]
	assert.False(t, hasFilename)
}

func TestTransmissionAddEmptySource(t *testing.T) {
	t.Parallel()

	daemon := &rpcDaemon{token: "tok"}
	tr := newRPCDaemon(t, daemon)

	err := tr.Add(context.Background(), &Torrent{}, "/downloads")
	require.Error(t, err)

	var clientErr *Error
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, ErrProtocol, clientErr.Kind)
	assert.Zero(t, daemon.posts)
}

func TestTransmissionRemoveMixedIDs(t *testing.T) {
	t.Parallel()

	daemon := &rpcDaemon{token: "tok"}
	tr := newRPCDaemon(t, daemon)

	err := tr.Remove(context.Background(), []string{"42", "c0ffee"}, true)
	require.NoError(t, err)

	require.Len(t, daemon.requests, 1)
	req := daemon.requests[0]
	assert.Equal(t, "torrent-remove", req.Method)
	// Numeric ids go over the wire as numbers, hashes as strings.
	assert.Equal(t, []any{float64(42), "c0ffee"}, req.Arguments["ids"])
	assert.Equal(t, true, req.Arguments["delete-local-data"])
}

func TestTransmissionRPCFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"result": "duplicate torrent"})
	}))
	t.Cleanup(srv.Close)

	tr, err := NewTransmission(TransmissionOptions{
		Host: srv.Listener.Addr().String(),
		HTTP: newTestHTTPClient(t),
	})
	require.NoError(t, err)

	err = tr.Add(context.Background(), &Torrent{URL: "http://example.com/t.torrent"}, "/downloads")
	require.Error(t, err)

	var clientErr *Error
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, ErrProtocol, clientErr.Kind)
	assert.Contains(t, clientErr.Message, "duplicate torrent")
}

func TestTorrentMetainfo(t *testing.T) {
	t.Parallel()

	valid := []byte("d4:infod4:name10:medium.aviee")

	t.Run("from data", func(t *testing.T) {
		t.Parallel()
		data, err := (&Torrent{Data: valid}).Metainfo()
		require.NoError(t, err)
		assert.Equal(t, valid, data)
	})

	t.Run("from file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "media.torrent")
		require.NoError(t, os.WriteFile(path, valid, 0o644))

		data, err := (&Torrent{Path: path}).Metainfo()
		require.NoError(t, err)
		assert.Equal(t, valid, data)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := (&Torrent{Path: filepath.Join(t.TempDir(), "gone.torrent")}).Metainfo()
		assert.Error(t, err)
	})

	t.Run("not bencode", func(t *testing.T) {
		t.Parallel()
		_, err := (&Torrent{Data: []byte("<html>not found</html>")}).Metainfo()
		assert.Error(t, err)
	})

	t.Run("no info dictionary", func(t *testing.T) {
		t.Parallel()
		_, err := (&Torrent{Data: []byte("d8:announce3:urle")}).Metainfo()
		assert.Error(t, err)
	})
}
