// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package httpclient

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, opts Options) *Client {
	t.Helper()
	if opts.Defaults.Tries == 0 {
		opts.Defaults.Tries = 1
	}
	if opts.Defaults.RetryDelay == 0 {
		opts.Defaults.RetryDelay = time.Millisecond
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestFetchRetriesRecoverableStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newTestClient(t, Options{Defaults: Request{Tries: 3, RetryDelay: time.Millisecond}})

	resp, err := c.Fetch(context.Background(), &Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchDoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, Options{Defaults: Request{Tries: 3, RetryDelay: time.Millisecond}})

	_, err := c.Fetch(context.Background(), &Request{URL: srv.URL})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchExhaustsRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, Options{Defaults: Request{Tries: 2, RetryDelay: time.Millisecond}})

	_, err := c.Fetch(context.Background(), &Request{URL: srv.URL})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchDecodesGzip(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gzip", r.Header.Get("Accept-Encoding"))
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("compressed payload"))
		gz.Close()
	}))
	defer srv.Close()

	c := newTestClient(t, Options{})

	resp, err := c.Fetch(context.Background(), &Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "compressed payload", string(resp.Body))
}

func TestFetchRecordsRedirect(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/film/details/105396", http.StatusFound)
	})
	mux.HandleFunc("/film/details/105396", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("record page"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, Options{})

	resp, err := c.Fetch(context.Background(), &Request{URL: srv.URL + "/search"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/film/details/105396", resp.RedirectedTo)
	assert.Equal(t, "record page", string(resp.Body))

	// A direct hit records no redirect target.
	resp, err = c.Fetch(context.Background(), &Request{URL: srv.URL + "/film/details/105396"})
	require.NoError(t, err)
	assert.Empty(t, resp.RedirectedTo)
}

func TestFetchParamsAndAuth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "hunter2", pass)

		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(r.URL.Query().Get("search")))
		case http.MethodPost:
			r.ParseForm()
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			w.Write([]byte(r.PostForm.Get("search")))
		}
	}))
	defer srv.Close()

	c := newTestClient(t, Options{})

	resp, err := c.Fetch(context.Background(), &Request{
		URL:          srv.URL,
		Params:       map[string][]string{"search": {"the query"}},
		AuthUsername: "admin",
		AuthPassword: "hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "the query", string(resp.Body))

	resp, err = c.Fetch(context.Background(), &Request{
		URL:          srv.URL,
		Method:       http.MethodPost,
		Params:       map[string][]string{"search": {"posted query"}},
		AuthUsername: "admin",
		AuthPassword: "hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "posted query", string(resp.Body))
}

func TestFetchTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	c := newTestClient(t, Options{})

	_, err := c.Fetch(context.Background(), &Request{URL: srv.URL, Timeout: 50 * time.Millisecond})
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, KindTimeout, netErr.Kind)
	assert.Equal(t, LangTimeout, netErr.LangID())
}

func TestFetchUnreachable(t *testing.T) {
	t.Parallel()

	// A freshly closed listener's port refuses connections.
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL
	srv.Close()

	c := newTestClient(t, Options{})

	_, err := c.Fetch(context.Background(), &Request{URL: target})
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, KindUnreachable, netErr.Kind)
	assert.Equal(t, LangUnreachable, netErr.LangID())
}

func TestDownload(t *testing.T) {
	t.Parallel()

	payload := []byte("torrent file contents")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="movie.torrent"`)
		w.Write(payload)
	}))
	defer srv.Close()

	c := newTestClient(t, Options{})
	path := filepath.Join(t.TempDir(), "movie.torrent")

	resp, err := c.Fetch(context.Background(), &Request{URL: srv.URL, DownloadPath: path})
	require.NoError(t, err)
	assert.Equal(t, path, resp.Filename)
	assert.Equal(t, int64(len(payload)), resp.Transferred)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

type cancellingProgress struct {
	updates atomic.Int32
}

func (p *cancellingProgress) Start(string, int64) {}
func (p *cancellingProgress) Update(int64)        { p.updates.Add(1) }
func (p *cancellingProgress) IsCancelled() bool   { return p.updates.Load() > 0 }
func (p *cancellingProgress) Close()              {}

func TestDownloadCancelled(t *testing.T) {
	t.Parallel()

	// Several buffers worth of data so the first chunk cannot cover it all.
	payload := make([]byte, 3*downloadBufferSize)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	progress := &cancellingProgress{}
	c := newTestClient(t, Options{Progress: progress})
	path := filepath.Join(t.TempDir(), "aborted.bin")

	resp, err := c.Fetch(context.Background(), &Request{URL: srv.URL, DownloadPath: path})
	require.NoError(t, err)
	assert.Empty(t, resp.Filename)
	assert.Greater(t, resp.Transferred, int64(0))
	assert.Less(t, resp.Transferred, int64(len(payload)))
}

func TestCookiesPersistAcrossClients(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/set":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123", Path: "/"})
		case "/check":
			cookie, err := r.Cookie("session")
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(cookie.Value))
		}
	}))
	defer srv.Close()

	cookiePath := filepath.Join(t.TempDir(), "cookies.json")

	first := newTestClient(t, Options{CookiePath: cookiePath})
	_, err := first.Fetch(context.Background(), &Request{URL: srv.URL + "/set"})
	require.NoError(t, err)

	// A new client picks the stored session up from disk.
	second := newTestClient(t, Options{CookiePath: cookiePath})
	resp, err := second.Fetch(context.Background(), &Request{URL: srv.URL + "/check"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", string(resp.Body))
}

func TestClassifyKeepsStatusError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, Options{})

	orig := &StatusError{Code: http.StatusBadGateway}
	err := c.classify(&Request{URL: "http://example.test"}, errors.Wrap(orig, "wrapped"))
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
}
