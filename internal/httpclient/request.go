// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package httpclient

import (
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Upload is one part of a multipart/form-data request body.
type Upload struct {
	Name        string
	Filename    string
	ContentType string
	Body        []byte
}

// ProxyConfig points outgoing requests through an HTTP(S) proxy.
type ProxyConfig struct {
	Scheme   string
	Host     string
	Port     int
	Username string
	Password string
}

// URL renders the proxy endpoint.
func (p *ProxyConfig) URL() *url.URL {
	scheme := p.Scheme
	if scheme == "" {
		scheme = "http"
	}
	u := &url.URL{Scheme: scheme, Host: p.Host}
	if p.Port != 0 {
		u.Host = u.Host + ":" + strconv.Itoa(p.Port)
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u
}

// Request describes one fetch. Zero values fall back to the client defaults
// set at construction time.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string

	// Params are sent as the query string for GET requests and as a
	// form-encoded body for POST requests without Body.
	Params url.Values

	// Body is sent verbatim when set (JSON RPC payloads and similar).
	Body []byte

	Uploads []Upload

	// DownloadPath streams the response body to disk instead of buffering it.
	DownloadPath string

	AuthUsername string
	AuthPassword string

	Proxy *ProxyConfig

	Timeout time.Duration

	// DisableRedirects stops the client from following redirects; the
	// default is to follow them and record the final URL.
	DisableRedirects bool

	Tries      uint
	RetryDelay time.Duration

	DisableGzip bool
	UserAgent   string
}

// Response is the outcome of a fetch.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte

	// RedirectedTo holds the final URL when it differs from the requested
	// one. Callers use it to tell "redirected to a record" apart from
	// "showed a listing".
	RedirectedTo string

	// Filename is the path the body was written to when DownloadPath was
	// set. Empty after a cancelled download.
	Filename string

	// Transferred counts body bytes written to disk, including aborted
	// transfers.
	Transferred int64
}
