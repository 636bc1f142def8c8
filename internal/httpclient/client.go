// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package httpclient performs retryable HTTP(S) requests with gzip, a
// persistent cookie store, basic auth, proxying and streamed downloads with
// progress reporting.
package httpclient

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/anteo/okinod/internal/buildinfo"
	"github.com/anteo/okinod/internal/metrics"
	"github.com/anteo/okinod/pkg/httphelpers"
)

const downloadBufferSize = 128 * 1024

// Server-side statuses worth another attempt. Everything else propagates
// immediately.
var recoverableCodes = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

var contentDispositionRe = regexp.MustCompile(`attachment;\s*filename="?([^";]+)"?`)

// Options configure a Client.
type Options struct {
	// CookiePath enables the file-backed cookie store when set.
	CookiePath string

	// Defaults fill unset per-request fields.
	Defaults Request

	// Progress observes downloads when the request carries no observer of
	// its own. Nil disables reporting.
	Progress Progress

	Metrics *metrics.Manager
}

// Client is a reusable HTTP client. Safe for concurrent use.
type Client struct {
	jar      *fileJar
	defaults Request
	progress Progress
	metrics  *metrics.Manager
}

func New(opts Options) (*Client, error) {
	jar, err := newFileJar(opts.CookiePath)
	if err != nil {
		return nil, err
	}

	c := &Client{
		jar:      jar,
		defaults: opts.Defaults,
		progress: opts.Progress,
		metrics:  opts.Metrics,
	}
	if c.defaults.Timeout == 0 {
		c.defaults.Timeout = 30 * time.Second
	}
	if c.defaults.Tries == 0 {
		c.defaults.Tries = 1
	}
	if c.defaults.RetryDelay == 0 {
		c.defaults.RetryDelay = time.Second
	}
	return c, nil
}

// Fetch performs the request, retrying recoverable server errors up to
// req.Tries times with req.RetryDelay between attempts. Transport failures
// come back as *NetworkError, HTTP error statuses as *StatusError.
func (c *Client) Fetch(ctx context.Context, req *Request) (*Response, error) {
	merged := c.merge(req)

	httpClient := c.buildClient(&merged)

	var resp *Response
	err := retry.Do(
		func() error {
			var ferr error
			resp, ferr = c.fetchOnce(ctx, httpClient, &merged)
			return ferr
		},
		retry.Attempts(merged.Tries),
		retry.Delay(merged.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var statusErr *StatusError
			return errors.As(err, &statusErr) && recoverableCodes[statusErr.Code]
		}),
		retry.OnRetry(func(n uint, err error) {
			if c.metrics != nil {
				c.metrics.HTTPRetries.Inc()
			}
			log.Info().
				Err(err).
				Str("url", merged.URL).
				Uint("attempt", n+1).
				Dur("delay", merged.RetryDelay).
				Msg("recoverable HTTP error, retrying")
		}),
	)
	if err != nil {
		return nil, c.classify(&merged, err)
	}

	if err := c.jar.save(); err != nil {
		log.Warn().Err(err).Msg("could not save cookies")
	}
	return resp, nil
}

func (c *Client) merge(req *Request) Request {
	merged := *req
	if merged.Method == "" {
		merged.Method = http.MethodGet
	}
	if merged.Timeout == 0 {
		merged.Timeout = c.defaults.Timeout
	}
	if merged.Tries == 0 {
		merged.Tries = c.defaults.Tries
	}
	if merged.RetryDelay == 0 {
		merged.RetryDelay = c.defaults.RetryDelay
	}
	if merged.UserAgent == "" {
		if c.defaults.UserAgent != "" {
			merged.UserAgent = c.defaults.UserAgent
		} else {
			merged.UserAgent = buildinfo.UserAgent
		}
	}
	if merged.Proxy == nil {
		merged.Proxy = c.defaults.Proxy
	}
	return merged
}

func (c *Client) buildClient(req *Request) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if req.Proxy != nil && req.Proxy.Host != "" {
		transport.Proxy = http.ProxyURL(req.Proxy.URL())
	}

	httpClient := &http.Client{
		Transport: transport,
		Jar:       c.jar,
		Timeout:   req.Timeout,
	}
	if req.DisableRedirects {
		httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return httpClient
}

func (c *Client) fetchOnce(ctx context.Context, httpClient *http.Client, req *Request) (*Response, error) {
	hreq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("method", hreq.Method).Str("url", hreq.URL.String()).Msg("fetching")

	raw, err := httpClient.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer raw.Body.Close()

	if raw.StatusCode >= http.StatusBadRequest {
		httphelpers.DrainAndClose(raw)
		return nil, &StatusError{Code: raw.StatusCode, Header: raw.Header}
	}

	resp := &Response{
		StatusCode: raw.StatusCode,
		Headers:    raw.Header,
	}
	if final := raw.Request.URL.String(); final != req.URL {
		resp.RedirectedTo = final
	}

	if req.DownloadPath != "" {
		if err := c.download(req, raw, resp); err != nil {
			return nil, err
		}
		return resp, nil
	}

	body, err := io.ReadAll(raw.Body)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(raw.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, errors.Wrap(err, "malformed gzip body")
		}
		defer gz.Close()
		if body, err = io.ReadAll(gz); err != nil {
			return nil, errors.Wrap(err, "malformed gzip body")
		}
	}
	resp.Body = body
	return resp, nil
}

func (c *Client) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	reqURL := req.URL
	var body io.Reader
	contentType := ""

	switch {
	case len(req.Uploads) > 0:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for key, vals := range req.Params {
			for _, v := range vals {
				if err := w.WriteField(key, v); err != nil {
					return nil, err
				}
			}
		}
		for _, up := range req.Uploads {
			hdr := make(textproto.MIMEHeader)
			hdr.Set("Content-Disposition",
				`form-data; name="`+up.Name+`"; filename="`+url.PathEscape(up.Filename)+`"`)
			if up.ContentType != "" {
				hdr.Set("Content-Type", up.ContentType)
			}
			part, err := w.CreatePart(hdr)
			if err != nil {
				return nil, err
			}
			if _, err := part.Write(up.Body); err != nil {
				return nil, err
			}
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		body = &buf
		contentType = w.FormDataContentType()

	case len(req.Body) > 0:
		body = bytes.NewReader(req.Body)

	case req.Method == http.MethodPost && len(req.Params) > 0:
		body = strings.NewReader(req.Params.Encode())
		contentType = "application/x-www-form-urlencoded"

	case len(req.Params) > 0:
		u, err := url.Parse(reqURL)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid URL: %s", reqURL)
		}
		q := u.Query()
		for key, vals := range req.Params {
			for _, v := range vals {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
		reqURL = u.String()
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, reqURL, body)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid request: %s", reqURL)
	}

	hreq.Header.Set("User-Agent", req.UserAgent)
	if !req.DisableGzip && req.DownloadPath == "" {
		hreq.Header.Set("Accept-Encoding", "gzip")
	}
	if contentType != "" {
		hreq.Header.Set("Content-Type", contentType)
	}
	for key, v := range req.Headers {
		hreq.Header.Set(key, v)
	}
	if req.AuthUsername != "" {
		hreq.SetBasicAuth(req.AuthUsername, req.AuthPassword)
	}
	return hreq, nil
}

// download streams the body to req.DownloadPath in fixed-size chunks,
// reporting each chunk to the progress observer. A cancelled observer
// truncates the transfer: Filename stays empty, Transferred holds the exact
// byte count written so far.
func (c *Client) download(req *Request, raw *http.Response, resp *Response) error {
	path, err := filepath.Abs(req.DownloadPath)
	if err != nil {
		return err
	}
	fd, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "can't create download file: %s", path)
	}
	defer fd.Close()

	size := int64(-1)
	if cl := raw.Header.Get("Content-Length"); cl != "" {
		if v, err := strconv.ParseInt(cl, 10, 64); err == nil {
			size = v
		}
	}

	name := ""
	if cd := raw.Header.Get("Content-Disposition"); cd != "" {
		if m := contentDispositionRe.FindStringSubmatch(cd); m != nil {
			if unquoted, err := url.QueryUnescape(m[1]); err == nil {
				name = unquoted
			}
		}
	}
	if name == "" {
		name = filepath.Base(path)
	}

	progress := c.progress
	if progress != nil {
		progress.Start(name, size)
		defer progress.Close()
	}

	buf := make([]byte, downloadBufferSize)
	var read int64
	aborted := false

	for {
		n, rerr := raw.Body.Read(buf)
		if n > 0 {
			if _, werr := fd.Write(buf[:n]); werr != nil {
				return errors.Wrapf(werr, "write error: %s", path)
			}
			read += int64(n)
			if progress != nil {
				progress.Update(read)
				if progress.IsCancelled() {
					aborted = true
					break
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}

	resp.Transferred = read
	if aborted {
		log.Info().Str("name", name).Int64("transferred", read).Msg("file transfer aborted")
		return nil
	}

	resp.Filename = path
	log.Info().Str("name", name).Str("path", path).Msg("file downloaded")
	return nil
}

// classify maps retry/transport errors into the typed taxonomy.
func (c *Client) classify(req *Request, err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr
	}

	kind := KindUnreachable
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = KindTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &NetworkError{Kind: kind, URL: req.URL, Cause: err}
}
