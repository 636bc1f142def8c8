// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package httphelpers provides small HTTP plumbing helpers shared by the
// site client and the torrent client adapters.
package httphelpers

import (
	"io"
	"net/http"
	"strings"
)

// DrainAndClose consumes the remaining response body and closes it to allow connection reuse.
func DrainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// NormalizeBasePath trims a configured base path to the canonical
// "/segment" form. Empty and root paths normalize to "".
func NormalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// JoinBasePath joins a normalized base path with a suffix, always
// returning an absolute path.
func JoinBasePath(basePath, suffix string) string {
	suffix = strings.TrimPrefix(suffix, "/")
	if suffix == "" {
		if basePath == "" {
			return "/"
		}
		return basePath
	}
	return basePath + "/" + suffix
}
