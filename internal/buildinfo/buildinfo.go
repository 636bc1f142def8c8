// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package buildinfo holds version information stamped at build time.
package buildinfo

import (
	"encoding/json"
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = ""
	Date    = ""

	// UserAgent identifies okinod in outgoing HTTP requests.
	UserAgent string
)

func init() {
	UserAgent = fmt.Sprintf("okinod/%s (%s %s)", Version, runtime.GOOS, runtime.GOARCH)
}

// String returns a human-readable version summary.
func String() string {
	return fmt.Sprintf("Version: %s\nCommit: %s\nBuild date: %s", Version, Commit, Date)
}

// JSON returns the version information serialized for APIs.
func JSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
	})
}
