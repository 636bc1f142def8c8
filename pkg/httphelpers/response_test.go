// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package httphelpers

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBasePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"just slash", "/", ""},
		{"just whitespace", "   ", ""},
		{"simple path", "/transmission", "/transmission"},
		{"trailing slash", "/transmission/", "/transmission"},
		{"no leading slash", "transmission", "/transmission"},
		{"nested path", "/transmission/rpc", "/transmission/rpc"},
		{"surrounding whitespace", "  /rpc  ", "/rpc"},
		{"multiple trailing slashes", "/rpc///", "/rpc"},
		{"just slashes", "///", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NormalizeBasePath(tt.input))
		})
	}
}

func TestJoinBasePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		basePath string
		suffix   string
		expected string
	}{
		{"empty base, empty suffix", "", "", "/"},
		{"empty base, relative suffix", "", "rpc", "/rpc"},
		{"empty base, absolute suffix", "", "/rpc", "/rpc"},
		{"with base, empty suffix", "/transmission", "", "/transmission"},
		{"with base, relative suffix", "/transmission", "rpc", "/transmission/rpc"},
		{"with base, absolute suffix", "/transmission", "/rpc", "/transmission/rpc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, JoinBasePath(tt.basePath, tt.suffix))
		})
	}
}

func TestDrainAndClose(t *testing.T) {
	t.Parallel()

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		DrainAndClose(nil)
	})

	t.Run("nil body", func(t *testing.T) {
		t.Parallel()
		DrainAndClose(&http.Response{Body: nil})
	})

	t.Run("drains and closes body", func(t *testing.T) {
		t.Parallel()

		closed := false
		body := &trackingReadCloser{
			reader:  bytes.NewReader([]byte("leftover body")),
			onClose: func() { closed = true },
		}

		DrainAndClose(&http.Response{Body: body})

		assert.True(t, closed)
		assert.Zero(t, body.reader.Len())
	})
}

type trackingReadCloser struct {
	reader  *bytes.Reader
	onClose func()
}

func (m *trackingReadCloser) Read(p []byte) (n int, err error) {
	return m.reader.Read(p)
}

func (m *trackingReadCloser) Close() error {
	if m.onClose != nil {
		m.onClose()
	}
	return nil
}
