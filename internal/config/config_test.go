// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The package reads through the global viper instance, so these tests
// reset it and run sequentially.

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewAppliesDefaults(t *testing.T) {
	viper.Reset()

	c, err := New(filepath.Join(t.TempDir(), "config.toml"), "test")
	require.NoError(t, err)

	cfg := c.Get()
	assert.Equal(t, "test", cfg.Version)
	assert.Equal(t, "http://okino.ru", cfg.BaseURL)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 10, cfg.ScraperWorkers)
	assert.Equal(t, 3, cfg.HTTPTries)
	assert.Equal(t, 1800, cfg.DetailsCacheTTL)
	assert.Equal(t, "transmission", cfg.TorrentClient)
	assert.Equal(t, 9091, cfg.TorrentPort)
	assert.Equal(t, "/transmission", cfg.TorrentPath)
	assert.Equal(t, 5001, cfg.StreamPort)
	assert.Equal(t, int64(20*1024*1024), cfg.PreBufferBytes)
}

func TestNewReadsFile(t *testing.T) {
	viper.Reset()

	path := writeConfig(t, `
baseUrl = "http://mirror.okino.ru"
scraperWorkers = 4
torrentClient = "qbittorrent"
torrentHost = "nas.local"
downloadDir = "/srv/media"
logLevel = "DEBUG"
`)

	c, err := New(path, "test")
	require.NoError(t, err)

	cfg := c.Get()
	assert.Equal(t, "http://mirror.okino.ru", cfg.BaseURL)
	assert.Equal(t, 4, cfg.ScraperWorkers)
	assert.Equal(t, "qbittorrent", cfg.TorrentClient)
	assert.Equal(t, "nas.local", cfg.TorrentHost)
	assert.Equal(t, "/srv/media", cfg.DownloadDir)
	assert.Equal(t, "DEBUG", cfg.LogLevel)

	// Untouched keys keep their defaults.
	assert.Equal(t, 9091, cfg.TorrentPort)
}

func TestNewResolvesDirectory(t *testing.T) {
	viper.Reset()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte(`baseUrl = "http://mirror.okino.ru"`), 0o644))

	c, err := New(dir, "test")
	require.NoError(t, err)
	assert.Equal(t, "http://mirror.okino.ru", c.Get().BaseURL)
}

func TestNewEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Setenv("OKINOD__LOGLEVEL", "TRACE")
	t.Setenv("OKINOD__TORRENTHOST", "seedbox.local")

	c, err := New(filepath.Join(t.TempDir(), "config.toml"), "test")
	require.NoError(t, err)

	cfg := c.Get()
	assert.Equal(t, "TRACE", cfg.LogLevel)
	assert.Equal(t, "seedbox.local", cfg.TorrentHost)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	viper.Reset()

	path := writeConfig(t, `scraperWorkers = 0`)

	_, err := New(path, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scraperWorkers")
}

func TestNewRejectsMalformedFile(t *testing.T) {
	viper.Reset()

	path := writeConfig(t, `baseUrl = `)

	_, err := New(path, "test")
	require.Error(t, err)
}
