// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"time"

	"github.com/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	Version string

	BaseURL       string `toml:"baseUrl" mapstructure:"baseUrl"`
	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`
	DataDir       string `toml:"dataDir" mapstructure:"dataDir"`
	CookiePath    string `toml:"cookiePath" mapstructure:"cookiePath"`

	// Scraper tuning. ScraperWorkers bounds the bulk-fetch pool;
	// ScraperTimeout caps a whole bulk call.
	ScraperWorkers  int `toml:"scraperWorkers" mapstructure:"scraperWorkers"`
	ScraperTimeout  int `toml:"scraperTimeout" mapstructure:"scraperTimeout"`
	HTTPTries       int `toml:"httpTries" mapstructure:"httpTries"`
	HTTPRetryDelay  int `toml:"httpRetryDelay" mapstructure:"httpRetryDelay"`
	DetailsCacheTTL int `toml:"detailsCacheTtl" mapstructure:"detailsCacheTtl"`
	FoldersCacheTTL int `toml:"foldersCacheTtl" mapstructure:"foldersCacheTtl"`
	SearchCacheTTL  int `toml:"searchCacheTtl" mapstructure:"searchCacheTtl"`
	PageSize        int `toml:"pageSize" mapstructure:"pageSize"`

	ProxyScheme   string `toml:"proxyScheme" mapstructure:"proxyScheme"`
	ProxyHost     string `toml:"proxyHost" mapstructure:"proxyHost"`
	ProxyPort     int    `toml:"proxyPort" mapstructure:"proxyPort"`
	ProxyUsername string `toml:"proxyUsername" mapstructure:"proxyUsername"`
	ProxyPassword string `toml:"proxyPassword" mapstructure:"proxyPassword"`

	// Torrent daemon used for persistent downloads.
	TorrentClient   string `toml:"torrentClient" mapstructure:"torrentClient"` // transmission | qbittorrent
	TorrentHost     string `toml:"torrentHost" mapstructure:"torrentHost"`
	TorrentPort     int    `toml:"torrentPort" mapstructure:"torrentPort"`
	TorrentPath     string `toml:"torrentPath" mapstructure:"torrentPath"`
	TorrentUsername string `toml:"torrentUsername" mapstructure:"torrentUsername"`
	TorrentPassword string `toml:"torrentPassword" mapstructure:"torrentPassword"`
	DownloadDir     string `toml:"downloadDir" mapstructure:"downloadDir"`

	// Streaming engine.
	StreamHost     string `toml:"streamHost" mapstructure:"streamHost"`
	StreamPort     int    `toml:"streamPort" mapstructure:"streamPort"`
	PreBufferBytes int64  `toml:"preBufferBytes" mapstructure:"preBufferBytes"`
	PollIntervalMs int    `toml:"pollIntervalMs" mapstructure:"pollIntervalMs"`
	PlaybackGrace  int    `toml:"playbackGrace" mapstructure:"playbackGrace"`
}

// ScraperTimeoutDuration returns the bulk-fetch timeout.
func (c *Config) ScraperTimeoutDuration() time.Duration {
	return time.Duration(c.ScraperTimeout) * time.Second
}

// PollInterval returns the stream engine poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Validate checks settings that have no workable fallback.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("baseUrl is required")
	}
	if c.ScraperWorkers <= 0 {
		return errors.New("scraperWorkers must be positive")
	}
	switch c.TorrentClient {
	case "", "transmission", "qbittorrent":
	default:
		return errors.Errorf("unknown torrentClient %q", c.TorrentClient)
	}
	return nil
}
