// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/anteo/okinod/internal/buildinfo"
	"github.com/anteo/okinod/internal/config"
	"github.com/anteo/okinod/internal/domain"
	"github.com/anteo/okinod/internal/httpclient"
	"github.com/anteo/okinod/internal/logger"
	"github.com/anteo/okinod/internal/metrics"
	"github.com/anteo/okinod/internal/scraper"
	"github.com/anteo/okinod/internal/stream"
	"github.com/anteo/okinod/internal/stream/anacrolix"
	"github.com/anteo/okinod/internal/torrentclient"
)

// app wires the process dependencies once and hands them to commands.
type app struct {
	cfg     domain.Config
	metrics *metrics.Manager
	http    *httpclient.Client
	scraper *scraper.Scraper
}

func newApp(configPath string) (*app, error) {
	appConfig, err := config.New(configPath, buildinfo.Version)
	if err != nil {
		return nil, err
	}
	cfg := appConfig.Get()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Setup(logger.Options{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
	})

	metricsManager := metrics.NewManager()

	defaults := httpclient.Request{
		Tries:      uint(cfg.HTTPTries),
		RetryDelay: time.Duration(cfg.HTTPRetryDelay) * time.Second,
	}
	if cfg.ProxyHost != "" {
		defaults.Proxy = &httpclient.ProxyConfig{
			Scheme:   cfg.ProxyScheme,
			Host:     cfg.ProxyHost,
			Port:     cfg.ProxyPort,
			Username: cfg.ProxyUsername,
			Password: cfg.ProxyPassword,
		}
	}
	httpClient, err := httpclient.New(httpclient.Options{
		CookiePath: cfg.CookiePath,
		Defaults:   defaults,
		Metrics:    metricsManager,
	})
	if err != nil {
		return nil, err
	}

	catalogScraper, err := scraper.New(scraper.Options{
		BaseURL:    cfg.BaseURL,
		HTTP:       httpClient,
		Workers:    cfg.ScraperWorkers,
		Timeout:    cfg.ScraperTimeoutDuration(),
		DetailsTTL: time.Duration(cfg.DetailsCacheTTL) * time.Second,
		FoldersTTL: time.Duration(cfg.FoldersCacheTTL) * time.Second,
		SearchTTL:  time.Duration(cfg.SearchCacheTTL) * time.Second,
		Metrics:    metricsManager,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		metrics: metricsManager,
		http:    httpClient,
		scraper: catalogScraper,
	}, nil
}

func (a *app) torrentClient(ctx context.Context) (torrentclient.Client, error) {
	log.Debug().
		Str("client", a.cfg.TorrentClient).
		Str("host", a.cfg.TorrentHost).
		Str("username", a.cfg.TorrentUsername).
		Str("password", domain.RedactString(a.cfg.TorrentPassword)).
		Msg("connecting to torrent client")

	switch a.cfg.TorrentClient {
	case "", "transmission":
		return torrentclient.NewTransmission(torrentclient.TransmissionOptions{
			Host:     a.cfg.TorrentHost,
			Port:     a.cfg.TorrentPort,
			Path:     a.cfg.TorrentPath,
			Username: a.cfg.TorrentUsername,
			Password: a.cfg.TorrentPassword,
			HTTP:     a.http,
		})
	case "qbittorrent":
		return torrentclient.NewQBittorrent(ctx, torrentclient.QBittorrentOptions{
			Host:     a.cfg.TorrentHost,
			Username: a.cfg.TorrentUsername,
			Password: a.cfg.TorrentPassword,
		})
	}
	return nil, errors.Errorf("unknown torrent client %q", a.cfg.TorrentClient)
}

func (a *app) streamEngine() (*anacrolix.Engine, error) {
	return anacrolix.New(anacrolix.Config{
		DataDir: a.cfg.DownloadDir,
		Host:    a.cfg.StreamHost,
		Port:    a.cfg.StreamPort,
		HTTP:    a.http,
	})
}

func (a *app) newStream(engine stream.Engine, buffering, playing stream.Progress) *stream.Stream {
	return stream.New(stream.Options{
		Engine:            engine,
		BufferingProgress: buffering,
		PlayingProgress:   playing,
		PreBufferBytes:    a.cfg.PreBufferBytes,
		PollInterval:      a.cfg.PollInterval(),
		PlaybackGrace:     time.Duration(a.cfg.PlaybackGrace) * time.Second,
	})
}
