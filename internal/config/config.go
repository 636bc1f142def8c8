// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads the okinod configuration from a TOML file with
// OKINOD__ environment overrides.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/anteo/okinod/internal/domain"
)

const envPrefix = "OKINOD__"

// AppConfig wraps the parsed configuration and keeps it fresh on file change.
type AppConfig struct {
	Config *domain.Config
	m      sync.RWMutex
}

// New reads the configuration from configPath (or the default location when
// empty) and starts watching it for changes.
func New(configPath, version string) (*AppConfig, error) {
	c := &AppConfig{
		Config: &domain.Config{Version: version},
	}

	c.defaults()

	if err := c.load(configPath); err != nil {
		return nil, err
	}

	if err := viper.Unmarshal(c.Config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := c.Config.Validate(); err != nil {
		return nil, err
	}

	c.watch()

	return c, nil
}

func (c *AppConfig) defaults() {
	viper.SetDefault("baseUrl", "http://okino.ru")
	viper.SetDefault("logLevel", "INFO")
	viper.SetDefault("logMaxSize", 50)
	viper.SetDefault("logMaxBackups", 3)

	viper.SetDefault("scraperWorkers", 10)
	viper.SetDefault("scraperTimeout", 30)
	viper.SetDefault("httpTries", 3)
	viper.SetDefault("httpRetryDelay", 1)
	viper.SetDefault("detailsCacheTtl", 1800)
	viper.SetDefault("foldersCacheTtl", 600)
	viper.SetDefault("searchCacheTtl", 300)
	viper.SetDefault("pageSize", 20)

	viper.SetDefault("torrentClient", "transmission")
	viper.SetDefault("torrentHost", "127.0.0.1")
	viper.SetDefault("torrentPort", 9091)
	viper.SetDefault("torrentPath", "/transmission")

	viper.SetDefault("streamHost", "127.0.0.1")
	viper.SetDefault("streamPort", 5001)
	viper.SetDefault("preBufferBytes", int64(20*1024*1024))
	viper.SetDefault("pollIntervalMs", 500)
	viper.SetDefault("playbackGrace", 5)
}

func (c *AppConfig) load(configPath string) error {
	viper.SetConfigType("toml")

	if configPath != "" {
		if stat, err := os.Stat(configPath); err == nil && stat.IsDir() {
			configPath = filepath.Join(configPath, "config.toml")
		}
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "okinod"))
		}
	}

	for _, key := range viper.AllKeys() {
		env := envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = viper.BindEnv(key, env)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file is optional; defaults and env vars still apply.
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "config read error")
	}

	return nil
}

// watch reloads the dynamic part of the configuration when the file changes.
func (c *AppConfig) watch() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Debug().Str("file", e.Name).Msg("config file changed, reloading")

		c.m.Lock()
		defer c.m.Unlock()

		fresh := domain.Config{Version: c.Config.Version}
		if err := viper.Unmarshal(&fresh); err != nil {
			log.Error().Err(err).Msg("failed to reload config")
			return
		}
		if err := fresh.Validate(); err != nil {
			log.Error().Err(err).Msg("refusing invalid config reload")
			return
		}
		*c.Config = fresh
	})
	viper.WatchConfig()
}

// Get returns the current configuration snapshot.
func (c *AppConfig) Get() domain.Config {
	c.m.RLock()
	defer c.m.RUnlock()
	return *c.Config
}
