// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Manager owns the prometheus registry and the counters shared by the
// scraper and HTTP client.
type Manager struct {
	registry *prometheus.Registry

	ScrapeWarnings *prometheus.CounterVec
	HTTPRetries    prometheus.Counter
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	BulkFetches    prometheus.Counter
}

func NewManager() *Manager {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Manager{
		registry: registry,
		ScrapeWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "okinod_scrape_warnings_total",
			Help: "Non-fatal parse warnings by kind",
		}, []string{"kind"}),
		HTTPRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "okinod_http_retries_total",
			Help: "HTTP fetch retries on recoverable status codes",
		}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "okinod_cache_hits_total",
			Help: "Scraper cache hits by store",
		}, []string{"cache"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "okinod_cache_misses_total",
			Help: "Scraper cache misses by store",
		}, []string{"cache"}),
		BulkFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "okinod_bulk_fetches_total",
			Help: "Bulk fetch operations dispatched",
		}),
	}

	registry.MustRegister(m.ScrapeWarnings, m.HTTPRetries, m.CacheHits, m.CacheMisses, m.BulkFetches)

	return m
}

func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}
