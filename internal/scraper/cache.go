// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scraper

import (
	"strconv"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"

	"github.com/anteo/okinod/internal/metrics"
)

// cacheSet holds the three read-through stores. Details and folders are
// keyed by media id, search pages by structural filter key plus offset.
type cacheSet struct {
	details *ttlcache.Cache[int, *Details]
	folders *ttlcache.Cache[int, []*Folder]
	search  *ttlcache.Cache[string, SearchResult]

	metrics *metrics.Manager
}

func newCacheSet(detailsTTL, foldersTTL, searchTTL time.Duration, m *metrics.Manager) *cacheSet {
	return &cacheSet{
		details: ttlcache.New(ttlcache.Options[int, *Details]{}.
			SetDefaultTTL(detailsTTL)),
		folders: ttlcache.New(ttlcache.Options[int, []*Folder]{}.
			SetDefaultTTL(foldersTTL)),
		search: ttlcache.New(ttlcache.Options[string, SearchResult]{}.
			SetDefaultTTL(searchTTL)),
		metrics: m,
	}
}

func (c *cacheSet) record(name string, hit bool) {
	if c.metrics == nil {
		return
	}
	if hit {
		c.metrics.CacheHits.WithLabelValues(name).Inc()
	} else {
		c.metrics.CacheMisses.WithLabelValues(name).Inc()
	}
}

func (c *cacheSet) getDetails(mediaID int) (*Details, bool) {
	d, found := c.details.Get(mediaID)
	c.record("details", found)
	return d, found
}

func (c *cacheSet) setDetails(d *Details) {
	c.details.Set(d.MediaID, d, ttlcache.DefaultTTL)
}

func (c *cacheSet) getFolders(mediaID int) ([]*Folder, bool) {
	f, found := c.folders.Get(mediaID)
	c.record("folders", found)
	return f, found
}

func (c *cacheSet) setFolders(mediaID int, folders []*Folder) {
	c.folders.Set(mediaID, folders, ttlcache.DefaultTTL)
}

func (c *cacheSet) getSearch(key string, skip int) (SearchResult, bool) {
	p, found := c.search.Get(key + "#" + strconv.Itoa(skip))
	c.record("search", found)
	return p, found
}

func (c *cacheSet) setSearch(key string, skip int, page SearchResult) {
	c.search.Set(key+"#"+strconv.Itoa(skip), page, ttlcache.DefaultTTL)
}

func (c *cacheSet) invalidate(mediaID int) {
	c.details.Delete(mediaID)
	c.folders.Delete(mediaID)
}
