// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/anteo/okinod/internal/httpclient"
	"github.com/anteo/okinod/internal/metrics"
)

const DefaultBaseURL = "http://okino.ru"

var detailsRedirectRe = regexp.MustCompile(`/film/details/(\d+)`)

type Options struct {
	BaseURL string
	HTTP    *httpclient.Client
	Workers int
	Timeout time.Duration

	DetailsTTL time.Duration
	FoldersTTL time.Duration
	SearchTTL  time.Duration

	Metrics *metrics.Manager
}

// Scraper fetches and parses the catalog. All exported methods are safe for
// concurrent use; identical in-flight fetches are collapsed.
type Scraper struct {
	http    *httpclient.Client
	baseURL string
	workers int
	timeout time.Duration
	caches  *cacheSet
	metrics *metrics.Manager
	sf      singleflight.Group
}

func New(opts Options) (*Scraper, error) {
	if opts.HTTP == nil {
		return nil, errors.New("scraper: HTTP client is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 10
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ttlOr := func(d, fallback time.Duration) time.Duration {
		if d > 0 {
			return d
		}
		return fallback
	}
	return &Scraper{
		http:    opts.HTTP,
		baseURL: baseURL,
		workers: workers,
		timeout: timeout,
		caches: newCacheSet(
			ttlOr(opts.DetailsTTL, 30*time.Minute),
			ttlOr(opts.FoldersTTL, 10*time.Minute),
			ttlOr(opts.SearchTTL, 5*time.Minute),
			opts.Metrics,
		),
		metrics: opts.Metrics,
	}, nil
}

func (s *Scraper) countWarning(kind string) {
	if s.metrics != nil {
		s.metrics.ScrapeWarnings.WithLabelValues(kind).Inc()
	}
}

// fetchPage retrieves one catalog page and translates transport failures
// into catalog errors.
func (s *Scraper) fetchPage(ctx context.Context, pageURL string) (*httpclient.Response, error) {
	resp, err := s.http.Fetch(ctx, &httpclient.Request{
		URL:     pageURL,
		Timeout: s.timeout,
	})
	if err != nil {
		var netErr *httpclient.NetworkError
		if errors.As(err, &netErr) && netErr.Kind == httpclient.KindTimeout {
			return nil, timeoutError(err, "timeout while fetching URL: %s", pageURL)
		}
		return nil, unreachableError(err, "can't fetch URL: %s", pageURL)
	}
	return resp, nil
}

// Search runs a filtered catalog query. When the catalog finds exactly one
// match it redirects to the record page; the result then carries Details
// instead of a listing.
func (s *Scraper) Search(ctx context.Context, filter *SearchFilter, skip int) (SearchResult, error) {
	searchURL := s.baseURL + "/films/results"
	query := url.Values{}
	if filter != nil {
		if filter.Name != "" {
			// The site expects the search term escaped twice.
			query.Set("search", url.QueryEscape(filter.Name))
		}
		state, err := filter.State()
		if err != nil {
			return SearchResult{}, err
		}
		query.Set("state", state)
	}
	if skip > 0 {
		query.Set("skip", strconv.Itoa(skip))
	}
	if len(query) > 0 {
		searchURL += "?" + query.Encode()
	}

	start := time.Now()
	resp, err := s.fetchPage(ctx, searchURL)
	if err != nil {
		return SearchResult{}, err
	}
	log.Debug().Dur("elapsed", time.Since(start)).Str("url", searchURL).Msg("fetched search page")

	if resp.RedirectedTo != "" {
		m := detailsRedirectRe.FindStringSubmatch(resp.RedirectedTo)
		if m == nil {
			return SearchResult{}, malformedError("malformed answer (invalid redirect to %s)", resp.RedirectedTo)
		}
		mediaID, _ := strconv.Atoi(m[1])
		details, err := s.parseDetails(resp.Body, mediaID)
		if err != nil {
			return SearchResult{}, err
		}
		s.caches.setDetails(details)
		return SearchResult{Details: details}, nil
	}

	return s.parseSearch(resp.Body)
}

// SearchCached is Search behind the search page cache.
func (s *Scraper) SearchCached(ctx context.Context, filter *SearchFilter, skip int) (SearchResult, error) {
	key := filter.Key()
	if page, found := s.caches.getSearch(key, skip); found {
		return page, nil
	}
	page, err := s.Search(ctx, filter, skip)
	if err != nil {
		return SearchResult{}, err
	}
	s.caches.setSearch(key, skip, page)
	return page, nil
}

// GetDetails fetches the full record of one catalog entry.
func (s *Scraper) GetDetails(ctx context.Context, mediaID int) (*Details, error) {
	resp, err := s.fetchPage(ctx, fmt.Sprintf("%s/film/details/%d", s.baseURL, mediaID))
	if err != nil {
		return nil, err
	}
	return s.parseDetails(resp.Body, mediaID)
}

// GetFolders fetches the folder listing of one catalog entry. Folders of a
// multi-folder entry come back without files; use GetFiles to hydrate them.
func (s *Scraper) GetFolders(ctx context.Context, mediaID int) ([]*Folder, error) {
	resp, err := s.fetchPage(ctx, fmt.Sprintf("%s/film/content/%d", s.baseURL, mediaID))
	if err != nil {
		return nil, err
	}
	return s.parseFolders(resp.Body, mediaID)
}

// GetFiles fetches the file listing of one folder.
func (s *Scraper) GetFiles(ctx context.Context, mediaID, folderID int) ([]File, error) {
	resp, err := s.fetchPage(ctx, fmt.Sprintf("%s/film/filelist/%d?fid=%d", s.baseURL, mediaID, folderID))
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(resp.Body)
	if err != nil {
		return nil, err
	}
	tbl := doc.Find("table", map[string]string{"id": "files_tbl"})
	if tbl.Empty() {
		log.Warn().Int("mediaId", mediaID).Int("folderId", folderID).Msg("no file table found")
		return nil, nil
	}
	return s.parseFiles(tbl.First(), mediaID, folderID), nil
}

func (s *Scraper) detailsSingle(ctx context.Context, mediaID int) (*Details, error) {
	v, err, _ := s.sf.Do("details:"+strconv.Itoa(mediaID), func() (any, error) {
		return s.GetDetails(ctx, mediaID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Details), nil
}

func (s *Scraper) foldersSingle(ctx context.Context, mediaID int) ([]*Folder, error) {
	v, err, _ := s.sf.Do("folders:"+strconv.Itoa(mediaID), func() (any, error) {
		return s.GetFolders(ctx, mediaID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Folder), nil
}

func (s *Scraper) filesSingle(ctx context.Context, mediaID, folderID int) ([]File, error) {
	v, err, _ := s.sf.Do(fmt.Sprintf("files:%d:%d", mediaID, folderID), func() (any, error) {
		return s.GetFiles(ctx, mediaID, folderID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]File), nil
}

// GetDetailsBulk fetches the records of the given entries concurrently.
// Cached entries are served without network access. Entries fetched before
// a failure still warm the cache, but the call returns no partial results.
func (s *Scraper) GetDetailsBulk(ctx context.Context, mediaIDs []int) (map[int]*Details, error) {
	results := make(map[int]*Details, len(mediaIDs))
	var notCached []int
	for _, id := range mediaIDs {
		if d, found := s.caches.getDetails(id); found {
			results[id] = d
		} else {
			notCached = append(notCached, id)
		}
	}
	if len(notCached) == 0 {
		return results, nil
	}
	if s.metrics != nil {
		s.metrics.BulkFetches.Inc()
	}

	start := time.Now()
	bulkCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(bulkCtx)
	g.SetLimit(s.workers)
	for _, id := range notCached {
		g.Go(func() error {
			d, err := s.detailsSingle(gctx, id)
			if err != nil {
				return err
			}
			s.caches.setDetails(d)
			mu.Lock()
			results[d.MediaID] = d
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if bulkCtx.Err() != nil && ctx.Err() == nil {
			return nil, timeoutError(err, "timeout while fetching %d record(s)", len(notCached))
		}
		return nil, err
	}
	log.Debug().Dur("elapsed", time.Since(start)).Int("fetched", len(notCached)).Msg("bulk fetched records")
	return results, nil
}

// GetDetailsCached fetches one record through the cache.
func (s *Scraper) GetDetailsCached(ctx context.Context, mediaID int) (*Details, error) {
	results, err := s.GetDetailsBulk(ctx, []int{mediaID})
	if err != nil {
		return nil, err
	}
	return results[mediaID], nil
}

// GetFoldersBulk fetches folder listings concurrently and hydrates the
// files of multi-folder entries in a second wave. A single-folder entry is
// cached with its files left empty; they are fetched lazily on demand.
func (s *Scraper) GetFoldersBulk(ctx context.Context, mediaIDs []int) (map[int][]*Folder, error) {
	results := make(map[int][]*Folder, len(mediaIDs))
	var notCached []int
	for _, id := range mediaIDs {
		if f, found := s.caches.getFolders(id); found {
			results[id] = f
		} else {
			notCached = append(notCached, id)
		}
	}
	if len(notCached) == 0 {
		return results, nil
	}
	if s.metrics != nil {
		s.metrics.BulkFetches.Inc()
	}

	start := time.Now()
	bulkCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var mu sync.Mutex
	var multiFolder []int

	g, gctx := errgroup.WithContext(bulkCtx)
	g.SetLimit(s.workers)
	for _, id := range notCached {
		g.Go(func() error {
			folders, err := s.foldersSingle(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			results[id] = folders
			if len(folders) > 1 {
				multiFolder = append(multiFolder, id)
			} else {
				s.caches.setFolders(id, folders)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if bulkCtx.Err() != nil && ctx.Err() == nil {
			return nil, timeoutError(err, "timeout while fetching %d folder listing(s)", len(notCached))
		}
		return nil, err
	}

	g, gctx = errgroup.WithContext(bulkCtx)
	g.SetLimit(s.workers)
	for _, id := range multiFolder {
		for _, folder := range results[id] {
			g.Go(func() error {
				files, err := s.filesSingle(gctx, folder.MediaID, folder.ID)
				if err != nil {
					return err
				}
				mu.Lock()
				folder.Files = append(folder.Files, files...)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		if bulkCtx.Err() != nil && ctx.Err() == nil {
			return nil, timeoutError(err, "timeout while fetching files of %d listing(s)", len(multiFolder))
		}
		return nil, err
	}
	for _, id := range multiFolder {
		s.caches.setFolders(id, results[id])
	}
	log.Debug().Dur("elapsed", time.Since(start)).Int("fetched", len(notCached)).Msg("bulk fetched folders")
	return results, nil
}

// GetFoldersCached fetches the folder listing of one entry through the cache.
func (s *Scraper) GetFoldersCached(ctx context.Context, mediaID int) ([]*Folder, error) {
	results, err := s.GetFoldersBulk(ctx, []int{mediaID})
	if err != nil {
		return nil, err
	}
	return results[mediaID], nil
}

// GetFolderCached returns one folder of an entry, or nil when it is absent.
func (s *Scraper) GetFolderCached(ctx context.Context, mediaID, folderID int) (*Folder, error) {
	folders, err := s.GetFoldersCached(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	for _, f := range folders {
		if f.ID == folderID {
			return f, nil
		}
	}
	return nil, nil
}

// GetFilesCached returns the files of one folder, fetching them lazily when
// the cached folder has none yet.
func (s *Scraper) GetFilesCached(ctx context.Context, mediaID, folderID int) ([]File, error) {
	folder, err := s.GetFolderCached(ctx, mediaID, folderID)
	if err != nil || folder == nil {
		return nil, err
	}
	if len(folder.Files) == 0 {
		files, err := s.filesSingle(ctx, mediaID, folderID)
		if err != nil {
			return nil, err
		}
		// The cached listing holds the same pointer.
		folder.Files = files
	}
	return folder.Files, nil
}

// Invalidate drops the cached record and folders of one entry.
func (s *Scraper) Invalidate(mediaID int) {
	s.caches.invalidate(mediaID)
}
