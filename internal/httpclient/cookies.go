// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package httpclient

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

// fileJar is a cookie jar persisted to a JSON file so sessions survive
// process restarts. Load happens at construction, save after every
// successful fetch.
type fileJar struct {
	*cookiejar.Jar

	path string
	mu   sync.Mutex

	// hosts remembers every URL cookies were set for, since cookiejar has
	// no enumeration API.
	hosts map[string]struct{}
}

type savedCookie struct {
	URL     string    `json:"url"`
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Domain  string    `json:"domain,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
	Secure  bool      `json:"secure,omitempty"`
}

func newFileJar(path string) (*fileJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cookie jar")
	}

	j := &fileJar{Jar: jar, path: path, hosts: make(map[string]struct{})}
	if path != "" {
		if err := j.load(); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("could not load cookie file")
		}
	}
	return j, nil
}

func (j *fileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	j.hosts[(&url.URL{Scheme: u.Scheme, Host: u.Host}).String()] = struct{}{}
	j.mu.Unlock()
	j.Jar.SetCookies(u, cookies)
}

func (j *fileJar) load() error {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		return errors.Wrap(err, "malformed cookie file")
	}

	now := time.Now()
	for _, sc := range saved {
		if !sc.Expires.IsZero() && sc.Expires.Before(now) {
			continue
		}
		u, err := url.Parse(sc.URL)
		if err != nil {
			continue
		}
		j.SetCookies(u, []*http.Cookie{{
			Name:    sc.Name,
			Value:   sc.Value,
			Path:    sc.Path,
			Domain:  sc.Domain,
			Expires: sc.Expires,
			Secure:  sc.Secure,
		}})
	}
	return nil
}

func (j *fileJar) save() error {
	if j.path == "" {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	var saved []savedCookie
	for host := range j.hosts {
		u, err := url.Parse(host)
		if err != nil {
			continue
		}
		for _, c := range j.Cookies(u) {
			saved = append(saved, savedCookie{
				URL:     host,
				Name:    c.Name,
				Value:   c.Value,
				Path:    c.Path,
				Domain:  c.Domain,
				Expires: c.Expires,
				Secure:  c.Secure,
			})
		}
	}

	data, err := json.Marshal(saved)
	if err != nil {
		return err
	}
	return os.WriteFile(j.path, data, 0o600)
}
