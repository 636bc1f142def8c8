// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package anacrolix

import (
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// handleFile serves one torrent file with range support, reading pieces on
// demand through the torrent client.
func (e *Engine) handleFile(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid file index", http.StatusBadRequest)
		return
	}

	e.mu.Lock()
	t := e.current
	e.mu.Unlock()
	if t == nil || !infoReady(t) {
		http.Error(w, "no active session", http.StatusNotFound)
		return
	}
	files := t.Files()
	if index < 0 || index >= len(files) {
		http.Error(w, "file index out of range", http.StatusNotFound)
		return
	}

	f := files[index]
	reader := f.NewReader()
	defer reader.Close()

	log.Debug().Str("path", f.Path()).Str("range", r.Header.Get("Range")).Msg("serving stream file")
	http.ServeContent(w, r, path.Base(f.Path()), time.Time{}, reader)
}
