// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torrentclient

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/zeebo/bencode"
)

// Status is the download state of a queued torrent, normalized across
// daemons.
type Status int

const (
	StatusStopped Status = iota
	StatusCheckPending
	StatusChecking
	StatusDownloadPending
	StatusDownloading
	StatusSeedPending
	StatusSeeding
)

func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusCheckPending:
		return "check pending"
	case StatusChecking:
		return "checking"
	case StatusDownloadPending:
		return "download pending"
	case StatusDownloading:
		return "downloading"
	case StatusSeedPending:
		return "seed pending"
	case StatusSeeding:
		return "seeding"
	}
	return "unknown"
}

// Torrent is a source to add: a remote URL, raw metainfo bytes, or a local
// file path. Exactly one of the fields should be set.
type Torrent struct {
	URL  string
	Data []byte
	Path string
}

func (t *Torrent) HasURL() bool  { return t.URL != "" }
func (t *Torrent) HasData() bool { return len(t.Data) > 0 }
func (t *Torrent) HasPath() bool { return t.Path != "" }

// Metainfo returns the raw torrent file contents, reading them from disk
// when the source is a path, and verifies they look like a bencoded
// metainfo dictionary.
func (t *Torrent) Metainfo() ([]byte, error) {
	data := t.Data
	if len(data) == 0 && t.Path != "" {
		var err error
		data, err = os.ReadFile(t.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read torrent file: %s", t.Path)
		}
	}
	if len(data) == 0 {
		return nil, errors.New("torrent has no metainfo")
	}
	var meta map[string]bencode.RawMessage
	if err := bencode.DecodeBytes(data, &meta); err != nil {
		return nil, errors.Wrap(err, "not a valid torrent file")
	}
	if _, ok := meta["info"]; !ok {
		return nil, errors.New("torrent file has no info dictionary")
	}
	return data, nil
}

// TorrentInfo is a point-in-time snapshot of one queued torrent.
type TorrentInfo struct {
	ID           string
	Status       Status
	Name         string
	Size         int64
	Progress     int // percent
	Downloaded   int64
	Uploaded     int64
	UploadRate   int64
	DownloadRate int64
	Ratio        float64
	ETA          int64
	Peers        int
	Seeds        int
	Leeches      int
	Added        int64
	Finished     int64
	DownloadDir  string
}

// Client talks to a torrent daemon. Implementations are safe for
// concurrent use.
type Client interface {
	List(ctx context.Context) ([]TorrentInfo, error)
	Add(ctx context.Context, torrent *Torrent, downloadDir string) error
	Remove(ctx context.Context, ids []string, deleteLocalData bool) error
}
