// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torrentclient

import (
	"context"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog/log"
)

type QBittorrentOptions struct {
	Host     string
	Username string
	Password string
}

// QBittorrent adapts the qBittorrent Web API to the Client contract.
type QBittorrent struct {
	client *qbt.Client
}

func NewQBittorrent(ctx context.Context, opts QBittorrentOptions) (*QBittorrent, error) {
	client := qbt.NewClient(qbt.Config{
		Host:     opts.Host,
		Username: opts.Username,
		Password: opts.Password,
		Timeout:  30,
	})
	if err := client.LoginCtx(ctx); err != nil {
		return nil, authError(err, "can't authenticate in qBittorrent")
	}
	log.Debug().Str("host", opts.Host).Msg("qBittorrent client created")
	return &QBittorrent{client: client}, nil
}

func (q *QBittorrent) List(ctx context.Context) ([]TorrentInfo, error) {
	torrents, err := q.client.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{})
	if err != nil {
		return nil, connectionError(err, "can't connect to qBittorrent")
	}
	infos := make([]TorrentInfo, 0, len(torrents))
	for _, t := range torrents {
		infos = append(infos, TorrentInfo{
			ID:           t.Hash,
			Status:       qbittorrentStatus(t.State),
			Name:         t.Name,
			Size:         t.TotalSize,
			Progress:     int(t.Progress * 100),
			Downloaded:   t.Downloaded,
			Uploaded:     t.Uploaded,
			UploadRate:   t.UpSpeed,
			DownloadRate: t.DlSpeed,
			Ratio:        t.Ratio,
			ETA:          t.ETA,
			Peers:        int(t.NumLeechs + t.NumSeeds),
			Seeds:        int(t.NumSeeds),
			Leeches:      int(t.NumLeechs),
			Added:        t.AddedOn,
			Finished:     t.CompletionOn,
			DownloadDir:  t.SavePath,
		})
	}
	return infos, nil
}

func (q *QBittorrent) Add(ctx context.Context, torrent *Torrent, downloadDir string) error {
	options := map[string]string{}
	if downloadDir != "" {
		options["savepath"] = downloadDir
	}
	if torrent.HasData() || torrent.HasPath() {
		data, err := torrent.Metainfo()
		if err != nil {
			return protocolError(err, "can't read torrent metainfo")
		}
		log.Info().Msg("adding torrent from data")
		if err := q.client.AddTorrentFromMemoryCtx(ctx, data, options); err != nil {
			return connectionError(err, "can't add torrent to qBittorrent")
		}
		return nil
	}
	if torrent.HasURL() {
		log.Info().Str("url", torrent.URL).Msg("adding torrent from url")
		if err := q.client.AddTorrentFromUrlCtx(ctx, torrent.URL, options); err != nil {
			return connectionError(err, "can't add torrent to qBittorrent")
		}
		return nil
	}
	return protocolError(nil, "torrent source is empty")
}

func (q *QBittorrent) Remove(ctx context.Context, ids []string, deleteLocalData bool) error {
	log.Info().Strs("ids", ids).Msg("removing torrents from queue")
	if err := q.client.DeleteTorrentsCtx(ctx, ids, deleteLocalData); err != nil {
		return connectionError(err, "can't remove torrents from qBittorrent")
	}
	return nil
}

func qbittorrentStatus(state qbt.TorrentState) Status {
	switch state {
	case qbt.TorrentStateDownloading, qbt.TorrentStateStalledDl, qbt.TorrentStateMetaDl,
		qbt.TorrentStateForcedDl:
		return StatusDownloading
	case qbt.TorrentStateQueuedDl:
		return StatusDownloadPending
	case qbt.TorrentStateUploading, qbt.TorrentStateStalledUp, qbt.TorrentStateForcedUp:
		return StatusSeeding
	case qbt.TorrentStateQueuedUp:
		return StatusSeedPending
	case qbt.TorrentStateCheckingDl, qbt.TorrentStateCheckingUp, qbt.TorrentStateAllocating:
		return StatusChecking
	case qbt.TorrentStateCheckingResumeData:
		return StatusCheckPending
	}
	return StatusStopped
}
