// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torrentclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/anteo/okinod/internal/httpclient"
	"github.com/anteo/okinod/pkg/httphelpers"
)

const sessionHeader = "X-Transmission-Session-Id"

// transmissionStatuses maps daemon status codes to normalized statuses.
var transmissionStatuses = map[int]Status{
	0: StatusStopped,
	1: StatusCheckPending,
	2: StatusChecking,
	3: StatusDownloadPending,
	4: StatusDownloading,
	5: StatusSeedPending,
	6: StatusSeeding,
}

var torrentGetFields = []string{
	"id", "status", "name", "totalSize", "sizeWhenDone", "leftUntilDone", "downloadedEver",
	"uploadedEver", "uploadRatio", "rateUpload", "rateDownload", "eta", "peersConnected",
	"peersFrom", "addedDate", "doneDate", "downloadDir", "peersGettingFromUs", "peersSendingToUs",
}

type TransmissionOptions struct {
	Host     string
	Port     int
	Path     string
	Username string
	Password string
	HTTP     *httpclient.Client
}

// Transmission is a Client over the Transmission JSON RPC. The session
// token rotates; a 409 carries the fresh token and the call is repeated
// with it. A 401 triggers one re-authentication round before giving up.
type Transmission struct {
	http     *httpclient.Client
	url      string
	username string
	password string

	mu    sync.Mutex
	token string
}

func NewTransmission(opts TransmissionOptions) (*Transmission, error) {
	if opts.HTTP == nil {
		return nil, errors.New("torrentclient: HTTP client is required")
	}
	host := opts.Host
	if host == "" {
		host = "127.0.0.1"
	}
	u := "http://" + host
	if opts.Port != 0 {
		u += ":" + strconv.Itoa(opts.Port)
	}
	path := httphelpers.NormalizeBasePath(opts.Path)
	if path == "" {
		path = "/transmission"
	}
	return &Transmission{
		http:     opts.HTTP,
		url:      u + httphelpers.JoinBasePath(path, "rpc"),
		username: opts.Username,
		password: opts.Password,
		token:    "0",
	}, nil
}

type rpcRequest struct {
	Method    string         `json:"method"`
	Arguments map[string]any `json:"arguments"`
}

type rpcResponse struct {
	Result    string          `json:"result"`
	Arguments json.RawMessage `json:"arguments"`
}

func (t *Transmission) List(ctx context.Context) ([]TorrentInfo, error) {
	resp, err := t.action(ctx, "torrent-get", map[string]any{"fields": torrentGetFields})
	if err != nil {
		return nil, err
	}

	var args struct {
		Torrents []struct {
			ID                int64   `json:"id"`
			Status            int     `json:"status"`
			Name              string  `json:"name"`
			TotalSize         int64   `json:"totalSize"`
			SizeWhenDone      int64   `json:"sizeWhenDone"`
			LeftUntilDone     int64   `json:"leftUntilDone"`
			DownloadedEver    int64   `json:"downloadedEver"`
			UploadedEver      int64   `json:"uploadedEver"`
			UploadRatio       float64 `json:"uploadRatio"`
			RateUpload        int64   `json:"rateUpload"`
			RateDownload      int64   `json:"rateDownload"`
			ETA               int64   `json:"eta"`
			PeersConnected    int     `json:"peersConnected"`
			PeersGettingFrom  int     `json:"peersGettingFromUs"`
			PeersSendingToUs  int     `json:"peersSendingToUs"`
			AddedDate         int64   `json:"addedDate"`
			DoneDate          int64   `json:"doneDate"`
			DownloadDir       string  `json:"downloadDir"`
		} `json:"torrents"`
	}
	if err := json.Unmarshal(resp.Arguments, &args); err != nil {
		return nil, protocolError(err, "invalid torrent list from Transmission")
	}

	infos := make([]TorrentInfo, 0, len(args.Torrents))
	for _, r := range args.Torrents {
		progress := 0
		if r.SizeWhenDone > 0 {
			progress = int(100 * float64(r.SizeWhenDone-r.LeftUntilDone) / float64(r.SizeWhenDone))
		}
		infos = append(infos, TorrentInfo{
			ID:           strconv.FormatInt(r.ID, 10),
			Status:       transmissionStatuses[r.Status],
			Name:         r.Name,
			Size:         r.TotalSize,
			Progress:     progress,
			Downloaded:   r.DownloadedEver,
			Uploaded:     r.UploadedEver,
			UploadRate:   r.RateUpload,
			DownloadRate: r.RateDownload,
			Ratio:        r.UploadRatio,
			ETA:          r.ETA,
			Peers:        r.PeersConnected,
			Seeds:        r.PeersSendingToUs,
			Leeches:      r.PeersGettingFrom,
			Added:        r.AddedDate,
			Finished:     r.DoneDate,
			DownloadDir:  r.DownloadDir,
		})
	}
	return infos, nil
}

func (t *Transmission) Add(ctx context.Context, torrent *Torrent, downloadDir string) error {
	args := map[string]any{"download-dir": downloadDir, "paused": false}
	if torrent.HasData() || torrent.HasPath() {
		data, err := torrent.Metainfo()
		if err != nil {
			return protocolError(err, "can't read torrent metainfo")
		}
		log.Info().Msg("adding torrent from data")
		args["metainfo"] = base64.StdEncoding.EncodeToString(data)
	} else if torrent.HasURL() {
		log.Info().Str("url", torrent.URL).Msg("adding torrent from url")
		args["filename"] = torrent.URL
	} else {
		return protocolError(nil, "torrent source is empty")
	}
	_, err := t.action(ctx, "torrent-add", args)
	return err
}

func (t *Transmission) Remove(ctx context.Context, ids []string, deleteLocalData bool) error {
	log.Info().Strs("ids", ids).Msg("removing torrents from queue")
	rpcIDs := make([]any, 0, len(ids))
	for _, id := range ids {
		// Transmission accepts numeric ids and hash strings.
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			rpcIDs = append(rpcIDs, n)
		} else {
			rpcIDs = append(rpcIDs, id)
		}
	}
	_, err := t.action(ctx, "torrent-remove", map[string]any{
		"ids":               rpcIDs,
		"delete-local-data": deleteLocalData,
	})
	return err
}

func (t *Transmission) action(ctx context.Context, method string, args map[string]any) (*rpcResponse, error) {
	body, err := json.Marshal(rpcRequest{Method: method, Arguments: args})
	if err != nil {
		return nil, protocolError(err, "can't encode RPC request")
	}

	authenticated := false
	for attempt := 0; attempt < 4; attempt++ {
		req := &httpclient.Request{
			URL:     t.url,
			Method:  http.MethodPost,
			Body:    body,
			Headers: map[string]string{sessionHeader: t.sessionToken()},
		}
		if t.username != "" {
			req.AuthUsername = t.username
			req.AuthPassword = t.password
		}
		resp, err := t.http.Fetch(ctx, req)
		if err != nil {
			var statusErr *httpclient.StatusError
			if errors.As(err, &statusErr) {
				switch statusErr.Code {
				case http.StatusUnauthorized:
					if authenticated {
						return nil, authError(err, "can't authenticate in Transmission")
					}
					if err := t.authenticate(ctx); err != nil {
						return nil, err
					}
					authenticated = true
					continue
				case http.StatusConflict:
					if t.renewToken(statusErr.Header) {
						continue
					}
				}
			}
			return nil, connectionError(err, "can't connect to Transmission")
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(resp.Body, &rpcResp); err != nil {
			return nil, protocolError(err, "invalid response from Transmission")
		}
		if rpcResp.Result != "success" {
			return nil, protocolError(nil, "Transmission RPC failed: %s", rpcResp.Result)
		}
		return &rpcResp, nil
	}
	return nil, connectionError(nil, "can't connect to Transmission (session token keeps expiring)")
}

// authenticate probes the RPC endpoint with credentials so the daemon
// opens a session; a 409 on the probe still carries a usable token.
func (t *Transmission) authenticate(ctx context.Context) error {
	_, err := t.http.Fetch(ctx, &httpclient.Request{
		URL:          t.url,
		AuthUsername: t.username,
		AuthPassword: t.password,
	})
	if err == nil {
		return nil
	}
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code == http.StatusConflict && t.renewToken(statusErr.Header) {
			return nil
		}
		return authError(err, "can't authenticate in Transmission")
	}
	return connectionError(err, "can't connect to Transmission")
}

func (t *Transmission) sessionToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

func (t *Transmission) renewToken(header http.Header) bool {
	token := header.Get(sessionHeader)
	if token == "" {
		return false
	}
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
	return true
}
