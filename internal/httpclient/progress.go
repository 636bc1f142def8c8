// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package httpclient

import "github.com/rs/zerolog/log"

// Progress observes a streamed download. Implementations may request
// cancellation; the client checks after every chunk.
type Progress interface {
	Start(name string, size int64)
	Update(transferred int64)
	IsCancelled() bool
	Close()
}

// LoggingProgress reports transfer milestones to the log. It never cancels.
type LoggingProgress struct {
	name     string
	size     int64
	lastPcnt int
}

func (p *LoggingProgress) Start(name string, size int64) {
	p.name = name
	p.size = size
	p.lastPcnt = -1
	log.Info().Str("name", name).Int64("size", size).Msg("starting download")
}

func (p *LoggingProgress) Update(transferred int64) {
	if p.size <= 0 {
		return
	}
	pcnt := int(transferred * 100 / p.size)
	if pcnt/10 != p.lastPcnt/10 {
		p.lastPcnt = pcnt
		log.Debug().Str("name", p.name).Int("percent", pcnt).Msg("download progress")
	}
}

func (p *LoggingProgress) IsCancelled() bool { return false }

func (p *LoggingProgress) Close() {}
