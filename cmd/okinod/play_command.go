// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/anteo/okinod/internal/stream"
)

func RunPlayCommand(configPath *string) *cobra.Command {
	var (
		fileIndex int
		listOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "play <torrent-uri>",
		Short: "Stream a torrent over local HTTP",
		Long: `Stream a torrent over local HTTP.

Accepts a magnet link, a torrent URL or a local torrent file. The stream
stays up until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}

			engine, err := a.streamEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if listOnly {
				s := a.newStream(engine, stream.NopProgress{}, stream.NopProgress{})
				files, err := s.List(ctx, args[0])
				if err != nil {
					return err
				}
				for _, f := range files {
					cmd.Printf("%4d  %-60s  %s\n", f.Index, f.Path, formatSize(f.Size))
				}
				return nil
			}

			progress := &consoleProgress{out: cmd}
			s := a.newStream(engine, progress, progress)
			return s.Play(ctx, &consolePlayer{out: cmd}, args[0], stream.PlayItem{}, fileIndex)
		},
	}

	cmd.Flags().IntVar(&fileIndex, "file", -1, "index of the file to stream (default: first video)")
	cmd.Flags().BoolVar(&listOnly, "list", false, "list the torrent's playable files and exit")

	return cmd
}

// consolePlayer prints the stream URL instead of launching a player. It
// reports playing forever; the surrounding loop ends on interrupt.
type consolePlayer struct {
	out *cobra.Command
}

func (p *consolePlayer) Play(item stream.PlayItem, subtitleURL string) error {
	if item.Path == "" {
		return errors.New("no stream URL to play")
	}
	p.out.Printf("Streaming %s\n", item.Label)
	p.out.Printf("  %s\n", item.Path)
	if subtitleURL != "" {
		p.out.Printf("  subtitles: %s\n", subtitleURL)
	}
	return nil
}

func (p *consolePlayer) IsPlaying() bool { return true }

func (p *consolePlayer) Percent() float64 { return 0 }

func (p *consolePlayer) Attach(stream.PlayerEvent, func()) func() { return func() {} }

// consoleProgress prints transfer state, throttled so the poll loop does
// not flood the terminal.
type consoleProgress struct {
	out        *cobra.Command
	lastPrint  time.Time
	lastStatus stream.Status
}

func (p *consoleProgress) Open()  {}
func (p *consoleProgress) Close() {}

func (p *consoleProgress) IsCancelled() bool { return false }

func (p *consoleProgress) Update(state stream.TransferState) {
	if state.Status == p.lastStatus && time.Since(p.lastPrint) < 2*time.Second {
		return
	}
	p.lastStatus = state.Status
	p.lastPrint = time.Now()

	line := state.Status.String()
	if state.Name != "" {
		line += "  " + state.Name
	}
	if state.Size > 0 {
		line += "  " + formatSize(state.Downloaded) + "/" + formatSize(state.Size)
	}
	if state.DownloadRate > 0 {
		line += "  down " + formatSize(state.DownloadRate) + "/s"
	}
	if state.Seeds > 0 || state.Peers > 0 {
		line += "  seeds " + strconv.Itoa(state.Seeds) + " peers " + strconv.Itoa(state.Peers)
	}
	p.out.Println(line)
}
