// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/anteo/okinod/internal/torrentclient"
)

func isTorrentURL(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "magnet:")
}

func RunClientCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Interact with the configured torrent client",
	}

	cmd.AddCommand(runClientListCommand(configPath))
	cmd.AddCommand(runClientAddCommand(configPath))
	cmd.AddCommand(runClientRemoveCommand(configPath))

	return cmd
}

func runClientListCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the client's torrents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			client, err := a.torrentClient(cmd.Context())
			if err != nil {
				return err
			}
			torrents, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range torrents {
				cmd.Printf("%-40s  %-16s  %3d%%  %-50s  %s\n",
					t.ID, t.Status, t.Progress, t.Name, formatSize(t.Size))
			}
			return nil
		},
	}
}

func runClientAddCommand(configPath *string) *cobra.Command {
	var downloadDir string

	cmd := &cobra.Command{
		Use:   "add <torrent-url-or-file>",
		Short: "Add a torrent to the client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			client, err := a.torrentClient(cmd.Context())
			if err != nil {
				return err
			}

			torrent := &torrentclient.Torrent{}
			if isTorrentURL(args[0]) {
				torrent.URL = args[0]
			} else {
				torrent.Path = args[0]
			}
			if downloadDir == "" {
				downloadDir = a.cfg.DownloadDir
			}
			if downloadDir == "" {
				return errors.New("no download directory configured")
			}
			return client.Add(cmd.Context(), torrent, downloadDir)
		},
	}

	cmd.Flags().StringVar(&downloadDir, "download-dir", "", "directory the client downloads into")

	return cmd
}

func runClientRemoveCommand(configPath *string) *cobra.Command {
	var deleteData bool

	cmd := &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove torrents from the client",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			client, err := a.torrentClient(cmd.Context())
			if err != nil {
				return err
			}
			return client.Remove(cmd.Context(), args, deleteData)
		},
	}

	cmd.Flags().BoolVar(&deleteData, "delete-data", false, "also delete downloaded data")

	return cmd
}
