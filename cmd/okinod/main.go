// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "okinod",
		Short:         "Catalog scraper and torrent streaming daemon",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration directory or file")

	cmd.AddCommand(RunSearchCommand(&configPath))
	cmd.AddCommand(RunDetailsCommand(&configPath))
	cmd.AddCommand(RunFoldersCommand(&configPath))
	cmd.AddCommand(RunFilesCommand(&configPath))
	cmd.AddCommand(RunPlayCommand(&configPath))
	cmd.AddCommand(RunClientCommand(&configPath))
	cmd.AddCommand(RunVersionCommand())

	return cmd
}
