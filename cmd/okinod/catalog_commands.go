// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/anteo/okinod/internal/scraper"
)

func mediaIDArg(args []string) (int, error) {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, errors.Errorf("invalid media id %q", args[0])
	}
	return id, nil
}

func RunDetailsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "details <media-id>",
		Short: "Show the full record of a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			mediaID, err := mediaIDArg(args)
			if err != nil {
				return err
			}
			details, err := a.scraper.GetDetailsCached(cmd.Context(), mediaID)
			if err != nil {
				return err
			}
			printDetails(cmd, details)
			return nil
		},
	}
}

func RunFoldersCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "folders <media-id>",
		Short: "List the downloadable folders of a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			mediaID, err := mediaIDArg(args)
			if err != nil {
				return err
			}
			folders, err := a.scraper.GetFoldersCached(cmd.Context(), mediaID)
			if err != nil {
				return err
			}
			for _, f := range folders {
				cmd.Printf("%8d  %-8s  %-50s  %s\n", f.ID, f.Format.Title(), f.Title, formatSize(f.Size))
			}
			return nil
		},
	}
}

func RunFilesCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "files <media-id> <folder-id>",
		Short: "List the files inside a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			mediaID, err := mediaIDArg(args)
			if err != nil {
				return err
			}
			folderID, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.Errorf("invalid folder id %q", args[1])
			}
			files, err := a.scraper.GetFilesCached(cmd.Context(), mediaID, folderID)
			if err != nil {
				return err
			}
			for _, f := range files {
				cmd.Printf("%8d  %-8s  %-50s  %s\n", f.ID, f.Format, f.Title, formatSize(f.Size))
			}
			return nil
		},
	}
}

func printDetails(cmd *cobra.Command, d *scraper.Details) {
	cmd.Printf("Title:     %s\n", d.Title)
	if d.OriginalTitle != "" {
		cmd.Printf("Original:  %s\n", d.OriginalTitle)
	}
	cmd.Printf("Year:      %s\n", yearRange(d.StartYear, d.EndYear, d.Continuing))
	if len(d.Genres) > 0 {
		cmd.Printf("Genres:    %s\n", joinTitles(genreTitles(d.Genres)))
	}
	if len(d.Countries) > 0 {
		cmd.Printf("Countries: %s\n", joinTitles(countryTitles(d.Countries)))
	}
	if d.Duration > 0 {
		cmd.Printf("Duration:  %d min\n", d.Duration)
	}
	for name, rating := range d.Ratings {
		cmd.Printf("Rating:    %s %.1f\n", name, rating)
	}
	if len(d.Directors) > 0 {
		cmd.Printf("Directors: %s\n", strings.Join(d.Directors, ", "))
	}
	if len(d.Actors) > 0 {
		cmd.Printf("Actors:    %s\n", strings.Join(d.Actors, ", "))
	}
	if d.Plot != "" {
		cmd.Printf("\n%s\n", d.Plot)
	}
}

func genreTitles(genres []scraper.Genre) []string {
	titles := make([]string, 0, len(genres))
	for _, g := range genres {
		titles = append(titles, g.Title())
	}
	return titles
}

func countryTitles(countries []scraper.Country) []string {
	titles := make([]string, 0, len(countries))
	for _, c := range countries {
		titles = append(titles, c.Title())
	}
	return titles
}

func joinTitles(titles []string) string { return strings.Join(titles, ", ") }

func formatSize(size int64) string {
	switch {
	case size >= 1<<40:
		return strconv.FormatFloat(float64(size)/(1<<40), 'f', 2, 64) + " TB"
	case size >= 1<<30:
		return strconv.FormatFloat(float64(size)/(1<<30), 'f', 2, 64) + " GB"
	case size >= 1<<20:
		return strconv.FormatFloat(float64(size)/(1<<20), 'f', 2, 64) + " MB"
	}
	return strconv.FormatInt(size, 10) + " B"
}
