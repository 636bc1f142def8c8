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

func RunSearchCommand(configPath *string) *cobra.Command {
	var (
		sections  []string
		genres    []string
		countries []string
		languages []string
		format    string
		mpaa      string
		yearMin   int
		yearMax   int
		ratingMin float64
		ratingMax float64
		orderBy   string
		desc      bool
		extended  bool
		skip      int
		pageSize  int
	)

	cmd := &cobra.Command{
		Use:   "search [name]",
		Short: "Search the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}

			filter := &scraper.SearchFilter{
				Name:           strings.Join(args, " "),
				ExtendedSearch: extended,
				YearMin:        yearMin,
				YearMax:        yearMax,
				RatingMin:      ratingMin,
				RatingMax:      ratingMax,
				PageSize:       pageSize,
			}
			if filter.PageSize == 0 {
				filter.PageSize = a.cfg.PageSize
			}
			if err := fillFilter(filter, sections, genres, countries, languages, format, mpaa, orderBy, desc); err != nil {
				return err
			}

			result, err := a.scraper.SearchCached(cmd.Context(), filter, skip)
			if err != nil {
				return err
			}
			if result.Details != nil {
				printDetails(cmd, result.Details)
				return nil
			}
			for _, m := range result.Media {
				years := yearRange(m.StartYear, m.EndYear, m.Continuing)
				cmd.Printf("%8d  %-9s  %-50s  %s\n", m.ID, years, m.Title, m.Rating)
			}
			if result.HasMore {
				cmd.Printf("More results available (use --skip %d).\n", skip+len(result.Media))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sections, "section", nil, "Catalog section (movies, series, cartoons, animated-series)")
	cmd.Flags().StringSliceVar(&genres, "genre", nil, "Genre label")
	cmd.Flags().StringSliceVar(&countries, "country", nil, "Country label")
	cmd.Flags().StringSliceVar(&languages, "lang", nil, "Audio language label")
	cmd.Flags().StringVar(&format, "format", "", "Video format (SD, HD, 'HD 720p', 'HD 1080p')")
	cmd.Flags().StringVar(&mpaa, "mpaa", "", "Age rating label")
	cmd.Flags().IntVar(&yearMin, "year-min", 0, "Earliest release year")
	cmd.Flags().IntVar(&yearMax, "year-max", 0, "Latest release year")
	cmd.Flags().Float64Var(&ratingMin, "rating-min", 0, "Minimum rating")
	cmd.Flags().Float64Var(&ratingMax, "rating-max", 0, "Maximum rating")
	cmd.Flags().StringVar(&orderBy, "order", "", "Sort key (name, year, rating, date, size)")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort descending")
	cmd.Flags().BoolVar(&extended, "extended", false, "Use the extended search service")
	cmd.Flags().IntVar(&skip, "skip", 0, "Results to skip (paging)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Results per page")

	return cmd
}

func fillFilter(filter *scraper.SearchFilter, sections, genres, countries, languages []string, format, mpaa, orderBy string, desc bool) error {
	for _, name := range sections {
		section, ok := scraper.FindSection(name)
		if !ok {
			return errors.Errorf("unknown section %q", name)
		}
		filter.Sections = append(filter.Sections, section)
	}
	for _, label := range genres {
		genre, ok := scraper.FindGenre(label)
		if !ok {
			return errors.Errorf("unknown genre %q", label)
		}
		filter.Genres = append(filter.Genres, genre)
	}
	for _, label := range countries {
		country, ok := scraper.FindCountry(label)
		if !ok {
			return errors.Errorf("unknown country %q", label)
		}
		filter.Countries = append(filter.Countries, country)
	}
	for _, label := range languages {
		language, ok := scraper.FindLanguage(label)
		if !ok {
			return errors.Errorf("unknown language %q", label)
		}
		filter.Languages = append(filter.Languages, language)
	}
	if format != "" {
		f, ok := scraper.FindFormat(format)
		if !ok {
			return errors.Errorf("unknown format %q", format)
		}
		filter.Format = f
	}
	if mpaa != "" {
		m, ok := scraper.FindMPAA(mpaa)
		if !ok {
			return errors.Errorf("unknown age rating %q", mpaa)
		}
		filter.MPAARating = m
	}
	if orderBy != "" {
		order, ok := scraper.FindOrder(orderBy)
		if !ok {
			return errors.Errorf("unknown sort key %q", orderBy)
		}
		filter.OrderBy = order
		if desc {
			filter.OrderDir = scraper.OrderDesc
		} else {
			filter.OrderDir = scraper.OrderAsc
		}
	}
	return nil
}

func yearRange(start, end int, continuing bool) string {
	switch {
	case continuing:
		return strconv.Itoa(start) + "-"
	case end != 0 && end != start:
		return strconv.Itoa(start) + "-" + strconv.Itoa(end)
	}
	return strconv.Itoa(start)
}
