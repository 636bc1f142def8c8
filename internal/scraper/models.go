// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scraper

import "time"

// Quality describes one quality variant of a listing entry or folder.
type Quality struct {
	Format Format
	Video  string
	Audio  string
}

// Media is a summary record from search results. Immutable once parsed.
type Media struct {
	ID            int
	Title         string
	OriginalTitle string
	Added         time.Time
	Flag          Flag
	Quality       []Quality
	Genres        []Genre
	Languages     []Language
	Countries     []Country
	StartYear     int
	EndYear       int
	Continuing    bool
	Rating        string
	UserRating    string
}

// Details is the full record for one catalog entry. Immutable; MediaID
// equals the key the record is cached under.
type Details struct {
	MediaID        int
	Title          string
	OriginalTitle  string
	Countries      []Country
	StartYear      int
	EndYear        int
	Continuing     bool
	WorldRelease   string
	RussianRelease string
	Duration       int // minutes
	Studios        []string
	MPAARating     MPAA
	Keywords       []string
	Genres         []Genre
	Plot           string
	Directors      []string
	Writers        []string
	Producers      []string
	Actors         []string
	Ratings        map[string]float64
	Votes          map[string]int
	Poster         string
	Section        Section
}

// Folder is a downloadable bundle under one entry. Files is populated
// asynchronously during bulk hydration; a single-folder listing leaves it
// empty until files are requested explicitly.
type Folder struct {
	ID                int
	MediaID           int
	Title             string
	Flag              Flag
	Link              string
	Quality           Quality
	Languages         []Language
	Format            Format
	EmbeddedSubtitles []Language
	ExternalSubtitles []Language
	Duration          int   // seconds
	Size              int64 // bytes
	Files             []File
}

// File is one playable unit inside a folder.
type File struct {
	ID           int
	MediaID      int
	FolderID     int
	Title        string
	Flag         Flag
	Link         string
	Format       string
	Subtitles    []Language
	Duration     int   // seconds
	Size         int64 // bytes
	VideoStreams []VideoStreamInfo
	AudioStreams []AudioStreamInfo
}

// VideoStreamInfo describes one video stream of a file.
type VideoStreamInfo struct {
	Width  int
	Height int
	Codec  string
	KBPS   float64
}

// AudioStreamInfo describes one audio stream of a file.
type AudioStreamInfo struct {
	Language Language
	Codec    string
	KBPS     float64
	Channels int
}

// SearchResult is what a search returns: either a page of summary records
// or, when the site redirected straight to a record, its full details.
type SearchResult struct {
	Media   []Media
	Details *Details
	HasMore bool
}
