// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/anteo/okinod/internal/scraper/htmldoc"
)

const addedDateLayout = "02.01.2006"

var (
	ratingRe     = regexp.MustCompile(`^(\d+(?:\.\d+)?)(?:\s+\((\d+)\))?$`)
	fileLinkRe   = regexp.MustCompile(`file=(\d+)`)
	commaSplitRe = regexp.MustCompile(`,\s*`)
)

func cls(pattern string) map[string]string {
	return map[string]string{"class": pattern}
}

func parseDocument(body []byte) (*htmldoc.Document, error) {
	doc, err := htmldoc.Parse(body)
	if err != nil {
		return nil, malformedError("malformed answer: %v", err)
	}
	return doc, nil
}

// parseYears handles both "2005" and open ranges like "2005-".
func parseYears(text string) (start, end int, continuing bool) {
	parts := strings.SplitN(strings.TrimSpace(text), "-", 2)
	start, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	if len(parts) > 1 {
		tail := strings.TrimSpace(parts[1])
		if tail == "" {
			return start, 0, true
		}
		end, _ = strconv.Atoi(tail)
		return start, end, false
	}
	return start, start, false
}

func (s *Scraper) parseSearch(body []byte) (SearchResult, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return SearchResult{}, err
	}
	if !doc.Find("div", cls("grid_no_message")).Empty() {
		log.Info().Msg("no results found")
		return SearchResult{}, nil
	}
	grid := doc.Find("table", cls("grid"))
	if grid.Empty() {
		return SearchResult{}, malformedError("malformed answer (no result grid)")
	}

	result := SearchResult{}
	pageLinks := doc.Find("div", cls("simple_pager")).Find("span|a", nil)
	if last := pageLinks.Last(); last != nil {
		result.HasMore = !last.HasClass("disable")
	}

	warnings := 0
	for _, row := range grid.Find("tr", nil) {
		titleTD := row.Find("td", cls("title")).First()
		if titleTD == nil {
			continue
		}

		link := titleTD.Find("a", nil).Attr("href")
		idx := strings.LastIndex(link, "/")
		mediaID, err := strconv.Atoi(link[idx+1:])
		if err != nil {
			log.Warn().Str("href", link).Msg("listing row without a media id")
			warnings++
			continue
		}

		media := Media{
			ID:            mediaID,
			Title:         titleTD.Find("nobr", nil).Text(),
			OriginalTitle: titleTD.Find("span", nil).Text(),
		}
		media.StartYear, media.EndYear, media.Continuing = parseYears(row.Find("td", cls("year")).Text())

		ratings := row.Find("td", cls("rating"))
		if r := ratings.At(0); r != nil {
			media.Rating = r.Text()
		}
		if r := ratings.At(1); r != nil {
			media.UserRating = r.Text()
		}

		if added, err := time.Parse(addedDateLayout, row.Find("td", cls("date")).Text()); err == nil {
			media.Added = added
		}

		iconClass := row.Find("td", cls("icon")).Find("span", nil).Attr("class")
		media.Flag, _ = FindFlag(iconClass)

		for _, span := range row.Find("td", cls("quality")).Find("span", nil) {
			parts := strings.SplitN(span.Text(), "/", 2)
			if len(parts) != 2 {
				continue
			}
			format, _ := FindFormat(span.Attr("title"))
			media.Quality = append(media.Quality, Quality{Format: format, Video: parts[0], Audio: parts[1]})
		}

		for _, a := range row.Find("td", cls("genre")).Find("a", nil) {
			genre, known := FindGenre(a.Text())
			if !known {
				s.logUnknown("genre", a.Text(), a.Attr("href"))
				warnings++
			}
			media.Genres = append(media.Genres, genre)
		}
		for _, a := range row.Find("td", cls("lang")).Find("a", nil) {
			language, known := FindLanguage(a.Attr("title"))
			if !known {
				s.logUnknown("language", a.Attr("title"), a.Attr("href"))
				warnings++
			}
			media.Languages = append(media.Languages, language)
		}
		for _, a := range row.Find("td", cls("country")).Find("a", nil) {
			country, known := FindCountry(a.Text())
			if !known {
				s.logUnknown("country", a.Text(), a.Attr("href"))
				warnings++
			}
			media.Countries = append(media.Countries, country)
		}

		result.Media = append(result.Media, media)
	}

	log.Info().Int("results", len(result.Media)).Int("warnings", warnings).Msg("parsed search results")
	return result, nil
}

// logUnknown reports a label missing from the known sets, with the filter
// state of its link when it carries one.
func (s *Scraper) logUnknown(kind, label, href string) {
	ev := log.Warn().Str("label", label)
	if state, err := ExtractState(href); err == nil && state != nil {
		ev = ev.Interface("state", state)
	}
	ev.Msg("unknown " + kind)
	s.countWarning(kind)
}

func (s *Scraper) parseDetails(body []byte, mediaID int) (*Details, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	titleH1 := doc.Find("h1", cls("movie_title")).First()
	if titleH1 == nil {
		return nil, notFoundError("no media found with ID %d", mediaID)
	}

	details := &Details{MediaID: mediaID}
	warnings := 0

	nav := doc.Find("td", cls("nav"))
	sectionName := nav.Find("li", cls("selected( first)?")).Find("a", nil).Attr("class")
	if sectionName == "movies" {
		sectionName = "movie"
	}
	details.Section, _ = FindSection(sectionName)

	details.Title = titleH1.BeforeText()
	if span := titleH1.Find("span", nil).First(); span != nil {
		details.OriginalTitle = span.Text()
	}

	for _, block := range doc.Find("div", cls("description_block.*?")) {
		label := strings.TrimSuffix(block.Find("div", cls("label")).Text(), ":")
		description := block.Find("div", cls("description"))
		para := description.Find("p", nil)

		switch label {
		case "Страны производители":
			for _, a := range para.Find("a", nil) {
				country, known := FindCountry(a.Text())
				if !known {
					s.logUnknown("country", a.Text(), a.Attr("href"))
					warnings++
				}
				details.Countries = append(details.Countries, country)
			}
		case "Год":
			details.StartYear, details.EndYear, details.Continuing = parseYears(para.Text())
		case "Дата выхода":
			if p := para.At(0); p != nil {
				details.WorldRelease = firstField(p.Text())
			}
			if p := para.At(1); p != nil {
				details.RussianRelease = firstField(p.Text())
			}
		case "Продолжительность":
			details.Duration, _ = strconv.Atoi(firstField(para.Text()))
		case "Студии":
			details.Studios = para.Find("a", nil).Strings()
		case "Возрастной рейтинг":
			title := para.Find("span", cls("age_rating")).Text()
			var known bool
			details.MPAARating, known = FindMPAA(title)
			if !known {
				s.logUnknown("mpaa", title, "")
				warnings++
			}
		case "Ключевые слова":
			details.Keywords = para.Find("a", nil).Strings()
		case "Жанр":
			for _, a := range description.Find("a", nil) {
				genre, known := FindGenre(a.Text())
				if !known {
					s.logUnknown("genre", a.Text(), a.Attr("href"))
					warnings++
				}
				details.Genres = append(details.Genres, genre)
			}
		case "Описание":
			details.Plot = strings.Join(para.Strings(), "\n\n")
		case "Режиссеры":
			details.Directors = para.Find("a", nil).Strings()
		case "Сценаристы":
			details.Writers = para.Find("a", nil).Strings()
		case "Продюссеры":
			details.Producers = para.Find("a", nil).Strings()
		case "Актеры":
			actors := description.Find("a", nil).Strings()
			if len(actors) > 0 && actors[len(actors)-1] == "Все участники" {
				actors = actors[:len(actors)-1]
			}
			details.Actors = actors
		default:
			log.Warn().Str("label", label).Msg("unknown description block")
			s.countWarning("block")
			warnings++
		}
	}

	details.Ratings = make(map[string]float64)
	details.Votes = make(map[string]int)
	for _, span := range doc.Find("p", cls("rating")).Find("span", nil) {
		words := strings.Fields(span.BeforeText())
		if len(words) == 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSuffix(words[len(words)-1], ":"))
		if name == "кинопоиска" {
			name = "kinopoisk"
		}
		m := ratingRe.FindStringSubmatch(span.Find("a", nil).Text())
		if m == nil {
			continue
		}
		rating, _ := strconv.ParseFloat(m[1], 64)
		details.Ratings[name] = rating
		if m[2] != "" {
			details.Votes[name], _ = strconv.Atoi(m[2])
		}
	}

	details.Poster = doc.Find("span", cls("poster")).Find("a", nil).Attr("href")

	log.Info().Int("mediaId", mediaID).Int("warnings", warnings).Msg("parsed record")
	return details, nil
}

func (s *Scraper) parseFolders(body []byte, mediaID int) ([]*Folder, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	blocks := doc.Find("div", cls("block_files.*?"))
	if blocks.Empty() {
		if doc.Contains("Полномасштабный поиск") {
			return nil, featureDisabledError("extended search")
		}
		log.Warn().Int("mediaId", mediaID).Msg("no folders found")
		return nil, nil
	}

	var folders []*Folder
	warnings := 0
	for _, block := range blocks {
		blockID := block.Attr("id")
		if len(blockID) <= 3 {
			log.Warn().Str("id", blockID).Msg("folder block without an id")
			warnings++
			continue
		}
		folderID, err := strconv.Atoi(blockID[3:])
		if err != nil {
			log.Warn().Str("id", blockID).Msg("folder block with a malformed id")
			warnings++
			continue
		}

		folder := &Folder{ID: folderID, MediaID: mediaID}
		header := block.Find("div", cls("block_header.*?"))
		iconClass := header.Find("span", cls("files_.*?")).Attr("class")
		folder.Flag, _ = FindFlag(iconClass)
		folder.Title = header.Find("span", map[string]string{"title": ".*?"}).Text()

		leftDiv := block.Find("div", cls("l"))
		rightDiv := block.Find("div", cls("r"))

		formatName := leftDiv.Find("img", map[string]string{"src": ".*?format.*?"}).Attr("title")
		var known bool
		folder.Format, known = FindFormat(formatName)
		if !known {
			log.Warn().Str("format", formatName).Msg("unknown folder format")
			s.countWarning("format")
			warnings++
		}

		if link := leftDiv.Find("a", cls("torrent")).Attr("href"); link != "" {
			folder.Link = s.baseURL + link
		} else {
			log.Warn().Int("folderId", folderID).Msg("torrent link is undefined")
			s.countWarning("folder")
			warnings++
		}

		var videoQuality VideoQuality
		var audioQuality AudioQuality
		for _, p := range rightDiv.Find("p", nil) {
			name := strings.TrimSuffix(p.Find("span", nil).Text(), ":")
			switch name {
			case "Языки звуковых дорожек":
				folder.Languages = s.parseLanguageList(p.Find("a", nil).Attrs("title"), "audio language", &warnings)
			case "Качество звука":
				val := strings.TrimSpace(p.AfterText())
				audioQuality, known = FindAudioQuality(val)
				if !known {
					s.logUnknown("audio quality", val, "")
					warnings++
				}
			case "Качество изображения":
				val := strings.TrimSpace(p.AfterText())
				videoQuality, known = FindVideoQuality(val)
				if !known {
					s.logUnknown("video quality", val, "")
					warnings++
				}
			case "Встроенные субтитры":
				folder.EmbeddedSubtitles = s.parseLanguageList(p.Find("a", nil).Attrs("title"), "embedded subtitles language", &warnings)
			case "Внешние субтитры":
				folder.ExternalSubtitles = s.parseLanguageList(p.Find("a", nil).Attrs("title"), "external subtitles language", &warnings)
			case "Размер файлов":
				val := p.AfterText()
				size, ok := parseSize(val)
				if !ok {
					log.Warn().Str("value", val).Msg("can't parse size")
					s.countWarning("folder")
					warnings++
				}
				folder.Size = size
			case "Длительность":
				val := p.AfterText()
				duration, ok := parseDuration(val)
				if !ok {
					log.Warn().Str("value", val).Msg("can't parse duration")
					s.countWarning("folder")
					warnings++
				}
				folder.Duration = duration
			default:
				log.Warn().Str("property", name).Msg("unknown folder property")
				s.countWarning("folder")
				warnings++
			}
		}
		folder.Quality = Quality{Format: folder.Format, Video: videoQuality.Title(), Audio: audioQuality.Title()}

		if tbl := doc.Find("table", map[string]string{"id": "files_tbl"}).First(); tbl != nil {
			folder.Files = s.parseFiles(tbl, mediaID, folderID)
		}
		folders = append(folders, folder)
	}

	log.Info().Int("mediaId", mediaID).Int("folders", len(folders)).Int("warnings", warnings).Msg("parsed folders")
	return folders, nil
}

func (s *Scraper) parseLanguageList(titles []string, kind string, warnings *int) []Language {
	var languages []Language
	for _, title := range titles {
		language, known := FindLanguage(title)
		if !known {
			s.logUnknown(kind, title, "")
			*warnings++
		}
		languages = append(languages, language)
	}
	return languages
}

func (s *Scraper) parseFiles(tbl *htmldoc.Node, mediaID, folderID int) []File {
	rows := tbl.Find("tr", nil)
	if len(rows) < 2 {
		log.Warn().Int("folderId", folderID).Msg("no files found")
		return nil
	}

	var files []File
	warnings := 0
	for _, row := range rows[1:] {
		link := row.Find("td", cls("file_torrent_link")).Find("a", nil).Attr("href")
		if link == "" {
			log.Warn().Msg("no torrent link found, skipping file")
			warnings++
			continue
		}
		m := fileLinkRe.FindStringSubmatch(link)
		if m == nil {
			log.Warn().Str("href", link).Msg("invalid torrent link")
			warnings++
			continue
		}
		fileID, _ := strconv.Atoi(m[1])

		file := File{
			ID:       fileID,
			MediaID:  mediaID,
			FolderID: folderID,
			Link:     s.baseURL + link,
			Title:    row.Find("td", cls("file_title")).Find("a", nil).Text(),
			Format:   row.Find("td", cls("format")).Text(),
		}
		iconClass := row.Find("td", cls("icon")).Find("span", nil).Attr("class")
		file.Flag, _ = FindFlag(iconClass)

		sizes := row.Find("td", cls("size"))
		if td := sizes.At(0); td != nil {
			file.Duration, _ = parseDuration(td.Text())
		}
		if td := sizes.At(1); td != nil {
			file.Size, _ = parseSize(td.Text())
		}

		file.Subtitles = s.parseLanguageList(row.Find("td", cls("sub")).Find("img", nil).Attrs("title"), "subtitles language", &warnings)

		props := row.Find("td", cls("videoprop")).Find("ul", nil)
		if len(props) != 2 {
			log.Warn().Int("fileId", fileID).Msg("can't parse stream properties")
			s.countWarning("file")
			warnings++
		} else {
			file.VideoStreams = parseVideoStreams(props.At(0), &warnings)
			file.AudioStreams = parseAudioStreams(props.At(1), &warnings)
		}
		files = append(files, file)
	}

	log.Info().Int("folderId", folderID).Int("files", len(files)).Int("warnings", warnings).Msg("parsed files")
	return files
}

func parseVideoStreams(ul *htmldoc.Node, warnings *int) []VideoStreamInfo {
	var streams []VideoStreamInfo
	for _, li := range ul.Find("li", nil) {
		text := li.Text()
		parts := commaSplitRe.Split(text, -1)
		// "1280x720, h264, 2000 kbps" with an optional bit depth part.
		if len(parts) != 3 && len(parts) != 4 {
			log.Warn().Str("value", text).Msg("can't parse video stream properties")
			*warnings++
			continue
		}
		resolution := strings.SplitN(parts[0], "x", 2)
		if len(resolution) != 2 {
			log.Warn().Str("value", text).Msg("can't parse video resolution")
			*warnings++
			continue
		}
		info := VideoStreamInfo{Codec: parts[1]}
		info.Width, _ = strconv.Atoi(resolution[0])
		info.Height, _ = strconv.Atoi(resolution[1])
		info.KBPS, _ = strconv.ParseFloat(firstField(parts[len(parts)-1]), 64)
		streams = append(streams, info)
	}
	return streams
}

func parseAudioStreams(ul *htmldoc.Node, warnings *int) []AudioStreamInfo {
	var streams []AudioStreamInfo
	for _, li := range ul.Find("li", nil) {
		info := AudioStreamInfo{}
		if title := li.Find("img", nil).Attr("title"); title != "" {
			info.Language, _ = FindLanguage(strings.ToUpper(title))
		}
		text := li.Text()
		parts := commaSplitRe.Split(text, -1)
		if len(parts) != 3 {
			log.Warn().Str("value", text).Msg("can't parse audio stream properties")
			*warnings++
			continue
		}
		info.Codec = parts[0]
		info.Channels, _ = strconv.Atoi(parts[1])
		info.KBPS, _ = strconv.ParseFloat(firstField(parts[2]), 64)
		streams = append(streams, info)
	}
	return streams
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

var sizeUnits = []struct {
	suffixes []string
	mult     int64
}{
	{[]string{"mb", "мб"}, 1 << 20},
	{[]string{"gb", "гб"}, 1 << 30},
	{[]string{"tb", "тб"}, 1 << 40},
}

// parseSize understands raw byte counts and "1.4 GB" style values with
// latin or cyrillic unit suffixes.
func parseSize(val string) (int64, bool) {
	val = strings.ToLower(strings.Trim(val, " \t "))
	if n, err := strconv.ParseInt(val, 10, 64); err == nil {
		return n, true
	}
	for _, unit := range sizeUnits {
		for _, suffix := range unit.suffixes {
			if !strings.HasSuffix(val, suffix) {
				continue
			}
			num := strings.TrimSpace(strings.TrimSuffix(val, suffix))
			f, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", "."), 64)
			if err != nil {
				return 0, false
			}
			return int64(f * float64(unit.mult)), true
		}
	}
	return 0, false
}

// parseDuration understands plain seconds and colon-separated values up to
// days:hours:minutes:seconds.
func parseDuration(val string) (int, bool) {
	val = strings.Trim(val, " \t ")
	parts := strings.Split(val, ":")
	if len(parts) > 4 {
		return 0, false
	}
	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, false
		}
		nums[i] = n
	}
	mults := []int{1, 60, 3600, 86400}
	total := 0
	for i, n := range nums {
		total += n * mults[len(nums)-1-i]
	}
	return total, true
}
