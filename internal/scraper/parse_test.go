// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `
<html><body>
<div class="simple_pager"><span class="disable">1</span><a href="/films/results?skip=15">2</a><a href="/films/results?skip=15">→</a></div>
<table class="grid">
<tr><th>Название</th></tr>
<tr class="even">
  <td class="icon"><span class="icon16 files_new"></span></td>
  <td class="title"><a href="/film/details/105396"><nobr>Начало</nobr> <span>Inception</span></a></td>
  <td class="year">2010</td>
  <td class="rating">8.7</td>
  <td class="rating">9.1</td>
  <td class="date">15.07.2010</td>
  <td class="quality"><span title="HD 1080p">(5) HD-рип/профессиональный перевод</span></td>
  <td class="genre"><a href="#">Драма</a> <a href="#">Боевик</a></td>
  <td class="lang"><a title="Русский" href="#">рус</a></td>
  <td class="country"><a href="#">США</a> <a href="#">Великобритания</a></td>
</tr>
<tr class="odd">
  <td class="icon"></td>
  <td class="title"><a href="/film/details/200123"><nobr>Долгий сериал</nobr></a></td>
  <td class="year">2005-</td>
  <td class="rating">7.0</td>
  <td class="rating">6.8</td>
  <td class="date">01.02.2005</td>
  <td class="quality"></td>
  <td class="genre"><a href="#">Драма</a></td>
  <td class="lang"></td>
  <td class="country"></td>
</tr>
</table>
</body></html>`

func TestParseSearch(t *testing.T) {
	t.Parallel()

	s := newTestScraper(t, DefaultBaseURL)

	result, err := s.parseSearch([]byte(searchPage))
	require.NoError(t, err)
	require.Len(t, result.Media, 2)
	assert.True(t, result.HasMore)

	m := result.Media[0]
	assert.Equal(t, 105396, m.ID)
	assert.Equal(t, "Начало", m.Title)
	assert.Equal(t, "Inception", m.OriginalTitle)
	assert.Equal(t, 2010, m.StartYear)
	assert.Equal(t, 2010, m.EndYear)
	assert.False(t, m.Continuing)
	assert.Equal(t, "8.7", m.Rating)
	assert.Equal(t, "9.1", m.UserRating)
	assert.Equal(t, time.Date(2010, 7, 15, 0, 0, 0, 0, time.UTC), m.Added)
	assert.Equal(t, FlagRecentlyAdded.ID, m.Flag.ID)
	require.Len(t, m.Quality, 1)
	assert.Equal(t, FormatHD1080.ID, m.Quality[0].Format.ID)
	assert.Equal(t, "(5) HD-рип", m.Quality[0].Video)
	assert.Equal(t, "профессиональный перевод", m.Quality[0].Audio)
	require.Len(t, m.Genres, 2)
	assert.Equal(t, "Драма", m.Genres[0].Title())
	require.Len(t, m.Languages, 1)
	assert.Equal(t, "Русский", m.Languages[0].Title())
	require.Len(t, m.Countries, 2)
	assert.Equal(t, "США", m.Countries[0].Title())

	serial := result.Media[1]
	assert.Equal(t, 200123, serial.ID)
	assert.Equal(t, 2005, serial.StartYear)
	assert.True(t, serial.Continuing)
	assert.Empty(t, serial.Quality)
}

func TestParseSearchNoResults(t *testing.T) {
	t.Parallel()

	s := newTestScraper(t, DefaultBaseURL)

	result, err := s.parseSearch([]byte(`<html><body><div class="grid_no_message">Ничего не найдено</div></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, result.Media)
	assert.False(t, result.HasMore)
}

func TestParseSearchNoGrid(t *testing.T) {
	t.Parallel()

	s := newTestScraper(t, DefaultBaseURL)

	_, err := s.parseSearch([]byte(`<html><body><p>неожиданная страница</p></body></html>`))
	var scrapeErr *Error
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, ErrMalformed, scrapeErr.Kind)
	assert.Equal(t, langMalformed, scrapeErr.LangID)
}

func TestParseSearchLastPage(t *testing.T) {
	t.Parallel()

	s := newTestScraper(t, DefaultBaseURL)

	page := `<html><body>
<div class="simple_pager"><a href="#">1</a><span class="disable">→</span></div>
<table class="grid"><tr><th>x</th></tr></table>
</body></html>`
	result, err := s.parseSearch([]byte(page))
	require.NoError(t, err)
	assert.False(t, result.HasMore)
}

const detailsPage = `
<html><body>
<table><tr><td class="nav"><ul>
  <li class="first"><a class="main" href="/">Главная</a></li>
  <li class="selected"><a class="movies" href="/films">Фильмы</a></li>
</ul></td></tr></table>
<h1 class="movie_title">Начало <span>Inception</span></h1>
<span class="poster"><a href="/posters/105396.jpg"><img src="/posters/105396s.jpg"></a></span>
<div class="description_block b1">
  <div class="label">Страны производители:</div>
  <div class="description"><p><a href="#">США</a>, <a href="#">Великобритания</a></p></div>
</div>
<div class="description_block b2">
  <div class="label">Год:</div>
  <div class="description"><p>2010</p></div>
</div>
<div class="description_block b2">
  <div class="label">Дата выхода:</div>
  <div class="description"><p>08.07.2010 (мир)</p><p>22.07.2010 (Россия)</p></div>
</div>
<div class="description_block b1">
  <div class="label">Продолжительность:</div>
  <div class="description"><p>148 мин.</p></div>
</div>
<div class="description_block b2">
  <div class="label">Возрастной рейтинг:</div>
  <div class="description"><p><span class="age_rating">16+</span></p></div>
</div>
<div class="description_block b1">
  <div class="label">Жанр:</div>
  <div class="description"><p><a href="#">Драма</a>, <a href="#">Боевик</a></p></div>
</div>
<div class="description_block b2">
  <div class="label">Описание:</div>
  <div class="description"><p>Первый абзац.</p><p>Второй абзац.</p></div>
</div>
<div class="description_block b1">
  <div class="label">Режиссеры:</div>
  <div class="description"><p><a href="#">Кристофер Нолан</a></p></div>
</div>
<div class="description_block b2">
  <div class="label">Актеры:</div>
  <div class="description"><p><a href="#">Леонардо ДиКаприо</a>, <a href="#">Эллен Пейдж</a>, <a href="#">Все участники</a></p></div>
</div>
<p class="rating">Рейтинг кинопоиска: <span><a href="#">8.1 (125000)</a></span></p>
<p class="rating">Рейтинг IMDB: <span><a href="#">8.8 (2000000)</a></span></p>
</body></html>`

func TestParseDetails(t *testing.T) {
	t.Parallel()

	s := newTestScraper(t, DefaultBaseURL)

	details, err := s.parseDetails([]byte(detailsPage), 105396)
	require.NoError(t, err)

	assert.Equal(t, 105396, details.MediaID)
	assert.Equal(t, SectionMovies.ID, details.Section.ID)
	assert.Equal(t, "Начало", details.Title)
	assert.Equal(t, "Inception", details.OriginalTitle)
	require.Len(t, details.Countries, 2)
	assert.Equal(t, "США", details.Countries[0].Title())
	assert.Equal(t, 2010, details.StartYear)
	assert.Equal(t, "08.07.2010", details.WorldRelease)
	assert.Equal(t, "22.07.2010", details.RussianRelease)
	assert.Equal(t, 148, details.Duration)
	assert.Equal(t, MPAAPG13.ID, details.MPAARating.ID)
	require.Len(t, details.Genres, 2)
	assert.Equal(t, "Первый абзац.\n\nВторой абзац.", details.Plot)
	assert.Equal(t, []string{"Кристофер Нолан"}, details.Directors)
	// The trailing "all cast" link is not an actor.
	assert.Equal(t, []string{"Леонардо ДиКаприо", "Эллен Пейдж"}, details.Actors)
	assert.Equal(t, "/posters/105396.jpg", details.Poster)

	assert.Equal(t, 8.1, details.Ratings["kinopoisk"])
	assert.Equal(t, 125000, details.Votes["kinopoisk"])
	assert.Equal(t, 8.8, details.Ratings["imdb"])
	assert.Equal(t, 2000000, details.Votes["imdb"])
}

func TestParseDetailsNotFound(t *testing.T) {
	t.Parallel()

	s := newTestScraper(t, DefaultBaseURL)

	_, err := s.parseDetails([]byte(`<html><body><p>Страница не найдена</p></body></html>`), 42)
	var scrapeErr *Error
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, ErrNotFound, scrapeErr.Kind)
	assert.Equal(t, langNotFound, scrapeErr.LangID)
}

const foldersPage = `
<html><body>
<div class="block_files odd" id="blk7001">
  <div class="block_header h">
    <span class="files_up icon"></span>
    <span title="Основная раздача">Основная раздача</span>
  </div>
  <div class="l">
    <img src="/images/format_hd.png" title="HD">
    <a class="torrent" href="/torrents/download/7001">Скачать</a>
  </div>
  <div class="r">
    <p><span>Языки звуковых дорожек:</span> <a title="Русский" href="#">рус</a> <a title="Английский" href="#">англ</a></p>
    <p><span>Качество звука:</span> профессиональный перевод</p>
    <p><span>Качество изображения:</span> (5) HD-рип</p>
    <p><span>Внешние субтитры:</span> <a title="Русский" href="#">рус</a></p>
    <p><span>Размер файлов:</span> 2 GB</p>
    <p><span>Длительность:</span> 2:28:00</p>
  </div>
</div>
<table id="files_tbl">
<tr><th>Файл</th></tr>
<tr>
  <td class="icon"><span class="files_up"></span></td>
  <td class="file_torrent_link"><a href="/torrents/download/?file=555777">торрент</a></td>
  <td class="file_title"><a href="#">Начало.mkv</a></td>
  <td class="format">mkv</td>
  <td class="size">2:28:00</td>
  <td class="size">2 GB</td>
  <td class="sub"><img title="Русский"><img title="Английский"></td>
  <td class="videoprop">
    <ul><li>1920x1080, h264, 8000 kbps</li></ul>
    <ul><li><img title="ru">AC3, 6, 384 kbps</li></ul>
  </td>
</tr>
</table>
</body></html>`

func TestParseFolders(t *testing.T) {
	t.Parallel()

	s := newTestScraper(t, DefaultBaseURL)

	folders, err := s.parseFolders([]byte(foldersPage), 105396)
	require.NoError(t, err)
	require.Len(t, folders, 1)

	f := folders[0]
	assert.Equal(t, 7001, f.ID)
	assert.Equal(t, 105396, f.MediaID)
	assert.Equal(t, "Основная раздача", f.Title)
	assert.Equal(t, FlagQualityUpdated.ID, f.Flag.ID)
	assert.Equal(t, FormatHD.ID, f.Format.ID)
	assert.Equal(t, DefaultBaseURL+"/torrents/download/7001", f.Link)
	require.Len(t, f.Languages, 2)
	assert.Equal(t, "Русский", f.Languages[0].Title())
	require.Len(t, f.ExternalSubtitles, 1)
	assert.Equal(t, int64(2)<<30, f.Size)
	assert.Equal(t, 2*3600+28*60, f.Duration)

	assert.Equal(t, FormatHD.ID, f.Quality.Format.ID)
	assert.Equal(t, "(5) HD-рип", f.Quality.Video)
	assert.Equal(t, "профессиональный перевод", f.Quality.Audio)

	require.Len(t, f.Files, 1)
	file := f.Files[0]
	assert.Equal(t, 555777, file.ID)
	assert.Equal(t, 105396, file.MediaID)
	assert.Equal(t, 7001, file.FolderID)
	assert.Equal(t, "Начало.mkv", file.Title)
	assert.Equal(t, "mkv", file.Format)
	assert.Equal(t, DefaultBaseURL+"/torrents/download/?file=555777", file.Link)
	assert.Equal(t, 2*3600+28*60, file.Duration)
	assert.Equal(t, int64(2)<<30, file.Size)
	require.Len(t, file.Subtitles, 2)
	assert.Equal(t, "Английский", file.Subtitles[1].Title())

	require.Len(t, file.VideoStreams, 1)
	assert.Equal(t, 1920, file.VideoStreams[0].Width)
	assert.Equal(t, 1080, file.VideoStreams[0].Height)
	assert.Equal(t, "h264", file.VideoStreams[0].Codec)
	assert.Equal(t, 8000.0, file.VideoStreams[0].KBPS)

	require.Len(t, file.AudioStreams, 1)
	assert.Equal(t, "AC3", file.AudioStreams[0].Codec)
	assert.Equal(t, 6, file.AudioStreams[0].Channels)
	assert.Equal(t, 384.0, file.AudioStreams[0].KBPS)
	// The track flag carries a short code the known set does not list.
	assert.Equal(t, "RU", file.AudioStreams[0].Language.Title())
}

func TestParseFoldersEmpty(t *testing.T) {
	t.Parallel()

	s := newTestScraper(t, DefaultBaseURL)

	folders, err := s.parseFolders([]byte(`<html><body><p>Раздач нет</p></body></html>`), 42)
	require.NoError(t, err)
	assert.Nil(t, folders)
}

func TestParseFoldersExtendedSearchRequired(t *testing.T) {
	t.Parallel()

	s := newTestScraper(t, DefaultBaseURL)

	page := `<html><body><p>Подключите услугу Полномасштабный поиск.</p></body></html>`
	_, err := s.parseFolders([]byte(page), 42)
	var scrapeErr *Error
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, ErrFeatureDisabled, scrapeErr.Kind)
	assert.Equal(t, langFeatureDisabled, scrapeErr.LangID)
	assert.True(t, scrapeErr.CheckSettings)
}

func TestParseYears(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input      string
		start, end int
		continuing bool
	}{
		{"2010", 2010, 2010, false},
		{"2005-2008", 2005, 2008, false},
		{"2005-", 2005, 0, true},
		{" 2010 ", 2010, 2010, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			start, end, continuing := parseYears(tt.input)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
			assert.Equal(t, tt.continuing, continuing)
		})
	}
}

func TestParseSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  int64
		ok    bool
	}{
		{"123456", 123456, true},
		{"700 MB", 700 << 20, true},
		{"700 мб", 700 << 20, true},
		{"2 GB", 2 << 30, true},
		{"2 гб", 2 << 30, true},
		{"1 TB", 1 << 40, true},
		{"1,5 гб", int64(1.5 * float64(1<<30)), true},
		{"1.5 GB", int64(1.5 * float64(1<<30)), true},
		{"", 0, false},
		{"many GB", 0, false},
		{"700 kb", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, ok := parseSize(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"90", 90, true},
		{"2:30", 150, true},
		{"1:02:03", 3723, true},
		{"1:00:00:00", 86400, true},
		{"1:2:3:4:5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, ok := parseDuration(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
