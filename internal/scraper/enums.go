// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scraper

import (
	"strconv"
	"strings"
)

// attr is the data record every closed-set variant carries: the numeric id
// used by the catalog, the canonical source label, the value sent in encoded
// filters and an optional display override for unknown labels.
type attr struct {
	ID      int
	Label   string
	Filter  string
	Display string
}

func (a attr) matches(what string) bool {
	return what != "" && (what == a.Label || what == a.Filter)
}

// Title returns the label to show: the display override when the value was
// built from an unknown source label, the canonical label otherwise.
func (a attr) Title() string {
	if a.Display != "" {
		return a.Display
	}
	return a.Label
}

// Genre is a catalog genre. The closed set mirrors the remote catalog;
// unknown labels map to GenreOther carrying the raw label.
type Genre struct{ attr }

func genre(id int, label string) Genre {
	return Genre{attr{ID: id, Label: label, Filter: strconv.Itoa(id)}}
}

// LangID is the localization key for the genre title.
func (g Genre) LangID() int { return 30700 + g.ID }

var GenreOther = genre(-1, "Другой")

var genres = []Genre{
	genre(185, "Аниме"),
	genre(98, "Биографический"),
	genre(70, "Боевик"),
	genre(40, "Вестерн"),
	genre(135, "Военный"),
	genre(32, "Детектив"),
	genre(121, "Детский"),
	genre(72, "Для Взрослых"),
	genre(123, "Документальный"),
	genre(163, "Драма"),
	genre(124, "Игровое Шоу"),
	genre(109, "Исторический"),
	genre(177, "Катастрофа"),
	genre(133, "Киноповесть"),
	genre(151, "Комедия"),
	genre(126, "Короткометражный"),
	genre(64, "Криминал"),
	genre(137, "Мелодрама"),
	genre(14, "Мистика"),
	genre(119, "Музыкальный"),
	genre(158, "Мультфильм"),
	genre(171, "Мыльная опера"),
	genre(134, "Мюзикл"),
	genre(95, "Нуар"),
	genre(117, "Отечественный"),
	genre(127, "Приключения"),
	genre(178, "Психологический"),
	genre(61, "Реалити-Шоу"),
	genre(57, "Семейный"),
	genre(120, "Спектакль"),
	genre(33, "Спортивный"),
	genre(159, "Ток-Шоу"),
	genre(164, "Токусацу"),
	genre(149, "Триллер"),
	genre(13, "Ужасы"),
	genre(157, "Фантастика"),
	genre(153, "Фэнтези"),
	genre(62, "Хроника"),
	genre(93, "Эротика"),
}

// Genres returns the closed set of known genres.
func Genres() []Genre { return genres }

// FindGenre resolves a source label. The second result is false when the
// label is unknown and the sentinel with a display override was returned.
// The sentinel's own label resolves like any other member.
func FindGenre(label string) (Genre, bool) {
	for _, g := range genres {
		if g.matches(label) {
			return g, true
		}
	}
	if GenreOther.matches(label) {
		return GenreOther, true
	}
	other := GenreOther
	other.Display = label
	return other, false
}

// Country of production.
type Country struct{ attr }

func country(id int, label string) Country {
	return Country{attr{ID: id, Label: label, Filter: strconv.Itoa(id)}}
}

func (c Country) LangID() int { return 30500 + c.ID }

var CountryOther = country(-1, "Другая")

var countries = []Country{
	country(19, "Австралия"),
	country(33, "Великобритания"),
	country(7, "Германия"),
	country(3, "Гонконг"),
	country(44, "Западная Германия"),
	country(23, "Индия"),
	country(22, "Испания"),
	country(20, "Италия"),
	country(183, "Канада"),
	country(9, "Китай"),
	country(61, "Мексика"),
	country(36, "Нидерланды"),
	country(26, "Польша"),
	country(46, "Россия"),
	country(18, "СССР"),
	country(6, "США"),
	country(8, "Франция"),
	country(45, "Швеция"),
	country(10, "Южная Корея"),
	country(13, "Япония"),
	country(101, "Грузия"),
	country(98, "Эстония"),
	country(24, "Дания"),
	country(30, "Бразилия"),
	country(68, "Норвегия"),
	country(81, "Ирландия"),
	country(57, "Индонезия"),
	country(14, "Тайланд"),
	country(108, "Югославия"),
	country(31, "Израиль"),
	country(49, "Финляндия"),
	country(106, "Украина"),
	country(86, "Болгария"),
	country(21, "Швейцария"),
	country(52, "Новая Зеландия"),
	country(165, "Азербайджан"),
	country(72, "Чехия"),
	country(157, "Объединенные Арабские Эмираты"),
	country(32, "Южная Африка"),
	country(16, "Австрия"),
	country(127, "Беларусь"),
	country(131, "Египет"),
	country(39, "Люксембург"),
	country(67, "Бельгия"),
	country(94, "Турция"),
	country(111, "Греция"),
	country(182, "Аруба"),
	country(11, "Сингапур"),
	country(12, "Тайвань"),
	country(123, "Мальта"),
	country(37, "Аргентина"),
	country(83, "Румыния"),
	country(119, "Перу"),
	country(138, "Латвия"),
	country(187, "Багамы"),
	country(105, "Казахстан"),
	country(147, "Венесуэла"),
	country(90, "Исландия"),
	country(137, "Республика Македония"),
	country(73, "Словения"),
	country(87, "Сербия"),
	country(89, "Хорватия"),
	country(205, "Черногория"),
	country(218, "Фиджи"),
	country(150, "Восточная Германия"),
	country(17, "Филиппины"),
	country(118, "Чили"),
	country(135, "Монголия"),
	country(112, "Чехословакия"),
	country(65, "Венгрия"),
}

func Countries() []Country { return countries }

func FindCountry(label string) (Country, bool) {
	for _, c := range countries {
		if c.matches(label) {
			return c, true
		}
	}
	if CountryOther.matches(label) {
		return CountryOther, true
	}
	other := CountryOther
	other.Display = label
	return other, false
}

// Language of an audio track or subtitles. The filter value is the label
// itself, per the remote API.
type Language struct{ attr }

func language(id int, label string) Language {
	return Language{attr{ID: id, Label: label, Filter: label}}
}

func (l Language) LangID() int { return 30400 + l.ID }

var LanguageOther = language(-1, "Другой")

var languages = []Language{
	language(10, "Русский"),
	language(11, "Английский"),
	language(12, "Японский"),
	language(13, "Китайский"),
	language(14, "Немецкий"),
	language(15, "Французский"),
	language(16, "Итальянский"),
	language(17, "Испанский"),
	language(18, "Корейский"),
	language(19, "Перевод Гоблина"),
	language(20, "Венгерский"),
	language(21, "Шведский"),
	language(22, "Европейские языки"),
	language(23, "Без речи"),
	language(24, "Грузинский"),
	language(25, "Эстонский"),
	language(26, "Датский"),
	language(27, "Норвежский"),
	language(28, "Индонезийский"),
	language(29, "Тайский"),
	language(30, "Хинди"),
	language(31, "Сербский"),
	language(32, "Польский"),
	language(33, "Иврит"),
	language(34, "Украинский"),
	language(35, "Нидерландский"),
	language(36, "Турецкий"),
	language(37, "Малаялам"),
	language(38, "Литовский"),
	language(39, "Бенгали"),
	language(40, "Португальский"),
	language(41, "Бенгальский"),
	language(42, "Латышский"),
	language(43, "Болгарский"),
	language(44, "Телугу"),
	language(45, "Исландский"),
	language(46, "Македонский"),
	language(47, "Фарси"),
	language(48, "Монгольский"),
	language(49, "Чешский"),
	language(50, "Тайваньский"),
}

func Languages() []Language { return languages }

func FindLanguage(label string) (Language, bool) {
	for _, l := range languages {
		if l.matches(label) {
			return l, true
		}
	}
	if LanguageOther.matches(label) {
		return LanguageOther, true
	}
	other := LanguageOther
	other.Display = label
	return other, false
}

// Format is the container/resolution class of a folder.
type Format struct{ attr }

func (f Format) LangID() int { return 30900 + f.ID }

// Dimensions returns the nominal width and height of the format.
func (f Format) Dimensions() (width, height int) {
	switch f.ID {
	case 40:
		return 1920, 1080
	case 10:
		return 720, 480
	default:
		return 1280, 720
	}
}

var (
	FormatSD     = Format{attr{ID: 10, Label: "SD", Filter: "Только SD"}}
	FormatHD     = Format{attr{ID: 20, Label: "HD", Filter: "Только HD"}}
	FormatHD720  = Format{attr{ID: 30, Label: "HD 720p"}}
	FormatHD1080 = Format{attr{ID: 40, Label: "HD 1080p"}}
)

var formats = []Format{FormatSD, FormatHD, FormatHD720, FormatHD1080}

func FindFormat(label string) (Format, bool) {
	for _, f := range formats {
		if f.matches(label) {
			return f, true
		}
	}
	return Format{}, false
}

// AudioQuality grades the audio track of a folder.
type AudioQuality struct{ attr }

func audioQuality(id int, label string) AudioQuality {
	return AudioQuality{attr{ID: id, Label: label, Filter: label}}
}

func (q AudioQuality) LangID() int { return 30300 + q.ID }

// Known reports whether the value is graded (not the unknown sentinel).
func (q AudioQuality) Known() bool { return q.ID > 0 }

var AudioQualityUnknown = audioQuality(-1, "неизвестно")

var audioQualities = []AudioQuality{
	audioQuality(12, "нет перевода"),
	audioQuality(11, "дубляж с экранки"),
	audioQuality(10, "озвучка секты им. Л.В. Володарского"),
	audioQuality(20, "любительский одноголосый перевод"),
	audioQuality(30, "любительский многоголосый перевод"),
	audioQuality(31, "звук line"),
	audioQuality(40, "профессиональный перевод"),
	audioQuality(50, "оригинальная дорожка/полный дубляж"),
}

func AudioQualities() []AudioQuality { return audioQualities }

func FindAudioQuality(label string) (AudioQuality, bool) {
	for _, q := range audioQualities {
		if q.matches(label) {
			return q, true
		}
	}
	if AudioQualityUnknown.matches(label) {
		return AudioQualityUnknown, true
	}
	other := AudioQualityUnknown
	other.Display = label
	return other, false
}

// VideoQuality grades the picture of a folder.
type VideoQuality struct{ attr }

func videoQuality(id int, label string) VideoQuality {
	return VideoQuality{attr{ID: id, Label: label, Filter: label}}
}

func (q VideoQuality) LangID() int { return 30100 + q.ID }

func (q VideoQuality) Known() bool { return q.ID > 0 }

var VideoQualityUnknown = videoQuality(-1, "неизвестно")

var videoQualities = []VideoQuality{
	videoQuality(10, "(1) плохая экранка"),
	videoQuality(20, "(2) экранка"),
	videoQuality(21, "(2) VHS-рип"),
	videoQuality(30, "(3) TV-рип"),
	videoQuality(31, "(3) DVDscr"),
	videoQuality(32, "(3) HDTV"),
	videoQuality(33, "(3) HDTV HD"),
	videoQuality(40, "(4) DVD-рип"),
	videoQuality(41, "(4) Web-DL"),
	videoQuality(50, "(5) HD-рип"),
	videoQuality(51, "(5) Web-DL HD"),
}

func VideoQualities() []VideoQuality { return videoQualities }

func FindVideoQuality(label string) (VideoQuality, bool) {
	for _, q := range videoQualities {
		if q.matches(label) {
			return q, true
		}
	}
	if VideoQualityUnknown.matches(label) {
		return VideoQualityUnknown, true
	}
	other := VideoQualityUnknown
	other.Display = label
	return other, false
}

// MPAA is the age rating.
type MPAA struct{ attr }

func (m MPAA) LangID() int { return 30200 + m.ID }

var (
	MPAAOther = MPAA{attr{ID: -1, Label: "Другой", Filter: "other"}}
	MPAAG     = MPAA{attr{ID: 10, Label: "6+", Filter: "6+"}}
	MPAAPG    = MPAA{attr{ID: 20, Label: "12+", Filter: "12+"}}
	MPAAPG13  = MPAA{attr{ID: 30, Label: "16+", Filter: "16+"}}
	MPAAR     = MPAA{attr{ID: 40, Label: "18+", Filter: "18+"}}
	MPAAAny   = MPAA{attr{ID: 50, Label: "Для всех", Filter: "any"}}
)

var mpaaRatings = []MPAA{MPAAG, MPAAPG, MPAAPG13, MPAAR, MPAAAny}

func MPAARatings() []MPAA { return mpaaRatings }

func FindMPAA(label string) (MPAA, bool) {
	for _, m := range mpaaRatings {
		if m.matches(label) {
			return m, true
		}
	}
	if MPAAOther.matches(label) {
		return MPAAOther, true
	}
	other := MPAAOther
	other.Display = label
	return other, false
}

// Section is the catalog area an entry belongs to.
type Section struct{ attr }

// FolderName is the library directory name for the section.
func (s Section) FolderName() string { return s.Display }

func (s Section) LangID() int { return 31000 + s.ID }

// IsSeries reports whether entries of the section have episodes.
func (s Section) IsSeries() bool { return s.ID == 20 || s.ID == 40 }

var (
	SectionMovies         = Section{attr{ID: 10, Label: "movie", Filter: "movie", Display: "Movies"}}
	SectionSeries         = Section{attr{ID: 20, Label: "series", Filter: "series", Display: "Series"}}
	SectionCartoons       = Section{attr{ID: 30, Label: "animation", Filter: "animation", Display: "Cartoons"}}
	SectionAnimatedSeries = Section{attr{ID: 40, Label: "animseries", Filter: "animseries", Display: "Animated Series"}}
)

var sections = []Section{SectionMovies, SectionSeries, SectionCartoons, SectionAnimatedSeries}

func Sections() []Section { return sections }

func FindSection(name string) (Section, bool) {
	for _, s := range sections {
		if s.matches(name) {
			return s, true
		}
	}
	return Section{}, false
}

// Flag marks a recently changed entry in listings.
type Flag struct{ attr }

func (f Flag) LangID() int { return 30200 + f.ID }

var (
	FlagQualityUpdated = Flag{attr{ID: 1, Label: "files_up", Filter: "files_up"}}
	FlagRecentlyAdded  = Flag{attr{ID: 2, Label: "files_new", Filter: "files_new"}}
	FlagNewSeries      = Flag{attr{ID: 3, Label: "files_plus", Filter: "files_plus"}}
)

var flags = []Flag{FlagQualityUpdated, FlagRecentlyAdded, FlagNewSeries}

// FindFlag matches a listing icon class, which may carry extra classes.
func FindFlag(iconClass string) (Flag, bool) {
	for _, f := range flags {
		for _, c := range splitClasses(iconClass) {
			if f.matches(c) {
				return f, true
			}
		}
	}
	return Flag{}, false
}

func splitClasses(s string) []string { return strings.Fields(s) }

// Order is the search result ordering key.
type Order struct{ attr }

func (o Order) LangID() int { return 30280 + o.ID }

var (
	OrderRating     = Order{attr{ID: 1, Label: "rating", Filter: "film.rtg_value"}}
	OrderUserRating = Order{attr{ID: 2, Label: "user-rating", Filter: "okino_rating.rtg_value"}}
	OrderYear       = Order{attr{ID: 3, Label: "year", Filter: "SUBSTR(film.year,1,4)"}}
	OrderName       = Order{attr{ID: 4, Label: "name", Filter: "rus_name"}}
	OrderDate       = Order{attr{ID: 5, Label: "date", Filter: "wld_prm_time"}}
)

func Orders() []Order {
	return []Order{OrderRating, OrderUserRating, OrderYear, OrderName, OrderDate}
}

func FindOrder(name string) (Order, bool) {
	for _, o := range Orders() {
		if o.matches(name) {
			return o, true
		}
	}
	return Order{}, false
}

// OrderDirection is the search result ordering direction.
type OrderDirection struct{ attr }

func (o OrderDirection) LangID() int { return 30290 + o.ID }

var (
	OrderAsc  = OrderDirection{attr{ID: 1, Filter: "asc"}}
	OrderDesc = OrderDirection{attr{ID: 2, Filter: "desc"}}
)
