// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scraper

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/anteo/okinod/pkg/phpserial"
)

// SearchFilter is an immutable query descriptor. Zero-valued fields are
// absent and omitted from the encoded state. Field order of the set-valued
// members is preserved as given. Two filters with identical field values
// produce identical keys and identical state blobs.
type SearchFilter struct {
	Sections       []Section
	ExtendedSearch bool
	Format         Format
	Genres         []Genre
	Countries      []Country
	Languages      []Language
	AudioQuality   AudioQuality
	VideoQuality   VideoQuality
	RatingMin      float64
	RatingMax      float64
	YearMin        int
	YearMax        int
	MPAARating     MPAA
	PageSize       int
	OrderBy        Order
	OrderDir       OrderDirection
	Name           string
}

// Key returns a stable structural key for caching. Filters with equal field
// values collide; field order inside the slices is significant.
func (f *SearchFilter) Key() string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%+v", *f)
}

// Data builds the provider query structure, omitting absent fields. Genre
// and Country are repeated single-element groups per the remote API.
func (f *SearchFilter) Data() map[string]any {
	data := make(map[string]any)

	if len(f.Sections) > 0 {
		sections := make(map[string]any, len(f.Sections))
		for _, s := range f.Sections {
			sections[`\'`+s.Filter+`\'`] = s.Filter
		}
		data["section_filter"] = sections
	}
	if f.ExtendedSearch {
		data["extSearch"] = true
	}
	if f.Format.ID != 0 && f.Format.Filter != "" {
		data["Format"] = f.Format.Filter
	}
	if len(f.Genres) > 0 {
		groups := make([]any, 0, len(f.Genres))
		for _, g := range f.Genres {
			groups = append(groups, []any{g.Filter})
		}
		data["Genre"] = groups
	}
	if len(f.Countries) > 0 {
		groups := make([]any, 0, len(f.Countries))
		for _, c := range f.Countries {
			groups = append(groups, []any{c.Filter})
		}
		data["Country"] = groups
	}
	if len(f.Languages) > 0 {
		vals := make([]any, 0, len(f.Languages))
		for _, l := range f.Languages {
			vals = append(vals, l.Filter)
		}
		data["Lang"] = vals
	}
	if f.AudioQuality.ID != 0 {
		data["audio_quality"] = f.AudioQuality.Filter
	}
	if f.VideoQuality.ID != 0 {
		data["video_quality"] = f.VideoQuality.Filter
	}
	if f.RatingMin != 0 || f.RatingMax != 0 {
		rating := make(map[string]any)
		if f.RatingMin != 0 {
			rating["min"] = f.RatingMin
		}
		if f.RatingMax != 0 {
			rating["max"] = f.RatingMax
		}
		data["rating"] = rating
	}
	if f.YearMin != 0 || f.YearMax != 0 {
		year := make(map[string]any)
		if f.YearMin != 0 {
			year["min"] = strconv.Itoa(f.YearMin)
		}
		if f.YearMax != 0 {
			year["max"] = strconv.Itoa(f.YearMax)
		}
		data["Year"] = year
	}
	if f.MPAARating.ID != 0 {
		data["mpaa"] = f.MPAARating.Filter
	}
	if f.PageSize != 0 {
		data["pagesize"] = f.PageSize
	}
	if f.OrderBy.ID != 0 {
		data["orderName"] = f.OrderBy.Filter
	}
	if f.OrderDir.ID != 0 {
		data["orderType"] = f.OrderDir.Filter
	}

	return data
}

// State serializes the filter into the base64-wrapped blob the catalog
// expects as a single query parameter.
func (f *SearchFilter) State() (string, error) {
	blob, err := phpserial.Marshal(phpserial.Object{
		Name:    "amorphous",
		Props:   map[string]any{"_properties": f.Data()},
		Private: true,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to serialize filter state")
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

// ExtractState decodes the state query parameter of a catalog URL back into
// its property map. Used for diagnostics when an unknown label is met.
func ExtractState(rawURL string) (map[string]any, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid URL: %s", rawURL)
	}
	state := u.Query().Get("state")
	if state == "" {
		return nil, nil
	}
	blob, err := base64.StdEncoding.DecodeString(state)
	if err != nil {
		return nil, errors.Wrap(err, "malformed state parameter")
	}
	decoded, err := phpserial.Unmarshal(blob)
	if err != nil {
		return nil, err
	}
	obj, ok := decoded.(phpserial.Object)
	if !ok {
		return nil, errors.New("state is not an object")
	}
	props, _ := obj.Props["_properties"].(map[string]any)
	return props, nil
}
