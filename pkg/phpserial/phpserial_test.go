// Copyright (c) 2025, anteo and the okinod contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package phpserial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalScalars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, "N;"},
		{"true", true, "b:1;"},
		{"false", false, "b:0;"},
		{"int", 42, "i:42;"},
		{"negative int", -7, "i:-7;"},
		{"int64", int64(80), "i:80;"},
		{"float", 7.5, "d:7.5;"},
		{"whole float", float64(9), "d:9;"},
		{"string", "comedy", `s:6:"comedy";`},
		{"empty string", "", `s:0:"";`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalSlice(t *testing.T) {
	t.Parallel()

	got, err := Marshal([]any{"ru", "en"})
	require.NoError(t, err)
	assert.Equal(t, `a:2:{i:0;s:2:"ru";i:1;s:2:"en";}`, string(got))
}

func TestMarshalMapDeterministic(t *testing.T) {
	t.Parallel()

	m := map[string]any{"min": "2000", "max": "2010"}

	first, err := Marshal(m)
	require.NoError(t, err)

	// Keys come out sorted, so repeated runs agree byte for byte.
	assert.Equal(t, `a:2:{s:3:"max";s:4:"2010";s:3:"min";s:4:"2000";}`, string(first))

	second, err := Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMarshalObjectManglesPrivateProps(t *testing.T) {
	t.Parallel()

	obj := Object{
		Name:    "amorphous",
		Props:   map[string]any{"extSearch": true},
		Private: true,
	}

	got, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, "O:9:\"amorphous\":1:{s:20:\"\x00amorphous\x00extSearch\";b:1;}", string(got))
}

func TestMarshalUnsupportedType(t *testing.T) {
	t.Parallel()

	_, err := Marshal(struct{}{})
	assert.Error(t, err)
}

func TestUnmarshalScalars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  any
	}{
		{"nil", "N;", nil},
		{"bool", "b:1;", true},
		{"int", "i:15;", 15},
		{"float", "d:8.1;", 8.1},
		{"string", `s:5:"drama";`, "drama"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Unmarshal([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnmarshalArrayIntKeys(t *testing.T) {
	t.Parallel()

	got, err := Unmarshal([]byte(`a:2:{i:0;s:2:"ru";i:1;s:2:"en";}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"0": "ru", "1": "en"}, got)
}

func TestObjectRoundtrip(t *testing.T) {
	t.Parallel()

	obj := Object{
		Name: "amorphous",
		Props: map[string]any{
			"pagesize":  15,
			"orderName": "rating",
			"rating":    map[string]any{"min": 6.5, "max": 10.0},
		},
		Private: true,
	}

	data, err := Marshal(obj)
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)

	got, ok := decoded.(Object)
	require.True(t, ok)
	assert.Equal(t, obj.Name, got.Name)
	assert.True(t, got.Private)
	assert.Equal(t, 15, got.Props["pagesize"])
	assert.Equal(t, "rating", got.Props["orderName"])
	assert.Equal(t, map[string]any{"max": 10.0, "min": 6.5}, got.Props["rating"])
}

func TestUnmarshalMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"unknown token", "x:1;"},
		{"unterminated scalar", "i:42"},
		{"string overrun", `s:10:"ab";`},
		{"truncated array", `a:2:{i:0;s:2:"ru";`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Unmarshal([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}
