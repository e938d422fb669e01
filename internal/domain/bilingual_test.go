package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBilingualText_Localized(t *testing.T) {
	text := NewBilingualText("Roast Goose", "燒鵝")

	tests := []struct {
		locale string
		want   string
	}{
		{"zh-Hant", "燒鵝"},
		{"zh-CN", "燒鵝"},
		{"zh_HK", "燒鵝"},
		{"ZH", "燒鵝"},
		{"en", "Roast Goose"},
		{"en-GB", "Roast Goose"},
		{"fr", "Roast Goose"},
		{"", "Roast Goose"},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.want, text.Localized(tt.locale))
		})
	}
}

func TestBilingualText_DecodeShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want BilingualText
	}{
		{"canonical", `{"EN":"Tea","TC":"茶"}`, NewBilingualText("Tea", "茶")},
		{"lowercase", `{"en":"Tea","tc":"茶"}`, NewBilingualText("Tea", "茶")},
		{"mixed", `{"En":"Tea","tC":"茶"}`, NewBilingualText("Tea", "茶")},
		{"half canonical", `{"EN":"Tea","tc":"茶"}`, NewBilingualText("Tea", "茶")},
		{"missing tc", `{"en":"Tea"}`, NewBilingualText("Tea", "")},
		{"empty object", `{}`, BilingualText{}},
		{"null", `null`, BilingualText{}},
		{"non-string value", `{"EN":"Tea","TC":5}`, NewBilingualText("Tea", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got BilingualText
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBilingualText_DecodeRejectsNonObject(t *testing.T) {
	var got BilingualText
	assert.Error(t, json.Unmarshal([]byte(`"Tea"`), &got))
	assert.Error(t, json.Unmarshal([]byte(`["Tea"]`), &got))
}

func TestBilingualText_CanonicalRoundTrip(t *testing.T) {
	for _, in := range []BilingualText{
		NewBilingualText("Dim Sum", "點心"),
		NewBilingualText("", ""),
		NewBilingualText("Only English", ""),
	} {
		data, err := json.Marshal(in)
		require.NoError(t, err)

		var out BilingualText
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, in, out)
	}

	data, err := json.Marshal(NewBilingualText("a", "b"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"EN":"a","TC":"b"}`, string(data))
}
