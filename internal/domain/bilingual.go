// Package domain holds the value types exchanged with the eats backend.
//
// Wire names are bound explicitly through struct tags; fields whose wire
// shape is irregular (bilingual text) carry their own JSON methods.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// BilingualText is an English / Traditional Chinese string pair.
// Both halves are always present; an empty string means "no translation".
type BilingualText struct {
	EN string
	TC string
}

// NewBilingualText builds a pair.
func NewBilingualText(en, tc string) BilingualText {
	return BilingualText{EN: en, TC: tc}
}

// Localized returns TC for locales whose language tag starts with "zh"
// (zh, zh-Hant, zh-HK, zh_TW ...) and EN for everything else.
func (b BilingualText) Localized(locale string) string {
	if IsChineseLocale(locale) {
		return b.TC
	}
	return b.EN
}

// IsEmpty reports whether both halves are empty.
func (b BilingualText) IsEmpty() bool {
	return b.EN == "" && b.TC == ""
}

// String returns the English half.
func (b BilingualText) String() string {
	return b.EN
}

// IsChineseLocale reports whether a locale tag selects the TC half.
func IsChineseLocale(locale string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(locale)), "zh")
}

type canonicalBilingual struct {
	EN string `json:"EN"`
	TC string `json:"TC"`
}

// MarshalJSON always emits the canonical {"EN": .., "TC": ..} shape.
func (b BilingualText) MarshalJSON() ([]byte, error) {
	return json.Marshal(canonicalBilingual{EN: b.EN, TC: b.TC})
}

// UnmarshalJSON accepts the canonical upper-case object first and falls back
// to a generic string map with lower-case or mixed-case keys. Missing keys
// decode to "".
func (b *BilingualText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = BilingualText{}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("bilingual text: expected object: %w", err)
	}

	if en, tc, ok := canonicalPair(raw); ok {
		*b = BilingualText{EN: en, TC: tc}
		return nil
	}

	*b = BilingualText{
		EN: lookupFolded(raw, "en"),
		TC: lookupFolded(raw, "tc"),
	}
	return nil
}

func canonicalPair(raw map[string]json.RawMessage) (string, string, bool) {
	enRaw, okEN := raw["EN"]
	tcRaw, okTC := raw["TC"]
	if !okEN || !okTC {
		return "", "", false
	}
	var en, tc string
	if json.Unmarshal(enRaw, &en) != nil || json.Unmarshal(tcRaw, &tc) != nil {
		return "", "", false
	}
	return en, tc, true
}

// lookupFolded prefers the exact lower-case key, then the upper-case key,
// then any key equal under case folding. Non-string values count as missing.
func lookupFolded(raw map[string]json.RawMessage, key string) string {
	var mixed []string
	for k := range raw {
		if strings.EqualFold(k, key) && k != key && k != strings.ToUpper(key) {
			mixed = append(mixed, k)
		}
	}
	sort.Strings(mixed)
	for _, k := range append([]string{key, strings.ToUpper(key)}, mixed...) {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	return ""
}
