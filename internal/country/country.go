// Package country holds the canonical Country record and the normalizer
// that builds it from raw REST Countries JSON.
package country

import (
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownName is the Name given to records without name.common.
const UnknownName = "Unknown"

// RawRecord is one undecoded country object as returned upstream.
type RawRecord = json.RawMessage

// Country is the flat canonical record. It is never mutated after
// Normalize returns; LanguagesByCode must be treated as read-only.
type Country struct {
	Name            string                                 `json:"name"`
	FlagURL         string                                 `json:"flag_url"`
	Capital         string                                 `json:"capital"`
	Region          string                                 `json:"region"`
	Languages       string                                 `json:"languages"`
	LanguagesByCode *orderedmap.OrderedMap[string, string] `json:"languages_by_code"`
	Currency        string                                 `json:"currency"`
	StartOfWeek     string                                 `json:"start_of_week"`
	Borders         string                                 `json:"borders"`
	Area            float64                                `json:"area"`
	Population      int64                                  `json:"population"`
	MapURL          string                                 `json:"map_url"`
}

// Speaks reports whether key matches one of the country's language codes
// or language names. Matching ignores case.
func (c Country) Speaks(key string) bool {
	key = Lower(strings.TrimSpace(key))
	if key == "" || c.LanguagesByCode == nil {
		return false
	}
	if _, ok := c.LanguagesByCode.Get(key); ok {
		return true
	}
	for pair := c.LanguagesByCode.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == key {
			return true
		}
	}
	return false
}

// LanguageCodes returns the lowercased language codes in source order.
func (c Country) LanguageCodes() []string {
	if c.LanguagesByCode == nil {
		return []string{}
	}
	codes := make([]string, 0, c.LanguagesByCode.Len())
	for pair := c.LanguagesByCode.Oldest(); pair != nil; pair = pair.Next() {
		codes = append(codes, pair.Key)
	}
	return codes
}

// StartOfWeekDisplay returns StartOfWeek, or "Unknown" when it is empty.
func (c Country) StartOfWeekDisplay() string {
	if c.StartOfWeek == "" {
		return "Unknown"
	}
	return c.StartOfWeek
}

// BordersDisplay returns Borders, or "None" when it is empty.
func (c Country) BordersDisplay() string {
	if c.Borders == "" {
		return "None"
	}
	return c.Borders
}

// Lower lowercases s without locale-specific rules.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// NormalizeKey trims and lowercases a user-supplied language key.
func NormalizeKey(s string) string {
	return Lower(strings.TrimSpace(s))
}
