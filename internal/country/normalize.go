package country

import (
	"math"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Normalize maps one raw record to a Country. It never fails: every
// missing, null or mistyped field falls back to its default, so even an
// empty object or invalid JSON yields a fully populated Country.
//
// Object-valued fields (languages, currencies) are walked in the order
// they appear in the source bytes.
func Normalize(raw RawRecord) Country {
	c := Country{
		Name:            UnknownName,
		LanguagesByCode: orderedmap.New[string, string](),
	}

	if name, ok := stringAt(raw, "name", "common"); ok {
		c.Name = name
	}
	c.FlagURL, _ = stringAt(raw, "flags", "svg")
	c.Capital = joinStrings(raw, "capital")
	c.Region, _ = stringAt(raw, "region")
	c.Languages, c.LanguagesByCode = languages(raw)
	c.Currency = firstCurrency(raw)
	c.StartOfWeek, _ = stringAt(raw, "startOfWeek")
	c.Borders = joinStrings(raw, "borders")
	c.Area = nonNegative(raw, "area")
	c.Population = count(raw, "population")
	c.MapURL, _ = stringAt(raw, "maps", "googleMaps")

	return c
}

// NormalizeAll applies Normalize to every record, keeping order.
func NormalizeAll(raws []RawRecord) []Country {
	out := make([]Country, len(raws))
	for i, raw := range raws {
		out[i] = Normalize(raw)
	}
	return out
}

// stringAt returns the string at the key path. ok is false when the path is
// absent or holds a non-string.
func stringAt(data []byte, keys ...string) (string, bool) {
	value, typ, _, err := jsonparser.Get(data, keys...)
	if err != nil || typ != jsonparser.String {
		return "", false
	}
	s, err := jsonparser.ParseString(value)
	if err != nil {
		return "", false
	}
	return s, true
}

// joinStrings joins the string elements of the array at key with ", ".
// A bare string is treated as a one-element array.
func joinStrings(data []byte, key string) string {
	value, typ, _, err := jsonparser.Get(data, key)
	if err != nil {
		return ""
	}

	switch typ {
	case jsonparser.String:
		s, _ := jsonparser.ParseString(value)
		return s
	case jsonparser.Array:
		parts := []string{}
		_, _ = jsonparser.ArrayEach(value, func(item []byte, dt jsonparser.ValueType, _ int, _ error) {
			if dt != jsonparser.String {
				return
			}
			if s, err := jsonparser.ParseString(item); err == nil {
				parts = append(parts, s)
			}
		})
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// languages returns the display string (source case, source order) and the
// lowercased code→name map. Codes that collide after lowercasing keep the
// position of the first and the value of the last.
func languages(data []byte) (string, *orderedmap.OrderedMap[string, string]) {
	byCode := orderedmap.New[string, string]()

	value, typ, _, err := jsonparser.Get(data, "languages")
	if err != nil || typ != jsonparser.Object {
		return "", byCode
	}

	names := []string{}
	_ = jsonparser.ObjectEach(value, func(key, val []byte, dt jsonparser.ValueType, _ int) error {
		if dt != jsonparser.String {
			return nil
		}
		name, err := jsonparser.ParseString(val)
		if err != nil {
			return nil
		}
		names = append(names, name)
		byCode.Set(Lower(string(key)), Lower(name))
		return nil
	})

	return strings.Join(names, ", "), byCode
}

// firstCurrency returns the name of the first entry in currencies.
// Which currency comes first is whatever the upstream document lists first.
func firstCurrency(data []byte) string {
	value, typ, _, err := jsonparser.Get(data, "currencies")
	if err != nil || typ != jsonparser.Object {
		return ""
	}

	name := ""
	seen := false
	_ = jsonparser.ObjectEach(value, func(_, val []byte, dt jsonparser.ValueType, _ int) error {
		if seen {
			return nil
		}
		seen = true
		if dt == jsonparser.Object {
			name, _ = stringAt(val, "name")
		}
		return nil
	})
	return name
}

// nonNegative reads a number (or numeric string) at key, clamping anything
// negative or non-finite to 0.
func nonNegative(data []byte, key string) float64 {
	value, typ, _, err := jsonparser.Get(data, key)
	if err != nil || (typ != jsonparser.Number && typ != jsonparser.String) {
		return 0
	}
	f, err := cast.ToFloat64E(strings.TrimSpace(string(value)))
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// count reads a non-negative integer at key. Integer literals are parsed
// exactly; anything else goes through nonNegative and is truncated.
func count(data []byte, key string) int64 {
	value, typ, _, err := jsonparser.Get(data, key)
	if err == nil && typ == jsonparser.Number {
		if n, err := jsonparser.ParseInt(value); err == nil {
			return max(n, 0)
		}
	}
	return toInt64(nonNegative(data, key))
}

func toInt64(f float64) int64 {
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}
