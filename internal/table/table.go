// Package table assembles normalized countries into an immutable,
// name-ordered snapshot that supports ranking and lookup.
package table

import (
	"cmp"
	"crypto/rand"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/langroutes/internal/country"
	"github.com/hpungsan/langroutes/internal/errors"
)

// DefaultTopN is the ranking size used when callers do not pick one.
const DefaultTopN = 10

// Field selects the numeric column used for ranking.
type Field string

const (
	FieldPopulation Field = "population"
	FieldArea       Field = "area"
)

// Fields lists the rankable fields in display order.
var Fields = []Field{FieldPopulation, FieldArea}

// ParseField parses a field name. Empty input selects population.
func ParseField(s string) (Field, error) {
	switch Field(strings.ToLower(strings.TrimSpace(s))) {
	case "", FieldPopulation:
		return FieldPopulation, nil
	case FieldArea:
		return FieldArea, nil
	default:
		return "", errors.NewInvalidRequest("field must be one of: population, area")
	}
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	return f == FieldPopulation || f == FieldArea
}

// Value returns the field's value for c.
func (f Field) Value(c country.Country) float64 {
	if f == FieldArea {
		return c.Area
	}
	return float64(c.Population)
}

// Compare orders a and b by the field's value, ascending.
// Populations compare as int64 so values past 2^53 stay distinct.
func (f Field) Compare(a, b country.Country) int {
	if f == FieldArea {
		return cmp.Compare(a.Area, b.Area)
	}
	return cmp.Compare(a.Population, b.Population)
}

// Label is the axis label used by chart renderers.
func (f Field) Label() string {
	if f == FieldArea {
		return "Area (km²)"
	}
	return "Population"
}

// Table is a name-sorted snapshot of countries for one language query.
// It is never modified after Build; every accessor returns copies.
type Table struct {
	id      string
	builtAt time.Time
	rows    []country.Country
}

// Build sorts a copy of countries by name, ascending and stable.
// Duplicate names are kept as separate rows in their input order.
func Build(countries []country.Country) *Table {
	rows := slices.Clone(countries)
	if rows == nil {
		rows = []country.Country{}
	}
	slices.SortStableFunc(rows, func(a, b country.Country) int {
		return strings.Compare(a.Name, b.Name)
	})

	now := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)

	return &Table{
		id:      ulid.MustNew(ulid.Timestamp(now), entropy).String(),
		builtAt: now,
		rows:    rows,
	}
}

// ID identifies this snapshot. Every Build gets a new one.
func (t *Table) ID() string { return t.id }

// BuiltAt is when the snapshot was built (UTC).
func (t *Table) BuiltAt() time.Time { return t.builtAt }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// At returns the i-th row in name order.
func (t *Table) At(i int) country.Country { return t.rows[i] }

// All returns every row in name order.
func (t *Table) All() []country.Country {
	return slices.Clone(t.rows)
}

// Names returns the row names in name order, duplicates included.
func (t *Table) Names() []string {
	names := make([]string, len(t.rows))
	for i, c := range t.rows {
		names[i] = c.Name
	}
	return names
}

// FindByName returns the first row whose Name equals name exactly.
func (t *Table) FindByName(name string) (country.Country, error) {
	for _, c := range t.rows {
		if c.Name == name {
			return c, nil
		}
	}
	return country.Country{}, errors.NewNotFound(name)
}

// Top returns the n rows with the largest field value, descending.
// Equal values keep table order. n <= 0 yields an empty slice and n larger
// than the table yields every row.
func (t *Table) Top(field Field, n int) ([]country.Country, error) {
	if !field.Valid() {
		return nil, errors.NewInvalidRequest("field must be one of: population, area")
	}
	if n <= 0 {
		return []country.Country{}, nil
	}

	ranked := slices.Clone(t.rows)
	slices.SortStableFunc(ranked, func(a, b country.Country) int {
		return field.Compare(b, a)
	})

	return ranked[:min(n, len(ranked))], nil
}

// Point is one bar of a ranking chart.
type Point struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Series converts ranked countries to (name, value) pairs for chart renderers.
func Series(countries []country.Country, field Field) []Point {
	points := make([]Point, len(countries))
	for i, c := range countries {
		points[i] = Point{Name: c.Name, Value: field.Value(c)}
	}
	return points
}
