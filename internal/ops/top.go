package ops

import (
	"context"

	"github.com/hpungsan/langroutes/internal/errors"
	"github.com/hpungsan/langroutes/internal/table"
)

// MaxTopN bounds the ranking size accepted from callers.
const MaxTopN = 250

// TopInput contains parameters for the Top operation.
type TopInput struct {
	Language string
	Field    string // population (default) or area
	N        *int   // default: table.DefaultTopN (nil means default)
}

// RankItem is one row of a ranking.
type RankItem struct {
	Rank       int     `json:"rank"`
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Population int64   `json:"population"`
	Area       float64 `json:"area"`
}

// TopOutput contains the result of the Top operation.
type TopOutput struct {
	Language   string     `json:"language"`
	SnapshotID string     `json:"snapshot_id"`
	Field      string     `json:"field"`
	Label      string     `json:"label"`
	N          int        `json:"n"`
	Items      []RankItem `json:"items"`
}

// Top ranks the countries of a language by population or area.
func Top(ctx context.Context, src Source, input TopInput) (*TopOutput, error) {
	field, n, err := parseTopParams(input.Field, input.N)
	if err != nil {
		return nil, err
	}

	loaded, err := Load(ctx, src, LoadInput{Language: input.Language})
	if err != nil {
		return nil, err
	}
	return rank(loaded, field, n)
}

// Rank ranks an already loaded table, so one query cycle can feed both a
// ranking and a lookup without fetching twice.
func Rank(loaded *LoadOutput, fieldName string, n *int) (*TopOutput, error) {
	field, size, err := parseTopParams(fieldName, n)
	if err != nil {
		return nil, err
	}
	return rank(loaded, field, size)
}

func parseTopParams(fieldName string, n *int) (table.Field, int, error) {
	field, err := table.ParseField(fieldName)
	if err != nil {
		return "", 0, err
	}

	size := table.DefaultTopN
	if n != nil {
		size = *n
	}
	if size < 0 {
		return "", 0, errors.NewInvalidRequest("n must be >= 0")
	}
	if size > MaxTopN {
		size = MaxTopN
	}
	return field, size, nil
}

func rank(loaded *LoadOutput, field table.Field, n int) (*TopOutput, error) {
	top, err := loaded.Table.Top(field, n)
	if err != nil {
		return nil, err
	}

	points := table.Series(top, field)
	items := make([]RankItem, len(top))
	for i, c := range top {
		items[i] = RankItem{
			Rank:       i + 1,
			Name:       points[i].Name,
			Value:      points[i].Value,
			Population: c.Population,
			Area:       c.Area,
		}
	}

	return &TopOutput{
		Language:   loaded.Language,
		SnapshotID: loaded.Table.ID(),
		Field:      string(field),
		Label:      field.Label(),
		N:          n,
		Items:      items,
	}, nil
}
