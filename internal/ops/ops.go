package ops

import (
	"context"

	"github.com/hpungsan/langroutes/internal/country"
	"github.com/hpungsan/langroutes/internal/errors"
	"github.com/hpungsan/langroutes/internal/table"
)

// Source fetches raw records for a normalized language key.
// Implemented by restcountries.Client and cache.Source.
type Source interface {
	FetchByLanguage(ctx context.Context, language string) ([]country.RawRecord, error)
}

// NormalizeLanguage trims and lowercases a user-supplied language key.
// Returns ErrInvalidRequest if nothing is left.
func NormalizeLanguage(s string) (string, error) {
	lang := country.NormalizeKey(s)
	if lang == "" {
		return "", errors.NewInvalidRequest("language is required")
	}
	return lang, nil
}

// LoadInput contains parameters for the Load operation.
type LoadInput struct {
	Language string
}

// LoadOutput is one query cycle: the normalized key and its table.
type LoadOutput struct {
	Language string
	Table    *table.Table
}

// Load fetches, normalizes and builds the table for one language.
// An empty fetch is ErrNoDataFound; transport failures pass through.
func Load(ctx context.Context, src Source, input LoadInput) (*LoadOutput, error) {
	lang, err := NormalizeLanguage(input.Language)
	if err != nil {
		return nil, err
	}

	raws, err := src.FetchByLanguage(ctx, lang)
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, errors.NewNoDataFound(lang)
	}

	return &LoadOutput{
		Language: lang,
		Table:    table.Build(country.NormalizeAll(raws)),
	}, nil
}
