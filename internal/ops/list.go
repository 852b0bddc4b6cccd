package ops

import (
	"context"

	"github.com/hpungsan/langroutes/internal/country"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Language string
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Language   string            `json:"language"`
	SnapshotID string            `json:"snapshot_id"`
	Count      int               `json:"count"`
	Items      []country.Country `json:"items"`
	Sort       string            `json:"sort"`
}

// List returns every country for a language, sorted by name.
func List(ctx context.Context, src Source, input ListInput) (*ListOutput, error) {
	loaded, err := Load(ctx, src, LoadInput(input))
	if err != nil {
		return nil, err
	}
	return Listing(loaded), nil
}

// Listing builds the List result from an already loaded table.
func Listing(loaded *LoadOutput) *ListOutput {
	return &ListOutput{
		Language:   loaded.Language,
		SnapshotID: loaded.Table.ID(),
		Count:      loaded.Table.Len(),
		Items:      loaded.Table.All(),
		Sort:       "name_asc",
	}
}
