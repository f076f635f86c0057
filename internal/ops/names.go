package ops

import (
	"context"

	"github.com/hpungsan/statustracker/internal/errors"
)

// NamesInput contains parameters for the ListNames operation.
type NamesInput struct{}

// NameEntry is one tracked entity and its index in the name map.
type NameEntry struct {
	Index int    `json:"index"`
	UUID  string `json:"uuid"`
}

// NamesOutput contains the result of the ListNames operation.
type NamesOutput struct {
	Names []NameEntry `json:"names"`
	Count int         `json:"count"`
}

// ListNames returns the server's name map in index order.
func ListNames(ctx context.Context, src Source, _ NamesInput) (*NamesOutput, error) {
	nm := src.NameMap(ctx)
	if nm == nil {
		return nil, errors.NewNoData("/name_map")
	}

	out := &NamesOutput{Names: make([]NameEntry, len(nm)), Count: len(nm)}
	for i, id := range nm {
		out.Names[i] = NameEntry{Index: i, UUID: id}
	}
	return out, nil
}
