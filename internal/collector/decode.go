package collector

import (
	"encoding/json"
	"fmt"

	"github.com/DanchukIvan/byteflow/internal/types"
)

// JSONItemDecoder builds a Decode[*types.Item] that unmarshals a fetched
// JSON object body straight into an Item's Fields. The Collector fills in
// the item's source URL itself once decode returns, via urlSetter.
func JSONItemDecoder() Decode[*types.Item] {
	return func(body []byte) (*types.Item, error) {
		var fields map[string]any
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("decode json item: %w", err)
		}
		item := types.NewItem("")
		item.Fields = fields
		return item, nil
	}
}

// JSONArrayItemDecoder is like JSONItemDecoder but for endpoints whose page
// body is a JSON array; the whole array is kept as one Item's "rows" field,
// since the Resource's page axis (not a second EOR-resolved axis) already
// walks the array boundary.
func JSONArrayItemDecoder() Decode[*types.Item] {
	return func(body []byte) (*types.Item, error) {
		var rows []map[string]any
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode json array item: %w", err)
		}
		item := types.NewItem("")
		item.Set("rows", rows)
		return item, nil
	}
}

// urlSetter is satisfied by any decoded record type that can record which
// URL produced it. *types.Item implements it; decoded types that don't care
// about source URLs simply don't satisfy it, and setSourceURL is a no-op.
type urlSetter interface {
	SetSourceURL(url string)
}

func setSourceURL[T any](rec T, url string) {
	if s, ok := any(rec).(urlSetter); ok {
		s.SetSourceURL(url)
	}
}
