package livesync

import (
	"encoding/json"
	"fmt"

	"github.com/tumbuhin/farmforecast/internal/realtime"
	"github.com/tumbuhin/farmforecast/internal/store"
)

// Apply folds one change event into rows and returns the result. The input
// slice is never modified.
//
// INSERT prepends without re-sorting, UPDATE replaces the row with the same
// id in place, DELETE drops every row with that id. An UPDATE for an unknown
// id leaves rows unchanged.
func Apply[T store.Keyed](rows []T, change realtime.Change) ([]T, error) {
	payload := change.Row()
	if len(payload) == 0 {
		return rows, fmt.Errorf("%s event without row payload", change.Type)
	}
	var row T
	if err := json.Unmarshal(payload, &row); err != nil {
		return rows, fmt.Errorf("decode %s row: %w", change.Type, err)
	}

	switch change.Type {
	case realtime.EventInsert:
		out := make([]T, 0, len(rows)+1)
		out = append(out, row)
		return append(out, rows...), nil

	case realtime.EventUpdate:
		out := make([]T, len(rows))
		copy(out, rows)
		id := row.RowID()
		for i := range out {
			if out[i].RowID() == id {
				out[i] = row
			}
		}
		return out, nil

	case realtime.EventDelete:
		id := row.RowID()
		out := make([]T, 0, len(rows))
		for _, r := range rows {
			if r.RowID() != id {
				out = append(out, r)
			}
		}
		return out, nil
	}

	return rows, fmt.Errorf("unsupported event type %q", change.Type)
}
