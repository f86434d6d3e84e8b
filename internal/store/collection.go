package store

import (
	"errors"

	"github.com/google/uuid"
)

// Collection names a synchronized table.
type Collection string

const (
	Profiles      Collection = "profiles"
	Reports       Collection = "farm_data"
	Warnings      Collection = "warnings"
	Predictions   Collection = "crop_predictions"
	Contributions Collection = "contributions"
	Districts     Collection = "districts"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrUnknownCollection = errors.New("unknown collection")
)

var collections = map[Collection]struct{}{
	Profiles:      {},
	Reports:       {},
	Warnings:      {},
	Predictions:   {},
	Contributions: {},
	Districts:     {},
}

// ParseCollection accepts only the closed set of synchronized collections.
func ParseCollection(s string) (Collection, error) {
	c := Collection(s)
	if _, ok := collections[c]; !ok {
		return "", ErrUnknownCollection
	}
	return c, nil
}

// Keyed rows are matched by id when change events are applied.
type Keyed interface {
	RowID() uuid.UUID
}
