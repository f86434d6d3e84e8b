package services

import (
	"context"
	"time"

	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/livesync"
	"github.com/tumbuhin/farmforecast/internal/realtime"
	"github.com/tumbuhin/farmforecast/internal/store"
)

// Mounted is anything with a start and teardown lifecycle: services that
// own live collections, and the collections themselves.
type Mounted interface {
	Start(ctx context.Context) error
	Close()
}

func mount[T store.Keyed](repo *store.Repository[T], sub realtime.Subscriber, fetchTimeout time.Duration) *livesync.Synchronizer[T] {
	return livesync.New[T](repo.Collection(), repo, sub, livesync.WithFetchTimeout[T](fetchTimeout))
}

func startAll(ctx context.Context, parts ...Mounted) error {
	for i, p := range parts {
		if err := p.Start(ctx); err != nil {
			closeAll(parts[:i]...)
			return err
		}
	}
	return nil
}

func closeAll(parts ...Mounted) {
	for _, p := range parts {
		p.Close()
	}
}

func toCollection[T any](st livesync.State[T]) dto.CollectionResponse[T] {
	return dto.CollectionResponse[T]{Data: st.Rows, Loading: st.Loading, Error: st.Err}
}
