// Package livesync keeps an in-memory copy of a collection current: one
// ordered initial fetch followed by live change events.
package livesync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tumbuhin/farmforecast/internal/realtime"
	"github.com/tumbuhin/farmforecast/internal/store"
)

// DefaultFetchTimeout bounds the initial fetch when no option overrides it.
const DefaultFetchTimeout = 10 * time.Second

var ErrClosed = errors.New("synchronizer closed")

// Lister performs the initial ordered fetch.
type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// State is a point-in-time copy of a Synchronizer.
type State[T any] struct {
	Rows    []T
	Loading bool
	Err     string
}

// Option configures a Synchronizer.
type Option[T store.Keyed] func(*Synchronizer[T])

// WithFetchTimeout overrides DefaultFetchTimeout. Non-positive values are ignored.
func WithFetchTimeout[T store.Keyed](d time.Duration) Option[T] {
	return func(s *Synchronizer[T]) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithInitial seeds the rows shown while the first fetch is loading.
func WithInitial[T store.Keyed](rows []T) Option[T] {
	return func(s *Synchronizer[T]) {
		s.rows = append([]T(nil), rows...)
	}
}

// Synchronizer mirrors one collection in memory.
type Synchronizer[T store.Keyed] struct {
	collection   store.Collection
	lister       Lister[T]
	subscriber   realtime.Subscriber
	fetchTimeout time.Duration

	mu      sync.RWMutex
	rows    []T
	loading bool
	err     string
	live    bool
	gen     uint64
	cancel  context.CancelFunc
	closed  bool
	watches map[chan struct{}]struct{}

	wg sync.WaitGroup
}

// New returns an idle Synchronizer in the loading state. Nothing is fetched
// until Start.
func New[T store.Keyed](collection store.Collection, lister Lister[T], subscriber realtime.Subscriber, opts ...Option[T]) *Synchronizer[T] {
	s := &Synchronizer[T]{
		collection:   collection,
		lister:       lister,
		subscriber:   subscriber,
		fetchTimeout: DefaultFetchTimeout,
		loading:      true,
		watches:      make(map[chan struct{}]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Synchronizer[T]) Collection() store.Collection {
	return s.collection
}

// Start begins a fetch and subscribe cycle. Calling Start on a running
// instance is the same as Restart.
func (s *Synchronizer[T]) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.beginLocked(ctx)
	return nil
}

// Restart tears down the current cycle and starts a new one. Events still in
// flight for the old cycle are discarded.
func (s *Synchronizer[T]) Restart(ctx context.Context) error {
	return s.Start(ctx)
}

// Close ends the instance permanently and waits for its goroutine to exit.
func (s *Synchronizer[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.live = false
	s.gen++
	if s.cancel != nil {
		s.cancel()
	}
	for ch := range s.watches {
		close(ch)
	}
	s.watches = nil
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Synchronizer[T]) beginLocked(parent context.Context) {
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.loading = true
	s.err = ""
	s.live = false

	gen := s.gen
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, gen)
	}()
}

func (s *Synchronizer[T]) run(ctx context.Context, gen uint64) {
	s.fetch(ctx, gen)
	if ctx.Err() != nil {
		return
	}

	sub, err := s.subscriber.Subscribe(ctx, string(s.collection))
	if err != nil {
		slog.Warn("realtime subscription failed, snapshot is read-only",
			"collection", string(s.collection), "error", err)
		return
	}
	defer sub.Close()

	s.mu.Lock()
	if s.gen == gen {
		s.live = true
	}
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-sub.Changes():
			if !ok {
				slog.Warn("realtime subscription ended, snapshot is read-only",
					"collection", string(s.collection))
				s.mu.Lock()
				if s.gen == gen {
					s.live = false
				}
				s.mu.Unlock()
				return
			}
			if change.Table != string(s.collection) {
				continue
			}
			s.apply(gen, change)
		}
	}
}

func (s *Synchronizer[T]) fetch(ctx context.Context, gen uint64) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	type result struct {
		rows []T
		err  error
	}
	done := make(chan result, 1)
	go func() {
		rows, err := s.lister.List(fetchCtx)
		done <- result{rows: rows, err: err}
	}()

	var (
		rows   []T
		errMsg string
	)
	select {
	case res := <-done:
		if ctx.Err() != nil {
			return
		}
		switch {
		case res.err == nil:
			rows = res.rows
		case errors.Is(res.err, context.DeadlineExceeded):
			slog.Warn("initial fetch timed out", "collection", string(s.collection))
		default:
			errMsg = res.err.Error()
			slog.Error("initial fetch failed", "collection", string(s.collection), "error", res.err)
		}
	case <-fetchCtx.Done():
		// A lister that ignores its context is abandoned; its result is dropped.
		if ctx.Err() != nil {
			return
		}
		slog.Warn("initial fetch timed out", "collection", string(s.collection))
	}

	s.mu.Lock()
	if s.gen != gen || s.closed {
		s.mu.Unlock()
		return
	}
	if rows == nil {
		rows = []T{}
	}
	s.rows = rows
	s.loading = false
	s.err = errMsg
	s.mu.Unlock()
	s.notify()
}

func (s *Synchronizer[T]) apply(gen uint64, change realtime.Change) {
	s.mu.Lock()
	if s.gen != gen || s.closed {
		s.mu.Unlock()
		return
	}
	rows, err := Apply(s.rows, change)
	if err != nil {
		s.mu.Unlock()
		slog.Warn("dropping change event", "collection", string(s.collection), "error", err)
		return
	}
	s.rows = rows
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a copy of the current state.
func (s *Synchronizer[T]) Snapshot() State[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]T, len(s.rows))
	copy(rows, s.rows)
	return State[T]{
		Rows:    rows,
		Loading: s.loading,
		Err:     s.err,
	}
}

// Rows returns a copy of the current array.
func (s *Synchronizer[T]) Rows() []T {
	return s.Snapshot().Rows
}

// Live reports whether the current cycle is receiving change events.
func (s *Synchronizer[T]) Live() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

// Loading reports whether the current cycle's initial fetch is still pending.
func (s *Synchronizer[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Synchronizer[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Watch returns a signal that fires after the array changes. Bursts of
// changes coalesce into one pending signal. The channel is closed by Close
// or by the returned stop func.
func (s *Synchronizer[T]) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.watches[ch] = struct{}{}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.watches[ch]; ok {
				delete(s.watches, ch)
				close(ch)
			}
		})
	}
	return ch, stop
}

func (s *Synchronizer[T]) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.watches {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
