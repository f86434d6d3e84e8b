package prediction

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/tumbuhin/farmforecast/internal/models"
)

func report(crop string, yield float64, cond models.HarvestCondition, district string, soil models.SoilType) models.Report {
	return models.Report{
		ID:                   uuid.New(),
		Location:             "Desa Sukamaju",
		District:             district,
		SoilType:             soil,
		LandCondition:        models.LandNormal,
		CurrentCrop:          crop,
		LastHarvestQuantity:  yield,
		LastHarvestCondition: cond,
		WeatherCondition:     "Hujan ringan",
	}
}

func reports(n int) []models.Report {
	out := make([]models.Report, n)
	for i := range out {
		out[i] = report("padi", 900, models.HarvestGood, "Cianjur", models.SoilLoam)
	}
	return out
}

type fakeSource[T any] struct {
	mu      sync.Mutex
	rows    []T
	loading bool
	ch      chan struct{}
}

func newSource[T any](rows ...T) *fakeSource[T] {
	return &fakeSource[T]{rows: rows, ch: make(chan struct{}, 1)}
}

func (s *fakeSource[T]) Rows() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.rows...)
}

func (s *fakeSource[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *fakeSource[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *fakeSource[T]) Watch() (<-chan struct{}, func()) { return s.ch, func() {} }

func (s *fakeSource[T]) set(rows []T) {
	s.mu.Lock()
	s.rows = rows
	s.loading = false
	s.mu.Unlock()
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

type fakeGenerator struct {
	calls atomic.Int32
	fn    func(ctx context.Context, reports []models.Report) ([]models.Prediction, error)
}

func (g *fakeGenerator) GeneratePredictions(ctx context.Context, reports []models.Report) ([]models.Prediction, error) {
	g.calls.Add(1)
	return g.fn(ctx, reports)
}

func succeeding() *fakeGenerator {
	return &fakeGenerator{fn: func(context.Context, []models.Report) ([]models.Prediction, error) {
		return []models.Prediction{{Name: "Padi", Suitability: models.SuitabilityHigh, EstimatedYield: "5-6 ton/ha", Description: "AI", Icon: "🌾"}}, nil
	}}
}

func failing() *fakeGenerator {
	return &fakeGenerator{fn: func(context.Context, []models.Report) ([]models.Prediction, error) {
		return nil, errors.New("402 payment required")
	}}
}

// fakeStore mirrors writes into the predictions source the way the live
// synchronizer would. A nil target only counts calls.
type fakeStore struct {
	target    *fakeSource[models.Prediction]
	insertErr error
	deletes   atomic.Int32
}

func (s *fakeStore) DeleteAll(context.Context) error {
	s.deletes.Add(1)
	if s.target != nil {
		s.target.set(nil)
	}
	return nil
}

func (s *fakeStore) InsertBatch(_ context.Context, rows []models.Prediction) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	if s.target == nil {
		return nil
	}
	s.target.set(append([]models.Prediction(nil), rows...))
	return nil
}
