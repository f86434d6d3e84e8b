package prediction

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tumbuhin/farmforecast/internal/models"
)

var (
	ErrNotEnoughReports = errors.New("at least 5 reports are required for analysis")
	ErrNoPredictions    = errors.New("no predictions generated")
)

const DefaultAITimeout = 15 * time.Second

type State string

const (
	StateIdle       State = "idle"
	StateTriggering State = "triggering"
	StateDegraded   State = "degraded"
	StateSettled    State = "settled"
)

// Source is a live collection the engine reads and watches. Loading is true
// until the collection's initial fetch has settled.
type Source[T any] interface {
	Rows() []T
	Len() int
	Loading() bool
	Watch() (<-chan struct{}, func())
}

type Generator interface {
	GeneratePredictions(ctx context.Context, reports []models.Report) ([]models.Prediction, error)
}

// Store replaces the persisted predictions.
type Store interface {
	DeleteAll(ctx context.Context) error
	InsertBatch(ctx context.Context, rows []models.Prediction) error
}

type Status struct {
	State       State  `json:"state"`
	Generating  bool   `json:"generating"`
	Processed   int    `json:"processed"`
	Reports     int    `json:"reports"`
	NextTrigger int    `json:"next_trigger"`
	UntilNext   int    `json:"until_next"`
	Note        string `json:"note,omitempty"`
	Source      string `json:"source"`
}

// Engine runs at most one AI analysis at a time and keeps the predictions
// that could not be persisted.
type Engine struct {
	reports     Source[models.Report]
	predictions Source[models.Prediction]
	ai          Generator
	store       Store
	timeout     time.Duration

	mu         sync.Mutex
	state      State
	generating bool
	processed  int
	forced     bool
	held       []models.Prediction
	note       string

	wg sync.WaitGroup
}

func NewEngine(reports Source[models.Report], predictions Source[models.Prediction], ai Generator, store Store, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultAITimeout
	}
	return &Engine{
		reports:     reports,
		predictions: predictions,
		ai:          ai,
		store:       store,
		timeout:     timeout,
		state:       StateIdle,
	}
}

// Run evaluates the trigger rule whenever reports or persisted predictions
// change, until ctx is done or a source closes.
func (e *Engine) Run(ctx context.Context) {
	reportsChanged, stopReports := e.reports.Watch()
	defer stopReports()
	predictionsChanged, stopPredictions := e.predictions.Watch()
	defer stopPredictions()

	e.Evaluate(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-reportsChanged:
			if !ok {
				return
			}
		case _, ok := <-predictionsChanged:
			if !ok {
				return
			}
		}
		e.Evaluate(ctx)
	}
}

// Evaluate starts an analysis when the trigger rule holds and none is in
// flight. Nothing is decided while either collection is still loading; a
// forced trigger stays pending until both have settled. It reports whether
// one was started.
func (e *Engine) Evaluate(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.generating {
		return false
	}
	if e.reports.Loading() || e.predictions.Loading() {
		return false
	}
	reports := e.reports.Rows()
	forced := e.forced && len(reports) >= MinReports
	if !forced && !ShouldTrigger(len(reports), e.predictions.Len(), e.processed) {
		return false
	}

	e.forced = false
	e.generating = true
	e.state = StateTriggering
	e.note = ""

	slog.Info("prediction analysis triggered",
		"reports", len(reports), "processed", e.processed, "forced", forced)

	e.wg.Add(1)
	go e.generate(ctx, reports)
	return true
}

func (e *Engine) generate(ctx context.Context, reports []models.Report) {
	defer e.wg.Done()

	aiCtx, cancel := context.WithTimeout(ctx, e.timeout)
	predictions, err := e.ai.GeneratePredictions(aiCtx, reports)
	cancel()
	if err == nil && len(predictions) == 0 {
		err = ErrNoPredictions
	}

	if err != nil {
		slog.Warn("AI analysis failed, using local heuristic", "reports", len(reports), "error", err)
		fallback := withIDs(Fallback(reports))

		e.mu.Lock()
		e.held = fallback
		e.note = FallbackNote
		e.state = StateDegraded
		e.finishLocked(len(reports))
		e.mu.Unlock()
	} else {
		held := e.persist(ctx, predictions)

		e.mu.Lock()
		e.held = held
		e.state = StateSettled
		e.finishLocked(len(reports))
		e.mu.Unlock()
	}

	if ctx.Err() == nil {
		e.Evaluate(ctx)
	}
}

// persist replaces the stored predictions. It returns the predictions to hold
// in memory when they could not be stored.
func (e *Engine) persist(ctx context.Context, predictions []models.Prediction) []models.Prediction {
	if err := e.store.DeleteAll(ctx); err != nil {
		slog.Error("failed to clear previous predictions", "collection", "crop_predictions", "error", err)
		return withIDs(predictions)
	}
	if err := e.store.InsertBatch(ctx, predictions); err != nil {
		slog.Error("failed to save predictions", "collection", "crop_predictions", "error", err)
		return withIDs(predictions)
	}
	slog.Info("predictions saved", "count", len(predictions))
	return nil
}

func (e *Engine) finishLocked(processed int) {
	e.processed = processed
	e.generating = false
}

// Refresh discards held predictions and forces a new analysis.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.reports.Len() < MinReports {
		e.mu.Unlock()
		return ErrNotEnoughReports
	}
	e.processed = 0
	e.held = nil
	e.note = ""
	e.forced = true
	e.mu.Unlock()

	e.Evaluate(ctx)
	return nil
}

// Predictions returns the persisted predictions, or the held ones when
// nothing is persisted.
func (e *Engine) Predictions() []models.Prediction {
	if persisted := e.predictions.Rows(); len(persisted) > 0 {
		return persisted
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.Prediction(nil), e.held...)
}

func (e *Engine) Status() Status {
	reports := e.reports.Len()
	persisted := e.predictions.Len()

	e.mu.Lock()
	defer e.mu.Unlock()

	next := NextTrigger(e.processed)
	st := Status{
		State:       e.state,
		Generating:  e.generating,
		Processed:   e.processed,
		Reports:     reports,
		NextTrigger: next,
		UntilNext:   max(next-reports, 0),
		Note:        e.note,
		Source:      "none",
	}
	switch {
	case persisted > 0:
		st.Source = "persisted"
	case len(e.held) > 0:
		st.Source = "generated"
	}
	return st
}

// Wait blocks until no analysis is running.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func withIDs(predictions []models.Prediction) []models.Prediction {
	now := time.Now().UTC()
	out := make([]models.Prediction, len(predictions))
	for i, p := range predictions {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		out[i] = p
	}
	return out
}
