package services

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/tumbuhin/farmforecast/internal/config"
	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/livesync"
	"github.com/tumbuhin/farmforecast/internal/models"
	"github.com/tumbuhin/farmforecast/internal/prediction"
	"github.com/tumbuhin/farmforecast/internal/realtime"
	"github.com/tumbuhin/farmforecast/internal/store"
)

// PredictionService mounts the reports and predictions collections and runs
// the trigger engine over them.
type PredictionService struct {
	reports     *livesync.Synchronizer[models.Report]
	predictions *livesync.Synchronizer[models.Prediction]
	engine      *prediction.Engine

	mu     sync.Mutex
	runCtx context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPredictionService(db *gorm.DB, broker realtime.Broker, cfg *config.Config, ai prediction.Generator) *PredictionService {
	predictionRepo := store.NewRepository[models.Prediction](db, broker, store.Predictions)
	reports := mount(store.NewRepository[models.Report](db, broker, store.Reports), broker, cfg.SyncFetchTimeout)
	predictions := mount(predictionRepo, broker, cfg.SyncFetchTimeout)

	return &PredictionService{
		reports:     reports,
		predictions: predictions,
		engine:      prediction.NewEngine(reports, predictions, ai, predictionRepo, cfg.AITimeout),
	}
}

func (s *PredictionService) Start(ctx context.Context) error {
	if err := startAll(ctx, s.reports, s.predictions); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.runCtx = runCtx
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.engine.Run(runCtx)
	}()
	return nil
}

func (s *PredictionService) Close() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.engine.Wait()
	closeAll(s.reports, s.predictions)
}

func (s *PredictionService) Predictions() dto.PredictionsResponse {
	st := s.predictions.Snapshot()
	rows := s.engine.Predictions()
	if rows == nil {
		rows = []models.Prediction{}
	}
	return dto.PredictionsResponse{
		Data:    rows,
		Loading: st.Loading,
		Note:    s.engine.Status().Note,
	}
}

func (s *PredictionService) Status() prediction.Status {
	return s.engine.Status()
}

// Refresh forces a new analysis. The analysis runs on the service context,
// not the caller's.
func (s *PredictionService) Refresh() error {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	return s.engine.Refresh(ctx)
}
