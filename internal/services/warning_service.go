package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tumbuhin/farmforecast/internal/config"
	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/livesync"
	"github.com/tumbuhin/farmforecast/internal/models"
	"github.com/tumbuhin/farmforecast/internal/realtime"
	"github.com/tumbuhin/farmforecast/internal/store"
)

type WarningFilter struct {
	Type     models.WarningType
	Severity models.Severity
}

func (f WarningFilter) match(w models.Warning) bool {
	if f.Type != "" && w.Type != f.Type {
		return false
	}
	if f.Severity != "" && w.Severity != f.Severity {
		return false
	}
	return true
}

type WarningService struct {
	warnings *store.Repository[models.Warning]
	recorder contributionRecorder
	live     *livesync.Synchronizer[models.Warning]
}

func NewWarningService(db *gorm.DB, broker realtime.Broker, cfg *config.Config) *WarningService {
	warnings := store.NewRepository[models.Warning](db, broker, store.Warnings)
	return &WarningService{
		warnings: warnings,
		recorder: contributionRecorder{
			profiles:      store.NewRepository[models.Profile](db, broker, store.Profiles),
			contributions: store.NewRepository[models.Contribution](db, broker, store.Contributions),
		},
		live: mount(warnings, broker, cfg.SyncFetchTimeout),
	}
}

func (s *WarningService) Start(ctx context.Context) error { return s.live.Start(ctx) }

func (s *WarningService) Close() { s.live.Close() }

func (s *WarningService) Submit(ctx context.Context, userID uuid.UUID, req *dto.SubmitWarningRequest) (*models.Warning, error) {
	trimFields(req)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	warning := &models.Warning{
		Type:        models.WarningType(req.Type),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Severity:    models.Severity(req.Severity),
		ReportedBy:  1,
		Date:        time.Now().UTC(),
		IsActive:    true,
	}
	if err := s.warnings.Insert(ctx, warning); err != nil {
		return nil, fmt.Errorf("failed to save warning: %w", err)
	}

	s.recorder.record(ctx, userID, nil, models.ContributionWarningReport, warningPoints,
		"Warning report: "+req.Title)

	return warning, nil
}

// List returns live warnings, newest first, narrowed by the filter.
func (s *WarningService) List(filter WarningFilter) dto.WarningListResponse {
	st := s.live.Snapshot()
	rows := make([]models.Warning, 0, len(st.Rows))
	for _, w := range st.Rows {
		if filter.match(w) {
			rows = append(rows, w)
		}
	}
	st.Rows = rows
	return toCollection(st)
}

func (s *WarningService) Deactivate(ctx context.Context, id uuid.UUID) (*models.Warning, error) {
	return s.warnings.Update(ctx, id, map[string]any{"is_active": false})
}
