package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tumbuhin/farmforecast/internal/config"
	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/livesync"
	"github.com/tumbuhin/farmforecast/internal/models"
	"github.com/tumbuhin/farmforecast/internal/realtime"
	"github.com/tumbuhin/farmforecast/internal/store"
)

type ReportService struct {
	reports  *store.Repository[models.Report]
	recorder contributionRecorder
	live     *livesync.Synchronizer[models.Report]
}

func NewReportService(db *gorm.DB, broker realtime.Broker, cfg *config.Config) *ReportService {
	reports := store.NewRepository[models.Report](db, broker, store.Reports)
	return &ReportService{
		reports: reports,
		recorder: contributionRecorder{
			profiles:      store.NewRepository[models.Profile](db, broker, store.Profiles),
			contributions: store.NewRepository[models.Contribution](db, broker, store.Contributions),
		},
		live: mount(reports, broker, cfg.SyncFetchTimeout),
	}
}

func (s *ReportService) Start(ctx context.Context) error { return s.live.Start(ctx) }

func (s *ReportService) Close() { s.live.Close() }

// Submit stores a farm report and then credits the reporter. Only the
// report insert can fail the submission.
func (s *ReportService) Submit(ctx context.Context, userID uuid.UUID, req *dto.SubmitReportRequest) (*models.Report, error) {
	trimFields(req)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	report := &models.Report{
		UserID:               userID,
		Location:             req.Location,
		District:             req.District,
		SoilType:             models.SoilType(req.SoilType),
		LandCondition:        models.LandCondition(req.LandCondition),
		CurrentCrop:          req.CurrentCrop,
		LastHarvestQuantity:  req.LastHarvestQuantity,
		LastHarvestCondition: models.HarvestCondition(req.LastHarvestCondition),
		WeatherCondition:     req.WeatherCondition,
	}
	if req.PestIssues != "" {
		report.PestIssues = &req.PestIssues
	}

	if err := s.reports.Insert(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	location := fmt.Sprintf("%s, Kec. %s", req.Location, req.District)
	s.recorder.record(ctx, userID, &location, models.ContributionFarmData, farmDataPoints,
		fmt.Sprintf("Data submission for %s in %s", req.CurrentCrop, req.Location))

	return report, nil
}

// List returns the live reports, newest first.
func (s *ReportService) List() dto.ReportListResponse {
	return toCollection(s.live.Snapshot())
}

func (s *ReportService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.reports.Delete(ctx, id)
}
