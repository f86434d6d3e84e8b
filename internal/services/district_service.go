package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tumbuhin/farmforecast/internal/config"
	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/livesync"
	"github.com/tumbuhin/farmforecast/internal/models"
	"github.com/tumbuhin/farmforecast/internal/realtime"
	"github.com/tumbuhin/farmforecast/internal/store"
)

type DistrictService struct {
	live *livesync.Synchronizer[models.District]
}

func NewDistrictService(db *gorm.DB, broker realtime.Broker, cfg *config.Config) *DistrictService {
	return &DistrictService{
		live: mount(store.NewRepository[models.District](db, broker, store.Districts), broker, cfg.SyncFetchTimeout),
	}
}

func (s *DistrictService) Start(ctx context.Context) error { return s.live.Start(ctx) }

func (s *DistrictService) Close() { s.live.Close() }

func (s *DistrictService) List() dto.DistrictListResponse {
	return toCollection(s.live.Snapshot())
}
