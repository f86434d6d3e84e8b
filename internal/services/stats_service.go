package services

import (
	"context"
	"math"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/tumbuhin/farmforecast/internal/config"
	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/livesync"
	"github.com/tumbuhin/farmforecast/internal/models"
	"github.com/tumbuhin/farmforecast/internal/realtime"
	"github.com/tumbuhin/farmforecast/internal/store"
)

// Display constants shown on the community statistics page.
const (
	displayAccuracyRate = 87
	displayActiveAreas  = 156
	topN                = 4
)

type StatsService struct {
	profiles *livesync.Synchronizer[models.Profile]
	reports  *livesync.Synchronizer[models.Report]
}

func NewStatsService(db *gorm.DB, broker realtime.Broker, cfg *config.Config) *StatsService {
	return &StatsService{
		profiles: mount(store.NewRepository[models.Profile](db, broker, store.Profiles), broker, cfg.SyncFetchTimeout),
		reports:  mount(store.NewRepository[models.Report](db, broker, store.Reports), broker, cfg.SyncFetchTimeout),
	}
}

func (s *StatsService) Start(ctx context.Context) error {
	return startAll(ctx, s.profiles, s.reports)
}

func (s *StatsService) Close() { closeAll(s.profiles, s.reports) }

func (s *StatsService) Stats() dto.StatsResponse {
	profiles := s.profiles.Snapshot()
	reports := s.reports.Snapshot()
	return computeStats(len(profiles.Rows), reports.Rows, profiles.Loading || reports.Loading)
}

func computeStats(totalUsers int, reports []models.Report, loading bool) dto.StatsResponse {
	return dto.StatsResponse{
		TotalUsers:      totalUsers,
		TotalReports:    len(reports),
		AccuracyRate:    displayAccuracyRate,
		ActiveAreas:     displayActiveAreas,
		TopCrops:        topCrops(reports),
		ActiveDistricts: activeDistricts(reports),
		PestIssues:      pestIssues(reports),
		Loading:         loading,
	}
}

// tally counts keys in first-seen order.
type tally struct {
	keys   []string
	counts map[string]int
}

func newTally() *tally { return &tally{counts: make(map[string]int)} }

func (t *tally) add(key string) {
	if _, ok := t.counts[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.counts[key]++
}

func topCrops(reports []models.Report) []dto.CropShare {
	t := newTally()
	for _, r := range reports {
		t.add(strings.ToLower(r.CurrentCrop))
	}

	out := make([]dto.CropShare, 0, len(t.keys))
	for _, name := range t.keys {
		count := t.counts[name]
		out = append(out, dto.CropShare{
			Name:       capitalize(name),
			Count:      count,
			Percentage: int(math.Floor(float64(count)/float64(len(reports))*100 + 0.5)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percentage > out[j].Percentage })
	return limit(out, topN)
}

func activeDistricts(reports []models.Report) []dto.DistrictActivity {
	t := newTally()
	for _, r := range reports {
		t.add(r.District)
	}

	out := make([]dto.DistrictActivity, 0, len(t.keys))
	for _, name := range t.keys {
		n := t.counts[name]
		out = append(out, dto.DistrictActivity{
			Name:         "Kec. " + name,
			Reports:      n,
			Contributors: int(math.Floor(float64(n) * 0.7)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Reports > out[j].Reports })
	return limit(out, topN)
}

func pestIssues(reports []models.Report) []dto.PestIssue {
	t := newTally()
	for _, r := range reports {
		if r.PestIssues == nil || strings.TrimSpace(*r.PestIssues) == "" {
			continue
		}
		t.add(strings.ToLower(*r.PestIssues))
	}

	out := make([]dto.PestIssue, 0, len(t.keys))
	for _, name := range t.keys {
		out = append(out, dto.PestIssue{Issue: capitalize(name), Count: t.counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return limit(out, topN)
}

func limit[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
