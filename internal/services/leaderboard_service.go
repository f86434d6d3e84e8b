package services

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tumbuhin/farmforecast/internal/config"
	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/livesync"
	"github.com/tumbuhin/farmforecast/internal/models"
	"github.com/tumbuhin/farmforecast/internal/realtime"
	"github.com/tumbuhin/farmforecast/internal/store"
)

const leaderboardSize = 10

var badges = []string{"gold", "silver", "bronze"}

// LeaderboardService ranks contributors by Profile.contributions. The
// contributions ledger is not consulted.
type LeaderboardService struct {
	profiles *livesync.Synchronizer[models.Profile]
	reports  *livesync.Synchronizer[models.Report]
}

func NewLeaderboardService(db *gorm.DB, broker realtime.Broker, cfg *config.Config) *LeaderboardService {
	return &LeaderboardService{
		profiles: mount(store.NewRepository[models.Profile](db, broker, store.Profiles), broker, cfg.SyncFetchTimeout),
		reports:  mount(store.NewRepository[models.Report](db, broker, store.Reports), broker, cfg.SyncFetchTimeout),
	}
}

func (s *LeaderboardService) Start(ctx context.Context) error {
	return startAll(ctx, s.profiles, s.reports)
}

func (s *LeaderboardService) Close() { closeAll(s.profiles, s.reports) }

// Leaderboard builds the ranking. When viewer is set, Me carries the
// viewer's own position among all contributors.
func (s *LeaderboardService) Leaderboard(viewer *uuid.UUID) dto.LeaderboardResponse {
	profiles := s.profiles.Snapshot()
	reports := s.reports.Snapshot()

	ranked := rankContributors(profiles.Rows)
	resp := dto.LeaderboardResponse{
		Leaders:   limit(ranked, leaderboardSize),
		Districts: rankDistricts(reports.Rows),
		Loading:   profiles.Loading,
	}
	if viewer != nil {
		for i := range ranked {
			if ranked[i].UserID == *viewer {
				me := ranked[i]
				resp.Me = &me
				break
			}
		}
	}
	return resp
}

func rankContributors(profiles []models.Profile) []dto.LeaderboardEntry {
	active := make([]models.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.Contributions > 0 {
			active = append(active, p)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Contributions != active[j].Contributions {
			return active[i].Contributions > active[j].Contributions
		}
		return active[i].AccuracyScore > active[j].AccuracyScore
	})

	out := make([]dto.LeaderboardEntry, len(active))
	for i, p := range active {
		badge := "none"
		if i < len(badges) {
			badge = badges[i]
		}
		location := "Unknown"
		if p.Location != nil && *p.Location != "" {
			location = *p.Location
		}
		out[i] = dto.LeaderboardEntry{
			Rank:          i + 1,
			UserID:        p.ID,
			Name:          p.Name,
			Location:      location,
			Contributions: p.Contributions,
			Accuracy:      int(math.Floor(p.AccuracyScore + 0.5)),
			Badge:         badge,
		}
	}
	return out
}

func rankDistricts(reports []models.Report) []dto.DistrictRanking {
	t := newTally()
	members := make(map[string]map[uuid.UUID]struct{})
	for _, r := range reports {
		name := "Kec. " + r.District
		t.add(name)
		if members[name] == nil {
			members[name] = make(map[uuid.UUID]struct{})
		}
		members[name][r.UserID] = struct{}{}
	}

	out := make([]dto.DistrictRanking, 0, len(t.keys))
	for _, name := range t.keys {
		out = append(out, dto.DistrictRanking{
			Name:    name,
			Reports: t.counts[name],
			Members: len(members[name]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Reports > out[j].Reports })
	return limit(out, topN)
}
