package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/models"
)

func farmReport(user uuid.UUID, crop, district string, pest *string) models.Report {
	return models.Report{
		ID:          uuid.New(),
		UserID:      user,
		District:    district,
		CurrentCrop: crop,
		PestIssues:  pest,
	}
}

func TestComputeStats(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	wereng, wereng2, ulat, blank := "Wereng", "wereng", "ulat grayak", " "
	reports := []models.Report{
		farmReport(u1, "Padi", "Cianjur", &wereng),
		farmReport(u1, "padi", "Cianjur", &wereng2),
		farmReport(u2, "jagung", "Pacet", &ulat),
		farmReport(u2, "Padi", "Cianjur", &blank),
		farmReport(u2, "cabai", "Cugenang", nil),
		farmReport(u2, "tomat", "Sukaresmi", nil),
		farmReport(u2, "wortel", "Cipanas", nil),
	}

	st := computeStats(12, reports, false)

	assert.Equal(t, 12, st.TotalUsers)
	assert.Equal(t, 7, st.TotalReports)
	assert.Equal(t, 87, st.AccuracyRate)
	assert.Equal(t, 156, st.ActiveAreas)

	require.Len(t, st.TopCrops, 4)
	assert.Equal(t, dto.CropShare{Name: "Padi", Count: 3, Percentage: 43}, st.TopCrops[0])
	assert.Equal(t, "Jagung", st.TopCrops[1].Name)
	assert.Equal(t, 14, st.TopCrops[1].Percentage)

	require.Len(t, st.ActiveDistricts, 4)
	assert.Equal(t, dto.DistrictActivity{Name: "Kec. Cianjur", Reports: 3, Contributors: 2}, st.ActiveDistricts[0])
	assert.Equal(t, 0, st.ActiveDistricts[1].Contributors)

	assert.Equal(t, []dto.PestIssue{{Issue: "Wereng", Count: 2}, {Issue: "Ulat grayak", Count: 1}}, st.PestIssues)
}

func TestRankContributors(t *testing.T) {
	loc := "Desa Sukamaju, Kec. Cianjur"
	profiles := []models.Profile{
		{ID: uuid.New(), Name: "nol", Contributions: 0, AccuracyScore: 99},
		{ID: uuid.New(), Name: "b", Contributions: 5, AccuracyScore: 80.4},
		{ID: uuid.New(), Name: "a", Contributions: 5, AccuracyScore: 90.5, Location: &loc},
		{ID: uuid.New(), Name: "c", Contributions: 9},
		{ID: uuid.New(), Name: "d", Contributions: 1},
	}

	got := rankContributors(profiles)
	require.Len(t, got, 4)
	names := []string{got[0].Name, got[1].Name, got[2].Name, got[3].Name}
	assert.Equal(t, []string{"c", "a", "b", "d"}, names)
	assert.Equal(t, []string{"gold", "silver", "bronze", "none"}, []string{got[0].Badge, got[1].Badge, got[2].Badge, got[3].Badge})
	assert.Equal(t, 91, got[1].Accuracy)
	assert.Equal(t, 80, got[2].Accuracy)
	assert.Equal(t, loc, got[1].Location)
	assert.Equal(t, "Unknown", got[2].Location)
	assert.Equal(t, 4, got[3].Rank)
}

func TestRankDistricts(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	got := rankDistricts([]models.Report{
		farmReport(u1, "padi", "Pacet", nil),
		farmReport(u1, "padi", "Cianjur", nil),
		farmReport(u2, "padi", "Cianjur", nil),
		farmReport(u1, "padi", "Cianjur", nil),
	})

	require.Len(t, got, 2)
	assert.Equal(t, dto.DistrictRanking{Name: "Kec. Cianjur", Reports: 3, Members: 2}, got[0])
	assert.Equal(t, dto.DistrictRanking{Name: "Kec. Pacet", Reports: 1, Members: 1}, got[1])
}

func TestLeaderboardService_ViewerRank(t *testing.T) {
	db := setupDB(t)
	svc := NewLeaderboardService(db, newHub(t), testConfig())

	var ids []uuid.UUID
	for i := 0; i < 12; i++ {
		p := seedProfile(t, db, "petani"+string(rune('a'+i)), 20-i, 0)
		ids = append(ids, p.ID)
	}
	outsider := seedProfile(t, db, "baru", 0, 0)

	started(t, svc)
	waitLive(t, svc.profiles, svc.reports)

	resp := svc.Leaderboard(&ids[11])
	assert.Len(t, resp.Leaders, 10)
	require.NotNil(t, resp.Me)
	assert.Equal(t, 12, resp.Me.Rank)

	assert.Nil(t, svc.Leaderboard(&outsider.ID).Me)
	assert.Nil(t, svc.Leaderboard(nil).Me)
}

func TestStatsService_Live(t *testing.T) {
	db := setupDB(t)
	hub := newHub(t)
	stats := NewStatsService(db, hub, testConfig())
	reports := NewReportService(db, hub, testConfig())
	started(t, stats)
	waitLive(t, stats.profiles, stats.reports)

	seedProfile(t, db, "budi", 0, 0)
	_, err := reports.Submit(context.Background(), uuid.New(), validReport())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return stats.Stats().TotalReports == 1 }, timeout, tick)
	assert.Equal(t, "Padi", stats.Stats().TopCrops[0].Name)
}
