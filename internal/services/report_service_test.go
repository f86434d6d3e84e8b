package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumbuhin/farmforecast/internal/dto"
	"github.com/tumbuhin/farmforecast/internal/models"
)

func validReport() *dto.SubmitReportRequest {
	return &dto.SubmitReportRequest{
		Location:             " Desa Sukamaju ",
		District:             "Cianjur",
		SoilType:             "loam",
		LandCondition:        "normal",
		CurrentCrop:          "Padi",
		LastHarvestQuantity:  950,
		LastHarvestCondition: "good",
		PestIssues:           "  ",
		WeatherCondition:     "Cerah",
	}
}

func TestReportService_SubmitCreditsReporter(t *testing.T) {
	db := setupDB(t)
	hub := newHub(t)
	svc := NewReportService(db, hub, testConfig())
	started(t, svc)
	waitLive(t, svc.live)

	profile := seedProfile(t, db, "budi", 2, 0)
	report, err := svc.Submit(context.Background(), profile.ID, validReport())
	require.NoError(t, err)
	assert.Equal(t, "Desa Sukamaju", report.Location)
	assert.Nil(t, report.PestIssues)

	var updated models.Profile
	require.NoError(t, db.First(&updated, "id = ?", profile.ID).Error)
	assert.Equal(t, 3, updated.Contributions)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "Desa Sukamaju, Kec. Cianjur", *updated.Location)

	var ledger []models.Contribution
	require.NoError(t, db.Where("user_id = ?", profile.ID).Find(&ledger).Error)
	require.Len(t, ledger, 1)
	assert.Equal(t, models.ContributionFarmData, ledger[0].Type)
	assert.Equal(t, 10, ledger[0].Points)
	assert.Equal(t, "Data submission for Padi in Desa Sukamaju", *ledger[0].Description)

	require.Eventually(t, func() bool { return len(svc.List().Data) == 1 }, time.Second, 5*time.Millisecond)
}

func TestReportService_SubmitSurvivesMissingProfile(t *testing.T) {
	db := setupDB(t)
	svc := NewReportService(db, newHub(t), testConfig())
	userID := uuid.New()

	_, err := svc.Submit(context.Background(), userID, validReport())
	require.NoError(t, err)

	var count int64
	db.Model(&models.Contribution{}).Where("user_id = ?", userID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestReportService_Validation(t *testing.T) {
	svc := NewReportService(setupDB(t), newHub(t), testConfig())

	tests := []struct {
		name   string
		mutate func(r *dto.SubmitReportRequest)
		field  string
	}{
		{"missing crop", func(r *dto.SubmitReportRequest) { r.CurrentCrop = "  " }, "current_crop"},
		{"zero harvest", func(r *dto.SubmitReportRequest) { r.LastHarvestQuantity = 0 }, "last_harvest_quantity"},
		{"negative harvest", func(r *dto.SubmitReportRequest) { r.LastHarvestQuantity = -3 }, "last_harvest_quantity"},
		{"unknown soil", func(r *dto.SubmitReportRequest) { r.SoilType = "gambut" }, "soil_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validReport()
			tt.mutate(req)
			_, err := svc.Submit(context.Background(), uuid.New(), req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Details[0].Field)
		})
	}
}

func TestReportService_DeleteRemovesFromLiveList(t *testing.T) {
	db := setupDB(t)
	svc := NewReportService(db, newHub(t), testConfig())
	ctx := context.Background()

	report, err := svc.Submit(ctx, uuid.New(), validReport())
	require.NoError(t, err)

	started(t, svc)
	waitLive(t, svc.live)
	require.Len(t, svc.List().Data, 1)

	require.NoError(t, svc.Delete(ctx, report.ID))
	require.Eventually(t, func() bool { return len(svc.List().Data) == 0 }, time.Second, 5*time.Millisecond)
}
