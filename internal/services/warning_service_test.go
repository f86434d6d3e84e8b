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

func TestWarningService_SubmitListDeactivate(t *testing.T) {
	db := setupDB(t)
	svc := NewWarningService(db, newHub(t), testConfig())
	started(t, svc)
	waitLive(t, svc.live)
	ctx := context.Background()

	profile := seedProfile(t, db, "sari", 0, 0)
	w, err := svc.Submit(ctx, profile.ID, &dto.SubmitWarningRequest{
		Type: "pest", Title: "Wereng coklat", Description: "Serangan meluas", Location: "Kec. Cianjur", Severity: "high",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, w.ReportedBy)
	assert.True(t, w.IsActive)

	_, err = svc.Submit(ctx, profile.ID, &dto.SubmitWarningRequest{
		Type: "weather", Title: "Hujan lebat", Description: "Potensi banjir", Location: "Kec. Pacet", Severity: "medium",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(svc.List(WarningFilter{}).Data) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Hujan lebat", svc.List(WarningFilter{}).Data[0].Title)

	pests := svc.List(WarningFilter{Type: models.WarningPest}).Data
	require.Len(t, pests, 1)
	assert.Equal(t, "Wereng coklat", pests[0].Title)
	assert.Empty(t, svc.List(WarningFilter{Type: models.WarningPest, Severity: models.SeverityLow}).Data)

	var updated models.Profile
	require.NoError(t, db.First(&updated, "id = ?", profile.ID).Error)
	assert.Equal(t, 2, updated.Contributions)
	assert.Nil(t, updated.Location)

	var ledger []models.Contribution
	require.NoError(t, db.Order("created_at").Find(&ledger).Error)
	require.Len(t, ledger, 2)
	assert.Equal(t, 15, ledger[0].Points)
	assert.Equal(t, "Warning report: Wereng coklat", *ledger[0].Description)

	_, err = svc.Deactivate(ctx, w.ID)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		for _, row := range svc.List(WarningFilter{}).Data {
			if row.ID == w.ID {
				return !row.IsActive
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestWarningService_Validation(t *testing.T) {
	svc := NewWarningService(setupDB(t), newHub(t), testConfig())

	_, err := svc.Submit(context.Background(), uuid.New(), &dto.SubmitWarningRequest{
		Type: "flood", Title: "x", Description: "y", Location: "z", Severity: "high",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Details[0].Field)
}
