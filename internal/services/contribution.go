package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tumbuhin/farmforecast/internal/models"
	"github.com/tumbuhin/farmforecast/internal/store"
)

const (
	farmDataPoints = 10
	warningPoints  = 15
)

// contributionRecorder applies the secondary effects of a submission. They
// are not transactional with the submission and failures are only logged.
type contributionRecorder struct {
	profiles      *store.Repository[models.Profile]
	contributions *store.Repository[models.Contribution]
}

func (r contributionRecorder) record(ctx context.Context, userID uuid.UUID, location *string, kind models.ContributionType, points int, description string) {
	r.bumpProfile(ctx, userID, location)

	entry := &models.Contribution{
		UserID:      userID,
		Type:        kind,
		Points:      points,
		Description: &description,
	}
	if err := r.contributions.Insert(ctx, entry); err != nil {
		slog.Error("failed to insert contribution record",
			"collection", string(store.Contributions), "user_id", userID.String(), "error", err)
	}
}

func (r contributionRecorder) bumpProfile(ctx context.Context, userID uuid.UUID, location *string) {
	profile, err := r.profiles.Get(ctx, userID)
	if err != nil {
		slog.Error("failed to load profile for contribution",
			"collection", string(store.Profiles), "user_id", userID.String(), "error", err)
		return
	}

	fields := map[string]any{"contributions": profile.Contributions + 1}
	if location != nil {
		fields["location"] = *location
	}
	if _, err := r.profiles.Update(ctx, userID, fields); err != nil {
		slog.Error("failed to update user contributions",
			"collection", string(store.Profiles), "user_id", userID.String(), "error", err)
	}
}
