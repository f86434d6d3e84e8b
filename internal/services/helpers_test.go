package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tumbuhin/farmforecast/internal/config"
	"github.com/tumbuhin/farmforecast/internal/models"
	"github.com/tumbuhin/farmforecast/internal/realtime"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// One connection keeps the in-memory database shared.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Profile{},
		&models.Report{},
		&models.Warning{},
		&models.Prediction{},
		&models.Contribution{},
		&models.District{},
	))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
		AITimeout:        time.Second,
		SyncFetchTimeout: time.Second,
		ProfileTimeout:   time.Second,
		SessionTimeout:   time.Second,
	}
}

func newHub(t *testing.T) *realtime.Hub {
	t.Helper()
	hub := realtime.NewHub()
	t.Cleanup(func() { hub.Close() })
	return hub
}

func seedProfile(t *testing.T, db *gorm.DB, name string, contributions int, accuracy float64) models.Profile {
	t.Helper()
	p := models.Profile{
		ID:            uuid.New(),
		Email:         name + "@tani.id",
		Name:          name,
		JoinDate:      time.Now(),
		Contributions: contributions,
		AccuracyScore: accuracy,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

type liveness interface{ Live() bool }

// waitLive blocks until every collection is subscribed, so writes made
// afterwards are observed as events.
func waitLive(t *testing.T, parts ...liveness) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, p := range parts {
			if !p.Live() {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
}

func started(t *testing.T, m Mounted) {
	t.Helper()
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(m.Close)
}

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)
