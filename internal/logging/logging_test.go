package logging

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tumbuhin/farmforecast/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.SystemLog{}))
	return db
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestPGHandler_PersistsErrorsOnly(t *testing.T) {
	db := setupDB(t)
	h := NewPGHandler(db)
	log := slog.New(h).With("collection", "farm_data")

	log.Info("ignored")
	log.Error("publish failed",
		"request_id", "req-1",
		"user_id", "u-1",
		"action", "insert",
		"error", "boom",
		"latency_ms", 12.6,
		"attempt", 2,
	)
	h.Stop()

	var rows []models.SystemLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "ERROR", row.Level)
	assert.Equal(t, "publish failed", row.Message)
	assert.Equal(t, "farm_data", row.Collection)
	assert.Equal(t, "req-1", row.RequestID)
	require.NotNil(t, row.UserID)
	assert.Equal(t, "u-1", *row.UserID)
	assert.Equal(t, "insert", row.Action)
	assert.Equal(t, "boom", row.Error)
	assert.Equal(t, 13, row.LatencyMs)
	assert.JSONEq(t, `{"attempt":2}`, string(row.Extra))
}

func TestPGHandler_StopTwice(t *testing.T) {
	h := NewPGHandler(setupDB(t))
	h.Stop()
	assert.NotPanics(t, h.Stop)
}

func TestMultiHandler_FansOutByLevel(t *testing.T) {
	db := setupDB(t)
	pg := NewPGHandler(db)
	multi := NewMultiHandler(slog.NewTextHandler(discard{}, nil), pg)

	assert.True(t, multi.Enabled(context.Background(), slog.LevelInfo))

	log := slog.New(multi)
	log.Warn("not stored")
	log.Error("stored")
	pg.Stop()

	var count int64
	require.NoError(t, db.Model(&models.SystemLog{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCleanup_DeletesOldRecords(t *testing.T) {
	db := setupDB(t)
	now := time.Now()
	require.NoError(t, db.Create(&[]models.SystemLog{
		{Timestamp: now.Add(-40 * 24 * time.Hour), Level: "ERROR", Message: "old"},
		{Timestamp: now.Add(-time.Hour), Level: "ERROR", Message: "fresh"},
	}).Error)

	deleted, err := Cleanup(db, now.Add(-retention))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var rows []models.SystemLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "fresh", rows[0].Message)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
