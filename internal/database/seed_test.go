package database

import (
	"testing"

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
	require.NoError(t, Migrate(db))
	return db
}

func TestSeedDistricts_Idempotent(t *testing.T) {
	db := setupDB(t)

	n, err := SeedDistricts(db)
	require.NoError(t, err)
	assert.Equal(t, len(SeedDistrictNames), n)

	n, err = SeedDistricts(db)
	require.NoError(t, err)
	assert.Zero(t, n)

	var count int64
	require.NoError(t, db.Model(&models.District{}).Count(&count).Error)
	assert.Equal(t, int64(len(SeedDistrictNames)), count)
}

func TestSeedDistricts_FillsGaps(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Create(&models.District{Name: "Pacet", Province: "Jawa Barat"}).Error)

	n, err := SeedDistricts(db)
	require.NoError(t, err)
	assert.Equal(t, len(SeedDistrictNames)-1, n)

	var d models.District
	require.NoError(t, db.Where("name = ?", "Cianjur").First(&d).Error)
	assert.Equal(t, "Jawa Barat", d.Province)
	assert.NotEqual(t, "", d.ID.String())
}
