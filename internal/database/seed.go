package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tumbuhin/farmforecast/internal/models"
	"gorm.io/gorm"
)

const defaultProvince = "Jawa Barat"

// SeedDistrictNames are the kecamatan of Kabupaten Cianjur offered in the
// report form.
var SeedDistrictNames = []string{
	"Cianjur",
	"Cugenang",
	"Pacet",
	"Cipanas",
	"Sukaresmi",
	"Cikalongkulon",
	"Karangtengah",
	"Warungkondang",
	"Cibeber",
	"Sukaluyu",
	"Ciranjang",
	"Mande",
}

// SeedDistricts inserts any missing district. Existing rows are left alone,
// so it is safe to run on every start.
func SeedDistricts(db *gorm.DB) (int, error) {
	seeded := 0

	for _, name := range SeedDistrictNames {
		var existing models.District
		err := db.Where("name = ?", name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return seeded, fmt.Errorf("lookup district %q: %w", name, err)
		}

		district := models.District{Name: name, Province: defaultProvince}
		if err := db.Create(&district).Error; err != nil {
			return seeded, fmt.Errorf("seed district %q: %w", name, err)
		}
		seeded++
	}

	if seeded > 0 {
		slog.Info("districts seeded", "count", seeded)
	}
	return seeded, nil
}
