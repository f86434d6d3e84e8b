package prediction

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tumbuhin/farmforecast/internal/models"
)

// FallbackNote is shown when predictions come from the local heuristic.
const FallbackNote = "Token AI habis, menggunakan analisis data lokal"

const (
	defaultIcon   = "🌱"
	defaultSeason = "Musim Hujan"
	maxFallback   = 4
)

var cropIcons = map[string]string{
	"padi":     "🌾",
	"jagung":   "🌽",
	"kedelai":  "🫘",
	"kangkung": "🥬",
	"wortel":   "🥕",
	"tomat":    "🍅",
	"cabai":    "🌶️",
	"bawang":   "🧅",
	"bayam":    "🥬",
	"sawi":     "🥬",
	"terong":   "🍆",
	"timun":    "🥒",
}

func iconFor(crop string) string {
	if icon, ok := cropIcons[crop]; ok {
		return icon
	}
	return defaultIcon
}

type cropStats struct {
	name       string
	count      int
	totalYield float64
	successes  int
	districts  *orderedSet
	soils      *orderedSet
}

// Fallback derives up to four predictions from the reports alone. The result
// depends only on the input order and values.
func Fallback(reports []models.Report) []models.Prediction {
	var groups []*cropStats
	index := make(map[string]*cropStats)
	for _, r := range reports {
		crop := strings.ToLower(r.CurrentCrop)
		g, ok := index[crop]
		if !ok {
			g = &cropStats{name: crop, districts: newOrderedSet(), soils: newOrderedSet()}
			index[crop] = g
			groups = append(groups, g)
		}
		g.count++
		g.totalYield += r.LastHarvestQuantity
		if r.LastHarvestCondition.Successful() {
			g.successes++
		}
		g.districts.add(r.District)
		g.soils.add(string(r.SoilType))
	}

	sort.SliceStable(groups, func(a, b int) bool { return groups[a].count > groups[b].count })
	if len(groups) > maxFallback {
		groups = groups[:maxFallback]
	}

	out := make([]models.Prediction, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.prediction())
	}
	return out
}

func (g *cropStats) prediction() models.Prediction {
	avgYield := g.totalYield / float64(g.count)
	successRate := float64(g.successes) / float64(g.count) * 100

	suitability := models.SuitabilityLow
	switch {
	case successRate >= 70 && avgYield > 800:
		suitability = models.SuitabilityHigh
	case successRate >= 50 || avgYield > 500:
		suitability = models.SuitabilityMedium
	}

	areas := g.districts.items
	if len(areas) > 2 {
		areas = areas[:2]
	}
	district := g.districts.items[0]
	season := defaultSeason

	return models.Prediction{
		Name:        capitalize(g.name),
		Suitability: suitability,
		EstimatedYield: fmt.Sprintf("%d-%d kg/ha",
			int(roundHalfUp(avgYield*0.8)), int(roundHalfUp(avgYield*1.2))),
		Description: fmt.Sprintf(
			"Berdasarkan %d laporan komunitas dengan tingkat keberhasilan %d%%. Cocok untuk tanah %s di area %s.",
			g.count, int(roundHalfUp(successRate)),
			strings.Join(g.soils.items, ", "), strings.Join(areas, ", ")),
		Icon:               iconFor(g.name),
		District:           &district,
		Season:             &season,
		AccuracyPercentage: min(75+2*g.count, 92),
		BasedOnReports:     g.count,
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
