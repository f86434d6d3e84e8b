package prediction

import (
	"math"
	"sort"
	"strings"

	"github.com/tumbuhin/farmforecast/internal/models"
)

type CropCount struct {
	Name  string
	Count int
}

// Summary aggregates the reports embedded in the AI prompt. Lists keep
// first-seen order.
type Summary struct {
	Total             int
	Districts         []string
	PopularCrops      []CropCount
	SoilTypes         []string
	LandConditions    []string
	AverageYield      int
	HarvestConditions []string
	PestIssues        []string
	WeatherConditions []string
}

func Summarize(reports []models.Report) Summary {
	s := Summary{Total: len(reports)}
	if len(reports) == 0 {
		return s
	}

	var (
		districts  = newOrderedSet()
		soils      = newOrderedSet()
		lands      = newOrderedSet()
		harvests   = newOrderedSet()
		pests      = newOrderedSet()
		weathers   = newOrderedSet()
		totalYield float64
	)
	for _, r := range reports {
		districts.add(r.District)
		soils.add(string(r.SoilType))
		lands.add(string(r.LandCondition))
		harvests.add(string(r.LastHarvestCondition))
		weathers.add(r.WeatherCondition)
		if r.PestIssues != nil && strings.TrimSpace(*r.PestIssues) != "" {
			pests.add(*r.PestIssues)
		}
		totalYield += r.LastHarvestQuantity
	}

	s.Districts = districts.items
	s.SoilTypes = soils.items
	s.LandConditions = lands.items
	s.HarvestConditions = harvests.items
	s.PestIssues = pests.items
	s.WeatherConditions = weathers.items
	s.AverageYield = int(roundHalfUp(totalYield / float64(len(reports))))
	s.PopularCrops = popularCrops(reports, 5)
	return s
}

func popularCrops(reports []models.Report, limit int) []CropCount {
	var crops []CropCount
	index := make(map[string]int)
	for _, r := range reports {
		name := strings.ToLower(r.CurrentCrop)
		i, ok := index[name]
		if !ok {
			i = len(crops)
			index[name] = i
			crops = append(crops, CropCount{Name: name})
		}
		crops[i].Count++
	}
	sort.SliceStable(crops, func(a, b int) bool { return crops[a].Count > crops[b].Count })
	if len(crops) > limit {
		crops = crops[:limit]
	}
	return crops
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
