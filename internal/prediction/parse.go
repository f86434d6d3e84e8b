package prediction

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/tumbuhin/farmforecast/internal/models"
)

var (
	ErrNoJSON        = errors.New("no valid JSON found in AI response")
	ErrInvalidFormat = errors.New("invalid prediction format from AI")
)

var arrayPattern = regexp.MustCompile(`\[[\s\S]*?\]`)

const (
	defaultName        = "Tanaman"
	defaultYield       = "1-2 ton/ha"
	defaultDescription = "Prediksi berdasarkan data komunitas"
	defaultDistrict    = "Cianjur"
	defaultAccuracy    = 80
)

// rawPrediction accepts whatever the model sends; missing or empty fields
// get defaults in normalize.
type rawPrediction struct {
	Name               string      `json:"name"`
	Suitability        string      `json:"suitability"`
	EstimatedYield     string      `json:"estimated_yield"`
	Description        string      `json:"description"`
	Icon               string      `json:"icon"`
	District           string      `json:"district"`
	Season             string      `json:"season"`
	AccuracyPercentage json.Number `json:"accuracy_percentage"`
}

func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	if strings.HasSuffix(content, "```") {
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

// ParsePredictions extracts predictions from a model reply. The whole body is
// tried first, then the first bracketed substring. Rows are normalized
// against the summary of the reports that were sent.
func ParsePredictions(content string, s Summary) ([]models.Prediction, error) {
	raws, err := decodeArray(cleanJSONContent(content))
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, ErrInvalidFormat
	}

	out := make([]models.Prediction, len(raws))
	for i, raw := range raws {
		out[i] = raw.normalize(s)
	}
	return out, nil
}

func decodeArray(content string) ([]rawPrediction, error) {
	var whole any
	if err := json.Unmarshal([]byte(content), &whole); err == nil {
		if _, ok := whole.([]any); !ok {
			return nil, ErrInvalidFormat
		}
		return decodeRows([]byte(content))
	}

	for _, candidate := range embeddedArrays(content) {
		if err := json.Unmarshal([]byte(candidate), &whole); err == nil {
			return decodeRows([]byte(candidate))
		}
	}
	return nil, ErrNoJSON
}

// embeddedArrays returns the shortest bracketed span first, then the span
// from the first '[' to the last ']', which is what a nested array needs.
func embeddedArrays(content string) []string {
	var out []string
	if match := arrayPattern.FindString(content); match != "" {
		out = append(out, match)
	}
	start, end := strings.Index(content, "["), strings.LastIndex(content, "]")
	if start >= 0 && end > start {
		if wide := content[start : end+1]; len(out) == 0 || wide != out[0] {
			out = append(out, wide)
		}
	}
	return out
}

// decodeRows decodes element by element so one malformed object does not
// discard the rest.
func decodeRows(data []byte) ([]rawPrediction, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, ErrInvalidFormat
	}
	rows := make([]rawPrediction, 0, len(items))
	for _, item := range items {
		var raw rawPrediction
		if err := json.Unmarshal(item, &raw); err != nil {
			continue
		}
		rows = append(rows, raw)
	}
	return rows, nil
}

func (r rawPrediction) normalize(s Summary) models.Prediction {
	district := r.District
	if district == "" {
		district = defaultDistrict
		if len(s.Districts) > 0 && s.Districts[0] != "" {
			district = s.Districts[0]
		}
	}
	season := or(r.Season, defaultSeason)

	suitability := models.Suitability(strings.ToLower(r.Suitability))
	if !suitability.Valid() {
		suitability = models.SuitabilityMedium
	}

	accuracy := defaultAccuracy
	if v, err := r.AccuracyPercentage.Float64(); err == nil && v != 0 {
		accuracy = int(math.Max(0, math.Min(100, math.Round(v))))
	}

	return models.Prediction{
		Name:               or(r.Name, defaultName),
		Suitability:        suitability,
		EstimatedYield:     or(r.EstimatedYield, defaultYield),
		Description:        or(r.Description, defaultDescription),
		Icon:               or(r.Icon, defaultIcon),
		District:           &district,
		Season:             &season,
		AccuracyPercentage: accuracy,
		BasedOnReports:     s.Total,
	}
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
