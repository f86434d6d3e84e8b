package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumbuhin/farmforecast/internal/models"
)

var testSummary = Summary{Total: 7, Districts: []string{"Cugenang", "Cianjur"}}

func TestParsePredictions_PureJSON(t *testing.T) {
	got, err := ParsePredictions(`[{"name":"Padi","suitability":"high","estimated_yield":"5-6 ton/ha","description":"Cocok","icon":"🌾","district":"Pacet","season":"Musim Hujan","accuracy_percentage":88,"based_on_reports":3}]`, testSummary)
	require.NoError(t, err)
	require.Len(t, got, 1)

	p := got[0]
	assert.Equal(t, "Padi", p.Name)
	assert.Equal(t, models.SuitabilityHigh, p.Suitability)
	assert.Equal(t, "Pacet", *p.District)
	assert.Equal(t, 88, p.AccuracyPercentage)
	assert.Equal(t, 7, p.BasedOnReports, "based_on_reports is the number of reports sent")
}

func TestParsePredictions_CodeFence(t *testing.T) {
	got, err := ParsePredictions("```json\n[{\"name\":\"Jagung\"}]\n```", testSummary)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jagung", got[0].Name)
}

func TestParsePredictions_EmbeddedArray(t *testing.T) {
	content := "Berikut prediksi saya:\n[{\"name\":\"Cabai\",\"suitability\":\"low\"}]\nSemoga membantu."
	got, err := ParsePredictions(content, testSummary)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Cabai", got[0].Name)
	assert.Equal(t, models.SuitabilityLow, got[0].Suitability)
}

func TestParsePredictions_EmbeddedArrayWithNestedBrackets(t *testing.T) {
	content := "Hasil analisis:\n[{\"name\":\"Padi\",\"description\":\"cocok [lahan basah]\"},{\"name\":\"Jagung\",\"tags\":[\"kering\"]}]\nSelesai."
	got, err := ParsePredictions(content, testSummary)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Padi", got[0].Name)
	assert.Equal(t, "cocok [lahan basah]", got[0].Description)
	assert.Equal(t, "Jagung", got[1].Name)
}

func TestParsePredictions_Defaults(t *testing.T) {
	got, err := ParsePredictions(`[{"suitability":"excellent","accuracy_percentage":0}]`, testSummary)
	require.NoError(t, err)
	require.Len(t, got, 1)

	p := got[0]
	assert.Equal(t, "Tanaman", p.Name)
	assert.Equal(t, models.SuitabilityMedium, p.Suitability)
	assert.Equal(t, "1-2 ton/ha", p.EstimatedYield)
	assert.Equal(t, "Prediksi berdasarkan data komunitas", p.Description)
	assert.Equal(t, "🌱", p.Icon)
	assert.Equal(t, "Cugenang", *p.District)
	assert.Equal(t, "Musim Hujan", *p.Season)
	assert.Equal(t, 80, p.AccuracyPercentage)
}

func TestParsePredictions_DistrictFallsBackToCianjur(t *testing.T) {
	got, err := ParsePredictions(`[{"name":"Padi"}]`, Summary{Total: 5})
	require.NoError(t, err)
	assert.Equal(t, "Cianjur", *got[0].District)
}

func TestParsePredictions_AccuracyClampedAndQuoted(t *testing.T) {
	got, err := ParsePredictions(`[{"accuracy_percentage":140},{"accuracy_percentage":"85"}]`, testSummary)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 100, got[0].AccuracyPercentage)
	assert.Equal(t, 85, got[1].AccuracyPercentage)
}

func TestParsePredictions_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
	}{
		{"prose", "no predictions here", ErrNoJSON},
		{"empty array", "[]", ErrInvalidFormat},
		{"object not array", `{"name":"Padi"}`, ErrInvalidFormat},
		{"broken embedded array", "lihat [bukan json]", ErrNoJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePredictions(tt.content, testSummary)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCleanJSONContent(t *testing.T) {
	assert.Equal(t, "[1]", cleanJSONContent("```json\n[1]\n```"))
	assert.Equal(t, "[1]", cleanJSONContent("```\n[1]```"))
	assert.Equal(t, "[1]", cleanJSONContent("  [1]  "))
}
