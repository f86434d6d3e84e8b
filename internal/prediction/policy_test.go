package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldTrigger(t *testing.T) {
	tests := []struct {
		name                          string
		reports, persisted, processed int
		want                          bool
	}{
		{"no reports", 0, 0, 0, false},
		{"four reports", 4, 0, 0, false},
		{"five reports first run", 5, 0, 0, true},
		{"persisted predictions block first run", 7, 3, 0, false},
		{"nine after five processed", 9, 4, 5, false},
		{"ten after five processed", 10, 4, 5, true},
		{"eleven after ten processed", 11, 0, 10, false},
		{"fifteen after ten processed", 15, 0, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldTrigger(tt.reports, tt.persisted, tt.processed))
		})
	}
}

func TestNextTrigger(t *testing.T) {
	assert.Equal(t, 5, NextTrigger(0))
	assert.Equal(t, 10, NextTrigger(5))
	assert.Equal(t, 15, NextTrigger(7))
	assert.Equal(t, 15, NextTrigger(10))
}
