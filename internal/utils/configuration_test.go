package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

const sampleConfiguration = `{
  "product_requirements": {
    "trading_stations": {"LMD": 2, "Orundum": 0},
    "manufacturing_stations": {"Pure Gold": 2, "Originium Shard": 0, "Battle Record": 2}
  },
  "trading_stations_count": 2,
  "manufacturing_stations_count": 4,
  "Fiammetta": {"enable": true},
  "drones": {"enable": true, "order": "pre", "targets": ["LMD", "Pure Gold", "LMD"]}
}`

func TestParseConfiguration(t *testing.T) {
	cfg, err := ParseConfiguration([]byte(sampleConfiguration))
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultConfiguration(), cfg)
	assert.NoError(t, ValidateConfiguration(cfg, allProducts))
}

func TestParseConfigurationMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"empty", "  ", ""},
		{"not json", "{", ""},
		{"unknown field", `{"power_stations_count": 3}`, ""},
		{"wrong type", `{"trading_stations_count": "2"}`, "trading_stations_count"},
		{"trailing data", `{} {}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfiguration([]byte(tt.input))
			var formatErr *domain.InputFormatError
			require.True(t, errors.As(err, &formatErr), "got %v", err)
			assert.Equal(t, "config", formatErr.Source)
			assert.Equal(t, tt.field, formatErr.Field)
		})
	}
}
