package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

var allProducts = []domain.Product{
	domain.ProductLMD, domain.ProductOrundum,
	domain.ProductPureGold, domain.ProductOriginiumShard, domain.ProductBattleRecord,
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *domain.Configuration)
		field  string
	}{
		{"default", func(cfg *domain.Configuration) {}, ""},
		{"power not three", func(cfg *domain.Configuration) { cfg.TradingStationsCount = 3 }, "trading_stations_count"},
		{"count above five", func(cfg *domain.Configuration) {
			cfg.TradingStationsCount = 6
			cfg.ManufacturingStationsCount = 0
		}, "Configuration.TradingStationsCount"},
		{"requirements do not sum", func(cfg *domain.Configuration) {
			cfg.ProductRequirements.TradingStations[domain.ProductOrundum] = 1
		}, "product_requirements.trading_stations"},
		{"wrong product for facility", func(cfg *domain.Configuration) {
			cfg.ProductRequirements.TradingStations = map[domain.Product]int{domain.ProductPureGold: 2}
		}, "product_requirements.trading_stations"},
		{"unknown drone target", func(cfg *domain.Configuration) {
			cfg.Drones.Targets = []domain.Product{domain.ProductLMD, "Drone", domain.ProductLMD}
		}, "drones.targets[1]"},
		{"empty drone target", func(cfg *domain.Configuration) {
			cfg.Drones.Targets = []domain.Product{"", domain.ProductLMD}
		}, ""},
		{"bad drone order", func(cfg *domain.Configuration) { cfg.Drones.Order = "later" }, "Configuration.Drones.Order"},
		{"too many drone targets", func(cfg *domain.Configuration) {
			cfg.Drones.Targets = append(cfg.Drones.Targets, domain.ProductLMD)
		}, "Configuration.Drones.Targets"},
		{"unknown weight product", func(cfg *domain.Configuration) {
			cfg.ProductWeights = map[domain.Product]float64{"Gold": 2}
		}, "product_weights"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.DefaultConfiguration()
			tt.modify(cfg)

			err := ValidateConfiguration(cfg, allProducts)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var formatErr *domain.InputFormatError
			require.True(t, errors.As(err, &formatErr), "got %v", err)
			assert.Equal(t, "config", formatErr.Source)
			assert.Equal(t, tt.field, formatErr.Field)
		})
	}
}

func TestValidateConfigurationDroneTargetOutsideCatalog(t *testing.T) {
	cfg := domain.DefaultConfiguration()
	err := ValidateConfiguration(cfg, []domain.Product{domain.ProductLMD})
	assert.Error(t, err)

	cfg.Drones.Enable = false
	assert.NoError(t, ValidateConfiguration(cfg, []domain.Product{domain.ProductLMD}))
}

func TestValidIfExistsDuplicateWorker(t *testing.T) {
	assert.NoError(t, ValidIfExistsDuplicateWorker([]domain.Worker{{ID: "a"}, {ID: "b"}}))

	err := ValidIfExistsDuplicateWorker([]domain.Worker{{ID: "a"}, {ID: "b"}, {ID: "a"}})
	var formatErr *domain.InputFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, 2, formatErr.Index)
}

func TestValidateSolveResult(t *testing.T) {
	layout := domain.DefaultConfiguration().Layout()
	shift := domain.ShiftResult{Shift: 1, Facilities: make([]domain.FacilityAssignment, len(layout))}
	n := 0
	for i, f := range layout {
		shift.Facilities[i].Facility = f
		for j := 0; j < f.Capacity; j++ {
			shift.Facilities[i].Workers = append(shift.Facilities[i].Workers, domain.AssignedWorker{ID: string(rune('a' + n))})
			n++
		}
	}
	result := &domain.SolveResult{Shifts: []domain.ShiftResult{shift}}
	require.NoError(t, ValidateSolveResult(result, layout))

	result.Shifts[0].Facilities[8].Workers[0].ID = "a"
	assert.Error(t, ValidateSolveResult(result, layout))

	result.Shifts[0].Facilities[8].Workers = nil
	assert.Error(t, ValidateSolveResult(result, layout))
}

func TestGenerateRandomRoster(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	workers := GenerateRandomRoster(ids, 1)
	require.Len(t, workers, len(ids))

	for _, w := range workers {
		assert.LessOrEqual(t, w.Tier, w.MaxTier)
		assert.GreaterOrEqual(t, w.Level, 1)
		assert.LessOrEqual(t, w.Level, domain.MaxLevel(w.Rarity, w.Tier))
		assert.NotEmpty(t, w.Name)
	}
	assert.Empty(t, GenerateRandomRoster(ids, 0))
}
