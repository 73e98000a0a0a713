package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

func TestFormatGain(t *testing.T) {
	tests := []struct {
		gain float64
		want string
	}{
		{0.0123, "1.2%"},
		{0.5, "50.0%"},
		{0.95, "95.0%"},
		{1.2, "120.0%"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatGain(tt.gain))
	}
}

func TestUpgradeText(t *testing.T) {
	upgrades := []domain.UpgradeItem{
		{
			Kind: domain.UpgradeBundle,
			Workers: []domain.UpgradeStep{
				{WorkerID: "a", Name: "阿", CurrentTier: 1, TargetTier: 2},
				{WorkerID: "b", Name: "贝", CurrentTier: 0, TargetTier: 2},
			},
			Gain:         0.08,
			AbsoluteGain: 240,
		},
		{
			Kind:         domain.UpgradeSingle,
			Workers:      []domain.UpgradeStep{{WorkerID: "c", Name: "采", CurrentTier: 0, TargetTier: 1}},
			Gain:         0.012,
			AbsoluteGain: 30,
		},
	}
	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

	text := UpgradeText(upgrades, at)

	assert.Contains(t, text, "生成时间: 2024-05-01 08:30:00")
	assert.Contains(t, text, "[组合] 阿+贝 | 收益: 8.0%\n")
	assert.Contains(t, text, "  - 贝: 精0 -> 精2\n")
	assert.Contains(t, text, "[单人] 采 | 收益: 1.2%\n")
	assert.Contains(t, text, "  - 精0 -> 精1\n")
	assert.NotContains(t, text, "无需提升练度")
}

func TestUpgradeTextEmpty(t *testing.T) {
	text := UpgradeText(nil, time.Now())
	assert.Contains(t, text, "无需提升练度。")
}

func TestMarshalResultHidesRoster(t *testing.T) {
	result := &domain.SolveResult{
		Shifts:          []domain.ShiftResult{{Shift: 1, TotalEfficiency: 10}},
		TotalEfficiency: 10,
		Roster:          []domain.Worker{{ID: "secret"}},
	}

	data, err := MarshalResult(result)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 10.0, decoded["totalEfficiency"])
}
