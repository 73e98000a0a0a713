package roster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

func TestLoad(t *testing.T) {
	data := `[
		{"id": "char_002_amiya", "name": "阿米娅", "elite": 2, "level": 50, "rarity": 5, "own": true},
		{"id": "char_285_medic2", "name": "Lancet-2", "elite": 0, "level": 30, "rarity": 1, "own": true},
		{"id": "char_103_angel", "name": "能天使", "elite": 0, "level": 1, "rarity": 6, "own": false},
		{"id": "char_102_texas", "name": "德克萨斯", "elite": 1, "level": 40, "rarity": 5}
	]`

	workers, err := Load([]byte(data))
	require.NoError(t, err)
	require.Len(t, workers, 3)

	assert.Equal(t, domain.Worker{ID: "char_002_amiya", Name: "阿米娅", Rarity: 5, Tier: 2, Level: 50, MaxTier: 2}, workers[0])
	assert.Equal(t, 0, workers[1].MaxTier)
	assert.Equal(t, "char_102_texas", workers[2].ID)
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		index int
		field string
	}{
		{"truncated", `[{"id": `, -1, ""},
		{"object root", `{"id": "a"}`, -1, ""},
		{"missing name", `[{"id": "a", "elite": 0, "level": 1, "rarity": 3}]`, 0, "name"},
		{"elite above max", `[{"id": "a", "name": "a", "elite": 2, "level": 1, "rarity": 3}]`, 0, "elite"},
		{"zero level", `[{"id": "a", "name": "a", "elite": 0, "level": 0, "rarity": 3}]`, 0, "level"},
		{"rarity out of range", `[{"id": "a", "name": "a", "elite": 0, "level": 1, "rarity": 7}]`, 0, "rarity"},
		{"own not bool", `[{"id": "a", "name": "a", "elite": 0, "level": 1, "rarity": 3, "own": "yes"}]`, 0, "own"},
		{"duplicate", `[{"id": "a", "name": "a", "elite": 0, "level": 1, "rarity": 3}, {"id": "a", "name": "a", "elite": 0, "level": 2, "rarity": 3}]`, 1, "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.input))
			var formatErr *domain.InputFormatError
			require.True(t, errors.As(err, &formatErr), "got %v", err)
			assert.Equal(t, "operators", formatErr.Source)
			assert.Equal(t, tt.index, formatErr.Index)
			assert.Equal(t, tt.field, formatErr.Field)
		})
	}
}

func TestLiftCeiling(t *testing.T) {
	workers := []domain.Worker{
		{ID: "a", Rarity: 6, Tier: 0, Level: 20, MaxTier: 2},
		{ID: "b", Rarity: 3, Tier: 1, Level: 55, MaxTier: 1},
		{ID: "c", Rarity: 2, Tier: 0, Level: 10, MaxTier: 0},
	}

	lifted := LiftCeiling(workers)

	assert.Equal(t, 2, lifted[0].Tier)
	assert.Equal(t, 90, lifted[0].Level)
	assert.Equal(t, 1, lifted[1].Tier)
	assert.Equal(t, 55, lifted[1].Level)
	assert.Equal(t, 0, lifted[2].Tier)
	assert.Equal(t, 30, lifted[2].Level)

	// 原切片不受影响
	assert.Equal(t, 0, workers[0].Tier)
	assert.Equal(t, 20, workers[0].Level)
}

func TestSortByName(t *testing.T) {
	workers := []domain.Worker{
		{ID: "3", Name: "德克萨斯"},
		{ID: "1", Name: "阿米娅"},
		{ID: "2", Name: "Lancet-2"},
		{ID: "4", Name: "白面鸮"},
	}

	SortByName(workers)

	ids := make([]string, len(workers))
	for i, w := range workers {
		ids[i] = w.ID
	}
	assert.Equal(t, []string{"1", "4", "3", "2"}, ids)
	assert.Equal(t, "amiya", SortKey("阿米娅"))
}
