package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/scheduler"
)

func TestWriteOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	outcome := &scheduler.Outcome{
		Current:   &domain.SolveResult{Shifts: []domain.ShiftResult{{Shift: 1, TotalEfficiency: 100}}, TotalEfficiency: 100},
		Potential: &domain.SolveResult{Shifts: []domain.ShiftResult{{Shift: 1, TotalEfficiency: 120}}, TotalEfficiency: 120},
	}

	require.NoError(t, writeOutputs(dir, outcome, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))

	for name, want := range map[string]float64{
		"current_assignments.json":   100,
		"potential_assignments.json": 120,
	} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, want, decoded["totalEfficiency"], name)
	}

	text, err := os.ReadFile(filepath.Join(dir, "upgrade_suggestions.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(text), "无需提升练度。")
}

func TestLoadCatalogFallsBackToEmbedded(t *testing.T) {
	cat, err := loadCatalog("")
	require.NoError(t, err)
	assert.NotEmpty(t, cat.WorkerIDs())

	_, err = loadCatalog(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
