package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/roster"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/utils"
)

func TestExampleSolves(t *testing.T) {
	cat, err := catalog.Load(Efficiency)
	require.NoError(t, err)

	workers, err := roster.Load(ExampleOperators)
	require.NoError(t, err)
	for _, w := range workers {
		assert.True(t, cat.Has(w.ID), "%s 不在效率表中", w.ID)
	}

	cfg, err := utils.ParseConfiguration(ExampleConfiguration)
	require.NoError(t, err)

	outcome, err := scheduler.NewOptimizer(cat, nil, nil).Run(context.Background(), workers, cfg)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, outcome.Potential.TotalEfficiency, outcome.Current.TotalEfficiency)
	assert.NotEmpty(t, outcome.Upgrades)
}
