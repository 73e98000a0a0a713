package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

type fixture struct {
	entries []domain.EfficiencyEntry
	workers []domain.Worker
}

func generic(id string) domain.Worker {
	return domain.Worker{ID: id, Name: id, Rarity: 2, Tier: 0, Level: 30, MaxTier: 0}
}

func entry(id string, f domain.FacilityType, tier int, efficiency float64, requires ...string) domain.EfficiencyEntry {
	return domain.EfficiencyEntry{WorkerID: id, Facility: f, Tier: tier, Level: 1, Efficiency: efficiency, Requires: requires}
}

func (f *fixture) add(w domain.Worker, entries ...domain.EfficiencyEntry) *fixture {
	f.workers = append(f.workers, w)
	f.entries = append(f.entries, entries...)
	return f
}

// baseFixture：贸易站干员 t1..t8 效率 10..80，制造站干员 m1..m14 效率 5..70，发电站干员 p1..p4 效率 10..40
// 默认配置下每班最优为 330 + 510 + 90 = 930
func baseFixture() *fixture {
	f := &fixture{}
	for i := 1; i <= 8; i++ {
		id := fmt.Sprintf("t%d", i)
		f.add(generic(id), entry(id, domain.FacilityTrading, 0, float64(10*i)))
	}
	for i := 1; i <= 14; i++ {
		id := fmt.Sprintf("m%02d", i)
		f.add(generic(id), entry(id, domain.FacilityManufacturing, 0, float64(5*i)))
	}
	for i := 1; i <= 4; i++ {
		id := fmt.Sprintf("p%d", i)
		f.add(generic(id), entry(id, domain.FacilityPower, 0, float64(10*i)))
	}
	return f
}

func (f *fixture) catalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.FromEntries(f.entries)
	require.NoError(t, err)
	return c
}

func testConfig() *domain.Configuration {
	cfg := domain.DefaultConfiguration()
	cfg.Drones.Enable = false
	cfg.Fiammetta.Enable = false
	return cfg
}

// 不截断候选，结果为精确最优
func exactParameters() *Parameters {
	p := DefaultParameters()
	p.BeamWidth = 1 << 20
	p.MaxAppearances = 1 << 20
	p.PoolSize = 64
	p.NodeBudget = 0
	return p
}

func solve(t *testing.T, f *fixture, cfg *domain.Configuration, parameters *Parameters) (*domain.SolveResult, error) {
	t.Helper()
	return NewOptimizer(f.catalog(t), parameters, nil).Solve(context.Background(), f.workers, cfg, false)
}

func TestScheduleFillsEveryFacility(t *testing.T) {
	f := baseFixture().add(generic("x"), entry("x", domain.FacilityTrading, 0, 100), entry("x", domain.FacilityManufacturing, 0, 100))
	f.add(generic("ghost")) // 不在效率表中

	res, err := solve(t, f, testConfig(), DefaultParameters())
	require.NoError(t, err)
	require.Len(t, res.Shifts, domain.ShiftsPerDay)
	assert.Equal(t, []string{"ghost"}, res.Excluded)

	layout := testConfig().Layout()
	for _, shift := range res.Shifts {
		require.Len(t, shift.Facilities, len(layout))
		seen := make(map[string]bool)
		for i, fa := range shift.Facilities {
			assert.Equal(t, layout[i], fa.Facility)
			assert.Len(t, fa.Workers, fa.Facility.Capacity)
			for _, w := range fa.Workers {
				assert.False(t, seen[w.ID], "shift %d: %s assigned twice", shift.Shift, w.ID)
				seen[w.ID] = true
			}
		}
		assert.False(t, shift.Suboptimal)
	}
}

func TestScheduleOptimalTotal(t *testing.T) {
	res, err := solve(t, baseFixture(), testConfig(), exactParameters())
	require.NoError(t, err)

	for _, shift := range res.Shifts {
		assert.InDelta(t, 930, shift.TotalEfficiency, 1e-9)
	}
	assert.InDelta(t, 2790, res.TotalEfficiency, 1e-9)
}

func TestScheduleCrossFacilityTradeoff(t *testing.T) {
	// x 在贸易站和制造站都是 100，放在贸易站替换 t3 只多 70，放在制造站替换 m03 能多 85
	f := baseFixture().add(generic("x"), entry("x", domain.FacilityTrading, 0, 100), entry("x", domain.FacilityManufacturing, 0, 100))

	res, err := solve(t, f, testConfig(), exactParameters())
	require.NoError(t, err)

	for _, shift := range res.Shifts {
		assert.InDelta(t, 1015, shift.TotalEfficiency, 1e-9)
		for _, fa := range shift.Facilities {
			if fa.Facility.Type == domain.FacilityTrading {
				assert.NotContains(t, fa.WorkerIDs(), "x")
			}
		}
	}
}

func TestScheduleDeterministic(t *testing.T) {
	f := baseFixture().add(generic("x"), entry("x", domain.FacilityTrading, 0, 100), entry("x", domain.FacilityManufacturing, 0, 100))

	first, err := solve(t, f, testConfig(), DefaultParameters())
	require.NoError(t, err)
	second, err := solve(t, f, testConfig(), DefaultParameters())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScheduleInfeasibleWithoutPowerWorkers(t *testing.T) {
	f := &fixture{}
	for _, w := range baseFixture().workers {
		if w.ID[0] != 'p' {
			f.add(w)
		}
	}
	for _, e := range baseFixture().entries {
		if e.Facility != domain.FacilityPower {
			f.entries = append(f.entries, e)
		}
	}

	res, err := solve(t, f, testConfig(), DefaultParameters())
	assert.Nil(t, res)

	var infeasible *domain.InfeasibleAssignmentError
	require.True(t, errors.As(err, &infeasible), "got %v", err)
	assert.Equal(t, 1, infeasible.Shift)
	assert.Equal(t, domain.FacilityPower, infeasible.Facility.Type)
	assert.Contains(t, err.Error(), "发电站1")
}

func TestScheduleRotationRunsOutOfWorkers(t *testing.T) {
	cfg := testConfig()
	cfg.Rotation = true

	_, err := solve(t, baseFixture(), cfg, DefaultParameters())

	var infeasible *domain.InfeasibleAssignmentError
	require.True(t, errors.As(err, &infeasible), "got %v", err)
	assert.Equal(t, 2, infeasible.Shift)
	assert.Equal(t, domain.FacilityTrading, infeasible.Facility.Type)
}

func TestScheduleRejectsInvalidConfiguration(t *testing.T) {
	cfg := testConfig()
	cfg.TradingStationsCount = 3

	_, err := solve(t, baseFixture(), cfg, DefaultParameters())

	var formatErr *domain.InputFormatError
	require.True(t, errors.As(err, &formatErr), "got %v", err)
	assert.Equal(t, "config", formatErr.Source)
}

func TestScheduleDroneBoost(t *testing.T) {
	disabled, err := solve(t, baseFixture(), testConfig(), exactParameters())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Drones = domain.DroneSettings{Enable: true, Order: domain.DroneOrderPre, Targets: []domain.Product{"", domain.ProductLMD, ""}}
	enabled, err := solve(t, baseFixture(), cfg, exactParameters())
	require.NoError(t, err)

	before := disabled.Shifts[1].Facilities[0]
	after := enabled.Shifts[1].Facilities[0]
	assert.Greater(t, after.Score, before.Score)
	assert.True(t, after.DroneBoosted)
	assert.Equal(t, 1.5, after.Multiplier)
	assert.InDelta(t, 315, after.Score, 1e-9)
	assert.False(t, enabled.Shifts[1].Facilities[1].DroneBoosted)
	assert.Equal(t, domain.ProductLMD, enabled.Shifts[1].DroneTarget)

	for _, i := range []int{0, 2} {
		assert.Equal(t, disabled.Shifts[i].Facilities, enabled.Shifts[i].Facilities)
		assert.Equal(t, disabled.Shifts[i].TotalEfficiency, enabled.Shifts[i].TotalEfficiency)
	}
}

func TestScheduleDroneBoostAfterSolve(t *testing.T) {
	cfg := testConfig()
	cfg.Drones = domain.DroneSettings{Enable: true, Order: domain.DroneOrderPost, Targets: []domain.Product{domain.ProductPureGold, "", ""}}

	res, err := solve(t, baseFixture(), cfg, exactParameters())
	require.NoError(t, err)

	boosted := res.Shifts[0].Facilities[2]
	require.Equal(t, domain.ProductPureGold, boosted.Facility.Product)
	assert.True(t, boosted.DroneBoosted)
	assert.InDelta(t, boosted.RawScore*1.5, boosted.Score, 1e-9)
	assert.InDelta(t, 930+boosted.RawScore*0.5, res.Shifts[0].TotalEfficiency, 1e-9)
	assert.False(t, res.Shifts[1].Facilities[2].DroneBoosted)
}

func TestScheduleRechargeTarget(t *testing.T) {
	cfg := testConfig()
	cfg.Fiammetta.Enable = true

	res, err := solve(t, baseFixture(), cfg, DefaultParameters())
	require.NoError(t, err)

	for _, shift := range res.Shifts {
		require.NotNil(t, shift.RechargeTarget)
		assert.Equal(t, "t8", shift.RechargeTarget.WorkerID)
		assert.InDelta(t, 80, shift.RechargeTarget.Contribution, 1e-9)
		assert.InDelta(t, 930, shift.TotalEfficiency, 1e-9)
	}
}

func TestScheduleBudgetExhaustedBeforeAnySolution(t *testing.T) {
	parameters := exactParameters()
	parameters.NodeBudget = 5

	res, err := solve(t, baseFixture(), testConfig(), parameters)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrSearchBudgetExceeded)
}

func TestScheduleBudgetReturnsBestFound(t *testing.T) {
	// 第一次下探把 x 放进贸易站得到 1000，预算不足以找到 1015
	f := baseFixture().add(generic("x"), entry("x", domain.FacilityTrading, 0, 100), entry("x", domain.FacilityManufacturing, 0, 100))
	parameters := exactParameters()
	parameters.NodeBudget = 11

	res, err := solve(t, f, testConfig(), parameters)
	require.NotNil(t, res)
	assert.ErrorIs(t, err, domain.ErrSearchBudgetExceeded)

	var budgetErr *domain.SearchBudgetError
	require.True(t, errors.As(err, &budgetErr))
	assert.True(t, res.Suboptimal())
	for _, shift := range res.Shifts {
		assert.True(t, shift.Suboptimal)
		assert.InDelta(t, 1000, shift.TotalEfficiency, 1e-9)
	}
}

func TestScheduleCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := baseFixture()
	_, err := NewOptimizer(f.catalog(t), nil, nil).Solve(ctx, f.workers, testConfig(), false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSchedulePrefersLowSkillOnTies(t *testing.T) {
	// h 与 t3 效率相同但练度高，应当留在宿舍；c 练度最低但效率只有 5
	f := baseFixture().
		add(domain.Worker{ID: "h", Name: "h", Rarity: 6, Tier: 2, Level: 90, MaxTier: 2}, entry("h", domain.FacilityTrading, 2, 30)).
		add(promotable("c", 0), entry("c", domain.FacilityTrading, 0, 5))

	for _, parameters := range []*Parameters{DefaultParameters(), exactParameters()} {
		res, err := solve(t, f, testConfig(), parameters)
		require.NoError(t, err)

		for _, shift := range res.Shifts {
			assert.InDelta(t, 930, shift.TotalEfficiency, 1e-9)
			assert.False(t, shift.Suboptimal)
			for _, fa := range shift.Facilities {
				assert.NotContains(t, fa.WorkerIDs(), "h")
				assert.NotContains(t, fa.WorkerIDs(), "c")
			}
		}
	}
}

func TestScheduleTiesStayWithinBudget(t *testing.T) {
	// 只能进贸易站的低练度干员不应削弱制造站和发电站的剪枝，
	// 两个赤金、两个作战记录、三个发电站之间的队伍互换也只搜索一种
	f := baseFixture().add(promotable("c", 0), entry("c", domain.FacilityTrading, 0, 5))

	res, err := solve(t, f, testConfig(), DefaultParameters())
	require.NoError(t, err)

	for _, shift := range res.Shifts {
		assert.False(t, shift.Suboptimal)
		assert.Less(t, shift.Nodes, int64(10_000))
		assert.InDelta(t, 930, shift.TotalEfficiency, 1e-9)
	}
}

func TestRunLogsUnknownWorkerOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	f := baseFixture().add(generic("ghost"))
	_, err := NewOptimizer(f.catalog(t), DefaultParameters(), logger).Run(context.Background(), f.workers, testConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(buf.String(), "干员不在效率表中"))
}
