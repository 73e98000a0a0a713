package scheduler

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/roster"
)

// Optimizer 是排班计算的入口：同一份效率表、干员和配置，分别按当前练度和练满求解，再给出练度建议
type Optimizer struct {
	catalog    *catalog.Catalog
	parameters *Parameters
	logger     *slog.Logger
}

// Outcome 是一次完整计算的结果
type Outcome struct {
	Current   *domain.SolveResult  `json:"current"`
	Potential *domain.SolveResult  `json:"potential"`
	Upgrades  []domain.UpgradeItem `json:"upgrades"`
	Warnings  []string             `json:"warnings,omitempty"`
}

func NewOptimizer(cat *catalog.Catalog, parameters *Parameters, logger *slog.Logger) *Optimizer {
	if parameters == nil {
		parameters = DefaultParameters()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Optimizer{
		catalog:    cat,
		parameters: parameters,
		logger:     logger,
	}
}

func (o *Optimizer) Catalog() *catalog.Catalog {
	return o.catalog
}

// WithCatalog 返回使用新效率表、其余设置不变的 Optimizer
func (o *Optimizer) WithCatalog(cat *catalog.Catalog) *Optimizer {
	return &Optimizer{
		catalog:    cat,
		parameters: o.parameters,
		logger:     o.logger,
	}
}

// Solve 是唯一的求解入口，lifted 为 true 时先对干员做天花板提升变换
func (o *Optimizer) Solve(ctx context.Context, workers []domain.Worker, cfg *domain.Configuration, lifted bool) (*domain.SolveResult, error) {
	if lifted {
		workers = roster.LiftCeiling(workers)
	}

	s, err := New(o.parameters, o.catalog, cfg, workers, lifted, o.logger)
	if err != nil {
		return nil, err
	}

	return s.Schedule(ctx)
}

// Run 并发完成两次求解，两者都结束后再计算练度建议
// 搜索预算耗尽不算失败，会记录在 Outcome.Warnings 中
func (o *Optimizer) Run(ctx context.Context, workers []domain.Worker, cfg *domain.Configuration) (*Outcome, error) {
	var results [2]*domain.SolveResult
	var budgetErrs [2]error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(o.parameters.Concurrency, 1))

	for i, lifted := range []bool{false, true} {
		g.Go(func() error {
			res, err := o.Solve(gctx, workers, cfg, lifted)
			if res == nil {
				return err
			}
			results[i] = res
			budgetErrs[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Current:   results[0],
		Potential: results[1],
		Warnings:  make([]string, 0),
	}
	for _, err := range budgetErrs {
		if errors.Is(err, domain.ErrSearchBudgetExceeded) {
			outcome.Warnings = append(outcome.Warnings, err.Error())
		}
	}

	if outcome.Potential.TotalEfficiency < outcome.Current.TotalEfficiency-epsilon {
		// 只可能在候选被截断或搜索预算耗尽时出现
		o.logger.Warn("练满后的总效率低于当前练度",
			slog.Float64("current", outcome.Current.TotalEfficiency),
			slog.Float64("potential", outcome.Potential.TotalEfficiency),
		)
		outcome.Warnings = append(outcome.Warnings, "练满后的总效率低于当前练度，可以调大候选数量后重试")
	}

	upgrades, err := Advise(o.catalog, outcome.Current, outcome.Potential, o.parameters.MinGain)
	if err != nil {
		return nil, err
	}
	outcome.Upgrades = upgrades

	o.logger.Info("排班计算完成",
		slog.Float64("current", outcome.Current.TotalEfficiency),
		slog.Float64("potential", outcome.Potential.TotalEfficiency),
		slog.Int("upgrades", len(upgrades)),
	)

	return outcome, nil
}
