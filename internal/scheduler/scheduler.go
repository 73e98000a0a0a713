package scheduler

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/utils"
)

type Scheduler struct {
	parameters *Parameters
	catalog    *catalog.Catalog
	config     *domain.Configuration
	logger     *slog.Logger
	layout     []domain.Facility
	workers    []domain.Worker // 只包含效率表中存在的干员，按 ID 排序
	excluded   []string
	lifted     bool
}

// New 创建一次求解。workers 应当已经过天花板提升变换（如果需要），lifted 只用于标记结果
func New(parameters *Parameters, cat *catalog.Catalog, cfg *domain.Configuration, workers []domain.Worker, lifted bool, logger *slog.Logger) (*Scheduler, error) {
	if parameters == nil {
		parameters = DefaultParameters()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := utils.ValidateConfiguration(cfg, cat.Products()); err != nil {
		return nil, err
	}
	if err := utils.ValidIfExistsDuplicateWorker(workers); err != nil {
		return nil, err
	}

	s := &Scheduler{
		parameters: parameters,
		catalog:    cat,
		config:     cfg,
		logger:     logger,
		layout:     cfg.Layout(),
		workers:    make([]domain.Worker, 0, len(workers)),
		excluded:   make([]string, 0),
		lifted:     lifted,
	}

	for _, w := range workers {
		if !cat.Has(w.ID) {
			// 不在效率表中的干员不参与排班，但不影响本次求解
			// 练满后的求解使用同一份干员，只在按当前练度求解时记录一次
			if !lifted {
				logger.Warn("干员不在效率表中，不参与排班", "name", w.Name, "error", &domain.UnknownWorkerError{WorkerID: w.ID})
			}
			s.excluded = append(s.excluded, w.ID)
			continue
		}
		s.workers = append(s.workers, w)
	}
	slices.SortFunc(s.workers, func(a, b domain.Worker) int {
		return cmp.Compare(a.ID, b.ID)
	})
	slices.Sort(s.excluded)

	return s, nil
}

// Schedule 依次求解三个班次。
// 搜索预算耗尽时仍然返回已找到的最好结果，同时返回可以用 errors.Is 匹配 ErrSearchBudgetExceeded 的错误；
// 其余错误返回时结果为 nil
func (s *Scheduler) Schedule(ctx context.Context) (*domain.SolveResult, error) {
	result := &domain.SolveResult{
		CeilingLifted: s.lifted,
		Shifts:        make([]domain.ShiftResult, 0, domain.ShiftsPerDay),
		Excluded:      s.excluded,
		Roster:        slices.Clone(s.workers),
	}

	var budgetErrs []error
	var resting []bool

	for shift := 0; shift < domain.ShiftsPerDay; shift++ {
		plan := s.planShift(shift)

		cands, err := s.generateCandidates(ctx, plan, resting)
		if err != nil {
			return nil, err
		}

		sr, err := s.solveShift(ctx, shift, plan, cands)
		if err != nil {
			if !errors.Is(err, domain.ErrSearchBudgetExceeded) || sr == nil {
				return nil, err
			}
			s.logger.Warn("搜索预算耗尽，使用已找到的最好结果", slog.Int("shift", shift+1), slog.Int64("nodes", sr.Nodes))
			budgetErrs = append(budgetErrs, err)
		}

		s.applyBonuses(shift, plan, sr)
		result.Shifts = append(result.Shifts, *sr)

		if s.config.Rotation {
			resting = s.onDuty(sr)
		}
	}

	result.Recompute()

	// 再检查一遍结果是否满足填满和互斥的约束
	if err := utils.ValidateSolveResult(result, s.layout); err != nil {
		return nil, err
	}

	return result, errors.Join(budgetErrs...)
}

// planShift 按布局生成本班的设施，确定权重和无人机加速的设施
func (s *Scheduler) planShift(shift int) []slot {
	plan := make([]slot, len(s.layout))
	target, hasTarget := s.config.DroneTarget(shift)
	boostedFound := false

	for i, f := range s.layout {
		plan[i] = slot{
			facility:   f,
			weight:     s.config.Weight(f.Product),
			multiplier: 1,
		}
		// 只有布局中第一个生产目标产物的设施获得加速
		if hasTarget && !boostedFound && f.Product == target {
			boostedFound = true
			plan[i].boosted = true
			if s.config.EffectiveDroneOrder() == domain.DroneOrderPre {
				plan[i].multiplier = s.parameters.DroneBoostFactor
			}
		}
	}

	return plan
}

// onDuty 返回本班上岗的干员，开启轮换时他们在下一班休息
func (s *Scheduler) onDuty(sr *domain.ShiftResult) []bool {
	index := make(map[string]int, len(s.workers))
	for i, w := range s.workers {
		index[w.ID] = i
	}

	busy := make([]bool, len(s.workers))
	for _, fa := range sr.Facilities {
		for _, w := range fa.Workers {
			busy[index[w.ID]] = true
		}
	}
	return busy
}
