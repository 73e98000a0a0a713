package scheduler

import (
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

// applyBonuses 依次处理无人机加速和菲亚梅塔充能标记
func (s *Scheduler) applyBonuses(shift int, plan []slot, sr *domain.ShiftResult) {
	if s.config.EffectiveDroneOrder() == domain.DroneOrderPost {
		applyDroneBoost(plan, sr, s.parameters.DroneBoostFactor)
	}
	if s.config.Fiammetta.Enable {
		sr.RechargeTarget = rechargeTarget(sr)
	}
	sr.Recompute()
}

// applyDroneBoost 在求解之后对加速设施追加倍率，不改变入驻方案
func applyDroneBoost(plan []slot, sr *domain.ShiftResult, factor float64) {
	for i, sl := range plan {
		if !sl.boosted {
			continue
		}
		fa := &sr.Facilities[i]
		fa.Multiplier = factor
		fa.Score = fa.RawScore * fa.Weight * fa.Multiplier
		fa.DroneBoosted = true
	}
}

// rechargeTarget 选出本班贡献最高的干员作为充能对象，只做标记，不影响得分
// 贡献相同时选 ID 较小的干员
func rechargeTarget(sr *domain.ShiftResult) *domain.RechargeTarget {
	var best *domain.RechargeTarget
	for _, fa := range sr.Facilities {
		for _, w := range fa.Workers {
			contribution := w.Contribution * fa.Weight * fa.Multiplier
			if best == nil ||
				contribution > best.Contribution+epsilon ||
				(contribution >= best.Contribution-epsilon && w.ID < best.WorkerID) {
				best = &domain.RechargeTarget{
					WorkerID:     w.ID,
					Name:         w.Name,
					Facility:     fa.Facility.Name(),
					Contribution: contribution,
				}
			}
		}
	}
	return best
}
