package scheduler

import (
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

// 求解参数
type Parameters struct {
	BeamWidth        int     // 每个设施保留的候选组合数量
	PoolSize         int     // 每个设施参与组合枚举的干员数量
	MaxAppearances   int     // 同一干员在单个设施的候选组合中最多出现的次数
	NodeBudget       int64   // 每一班分支定界的节点上限，0 表示不限制
	DroneBoostFactor float64 // 无人机加速倍率
	MinGain          float64 // 练度建议的最小相对收益
	Concurrency      int     // 同时进行的求解数量
}

func DefaultParameters() *Parameters {
	return &Parameters{
		BeamWidth:        200,
		PoolSize:         24,
		MaxAppearances:   24,
		NodeBudget:       2_000_000,
		DroneBoostFactor: 1.5,
		MinGain:          1e-3,
		Concurrency:      2,
	}
}

// ParametersFromConfig 读取环境变量中的求解参数
func ParametersFromConfig(cfg *config.Config) *Parameters {
	return &Parameters{
		BeamWidth:        cfg.Optimizer.BeamWidth,
		PoolSize:         cfg.Optimizer.PoolSize,
		MaxAppearances:   cfg.Optimizer.MaxAppearances,
		NodeBudget:       cfg.Optimizer.NodeBudget,
		DroneBoostFactor: cfg.Optimizer.DroneBoostFactor,
		MinGain:          cfg.Optimizer.MinGain,
		Concurrency:      cfg.Optimizer.Concurrency,
	}
}

// slot 是某一班中一个待填满的设施
type slot struct {
	facility   domain.Facility
	weight     float64
	multiplier float64 // 计入求解目标的倍率，无人机后置时为 1
	boosted    bool    // 本班无人机加速的设施
}

// candidate 是某个设施的一个候选组合
type candidate struct {
	members       []int     // 干员在 Scheduler.workers 中的下标，升序
	contributions []float64 // 与 members 一一对应
	raw           float64
	effective     float64
	skill         int
}

// conflicts 判断组合中是否有干员已被占用
func (c *candidate) conflicts(used []bool) bool {
	for _, m := range c.members {
		if used[m] {
			return true
		}
	}
	return false
}
