package domain

// EfficiencyEntry 表示某干员在某精英化阶段、等级解锁的基建技能效率
type EfficiencyEntry struct {
	WorkerID   string       `json:"id"`
	Facility   FacilityType `json:"facility"`
	Product    Product      `json:"product,omitempty"` // 为空表示对该设施的所有产物生效
	Tier       int          `json:"elite"`
	Level      int          `json:"level"`
	Efficiency float64      `json:"efficiency"`
	// 需要同一设施内同时入驻、且精英化阶段不低于 Tier 的干员
	Requires []string `json:"requires,omitempty"`
}

// UnlockedBy 判断干员在给定精英化阶段和等级下是否已解锁该技能
func (e EfficiencyEntry) UnlockedBy(tier int, level int) bool {
	return tier > e.Tier || (tier == e.Tier && level >= e.Level)
}

func (e EfficiencyEntry) AppliesTo(p Product) bool {
	return e.Product == "" || e.Product == p
}
