package domain

type AssignedWorker struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Tier         int     `json:"elite"`
	Level        int     `json:"level"`
	Contribution float64 `json:"contribution"`
}

// FacilityAssignment 是某一班中一个设施的入驻情况
type FacilityAssignment struct {
	Facility     Facility         `json:"facility"`
	Workers      []AssignedWorker `json:"workers"`
	RawScore     float64          `json:"rawScore"`
	Weight       float64          `json:"weight"`
	Multiplier   float64          `json:"multiplier"`
	Score        float64          `json:"score"`
	DroneBoosted bool             `json:"droneBoosted"`
}

func (fa *FacilityAssignment) WorkerIDs() []string {
	ids := make([]string, len(fa.Workers))
	for i, w := range fa.Workers {
		ids[i] = w.ID
	}
	return ids
}

type RechargeTarget struct {
	WorkerID     string  `json:"id"`
	Name         string  `json:"name"`
	Facility     string  `json:"facility"`
	Contribution float64 `json:"contribution"`
}

type ShiftResult struct {
	Shift           int                  `json:"shift"` // 从 1 开始
	Facilities      []FacilityAssignment `json:"facilities"`
	TotalEfficiency float64              `json:"totalEfficiency"`
	RechargeTarget  *RechargeTarget      `json:"rechargeTarget,omitempty"`
	DroneTarget     Product              `json:"droneTarget,omitempty"`
	// 搜索预算耗尽时为 true，此时结果不保证最优
	Suboptimal bool  `json:"suboptimal"`
	Nodes      int64 `json:"nodes"`
}

// Recompute 根据各设施得分重新计算本班总效率
func (sr *ShiftResult) Recompute() {
	total := 0.0
	for i := range sr.Facilities {
		total += sr.Facilities[i].Score
	}
	sr.TotalEfficiency = total
}

// SolveResult 是一次完整求解（3 班）的结果，创建后只读
type SolveResult struct {
	CeilingLifted   bool          `json:"ceilingLifted"`
	Shifts          []ShiftResult `json:"shifts"`
	TotalEfficiency float64       `json:"totalEfficiency"`
	Excluded        []string      `json:"excluded,omitempty"`

	// 本次求解所用的干员快照（已经过天花板提升变换）
	Roster []Worker `json:"-"`
}

func (r *SolveResult) Recompute() {
	total := 0.0
	for i := range r.Shifts {
		r.Shifts[i].Recompute()
		total += r.Shifts[i].TotalEfficiency
	}
	r.TotalEfficiency = total
}

func (r *SolveResult) Suboptimal() bool {
	for _, s := range r.Shifts {
		if s.Suboptimal {
			return true
		}
	}
	return false
}

// WorkerByID 在快照中查找干员
func (r *SolveResult) WorkerByID(id string) (Worker, bool) {
	for _, w := range r.Roster {
		if w.ID == id {
			return w, true
		}
	}
	return Worker{}, false
}
