package domain

type UpgradeKind string

const (
	UpgradeSingle UpgradeKind = "single"
	UpgradeBundle UpgradeKind = "bundle"
)

type UpgradeStep struct {
	WorkerID    string `json:"id"`
	Name        string `json:"name"`
	CurrentTier int    `json:"current"`
	TargetTier  int    `json:"target"`
}

// UpgradeItem 是一条练度提升建议。Bundle 表示收益不可拆分、需要一起精英化的组合
type UpgradeItem struct {
	Kind    UpgradeKind   `json:"type"`
	Workers []UpgradeStep `json:"ops"`
	// Gain 为相对当前方案总效率的提升比例
	Gain float64 `json:"gain"`
	// AbsoluteGain 为三班合计提升的效率百分点
	AbsoluteGain float64 `json:"absoluteGain"`
}

func (u UpgradeItem) Names() []string {
	names := make([]string, len(u.Workers))
	for i, w := range u.Workers {
		names[i] = w.Name
	}
	return names
}
