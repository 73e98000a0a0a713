package domain

// Worker 表示玩家拥有的一名干员
type Worker struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Rarity  int    `json:"rarity"`
	Tier    int    `json:"elite"` // 当前精英化阶段
	Level   int    `json:"level"`
	MaxTier int    `json:"maxElite"`
}

// 不同星级在各精英化阶段的等级上限，下标为 [星级-1][精英化阶段]
var maxLevels = [6][]int{
	{30},
	{30},
	{40, 55},
	{45, 60, 70},
	{50, 70, 80},
	{50, 80, 90},
}

// MaxTierForRarity 返回该星级能达到的最高精英化阶段
func MaxTierForRarity(rarity int) int {
	switch {
	case rarity <= 2:
		return 0
	case rarity == 3:
		return 1
	default:
		return 2
	}
}

// MaxLevel 返回某星级在某精英化阶段下的等级上限
func MaxLevel(rarity int, tier int) int {
	idx := min(max(rarity, 1), 6) - 1
	levels := maxLevels[idx]
	if tier < 0 || tier >= len(levels) {
		return 0
	}
	return levels[tier]
}

// Skill 用于平分时的比较，精英化阶段优先于等级
func (w Worker) Skill() int {
	return w.Tier*100 + w.Level
}

// CanPromote 表示该干员是否还能继续精英化
func (w Worker) CanPromote() bool {
	return w.Tier < w.MaxTier
}
