package scheduler

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

// Advise 比较当前练度和练满后的两次求解结果，给出精英化建议
//
// 对练满方案中的每个设施，精英化阶段能够提升的干员记为 U，用当前练度重新计算设施得分：
//   - S0：全部保持当前练度
//   - S_all：U 全部提升
//   - S_u：只提升 u
//   - S_all\u：除 u 以外全部提升
//
// g_u = S_u - S0 与 m_u = S_all - S_all\u 相等的干员收益可以单独计算；其余干员的收益相互依赖，
// 合并为一条组合建议，收益为 S_all - S0 减去可单独计算的部分
//
// 练满方案的设施队伍不一定出现在当前方案中，上面的收益只用来拆分建议。
// 每一班实际计入的收益按两次求解的真实差值分摊，见 attribute
func Advise(cat *catalog.Catalog, current, potential *domain.SolveResult, minGain float64) ([]domain.UpgradeItem, error) {
	items := make(map[string]*domain.UpgradeItem)

	add := func(c contribution, gain float64) {
		if gain <= epsilon {
			return
		}
		key := strings.Join(stepIDs(domain.UpgradeItem{Workers: c.steps}), ",")
		if item, ok := items[key]; ok {
			item.AbsoluteGain += gain
			return
		}
		items[key] = &domain.UpgradeItem{Kind: c.kind, Workers: c.steps, AbsoluteGain: gain}
	}

	for si, sr := range potential.Shifts {
		if si >= len(current.Shifts) {
			return nil, fmt.Errorf("当前练度的求解结果中没有第 %d 班", sr.Shift)
		}

		contributions := make([]contribution, 0)
		for _, fa := range sr.Facilities {
			cs, err := adviseFacility(cat, current, potential, fa)
			if err != nil {
				return nil, err
			}
			contributions = append(contributions, cs...)
		}

		for i, gain := range attribute(&current.Shifts[si], &sr, contributions) {
			add(contributions[i], gain)
		}
	}

	base := current.TotalEfficiency
	if base <= 0 {
		base = 100
	}

	result := make([]domain.UpgradeItem, 0, len(items))
	for _, item := range items {
		item.Gain = item.AbsoluteGain / base
		if item.Gain <= minGain {
			continue
		}
		result = append(result, *item)
	}
	slices.SortFunc(result, func(a, b domain.UpgradeItem) int {
		return cmp.Or(
			cmp.Compare(b.Gain, a.Gain),
			slices.Compare(stepIDs(a), stepIDs(b)),
		)
	})

	return result, nil
}

// contribution 是一个班次中某个设施的一条建议，raw 为反事实重算得到的收益
type contribution struct {
	kind     domain.UpgradeKind
	steps    []domain.UpgradeStep
	facility domain.FacilityType
	raw      float64
}

// attribute 把一班的实际提升（练满方案减去当前方案）分摊到本班的建议上：
// 先按设施类型把该类设施的实际变化按 raw 的比例分给该类设施中的建议，
// 跨类型调动造成的剩余部分再按 raw 的比例分给本班全部建议。
// 本班没有提升时所有建议都记为 0
func attribute(current, potential *domain.ShiftResult, cs []contribution) []float64 {
	gains := make([]float64, len(cs))

	typeDelta := make(map[domain.FacilityType]float64)
	delta := 0.0
	for _, fa := range potential.Facilities {
		typeDelta[fa.Facility.Type] += fa.Score
		delta += fa.Score
	}
	for _, fa := range current.Facilities {
		typeDelta[fa.Facility.Type] -= fa.Score
		delta -= fa.Score
	}
	if delta <= epsilon {
		return gains
	}

	typeRaw := make(map[domain.FacilityType]float64)
	totalRaw := 0.0
	for _, c := range cs {
		typeRaw[c.facility] += c.raw
		totalRaw += c.raw
	}
	if totalRaw <= epsilon {
		return gains
	}

	attributed := 0.0
	for i, c := range cs {
		if d := typeDelta[c.facility]; d > 0 {
			gains[i] = c.raw / typeRaw[c.facility] * d
			attributed += gains[i]
		}
	}

	leftover := delta - attributed
	for i, c := range cs {
		gains[i] = max(gains[i]+leftover*c.raw/totalRaw, 0)
	}

	return gains
}

func stepIDs(item domain.UpgradeItem) []string {
	ids := make([]string, len(item.Workers))
	for i, w := range item.Workers {
		ids[i] = w.WorkerID
	}
	return ids
}

func adviseFacility(cat *catalog.Catalog, current, potential *domain.SolveResult, fa domain.FacilityAssignment) ([]contribution, error) {
	members := make([]domain.Worker, len(fa.Workers))
	raised := make([]domain.Worker, len(fa.Workers))
	upgradable := make([]int, 0)

	for i, aw := range fa.Workers {
		now, ok := current.WorkerByID(aw.ID)
		if !ok {
			return nil, fmt.Errorf("当前练度的求解结果中没有干员 %s", aw.ID)
		}
		lifted, ok := potential.WorkerByID(aw.ID)
		if !ok {
			return nil, fmt.Errorf("练满后的求解结果中没有干员 %s", aw.ID)
		}
		members[i] = now
		raised[i] = now
		if lifted.Tier > now.Tier {
			raised[i] = lifted
			upgradable = append(upgradable, i)
		}
	}
	if len(upgradable) == 0 {
		return nil, nil
	}

	// 按给定的提升集合计算设施得分
	score := func(up map[int]bool) (float64, error) {
		team := make([]domain.Worker, len(members))
		for i := range members {
			if up[i] {
				team[i] = raised[i]
			} else {
				team[i] = members[i]
			}
		}
		total := 0.0
		for _, w := range team {
			e, err := cat.Efficiency(w, fa.Facility.Type, fa.Facility.Product, team)
			if err != nil {
				return 0, err
			}
			total += e
		}
		return total * fa.Weight * fa.Multiplier, nil
	}

	only := func(u int) map[int]bool { return map[int]bool{u: true} }
	allBut := func(u int) map[int]bool {
		set := make(map[int]bool)
		for _, v := range upgradable {
			if v != u {
				set[v] = true
			}
		}
		return set
	}

	s0, err := score(nil)
	if err != nil {
		return nil, err
	}
	// 下标不会是 -1，即全部提升
	sAll, err := score(allBut(-1))
	if err != nil {
		return nil, err
	}

	step := func(i int) domain.UpgradeStep {
		return domain.UpgradeStep{
			WorkerID:    members[i].ID,
			Name:        members[i].Name,
			CurrentTier: members[i].Tier,
			TargetTier:  raised[i].Tier,
		}
	}

	result := make([]contribution, 0)
	add := func(kind domain.UpgradeKind, steps []domain.UpgradeStep, raw float64) {
		if raw <= epsilon {
			return
		}
		slices.SortFunc(steps, func(a, b domain.UpgradeStep) int {
			return cmp.Compare(a.WorkerID, b.WorkerID)
		})
		result = append(result, contribution{kind: kind, steps: steps, facility: fa.Facility.Type, raw: raw})
	}

	separable := 0.0
	bundle := make([]domain.UpgradeStep, 0)
	for _, u := range upgradable {
		su, err := score(only(u))
		if err != nil {
			return nil, err
		}
		sWithout, err := score(allBut(u))
		if err != nil {
			return nil, err
		}
		single := su - s0
		marginal := sAll - sWithout
		if math.Abs(single-marginal) <= 1e-6 {
			add(domain.UpgradeSingle, []domain.UpgradeStep{step(u)}, single)
			separable += single
			continue
		}
		bundle = append(bundle, step(u))
	}

	switch len(bundle) {
	case 0:
	case 1:
		add(domain.UpgradeSingle, bundle, sAll-s0-separable)
	default:
		add(domain.UpgradeBundle, bundle, sAll-s0-separable)
	}

	return result, nil
}
