package scheduler

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

const epsilon = 1e-9

// search 保存一班分支定界的状态
type search struct {
	ctx    context.Context
	order  []int         // 设施的搜索顺序（plan 下标）
	cands  [][]candidate // 按 plan 下标
	suffix []float64     // suffix[k] 为搜索顺序中第 k 个及之后设施的最好候选得分之和
	used   []bool

	// 按干员估计的上界：每名干员最多上岗一次，贡献不超过他在剩余设施候选中的最高贡献
	universe []int       // 出现在候选中的干员
	value    [][]float64 // value[k][u] 为 universe[u] 在搜索顺序第 k 个及之后设施中的最高贡献
	slots    []int       // slots[k] 为第 k 个及之后设施的槽位总数
	scratch  []float64

	skills       []int    // 按 Scheduler.workers 下标
	reach        [][]bool // reach[k][u] 表示 universe[u] 出现在搜索顺序第 k 个及之后设施的候选中
	minSkill     []int    // minSkill[k] 为第 k 个及之后设施各自最低候选练度之和
	skillScratch []int

	// twin[k] 为搜索顺序中 k 之前最近的一个可互换设施，没有时为 -1
	// 可互换的设施只搜索候选下标递增的方案
	twin []int

	chosen []int // 按 plan 下标记录选中的候选
	score  float64
	skill  int
	depth  int

	found     bool
	best      []int
	bestScore float64
	bestSkill int

	nodes     int64
	budget    int64
	exhausted bool
	ctxErr    error
}

/**
 * 每一班是一个带权集合装箱问题：每个设施选一个候选组合，同一干员最多出现一次，最大化
 *		Σ raw × weight × multiplier
 * 按设施槽位数从大到小深度优先搜索，用剩余设施不受约束的最好得分作为上界剪枝
 * 得分相同（误差 1e-9 内）时，选择上岗干员总练度最低的方案，把高练度干员留给其他用途
 */
func (s *Scheduler) solveShift(ctx context.Context, shift int, plan []slot, cands [][]candidate) (*domain.ShiftResult, error) {
	for i, sl := range plan {
		if len(cands[i]) == 0 {
			return nil, &domain.InfeasibleAssignmentError{Shift: shift + 1, Facility: sl.facility, Reason: "没有足够的可入驻干员"}
		}
	}
	if err := checkCapacity(shift, plan, cands); err != nil {
		return nil, err
	}

	st := &search{
		ctx:    ctx,
		order:  make([]int, len(plan)),
		cands:  cands,
		suffix: make([]float64, len(plan)+1),
		used:   make([]bool, len(s.workers)),
		skills: make([]int, len(s.workers)),
		chosen: make([]int, len(plan)),
		budget: s.parameters.NodeBudget,
	}
	for i, w := range s.workers {
		st.skills[i] = w.Skill()
	}

	for i := range st.order {
		st.order[i] = i
	}
	slices.SortStableFunc(st.order, func(a, b int) int {
		return cmp.Compare(plan[b].facility.Capacity, plan[a].facility.Capacity)
	})

	for i := range cands {
		slices.SortStableFunc(cands[i], func(a, b candidate) int {
			return cmp.Compare(b.effective, a.effective)
		})
	}
	for k := len(st.order) - 1; k >= 0; k-- {
		st.suffix[k] = st.suffix[k+1] + cands[st.order[k]][0].effective
	}
	st.prepareWorkerBound(plan)
	st.prepareTwins(plan)

	st.dfs(0)

	if !st.found {
		if st.ctxErr != nil {
			return nil, st.ctxErr
		}
		if st.exhausted {
			return nil, &domain.SearchBudgetError{Shift: shift + 1, Nodes: st.nodes}
		}
		f := plan[st.order[min(st.depth, len(st.order)-1)]].facility
		return nil, &domain.InfeasibleAssignmentError{Shift: shift + 1, Facility: f, Reason: "候选组合无法互不冲突地填满全部设施"}
	}

	sr := s.buildShift(shift, plan, st)
	if st.exhausted {
		sr.Suboptimal = true
		if st.ctxErr != nil {
			return sr, fmt.Errorf("%w: %w", &domain.SearchBudgetError{Shift: shift + 1, Nodes: st.nodes}, st.ctxErr)
		}
		return sr, &domain.SearchBudgetError{Shift: shift + 1, Nodes: st.nodes}
	}
	return sr, nil
}

func (st *search) dfs(pos int) {
	if st.stopped() {
		return
	}
	st.nodes++
	st.depth = max(st.depth, pos)

	if pos == len(st.order) {
		st.consider()
		return
	}

	idx := st.order[pos]
	start := 0
	if tw := st.twin[pos]; tw >= 0 {
		start = st.chosen[st.order[tw]] + 1
	}
	for ci := start; ci < len(st.cands[idx]); ci++ {
		c := &st.cands[idx][ci]
		if c.conflicts(st.used) {
			continue
		}
		// 候选按得分降序排列，后面的只会更差
		if st.found && st.score+c.effective+st.suffix[pos+1] < st.bestScore-epsilon {
			break
		}

		st.take(idx, ci, c)
		if !st.found || !st.prunable(pos+1) {
			st.dfs(pos + 1)
		}
		st.release(c)

		if st.exhausted {
			return
		}
	}
}

// prunable 判断当前部分方案是否已经不可能优于已知最优方案
func (st *search) prunable(pos int) bool {
	bound := st.score + min(st.suffix[pos], st.workerBound(pos))
	if bound < st.bestScore-epsilon {
		return true
	}
	// 最多打平，而填满剩余槽位后的练度不可能低于当前最优
	return bound <= st.bestScore+epsilon && st.skill+st.skillBound(pos) >= st.bestSkill
}

func (st *search) prepareWorkerBound(plan []slot) {
	seen := make(map[int]int)
	for _, cs := range st.cands {
		for _, c := range cs {
			for _, m := range c.members {
				if _, ok := seen[m]; !ok {
					seen[m] = len(st.universe)
					st.universe = append(st.universe, m)
				}
			}
		}
	}

	n := len(st.order)
	st.value = make([][]float64, n+1)
	st.reach = make([][]bool, n+1)
	st.slots = make([]int, n+1)
	st.minSkill = make([]int, n+1)
	st.value[n] = make([]float64, len(st.universe))
	st.reach[n] = make([]bool, len(st.universe))
	for k := n - 1; k >= 0; k-- {
		idx := st.order[k]
		st.value[k] = slices.Clone(st.value[k+1])
		st.reach[k] = slices.Clone(st.reach[k+1])
		st.slots[k] = st.slots[k+1] + plan[idx].facility.Capacity
		lowest := -1
		for _, c := range st.cands[idx] {
			factor := plan[idx].weight * plan[idx].multiplier
			for j, m := range c.members {
				u := seen[m]
				st.value[k][u] = max(st.value[k][u], c.contributions[j]*factor)
				st.reach[k][u] = true
			}
			if lowest < 0 || c.skill < lowest {
				lowest = c.skill
			}
		}
		st.minSkill[k] = st.minSkill[k+1] + max(lowest, 0)
	}
	st.scratch = make([]float64, 0, len(st.universe))
	st.skillScratch = make([]int, 0, len(st.universe))
}

func (st *search) workerBound(pos int) float64 {
	if st.slots[pos] == 0 {
		return 0
	}
	values := st.scratch[:0]
	for u, m := range st.universe {
		if !st.used[m] && st.value[pos][u] > 0 {
			values = append(values, st.value[pos][u])
		}
	}
	slices.Sort(values)

	bound := 0.0
	for i := len(values) - 1; i >= 0 && i >= len(values)-st.slots[pos]; i-- {
		bound += values[i]
	}
	return bound
}

// skillBound 是填满剩余槽位至少需要的练度之和，只考虑还能入驻剩余设施的空闲干员
func (st *search) skillBound(pos int) int {
	if st.slots[pos] == 0 {
		return 0
	}
	skills := st.skillScratch[:0]
	for u, m := range st.universe {
		if st.reach[pos][u] && !st.used[m] {
			skills = append(skills, st.skills[m])
		}
	}
	slices.Sort(skills)

	total := 0
	for i := 0; i < len(skills) && i < st.slots[pos]; i++ {
		total += skills[i]
	}
	return max(total, st.minSkill[pos])
}

// prepareTwins 找出可以互换的设施：类型、产物、倍率相同且候选完全一致。
// 互换两个设施的队伍得分和练度都不变，只保留其中一种排列
func (st *search) prepareTwins(plan []slot) {
	st.twin = make([]int, len(st.order))
	for k, idx := range st.order {
		st.twin[k] = -1
		for q := k - 1; q >= 0; q-- {
			if interchangeable(plan[st.order[q]], plan[idx], st.cands[st.order[q]], st.cands[idx]) {
				st.twin[k] = q
				break
			}
		}
	}
}

func interchangeable(a, b slot, ca, cb []candidate) bool {
	if a.facility.Type != b.facility.Type ||
		a.facility.Product != b.facility.Product ||
		a.facility.Capacity != b.facility.Capacity ||
		a.weight != b.weight ||
		a.multiplier != b.multiplier ||
		a.boosted != b.boosted {
		return false
	}
	return slices.EqualFunc(ca, cb, func(x, y candidate) bool {
		return x.effective == y.effective && slices.Equal(x.members, y.members)
	})
}

func (st *search) stopped() bool {
	if st.exhausted {
		return true
	}
	if st.budget > 0 && st.nodes >= st.budget {
		st.exhausted = true
		return true
	}
	if st.nodes&1023 == 0 {
		if err := st.ctx.Err(); err != nil {
			st.exhausted = true
			st.ctxErr = err
			return true
		}
	}
	return false
}

func (st *search) take(idx, ci int, c *candidate) {
	for _, m := range c.members {
		st.used[m] = true
	}
	st.chosen[idx] = ci
	st.score += c.effective
	st.skill += c.skill
}

func (st *search) release(c *candidate) {
	for _, m := range c.members {
		st.used[m] = false
	}
	st.score -= c.effective
	st.skill -= c.skill
}

func (st *search) consider() {
	better := !st.found ||
		st.score > st.bestScore+epsilon ||
		(st.score >= st.bestScore-epsilon && st.skill < st.bestSkill)
	if !better {
		return
	}
	st.found = true
	st.best = slices.Clone(st.chosen)
	st.bestScore = st.score
	st.bestSkill = st.skill
}

// checkCapacity 在搜索前检查候选中出现的干员是否足够填满同类设施以及全部设施
func checkCapacity(shift int, plan []slot, cands [][]candidate) error {
	need := make(map[domain.FacilityType]int)
	members := make(map[domain.FacilityType]map[int]bool)
	last := make(map[domain.FacilityType]domain.Facility)
	all := make(map[int]bool)
	total := 0

	for i, sl := range plan {
		t := sl.facility.Type
		need[t] += sl.facility.Capacity
		total += sl.facility.Capacity
		last[t] = sl.facility
		if members[t] == nil {
			members[t] = make(map[int]bool)
		}
		for _, c := range cands[i] {
			for _, m := range c.members {
				members[t][m] = true
				all[m] = true
			}
		}
	}

	for _, sl := range plan {
		t := sl.facility.Type
		if len(members[t]) < need[t] {
			return &domain.InfeasibleAssignmentError{
				Shift:    shift + 1,
				Facility: last[t],
				Reason:   fmt.Sprintf("%s 需要 %d 名干员，可入驻的只有 %d 名", t.Label(), need[t], len(members[t])),
			}
		}
	}
	if len(all) < total {
		return &domain.InfeasibleAssignmentError{
			Shift:    shift + 1,
			Facility: plan[len(plan)-1].facility,
			Reason:   fmt.Sprintf("全部设施需要 %d 名干员，可入驻的只有 %d 名", total, len(all)),
		}
	}
	return nil
}

func (s *Scheduler) buildShift(shift int, plan []slot, st *search) *domain.ShiftResult {
	sr := &domain.ShiftResult{
		Shift:      shift + 1,
		Facilities: make([]domain.FacilityAssignment, len(plan)),
		Nodes:      st.nodes,
	}
	if target, ok := s.config.DroneTarget(shift); ok {
		sr.DroneTarget = target
	}

	for i, sl := range plan {
		c := st.cands[i][st.best[i]]
		fa := domain.FacilityAssignment{
			Facility:     sl.facility,
			Workers:      make([]domain.AssignedWorker, len(c.members)),
			RawScore:     c.raw,
			Weight:       sl.weight,
			Multiplier:   sl.multiplier,
			Score:        c.effective,
			DroneBoosted: sl.boosted && s.config.EffectiveDroneOrder() == domain.DroneOrderPre,
		}
		for j, m := range c.members {
			w := s.workers[m]
			fa.Workers[j] = domain.AssignedWorker{
				ID:           w.ID,
				Name:         w.Name,
				Tier:         w.Tier,
				Level:        w.Level,
				Contribution: c.contributions[j],
			}
		}
		sr.Facilities[i] = fa
	}
	sr.Recompute()

	return sr
}
