package scheduler

import (
	"cmp"
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

// generateCandidates 为本班的每个设施生成候选组合，各设施之间互不依赖，并发生成
// resting 中为 true 的干员本班休息，不参与候选
func (s *Scheduler) generateCandidates(ctx context.Context, plan []slot, resting []bool) ([][]candidate, error) {
	result := make([][]candidate, len(plan))

	g, ctx := errgroup.WithContext(ctx)
	for i := range plan {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cands, err := s.candidatesFor(plan[i], resting)
			if err != nil {
				return err
			}
			result[i] = cands
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Scheduler) candidatesFor(sl slot, resting []bool) ([]candidate, error) {
	f := sl.facility

	// 按不考虑搭档时的最高效率选出候选池
	type ranked struct {
		index int
		score float64
	}
	pool := make([]ranked, 0)
	for i, w := range s.workers {
		if resting != nil && resting[i] {
			continue
		}
		if !s.catalog.Usable(w, f.Type, f.Product) {
			continue
		}
		pool = append(pool, ranked{index: i, score: s.catalog.Optimistic(w, f.Type, f.Product)})
	}
	slices.SortFunc(pool, func(a, b ranked) int {
		return cmp.Or(cmp.Compare(b.score, a.score), cmp.Compare(a.index, b.index))
	})
	if len(pool) > s.parameters.PoolSize {
		pool = pool[:s.parameters.PoolSize]
	}
	if len(pool) < f.Capacity {
		return nil, nil
	}

	indices := make([]int, len(pool))
	for i, r := range pool {
		indices[i] = r.index
	}
	slices.Sort(indices)

	// 枚举恰好 Capacity 人的全部组合
	all := make([]candidate, 0)
	chosen := make([]int, 0, f.Capacity)
	var enumerate func(start int) error
	enumerate = func(start int) error {
		if len(chosen) == f.Capacity {
			c, err := s.scoreTeam(sl, chosen)
			if err != nil {
				return err
			}
			all = append(all, c)
			return nil
		}
		for i := start; i <= len(indices)-(f.Capacity-len(chosen)); i++ {
			chosen = append(chosen, indices[i])
			if err := enumerate(i + 1); err != nil {
				return err
			}
			chosen = chosen[:len(chosen)-1]
		}
		return nil
	}
	if err := enumerate(0); err != nil {
		return nil, err
	}

	slices.SortFunc(all, compareCandidates)

	return s.truncate(all), nil
}

// scoreTeam 计算一个组合中每名干员的效率，技能的搭档要求使得总分不能按人拆分
func (s *Scheduler) scoreTeam(sl slot, members []int) (candidate, error) {
	team := make([]domain.Worker, len(members))
	for i, m := range members {
		team[i] = s.workers[m]
	}

	c := candidate{
		members:       slices.Clone(members),
		contributions: make([]float64, len(members)),
	}
	for i, w := range team {
		e, err := s.catalog.Efficiency(w, sl.facility.Type, sl.facility.Product, team)
		if err != nil {
			return candidate{}, err
		}
		c.contributions[i] = e
		c.raw += e
		c.skill += w.Skill()
	}
	c.effective = c.raw * sl.weight * sl.multiplier

	return c, nil
}

// 得分高的在前，得分相同时练度低的在前，再按干员下标的字典序
func compareCandidates(a, b candidate) int {
	return cmp.Or(
		cmp.Compare(b.raw, a.raw),
		cmp.Compare(a.skill, b.skill),
		slices.Compare(a.members, b.members),
	)
}

// truncate 保留得分最高的 BeamWidth 个组合，同时限制每名干员出现的次数，
// 使得同类的多个设施仍然可以互不冲突地填满
func (s *Scheduler) truncate(sorted []candidate) []candidate {
	if len(sorted) <= s.parameters.BeamWidth {
		return sorted
	}

	kept := make([]candidate, 0, s.parameters.BeamWidth)
	taken := make([]bool, len(sorted))
	appearances := make(map[int]int)
	keep := func(i int) {
		for _, m := range sorted[i].members {
			appearances[m]++
		}
		kept = append(kept, sorted[i])
		taken[i] = true
	}

	for i, c := range sorted {
		if len(kept) == s.parameters.BeamWidth {
			break
		}
		capped := false
		for _, m := range c.members {
			if appearances[m] >= s.parameters.MaxAppearances {
				capped = true
				break
			}
		}
		if !capped {
			keep(i)
		}
	}

	// 按得分依次选出互不相交的组合，保证池中的干员足够时同类设施总能填满
	used := make(map[int]bool)
	for i, c := range sorted {
		disjoint := true
		for _, m := range c.members {
			if used[m] {
				disjoint = false
				break
			}
		}
		if !disjoint {
			continue
		}
		for _, m := range c.members {
			used[m] = true
		}
		if !taken[i] {
			keep(i)
		}
	}

	// 池中每名干员至少保留一个包含他的组合
	for i, c := range sorted {
		if taken[i] {
			continue
		}
		for _, m := range c.members {
			if appearances[m] == 0 {
				keep(i)
				break
			}
		}
	}

	slices.SortFunc(kept, compareCandidates)
	return kept
}
