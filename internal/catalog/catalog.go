package catalog

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

// Catalog 是只读的效率表：干员 → 设施类型 → 技能条目
// 加载完成后不会再被修改，可以在多个 goroutine 中并发读取
type Catalog struct {
	entries  map[string]map[domain.FacilityType][]domain.EfficiencyEntry
	products []domain.Product
	size     int
	version  string
}

// FromEntries 用已经解析好的条目构建效率表
func FromEntries(entries []domain.EfficiencyEntry) (*Catalog, error) {
	c := &Catalog{
		entries: make(map[string]map[domain.FacilityType][]domain.EfficiencyEntry),
	}

	facilityTypes := make(map[domain.FacilityType]bool)
	for i, e := range entries {
		if err := checkEntry(i, e); err != nil {
			return nil, err
		}
		if _, exists := c.entries[e.WorkerID]; !exists {
			c.entries[e.WorkerID] = make(map[domain.FacilityType][]domain.EfficiencyEntry)
		}
		c.entries[e.WorkerID][e.Facility] = append(c.entries[e.WorkerID][e.Facility], e)
		facilityTypes[e.Facility] = true
	}
	c.size = len(entries)

	for _, t := range []domain.FacilityType{domain.FacilityTrading, domain.FacilityManufacturing} {
		if facilityTypes[t] {
			c.products = append(c.products, domain.ProductsOf(t)...)
		}
	}

	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, compareEntries)
	raw, err := json.Marshal(sorted)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(raw)
	c.version = hex.EncodeToString(sum[:8])

	return c, nil
}

func checkEntry(i int, e domain.EfficiencyEntry) error {
	switch {
	case e.WorkerID == "":
		return &domain.InputFormatError{Source: "efficiency", Index: i, Field: "id", Reason: "不能为空"}
	case e.Facility.Capacity() == 0:
		return &domain.InputFormatError{Source: "efficiency", Index: i, Field: "facility", Reason: fmt.Sprintf("未知的设施类型 %q", e.Facility)}
	case e.Product != "" && !slices.Contains(domain.ProductsOf(e.Facility), e.Product):
		return &domain.InputFormatError{Source: "efficiency", Index: i, Field: "product", Reason: fmt.Sprintf("%s 不能生产 %q", e.Facility.Label(), e.Product)}
	case e.Tier < 0 || e.Tier > 2:
		return &domain.InputFormatError{Source: "efficiency", Index: i, Field: "elite", Reason: "精英化阶段必须在 0 到 2 之间"}
	case e.Level < 1:
		return &domain.InputFormatError{Source: "efficiency", Index: i, Field: "level", Reason: "等级必须大于 0"}
	case e.Efficiency < 0:
		return &domain.InputFormatError{Source: "efficiency", Index: i, Field: "efficiency", Reason: "效率不能为负数"}
	}
	return nil
}

func compareEntries(a, b domain.EfficiencyEntry) int {
	return cmp.Or(
		cmp.Compare(a.WorkerID, b.WorkerID),
		cmp.Compare(a.Facility, b.Facility),
		cmp.Compare(a.Product, b.Product),
		cmp.Compare(a.Tier, b.Tier),
		cmp.Compare(a.Level, b.Level),
		cmp.Compare(a.Efficiency, b.Efficiency),
		slices.Compare(a.Requires, b.Requires),
	)
}

func (c *Catalog) Size() int {
	return c.size
}

// Version 是条目内容的摘要，用作缓存键的一部分
func (c *Catalog) Version() string {
	return c.version
}

// Products 返回效率表涉及的、可作为无人机目标的产物
func (c *Catalog) Products() []domain.Product {
	return slices.Clone(c.products)
}

// Entries 按固定顺序返回全部条目
func (c *Catalog) Entries() []domain.EfficiencyEntry {
	all := make([]domain.EfficiencyEntry, 0, c.size)
	for _, byFacility := range c.entries {
		for _, entries := range byFacility {
			all = append(all, entries...)
		}
	}
	slices.SortFunc(all, compareEntries)
	return all
}

// WorkerIDs 按字典序返回效率表中的全部干员
func (c *Catalog) WorkerIDs() []string {
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c *Catalog) Has(workerID string) bool {
	_, ok := c.entries[workerID]
	return ok
}

// Usable 判断干员在当前练度下，是否有对该设施和产物生效的技能（不考虑同设施的搭档要求）
func (c *Catalog) Usable(w domain.Worker, f domain.FacilityType, p domain.Product) bool {
	for _, e := range c.entries[w.ID][f] {
		if e.AppliesTo(p) && e.UnlockedBy(w.Tier, w.Level) {
			return true
		}
	}
	return false
}

// Optimistic 返回不考虑搭档要求时的最高效率，作为候选排序和剪枝的上界
func (c *Catalog) Optimistic(w domain.Worker, f domain.FacilityType, p domain.Product) float64 {
	best := 0.0
	for _, e := range c.entries[w.ID][f] {
		if e.AppliesTo(p) && e.UnlockedBy(w.Tier, w.Level) {
			best = max(best, e.Efficiency)
		}
	}
	return best
}

// Efficiency 返回干员在给定队伍中对设施的效率贡献
// 干员不在效率表中时返回 UnknownWorkerError
func (c *Catalog) Efficiency(w domain.Worker, f domain.FacilityType, p domain.Product, team []domain.Worker) (float64, error) {
	byFacility, ok := c.entries[w.ID]
	if !ok {
		return 0, &domain.UnknownWorkerError{WorkerID: w.ID}
	}

	best := 0.0
	for _, e := range byFacility[f] {
		if !e.AppliesTo(p) || !e.UnlockedBy(w.Tier, w.Level) {
			continue
		}
		if !requiresSatisfied(e, w.ID, team) {
			continue
		}
		best = max(best, e.Efficiency)
	}
	return best, nil
}

func requiresSatisfied(e domain.EfficiencyEntry, self string, team []domain.Worker) bool {
	for _, id := range e.Requires {
		if id == self {
			continue
		}
		found := false
		for _, m := range team {
			if m.ID == id && m.Tier >= e.Tier {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
