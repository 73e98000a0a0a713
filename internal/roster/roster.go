package roster

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"github.com/tidwall/gjson"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

// Load 解析 MAA「干员识别」导出的 JSON：
//
//	[{"id": "char_002_amiya", "name": "阿米娅", "elite": 2, "level": 50, "rarity": 5, "own": true}]
//
// own 为 false 的记录表示未拥有，会被跳过；其余格式错误的记录都会返回 InputFormatError
func Load(data []byte) ([]domain.Worker, error) {
	if !gjson.ValidBytes(data) {
		return nil, &domain.InputFormatError{Source: "operators", Index: -1, Reason: "不是合法的 JSON"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, &domain.InputFormatError{Source: "operators", Index: -1, Reason: "顶层必须是数组"}
	}

	workers := make([]domain.Worker, 0)
	seen := make(map[string]bool)
	var parseErr error
	idx := 0
	root.ForEach(func(_, v gjson.Result) bool {
		w, owned, err := parseRecord(idx, v)
		if err != nil {
			parseErr = err
			return false
		}
		if owned {
			if seen[w.ID] {
				parseErr = &domain.InputFormatError{Source: "operators", Index: idx, Field: "id", Reason: fmt.Sprintf("干员 %s 重复出现", w.ID)}
				return false
			}
			seen[w.ID] = true
			workers = append(workers, w)
		}
		idx++
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return workers, nil
}

func LoadFile(path string) ([]domain.Worker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取干员数据 %s 失败: %w", path, err)
	}
	return Load(data)
}

func parseRecord(idx int, v gjson.Result) (domain.Worker, bool, error) {
	fail := func(field, reason string) (domain.Worker, bool, error) {
		return domain.Worker{}, false, &domain.InputFormatError{Source: "operators", Index: idx, Field: field, Reason: reason}
	}

	if !v.IsObject() {
		return fail("", "记录必须是对象")
	}

	if own := v.Get("own"); own.Exists() {
		if !own.IsBool() {
			return fail("own", "必须是布尔值")
		}
		if !own.Bool() {
			return domain.Worker{}, false, nil
		}
	}

	id := v.Get("id")
	if id.Type != gjson.String || id.String() == "" {
		return fail("id", "必须是非空字符串")
	}
	name := v.Get("name")
	if name.Type != gjson.String {
		return fail("name", "必须是字符串")
	}

	rarity, ok := intField(v, "rarity")
	if !ok || rarity < 1 || rarity > 6 {
		return fail("rarity", "必须是 1 到 6 之间的整数")
	}
	elite, ok := intField(v, "elite")
	maxTier := domain.MaxTierForRarity(rarity)
	if !ok || elite < 0 || elite > maxTier {
		return fail("elite", fmt.Sprintf("必须是 0 到 %d 之间的整数", maxTier))
	}
	level, ok := intField(v, "level")
	if !ok || level < 1 {
		return fail("level", "必须是正整数")
	}

	return domain.Worker{
		ID:      id.String(),
		Name:    name.String(),
		Rarity:  rarity,
		Tier:    elite,
		Level:   level,
		MaxTier: maxTier,
	}, true, nil
}

func intField(v gjson.Result, field string) (int, bool) {
	r := v.Get(field)
	if r.Type != gjson.Number || r.Float() != float64(r.Int()) {
		return 0, false
	}
	return int(r.Int()), true
}

// exportRecord 是 MAA 导出格式中的一条记录
type exportRecord struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Elite  int    `json:"elite"`
	Level  int    `json:"level"`
	Rarity int    `json:"rarity"`
	Own    bool   `json:"own"`
}

// Marshal 把干员写成 MAA 导出格式，可以被 Load 重新读取
func Marshal(workers []domain.Worker) ([]byte, error) {
	records := make([]exportRecord, len(workers))
	for i, w := range workers {
		records[i] = exportRecord{ID: w.ID, Name: w.Name, Elite: w.Tier, Level: w.Level, Rarity: w.Rarity, Own: true}
	}
	return json.MarshalIndent(records, "", "  ")
}

// LiftCeiling 模拟「所有干员练满」：精英化阶段提升到上限，等级提升到该阶段的上限
// 返回新的切片，不修改传入的记录
func LiftCeiling(workers []domain.Worker) []domain.Worker {
	lifted := make([]domain.Worker, len(workers))
	for i, w := range workers {
		lifted[i] = w
		lifted[i].Tier = w.MaxTier
		lifted[i].Level = max(w.Level, domain.MaxLevel(w.Rarity, w.MaxTier))
	}
	return lifted
}

var pinyinArgs = func() pinyin.Args {
	a := pinyin.NewArgs()
	a.Fallback = func(r rune, _ pinyin.Args) []string {
		return []string{string(unicode.ToLower(r))}
	}
	return a
}()

// SortKey 返回按拼音排序用的键，非汉字按小写原样保留
func SortKey(name string) string {
	return strings.Join(pinyin.LazyPinyin(name, pinyinArgs), "")
}

// SortByName 按名字拼音排序，拼音相同时按 ID 排序
func SortByName(workers []domain.Worker) {
	slices.SortStableFunc(workers, func(a, b domain.Worker) int {
		return cmp.Or(
			cmp.Compare(SortKey(a.Name), SortKey(b.Name)),
			cmp.Compare(a.ID, b.ID),
		)
	})
}
