package catalog

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

// Load 解析效率表 JSON。格式为记录数组：
//
//	[{"id": "char_102_texas", "facility": "trading", "product": "LMD",
//	  "elite": 0, "level": 1, "efficiency": 30, "requires": ["char_..."]}]
//
// 任何一条记录格式错误都会返回 InputFormatError，不会被静默丢弃
func Load(data []byte) (*Catalog, error) {
	if !gjson.ValidBytes(data) {
		return nil, &domain.InputFormatError{Source: "efficiency", Index: -1, Reason: "不是合法的 JSON"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, &domain.InputFormatError{Source: "efficiency", Index: -1, Reason: "顶层必须是数组"}
	}

	entries := make([]domain.EfficiencyEntry, 0)
	var parseErr error
	idx := 0
	root.ForEach(func(_, v gjson.Result) bool {
		e, err := parseEntry(idx, v)
		if err != nil {
			parseErr = err
			return false
		}
		entries = append(entries, e)
		idx++
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return FromEntries(entries)
}

func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取效率表 %s 失败: %w", path, err)
	}
	return Load(data)
}

func parseEntry(idx int, v gjson.Result) (domain.EfficiencyEntry, error) {
	fail := func(field, reason string) (domain.EfficiencyEntry, error) {
		return domain.EfficiencyEntry{}, &domain.InputFormatError{Source: "efficiency", Index: idx, Field: field, Reason: reason}
	}

	if !v.IsObject() {
		return fail("", "记录必须是对象")
	}

	id := v.Get("id")
	if id.Type != gjson.String || id.String() == "" {
		return fail("id", "必须是非空字符串")
	}

	facility := v.Get("facility")
	if facility.Type != gjson.String {
		return fail("facility", "必须是字符串")
	}
	ft, ok := domain.ParseFacilityType(facility.String())
	if !ok {
		return fail("facility", fmt.Sprintf("未知的设施类型 %q", facility.String()))
	}

	e := domain.EfficiencyEntry{
		WorkerID: id.String(),
		Facility: ft,
		Level:    1,
	}

	if product := v.Get("product"); product.Exists() && product.Type != gjson.Null {
		if product.Type != gjson.String {
			return fail("product", "必须是字符串")
		}
		e.Product = domain.Product(product.String())
	}

	elite := v.Get("elite")
	if elite.Type != gjson.Number || elite.Float() != float64(elite.Int()) {
		return fail("elite", "必须是整数")
	}
	e.Tier = int(elite.Int())

	if level := v.Get("level"); level.Exists() {
		if level.Type != gjson.Number || level.Float() != float64(level.Int()) {
			return fail("level", "必须是整数")
		}
		e.Level = int(level.Int())
	}

	efficiency := v.Get("efficiency")
	if efficiency.Type != gjson.Number {
		return fail("efficiency", "必须是数字")
	}
	e.Efficiency = efficiency.Float()

	if requires := v.Get("requires"); requires.Exists() && requires.Type != gjson.Null {
		if !requires.IsArray() {
			return fail("requires", "必须是字符串数组")
		}
		for _, r := range requires.Array() {
			if r.Type != gjson.String || r.String() == "" {
				return fail("requires", "必须是字符串数组")
			}
			e.Requires = append(e.Requires, r.String())
		}
	}

	if err := checkEntry(idx, e); err != nil {
		return domain.EfficiencyEntry{}, err
	}
	return e, nil
}
