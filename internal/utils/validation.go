package utils

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func configError(field, reason string) error {
	return &domain.InputFormatError{Source: "config", Index: -1, Field: field, Reason: reason}
}

// ValidateConfiguration 检查排班配置，products 为效率表涉及的产物（可作为无人机目标）
func ValidateConfiguration(cfg *domain.Configuration, products []domain.Product) error {
	if cfg == nil {
		return configError("", "配置不能为空")
	}

	if err := validate.Struct(cfg); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) && len(ves) > 0 {
			// 只返回第一个错误使得信息更清晰
			return configError(ves[0].Namespace(), fmt.Sprintf("不满足约束 %s=%s", ves[0].Tag(), ves[0].Param()))
		}
		return configError("", err.Error())
	}

	// 发电站固定为 3 个，其余 6 个由贸易站和制造站分配
	if cfg.PowerPlantsCount() != domain.PowerPlantsCount {
		return configError("trading_stations_count", fmt.Sprintf("贸易站和制造站的数量之和必须为 %d，当前为 %d",
			domain.TotalFacilities-domain.PowerPlantsCount, cfg.TradingStationsCount+cfg.ManufacturingStationsCount))
	}

	if err := validateRequirements("product_requirements.trading_stations", cfg.ProductRequirements.TradingStations, domain.TradingProducts, cfg.TradingStationsCount); err != nil {
		return err
	}
	if err := validateRequirements("product_requirements.manufacturing_stations", cfg.ProductRequirements.ManufacturingStations, domain.ManufacturingProducts, cfg.ManufacturingStationsCount); err != nil {
		return err
	}

	if cfg.Drones.Enable {
		for i, target := range cfg.Drones.Targets {
			if target == "" {
				continue
			}
			if !slices.Contains(products, target) {
				return configError(fmt.Sprintf("drones.targets[%d]", i), fmt.Sprintf("效率表中没有产物 %q", target))
			}
		}
	}

	for p := range cfg.ProductWeights {
		if !slices.Contains(domain.DroneTargetProducts, p) {
			return configError("product_weights", fmt.Sprintf("未知的产物 %q", p))
		}
	}

	return nil
}

func validateRequirements(field string, reqs map[domain.Product]int, allowed []domain.Product, count int) error {
	sum := 0
	for p, n := range reqs {
		if !slices.Contains(allowed, p) {
			return configError(field, fmt.Sprintf("不能生产 %q", p))
		}
		sum += n
	}
	if sum != count {
		return configError(field, fmt.Sprintf("各产物的设施数之和为 %d，与设施数量 %d 不一致", sum, count))
	}
	return nil
}

// ValidIfExistsDuplicateWorker 检查干员列表中是否有重复的 ID
func ValidIfExistsDuplicateWorker(workers []domain.Worker) error {
	seen := make(map[string]bool)
	for i, w := range workers {
		if seen[w.ID] {
			return &domain.InputFormatError{Source: "operators", Index: i, Field: "id", Reason: fmt.Sprintf("干员 %s 重复出现", w.ID)}
		}
		seen[w.ID] = true
	}
	return nil
}

// ValidateSolveResult 检查求解结果：每班每个设施恰好填满，同一班中干员不重复
func ValidateSolveResult(result *domain.SolveResult, layout []domain.Facility) error {
	for _, shift := range result.Shifts {
		if len(shift.Facilities) != len(layout) {
			return fmt.Errorf("第 %d 班的设施数量为 %d，布局中为 %d", shift.Shift, len(shift.Facilities), len(layout))
		}

		seen := make(map[string]bool)
		for i, fa := range shift.Facilities {
			if fa.Facility.ID() != layout[i].ID() {
				return fmt.Errorf("第 %d 班的第 %d 个设施与布局不一致", shift.Shift, i+1)
			}
			if len(fa.Workers) != fa.Facility.Capacity {
				return fmt.Errorf("第 %d 班的 %s 入驻了 %d 名干员，需要 %d 名", shift.Shift, fa.Facility.Name(), len(fa.Workers), fa.Facility.Capacity)
			}
			for _, w := range fa.Workers {
				if seen[w.ID] {
					return fmt.Errorf("第 %d 班中干员 %s 重复入驻", shift.Shift, w.ID)
				}
				seen[w.ID] = true
			}
		}
	}
	return nil
}
