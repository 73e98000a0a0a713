package domain

import "fmt"

type FacilityType string

const (
	FacilityTrading       FacilityType = "trading"
	FacilityManufacturing FacilityType = "manufacturing"
	FacilityPower         FacilityType = "power"
)

type Product string

const (
	ProductLMD            Product = "LMD"
	ProductOrundum        Product = "Orundum"
	ProductPureGold       Product = "Pure Gold"
	ProductOriginiumShard Product = "Originium Shard"
	ProductBattleRecord   Product = "Battle Record"
	ProductDrone          Product = "Drone"
)

// 基建布局固定为 9 个设施，其中发电站固定 3 个，每天 3 班
const (
	TotalFacilities  = 9
	PowerPlantsCount = 3
	ShiftsPerDay     = 3
)

// 贸易站和制造站可选的产物，顺序即布局中设施的展开顺序
var (
	TradingProducts       = []Product{ProductLMD, ProductOrundum}
	ManufacturingProducts = []Product{ProductPureGold, ProductOriginiumShard, ProductBattleRecord}
)

// DroneTargetProducts 为无人机可以加速的产物
var DroneTargetProducts = append(append([]Product{}, TradingProducts...), ManufacturingProducts...)

// Capacity 返回设施的干员槽位数
func (t FacilityType) Capacity() int {
	switch t {
	case FacilityTrading, FacilityManufacturing:
		return 3
	case FacilityPower:
		return 1
	default:
		return 0
	}
}

func (t FacilityType) Label() string {
	switch t {
	case FacilityTrading:
		return "贸易站"
	case FacilityManufacturing:
		return "制造站"
	case FacilityPower:
		return "发电站"
	default:
		return string(t)
	}
}

func ParseFacilityType(s string) (FacilityType, bool) {
	switch FacilityType(s) {
	case FacilityTrading, FacilityManufacturing, FacilityPower:
		return FacilityType(s), true
	}
	return "", false
}

// ProductsOf 返回某类设施可以生产的产物
func ProductsOf(t FacilityType) []Product {
	switch t {
	case FacilityTrading:
		return TradingProducts
	case FacilityManufacturing:
		return ManufacturingProducts
	case FacilityPower:
		return []Product{ProductDrone}
	default:
		return nil
	}
}

// Facility 是布局中的一个设施
type Facility struct {
	Index    int          `json:"index"`
	Type     FacilityType `json:"type"`
	Ordinal  int          `json:"ordinal"` // 同类设施中的序号，从 1 开始
	Capacity int          `json:"capacity"`
	Product  Product      `json:"product"`
}

func (f Facility) Name() string {
	return fmt.Sprintf("%s%d(%s)", f.Type.Label(), f.Ordinal, f.Product)
}

func (f Facility) ID() string {
	return fmt.Sprintf("%s-%d", f.Type, f.Ordinal)
}
