package domain

type DroneOrder string

const (
	// 无人机加成计入求解目标
	DroneOrderPre DroneOrder = "pre"
	// 先求解，再对目标设施追加加成
	DroneOrderPost DroneOrder = "post"
)

type ProductRequirements struct {
	TradingStations       map[Product]int `json:"trading_stations" validate:"dive,min=0,max=5"`
	ManufacturingStations map[Product]int `json:"manufacturing_stations" validate:"dive,min=0,max=5"`
}

type FiammettaSettings struct {
	Enable bool `json:"enable"`
}

type DroneSettings struct {
	Enable  bool       `json:"enable"`
	Order   DroneOrder `json:"order" validate:"omitempty,oneof=pre post"`
	Targets []Product  `json:"targets" validate:"max=3"`
}

// Configuration 是一次排班计算的全部参数
type Configuration struct {
	ProductRequirements        ProductRequirements `json:"product_requirements"`
	TradingStationsCount       int                 `json:"trading_stations_count" validate:"min=0,max=5"`
	ManufacturingStationsCount int                 `json:"manufacturing_stations_count" validate:"min=0,max=5"`
	Fiammetta                  FiammettaSettings   `json:"Fiammetta"`
	Drones                     DroneSettings       `json:"drones"`
	// 开启后，上一班上岗的干员在下一班休息
	Rotation bool `json:"rotation"`
	// 各产物的权重，缺省为 1
	ProductWeights map[Product]float64 `json:"product_weights,omitempty" validate:"omitempty,dive,gte=0"`
}

// DefaultConfiguration 对应 243 布局：2 贸易站、4 制造站、3 发电站
func DefaultConfiguration() *Configuration {
	return &Configuration{
		ProductRequirements: ProductRequirements{
			TradingStations:       map[Product]int{ProductLMD: 2, ProductOrundum: 0},
			ManufacturingStations: map[Product]int{ProductPureGold: 2, ProductOriginiumShard: 0, ProductBattleRecord: 2},
		},
		TradingStationsCount:       2,
		ManufacturingStationsCount: 4,
		Fiammetta:                  FiammettaSettings{Enable: true},
		Drones: DroneSettings{
			Enable:  true,
			Order:   DroneOrderPre,
			Targets: []Product{ProductLMD, ProductPureGold, ProductLMD},
		},
	}
}

func (c *Configuration) PowerPlantsCount() int {
	return TotalFacilities - c.TradingStationsCount - c.ManufacturingStationsCount
}

func (c *Configuration) Weight(p Product) float64 {
	if w, ok := c.ProductWeights[p]; ok {
		return w
	}
	return 1
}

// DroneTarget 返回第 shift 班（从 0 开始）的无人机目标，未启用或该班目标留空时返回 false
func (c *Configuration) DroneTarget(shift int) (Product, bool) {
	if !c.Drones.Enable || shift < 0 || shift >= len(c.Drones.Targets) {
		return "", false
	}
	target := c.Drones.Targets[shift]
	return target, target != ""
}

func (c *Configuration) EffectiveDroneOrder() DroneOrder {
	if c.Drones.Order == "" {
		return DroneOrderPre
	}
	return c.Drones.Order
}

// Layout 按 贸易站 → 制造站 → 发电站 的顺序展开设施，同类设施按产物的固定顺序排列
func (c *Configuration) Layout() []Facility {
	facilities := make([]Facility, 0, TotalFacilities)

	expand := func(t FacilityType, reqs map[Product]int) {
		ordinal := 1
		for _, p := range ProductsOf(t) {
			for i := 0; i < reqs[p]; i++ {
				facilities = append(facilities, Facility{
					Index:    len(facilities),
					Type:     t,
					Ordinal:  ordinal,
					Capacity: t.Capacity(),
					Product:  p,
				})
				ordinal++
			}
		}
	}

	expand(FacilityTrading, c.ProductRequirements.TradingStations)
	expand(FacilityManufacturing, c.ProductRequirements.ManufacturingStations)
	expand(FacilityPower, map[Product]int{ProductDrone: c.PowerPlantsCount()})

	return facilities
}
