// Package models содержит доменные структуры сервиса подписки на автомобили:
// каталог опций автомобиля, выбор пользователя, расчёт цены,
// черновик бронирования и итоговую запись подписки.
package models

// EngagementTier описывает вариант срока обязательства с фиксированной ценой в месяц.
type EngagementTier struct {
	Months       int     `json:"months"`
	MonthlyPrice float64 `json:"monthly_price"`
	Label        string  `json:"label,omitempty"`
}

// MileageTier описывает месячный лимит пробега и надбавку к цене.
type MileageTier struct {
	Km              int     `json:"km"`
	AdditionalPrice float64 `json:"additional_price"`
}

// InsuranceTier описывает уровень страховки. Франшиза носит информационный
// характер и в цену не входит.
type InsuranceTier struct {
	Type            string  `json:"type"`
	FranchiseAmount float64 `json:"franchise_amount"`
	AdditionalPrice float64 `json:"additional_price"`
}

// VehicleCatalog — набор покупаемых опций для одного автомобиля.
// Пустой список означает отсутствие группы опций, nil не используется.
type VehicleCatalog struct {
	VehicleID             string           `json:"vehicle_id"`
	EngagementTiers       []EngagementTier `json:"engagement_tiers"`
	MileageTiers          []MileageTier    `json:"mileage_tiers"`
	InsuranceTiers        []InsuranceTier  `json:"insurance_tiers"`
	AdditionalDriverPrice float64          `json:"additional_driver_price"`
}

// Normalize заменяет nil-списки пустыми.
func (c VehicleCatalog) Normalize() VehicleCatalog {
	if c.EngagementTiers == nil {
		c.EngagementTiers = []EngagementTier{}
	}
	if c.MileageTiers == nil {
		c.MileageTiers = []MileageTier{}
	}
	if c.InsuranceTiers == nil {
		c.InsuranceTiers = []InsuranceTier{}
	}
	return c
}

// CityFactor — множитель цены в зависимости от города доставки.
type CityFactor struct {
	Name   string  `json:"name"`
	Factor float64 `json:"factor"`
}

// DefaultCityFactor возвращается для неизвестного города.
func DefaultCityFactor(name string) CityFactor {
	return CityFactor{Name: name, Factor: 1}
}
