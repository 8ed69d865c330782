package models

// TierKind задаёт группу опций, в которую указывает индекс выбора.
type TierKind string

const (
	TierEngagement TierKind = "engagement"
	TierMileage    TierKind = "mileage"
	TierInsurance  TierKind = "insurance"
)

// Selection — текущий выбор пользователя в рамках сессии.
//
// DriversCount — количество дополнительных водителей помимо основного, не меньше 0.
// EngagementExplicit выставляется, когда пользователь сам выбрал срок;
// до этого движок цен подставляет самый дешёвый вариант.
type Selection struct {
	EngagementIndex    int    `json:"engagement_index"`
	EngagementExplicit bool   `json:"engagement_explicit"`
	MileageIndex       int    `json:"mileage_index"`
	InsuranceIndex     int    `json:"insurance_index"`
	DriversCount       int    `json:"drivers_count"`
	CityName           string `json:"city_name"`
	InsuranceActive    bool   `json:"insurance_active"`
}

// PriceBreakdown — детализированная месячная цена. Не хранится отдельно,
// всегда пересчитывается из Selection и каталога.
type PriceBreakdown struct {
	BasePrice           float64 `json:"base_price"`
	MileageSupplement   float64 `json:"mileage_supplement"`
	InsuranceSupplement float64 `json:"insurance_supplement"`
	DriversSupplement   float64 `json:"drivers_supplement"`
	Subtotal            float64 `json:"subtotal"`
	CityFactor          float64 `json:"city_factor"`
	Total               float64 `json:"total"`
}

// ResolvedOptions — значения опций, из которых посчитана цена.
// Указатель равен nil, если группа опций в каталоге пуста.
type ResolvedOptions struct {
	Engagement *EngagementTier `json:"engagement,omitempty"`
	Mileage    *MileageTier    `json:"mileage,omitempty"`
	Insurance  *InsuranceTier  `json:"insurance,omitempty"`
}
