// Package pricing рассчитывает месячную цену подписки по каталогу автомобиля,
// выбору пользователя и коэффициенту города. Все функции чистые.
package pricing

import (
	"math"

	"github.com/magabrotheeeer/car-subscription/internal/models"
)

// Compute возвращает детализированную цену. Итог округляется один раз,
// после умножения на коэффициент города.
func Compute(catalog models.VehicleCatalog, sel models.Selection, city models.CityFactor) models.PriceBreakdown {
	opts := Resolve(catalog, sel)

	var b models.PriceBreakdown
	if opts.Engagement != nil {
		b.BasePrice = opts.Engagement.MonthlyPrice
	}
	if opts.Mileage != nil {
		b.MileageSupplement = opts.Mileage.AdditionalPrice
	}
	if sel.InsuranceActive && opts.Insurance != nil {
		b.InsuranceSupplement = opts.Insurance.AdditionalPrice
	}
	b.DriversSupplement = float64(max(0, sel.DriversCount)) * catalog.AdditionalDriverPrice

	b.Subtotal = max(0, b.BasePrice+b.MileageSupplement+b.InsuranceSupplement+b.DriversSupplement)
	b.CityFactor = city.Factor
	if b.CityFactor <= 0 {
		b.CityFactor = 1
	}
	b.Total = math.Round(b.Subtotal * b.CityFactor)
	return b
}

// Resolve возвращает опции каталога, на которые указывает выбор.
// Индексы вне диапазона прижимаются к границам, пустые группы дают nil.
func Resolve(catalog models.VehicleCatalog, sel models.Selection) models.ResolvedOptions {
	var opts models.ResolvedOptions

	if n := len(catalog.EngagementTiers); n > 0 {
		i := CheapestEngagement(catalog.EngagementTiers)
		if sel.EngagementExplicit {
			i = Clamp(sel.EngagementIndex, n)
		}
		t := catalog.EngagementTiers[i]
		opts.Engagement = &t
	}
	if n := len(catalog.MileageTiers); n > 0 {
		t := catalog.MileageTiers[Clamp(sel.MileageIndex, n)]
		opts.Mileage = &t
	}
	if n := len(catalog.InsuranceTiers); n > 0 {
		t := catalog.InsuranceTiers[Clamp(sel.InsuranceIndex, n)]
		opts.Insurance = &t
	}
	return opts
}

// CheapestEngagement возвращает индекс первого срока с минимальной ценой.
// Для пустого списка возвращает 0.
func CheapestEngagement(tiers []models.EngagementTier) int {
	best := 0
	for i := 1; i < len(tiers); i++ {
		if tiers[i].MonthlyPrice < tiers[best].MonthlyPrice {
			best = i
		}
	}
	return best
}

// ResolveCity ищет коэффициент города по имени; неизвестный город даёт 1.
func ResolveCity(cities []models.CityFactor, name string) models.CityFactor {
	for _, c := range cities {
		if c.Name == name && c.Factor > 0 {
			return c
		}
	}
	return models.DefaultCityFactor(name)
}

// Clamp прижимает индекс к диапазону [0, n-1]. Для n <= 0 возвращает 0.
func Clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
