// Package selection хранит выбор пользователя для текущего автомобиля
// и гарантирует, что индексы опций всегда находятся в допустимых границах.
package selection

import (
	"github.com/magabrotheeeer/car-subscription/internal/models"
	"github.com/magabrotheeeer/car-subscription/internal/pricing"
)

// Manager владеет изменяемым выбором одной сессии. Не потокобезопасен:
// синхронизацию обеспечивает владелец сессии.
type Manager struct {
	catalog models.VehicleCatalog
	sel     models.Selection
}

// New создаёт Manager для каталога с выбором по умолчанию.
func New(catalog models.VehicleCatalog) *Manager {
	m := &Manager{}
	m.Reset(catalog)
	return m
}

// Reset переключает каталог и сбрасывает индексы. Город сохраняется,
// срок обязательства снова считается не выбранным.
func (m *Manager) Reset(catalog models.VehicleCatalog) {
	m.catalog = catalog.Normalize()
	m.sel = models.Selection{CityName: m.sel.CityName}
}

// Catalog возвращает активный каталог.
func (m *Manager) Catalog() models.VehicleCatalog {
	return m.catalog
}

// Selection возвращает копию текущего выбора.
func (m *Manager) Selection() models.Selection {
	return m.sel
}

// SetIndex прижимает индекс к границам группы. Для пустой группы ничего не меняет.
// Возвращает false для неизвестной группы.
func (m *Manager) SetIndex(kind models.TierKind, index int) bool {
	switch kind {
	case models.TierEngagement:
		if n := len(m.catalog.EngagementTiers); n > 0 {
			m.sel.EngagementIndex = pricing.Clamp(index, n)
			m.sel.EngagementExplicit = true
		}
	case models.TierMileage:
		if n := len(m.catalog.MileageTiers); n > 0 {
			m.sel.MileageIndex = pricing.Clamp(index, n)
		}
	case models.TierInsurance:
		if n := len(m.catalog.InsuranceTiers); n > 0 {
			m.sel.InsuranceIndex = pricing.Clamp(index, n)
		}
	default:
		return false
	}
	return true
}

func (m *Manager) SetCity(name string) {
	m.sel.CityName = name
}

func (m *Manager) SetInsuranceActive(active bool) {
	m.sel.InsuranceActive = active
}

// AdjustDrivers меняет число дополнительных водителей на delta, не опускаясь ниже 0.
func (m *Manager) AdjustDrivers(delta int) {
	m.SetDrivers(m.sel.DriversCount + delta)
}

// SetDrivers задаёт число дополнительных водителей, не опускаясь ниже 0.
func (m *Manager) SetDrivers(n int) {
	m.sel.DriversCount = max(0, n)
}

// DisplayEngagementIndex — индекс срока для отображения: выбранный пользователем
// или самый дешёвый, пока выбора не было. Хранимый индекс не меняется.
func (m *Manager) DisplayEngagementIndex() int {
	if m.sel.EngagementExplicit {
		return m.sel.EngagementIndex
	}
	return pricing.CheapestEngagement(m.catalog.EngagementTiers)
}
