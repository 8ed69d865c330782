package selection

import "github.com/magabrotheeeer/car-subscription/internal/models"

// Change — частичное изменение выбора. nil-поля не меняются.
type Change struct {
	EngagementIndex *int    `json:"engagement_index,omitempty"`
	MileageIndex    *int    `json:"mileage_index,omitempty"`
	InsuranceIndex  *int    `json:"insurance_index,omitempty"`
	Drivers         *int    `json:"drivers,omitempty"`
	DriversDelta    *int    `json:"drivers_delta,omitempty"`
	City            *string `json:"city,omitempty"`
	InsuranceActive *bool   `json:"insurance_active,omitempty"`
}

// Apply применяет изменение к m. Drivers применяется раньше DriversDelta.
func (c Change) Apply(m *Manager) {
	if c.EngagementIndex != nil {
		m.SetIndex(models.TierEngagement, *c.EngagementIndex)
	}
	if c.MileageIndex != nil {
		m.SetIndex(models.TierMileage, *c.MileageIndex)
	}
	if c.InsuranceIndex != nil {
		m.SetIndex(models.TierInsurance, *c.InsuranceIndex)
	}
	if c.Drivers != nil {
		m.SetDrivers(*c.Drivers)
	}
	if c.DriversDelta != nil {
		m.AdjustDrivers(*c.DriversDelta)
	}
	if c.City != nil {
		m.SetCity(*c.City)
	}
	if c.InsuranceActive != nil {
		m.SetInsuranceActive(*c.InsuranceActive)
	}
}
