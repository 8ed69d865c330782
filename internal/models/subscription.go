package models

import "time"

// RecordStatus — статус подписки, меняется только бэк-офисом.
type RecordStatus string

const RecordPending RecordStatus = "pending"

// Storage — хранилище, в которое удалось записать подписку.
type Storage string

const (
	StoragePrimary  Storage = "primary"
	StorageFallback Storage = "fallback"
)

// SubscriptionRecord — неизменяемый результат успешного бронирования.
// Опции хранятся значениями, а не индексами, чтобы изменения каталога
// не влияли на уже подписанную подписку.
type SubscriptionRecord struct {
	ReservationID string          `json:"reservation_id"`
	OwnerID       string          `json:"owner_id"`
	VehicleID     string          `json:"vehicle_id"`
	Options       ResolvedOptions `json:"options"`
	DriversCount  int             `json:"drivers_count"`
	City          CityFactor      `json:"city"`
	Price         PriceBreakdown  `json:"price"`
	Total         float64         `json:"total"`
	StartedAt     time.Time       `json:"started_at"`
	Documents     []string        `json:"documents"`
	Card          MaskedCard      `json:"card"`
	Client        Identity        `json:"client"`
	Status        RecordStatus    `json:"status"`
	StoredIn      Storage         `json:"stored_in"`
}

// SubmittedEvent — уведомление о сохранённой подписке для внешних потребителей.
type SubmittedEvent struct {
	ReservationID string  `json:"reservation_id"`
	OwnerID       string  `json:"owner_id"`
	VehicleID     string  `json:"vehicle_id"`
	Total         float64 `json:"total"`
	StoredIn      Storage `json:"stored_in"`
}

// NewSubmittedEvent собирает событие по записи подписки.
func NewSubmittedEvent(rec SubscriptionRecord) SubmittedEvent {
	return SubmittedEvent{
		ReservationID: rec.ReservationID,
		OwnerID:       rec.OwnerID,
		VehicleID:     rec.VehicleID,
		Total:         rec.Total,
		StoredIn:      rec.StoredIn,
	}
}
