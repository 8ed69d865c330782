package cache

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/car-subscription/internal/models"
	"github.com/magabrotheeeer/car-subscription/internal/storage"
)

const recordKeyPrefix = "subscription_record:"

// RecordStore — резервное хранилище записей подписок в Redis.
// Используется, когда основное хранилище недоступно. Записи хранятся без срока.
type RecordStore struct {
	cache *Cache
}

// NewRecordStore создаёт резервное хранилище.
func NewRecordStore(c *Cache) *RecordStore {
	return &RecordStore{cache: c}
}

func recordKey(id string) string {
	return recordKeyPrefix + id
}

// SaveRecord сохраняет запись. Повторная запись того же бронирования отклоняется.
func (s *RecordStore) SaveRecord(ctx context.Context, rec models.SubscriptionRecord) error {
	const op = "cache.SaveRecord"
	ok, err := s.cache.SetNX(ctx, recordKey(rec.ReservationID), rec, 0)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}
	return nil
}

// RecordByID возвращает запись по идентификатору бронирования.
func (s *RecordStore) RecordByID(ctx context.Context, reservationID string) (models.SubscriptionRecord, error) {
	const op = "cache.RecordByID"
	var rec models.SubscriptionRecord
	found, err := s.cache.Get(ctx, recordKey(reservationID), &rec)
	if err != nil {
		return models.SubscriptionRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return models.SubscriptionRecord{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return rec, nil
}
