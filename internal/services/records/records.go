// Package records читает сохранённые записи подписок: сначала из основного
// хранилища, затем из резервного.
package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/car-subscription/internal/lib/sl"
	"github.com/magabrotheeeer/car-subscription/internal/models"
	"github.com/magabrotheeeer/car-subscription/internal/storage"
)

// Reader — хранилище, из которого можно прочитать запись.
type Reader interface {
	RecordByID(ctx context.Context, reservationID string) (models.SubscriptionRecord, error)
}

// Service ищет запись в основном и резервном хранилищах.
type Service struct {
	primary  Reader
	fallback Reader
	log      *slog.Logger
}

// NewService создаёт сервис чтения. fallback может быть nil.
func NewService(primary, fallback Reader, log *slog.Logger) *Service {
	return &Service{primary: primary, fallback: fallback, log: log}
}

// RecordByID возвращает запись. storage.ErrNotFound означает, что записи
// нет ни в одном хранилище. Запись чужого владельца считается отсутствующей.
func (s *Service) RecordByID(ctx context.Context, ownerID, reservationID string) (models.SubscriptionRecord, error) {
	const op = "records.RecordByID"
	log := s.log.With(slog.String("op", op), slog.String("reservation_id", reservationID))

	rec, err := s.primary.RecordByID(ctx, reservationID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Warn("primary store read failed", sl.Err(err))
	}
	if err != nil && s.fallback != nil {
		var fbErr error
		rec, fbErr = s.fallback.RecordByID(ctx, reservationID)
		if fbErr != nil {
			return models.SubscriptionRecord{}, fmt.Errorf("%s: %w", op, readError(err, fbErr))
		}
		err = nil
	}
	if err != nil {
		return models.SubscriptionRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	if rec.OwnerID != ownerID {
		return models.SubscriptionRecord{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return rec, nil
}

// readError сводит ошибки двух хранилищ. storage.ErrNotFound остаётся,
// только если записи нет в обоих; сбой хранилища важнее отсутствия записи.
func readError(primaryErr, fallbackErr error) error {
	primaryMissing := errors.Is(primaryErr, storage.ErrNotFound)
	fallbackMissing := errors.Is(fallbackErr, storage.ErrNotFound)
	switch {
	case primaryMissing && fallbackMissing:
		return storage.ErrNotFound
	case fallbackMissing:
		return primaryErr
	case primaryMissing:
		return fallbackErr
	default:
		return errors.Join(primaryErr, fallbackErr)
	}
}
