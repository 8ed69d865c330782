package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/car-subscription/internal/models"
	"github.com/magabrotheeeer/car-subscription/internal/storage"
)

const uniqueViolation = "23505"

// SaveRecord сохраняет запись подписки. Полная запись хранится в payload,
// ключевые поля дублируются в колонках для выборок.
func (s *Storage) SaveRecord(ctx context.Context, rec models.SubscriptionRecord) error {
	const op = "storage.SaveRecord"

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO subscription_records (reservation_id, owner_id, vehicle_id, total, status, started_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ReservationID, rec.OwnerID, rec.VehicleID, rec.Total, string(rec.Status), rec.StartedAt, payload,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RecordByID возвращает запись подписки по идентификатору бронирования.
// Статус берётся из колонки status: после создания меняется только он.
func (s *Storage) RecordByID(ctx context.Context, reservationID string) (models.SubscriptionRecord, error) {
	const op = "storage.RecordByID"

	var (
		status  string
		payload []byte
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT status, payload FROM subscription_records WHERE reservation_id = $1`, reservationID,
	).Scan(&status, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SubscriptionRecord{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return models.SubscriptionRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	var rec models.SubscriptionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return models.SubscriptionRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	rec.Status = models.RecordStatus(status)
	return rec, nil
}
