package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/car-subscription/internal/models"
	"github.com/magabrotheeeer/car-subscription/internal/storage"
)

// Vehicle загружает каталог автомобиля со всеми уровнями в порядке position.
func (s *Storage) Vehicle(ctx context.Context, vehicleID string) (models.VehicleCatalog, error) {
	const op = "storage.Vehicle"

	select {
	case <-ctx.Done():
		return models.VehicleCatalog{}, ctx.Err()
	default:
	}

	catalog := models.VehicleCatalog{VehicleID: vehicleID}
	err := s.DB.QueryRowContext(ctx,
		`SELECT additional_driver_price FROM vehicles WHERE id = $1`, vehicleID,
	).Scan(&catalog.AdditionalDriverPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return models.VehicleCatalog{}, fmt.Errorf("%s: vehicle %s: %w", op, vehicleID, storage.ErrNotFound)
	}
	if err != nil {
		return models.VehicleCatalog{}, fmt.Errorf("%s: %w", op, err)
	}

	if catalog.EngagementTiers, err = s.engagementTiers(ctx, vehicleID); err != nil {
		return models.VehicleCatalog{}, fmt.Errorf("%s: %w", op, err)
	}
	if catalog.MileageTiers, err = s.mileageTiers(ctx, vehicleID); err != nil {
		return models.VehicleCatalog{}, fmt.Errorf("%s: %w", op, err)
	}
	if catalog.InsuranceTiers, err = s.insuranceTiers(ctx, vehicleID); err != nil {
		return models.VehicleCatalog{}, fmt.Errorf("%s: %w", op, err)
	}
	catalog = catalog.Normalize()
	return catalog, nil
}

func (s *Storage) engagementTiers(ctx context.Context, vehicleID string) ([]models.EngagementTier, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT months, monthly_price, label
		FROM engagement_tiers
		WHERE vehicle_id = $1
		ORDER BY position`, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.EngagementTier
	for rows.Next() {
		var t models.EngagementTier
		if err := rows.Scan(&t.Months, &t.MonthlyPrice, &t.Label); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (s *Storage) mileageTiers(ctx context.Context, vehicleID string) ([]models.MileageTier, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT km, additional_price
		FROM mileage_tiers
		WHERE vehicle_id = $1
		ORDER BY position`, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.MileageTier
	for rows.Next() {
		var t models.MileageTier
		if err := rows.Scan(&t.Km, &t.AdditionalPrice); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (s *Storage) insuranceTiers(ctx context.Context, vehicleID string) ([]models.InsuranceTier, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT type, franchise_amount, additional_price
		FROM insurance_tiers
		WHERE vehicle_id = $1
		ORDER BY position`, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.InsuranceTier
	for rows.Next() {
		var t models.InsuranceTier
		if err := rows.Scan(&t.Type, &t.FranchiseAmount, &t.AdditionalPrice); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// Cities возвращает все коэффициенты городов, отсортированные по имени.
func (s *Storage) Cities(ctx context.Context) ([]models.CityFactor, error) {
	const op = "storage.Cities"

	rows, err := s.DB.QueryContext(ctx, `SELECT name, factor FROM cities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	res := []models.CityFactor{}
	for rows.Next() {
		var c models.CityFactor
		if err := rows.Scan(&c.Name, &c.Factor); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// SaveVehicle полностью заменяет каталог автомобиля в одной транзакции.
func (s *Storage) SaveVehicle(ctx context.Context, catalog models.VehicleCatalog) (err error) {
	const op = "storage.SaveVehicle"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO vehicles (id, additional_driver_price) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET additional_driver_price = EXCLUDED.additional_driver_price`,
		catalog.VehicleID, catalog.AdditionalDriverPrice); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, table := range []string{"engagement_tiers", "mileage_tiers", "insurance_tiers"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE vehicle_id = $1`, catalog.VehicleID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	for i, t := range catalog.EngagementTiers {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO engagement_tiers (vehicle_id, position, months, monthly_price, label)
			VALUES ($1, $2, $3, $4, $5)`,
			catalog.VehicleID, i, t.Months, t.MonthlyPrice, t.Label); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	for i, t := range catalog.MileageTiers {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO mileage_tiers (vehicle_id, position, km, additional_price)
			VALUES ($1, $2, $3, $4)`,
			catalog.VehicleID, i, t.Km, t.AdditionalPrice); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	for i, t := range catalog.InsuranceTiers {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO insurance_tiers (vehicle_id, position, type, franchise_amount, additional_price)
			VALUES ($1, $2, $3, $4, $5)`,
			catalog.VehicleID, i, t.Type, t.FranchiseAmount, t.AdditionalPrice); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
