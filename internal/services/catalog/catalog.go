// Package catalog отдаёт каталоги автомобилей и коэффициенты городов
// с кэшированием в Redis. Ошибки кэша не прерывают чтение из базы.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/car-subscription/internal/lib/sl"
	"github.com/magabrotheeeer/car-subscription/internal/metrics"
	"github.com/magabrotheeeer/car-subscription/internal/models"
)

const (
	vehicleKeyPrefix = "catalog:vehicle:"
	citiesKey        = "catalog:cities"
)

// Repository — источник каталогов.
type Repository interface {
	Vehicle(ctx context.Context, vehicleID string) (models.VehicleCatalog, error)
	Cities(ctx context.Context) ([]models.CityFactor, error)
	SaveVehicle(ctx context.Context, catalog models.VehicleCatalog) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service читает каталоги через кэш.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewService создаёт сервис каталогов. cache может быть nil.
func NewService(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

// Vehicle возвращает каталог автомобиля. Ошибка storage.ErrNotFound
// из репозитория передаётся без изменений.
func (s *Service) Vehicle(ctx context.Context, vehicleID string) (models.VehicleCatalog, error) {
	const op = "catalog.Vehicle"
	key := vehicleKeyPrefix + vehicleID

	var cached models.VehicleCatalog
	if s.fromCache(ctx, op, key, &cached) {
		return cached.Normalize(), nil
	}

	catalog, err := s.repo.Vehicle(ctx, vehicleID)
	if err != nil {
		return models.VehicleCatalog{}, fmt.Errorf("%s: %w", op, err)
	}
	s.toCache(ctx, op, key, catalog)
	return catalog, nil
}

// Cities возвращает коэффициенты всех городов.
func (s *Service) Cities(ctx context.Context) ([]models.CityFactor, error) {
	const op = "catalog.Cities"

	var cached []models.CityFactor
	if s.fromCache(ctx, op, citiesKey, &cached) {
		return cached, nil
	}

	cities, err := s.repo.Cities(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.toCache(ctx, op, citiesKey, cities)
	return cities, nil
}

// SaveVehicle сохраняет каталог и сбрасывает его кэш.
func (s *Service) SaveVehicle(ctx context.Context, catalog models.VehicleCatalog) error {
	const op = "catalog.SaveVehicle"
	if err := s.repo.SaveVehicle(ctx, catalog); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, vehicleKeyPrefix+catalog.VehicleID); err != nil {
			s.log.Warn("failed to invalidate catalog cache", slog.String("op", op), sl.Err(err))
		}
	}
	return nil
}

func (s *Service) fromCache(ctx context.Context, op, key string, result any) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, result)
	switch {
	case err != nil:
		metrics.CatalogCacheTotal.WithLabelValues("error").Inc()
		s.log.Warn("catalog cache read failed", slog.String("op", op), slog.String("key", key), sl.Err(err))
		return false
	case found:
		metrics.CatalogCacheTotal.WithLabelValues("hit").Inc()
		return true
	default:
		metrics.CatalogCacheTotal.WithLabelValues("miss").Inc()
		return false
	}
}

func (s *Service) toCache(ctx context.Context, op, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.log.Warn("catalog cache write failed", slog.String("op", op), slog.String("key", key), sl.Err(err))
	}
}
