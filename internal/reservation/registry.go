package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/car-subscription/internal/metrics"
	"github.com/magabrotheeeer/car-subscription/internal/models"
	"github.com/magabrotheeeer/car-subscription/internal/selection"
	"github.com/magabrotheeeer/car-subscription/internal/storage"
)

// CatalogSource отдаёт каталоги автомобилей и коэффициенты городов.
type CatalogSource interface {
	Vehicle(ctx context.Context, vehicleID string) (models.VehicleCatalog, error)
	Cities(ctx context.Context) ([]models.CityFactor, error)
}

// Registry хранит по одной активной сессии бронирования на владельца.
type Registry struct {
	source CatalogSource
	deps   Deps

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	w        *Workflow
	lastSeen time.Time
}

// NewRegistry создаёт реестр сессий.
func NewRegistry(source CatalogSource, deps Deps) *Registry {
	return &Registry{
		source:   source,
		deps:     deps.withDefaults(),
		sessions: make(map[string]*session),
	}
}

func (r *Registry) load(ctx context.Context, vehicleID string) (models.VehicleCatalog, []models.CityFactor, error) {
	catalog, err := r.source.Vehicle(ctx, vehicleID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.VehicleCatalog{}, nil, fmt.Errorf("%w: %s", ErrVehicleNotFound, vehicleID)
	}
	if err != nil {
		return models.VehicleCatalog{}, nil, err
	}
	cities, err := r.source.Cities(ctx)
	if err != nil {
		return models.VehicleCatalog{}, nil, err
	}
	return catalog, cities, nil
}

// Start открывает новую сессию для автомобиля vehicleID и заменяет прежнюю.
// Выбранный ранее город сохраняется. Сессию с идущей отправкой заменить нельзя:
// прежняя сессия снимается под её блокировкой, и начать отправку после этого
// она уже не может.
func (r *Registry) Start(ctx context.Context, owner models.Owner, vehicleID string) (*Workflow, error) {
	const op = "reservation.Start"

	catalog, cities, err := r.load(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	w := New(owner, catalog, cities, r.deps)
	if prev, ok := r.sessions[owner.ID]; ok {
		city, err := prev.w.retire()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if _, err := w.UpdateSelection(func(m *selection.Manager) { m.SetCity(city) }); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	r.sessions[owner.ID] = &session{w: w, lastSeen: r.deps.Now()}

	r.deps.Log.Info("reservation session started",
		slog.String("op", op),
		slog.String("owner_id", owner.ID),
		slog.String("vehicle_id", vehicleID),
	)
	return w, nil
}

// Get возвращает активную сессию владельца и продлевает её жизнь.
func (r *Registry) Get(ownerID string) (*Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[ownerID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = r.deps.Now()
	return s.w, nil
}

// Evict удаляет сессии, простаивающие дольше SessionTTL.
// Сессии с идущей отправкой остаются. Возвращает число удалённых сессий.
func (r *Registry) Evict() int {
	const op = "reservation.Evict"

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.deps.Now()
	evicted := 0
	for ownerID, s := range r.sessions {
		if now.Sub(s.lastSeen) < r.deps.SessionTTL {
			continue
		}
		if _, err := s.w.retire(); err != nil {
			continue
		}
		delete(r.sessions, ownerID)
		evicted++
	}
	if evicted > 0 {
		r.deps.Log.Info("idle reservation sessions evicted",
			slog.String("op", op),
			slog.Int("count", evicted),
		)
	}
	return evicted
}

// Run периодически вытесняет простаивающие сессии до отмены ctx.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Evict()
		}
	}
}

// Preview рассчитывает цену для автомобиля без открытия сессии.
func (r *Registry) Preview(ctx context.Context, vehicleID string, fn func(m *selection.Manager)) (Quote, error) {
	const op = "reservation.Preview"
	defer func(start time.Time) {
		metrics.QuoteDuration.Observe(time.Since(start).Seconds())
	}(time.Now())

	catalog, cities, err := r.load(ctx, vehicleID)
	if err != nil {
		return Quote{}, fmt.Errorf("%s: %w", op, err)
	}
	w := New(models.Owner{}, catalog, cities, r.deps)
	return w.UpdateSelection(fn)
}

// retire снимает сессию с учёта и возвращает выбранный город.
// Сессию с идущей отправкой снять нельзя.
func (w *Workflow) retire() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inflight.Load() {
		return "", ErrSubmissionInProgress
	}
	w.retired = true
	return w.sel.Selection().CityName, nil
}

// Cities возвращает коэффициенты городов.
func (r *Registry) Cities(ctx context.Context) ([]models.CityFactor, error) {
	return r.source.Cities(ctx)
}
