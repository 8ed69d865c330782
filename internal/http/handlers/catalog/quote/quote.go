// Package quote реализует расчёт цены подписки на автомобиль без открытия сессии.
//
// Параметры выбора передаются в query: engagement, mileage, insurance,
// drivers, city, insurance_active. Отсутствующие параметры не меняют
// значения по умолчанию.
package quote

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/car-subscription/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/car-subscription/internal/http/response"
	"github.com/magabrotheeeer/car-subscription/internal/reservation"
	"github.com/magabrotheeeer/car-subscription/internal/selection"
)

// Service рассчитывает цену для автомобиля.
type Service interface {
	Preview(ctx context.Context, vehicleID string, fn func(m *selection.Manager)) (reservation.Quote, error)
}

// Handler обрабатывает GET /vehicles/{id}/quote.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.quote"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	vehicleID := chi.URLParam(r, "id")
	change, field, err := ParseChange(r)
	if err != nil {
		log.Info("invalid query parameter", slog.String("param", field))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.FieldsError("invalid query parameter", map[string]string{
			field: "has an invalid value",
		}))
		return
	}

	q, err := h.service.Preview(r.Context(), vehicleID, change.Apply)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Debug("quote computed", slog.String("vehicle_id", vehicleID), slog.Float64("total", q.Price.Total))
	render.JSON(w, r, response.StatusOKWithData(q))
}

// ParseChange собирает изменение выбора из query-параметров.
// При ошибке возвращает имя некорректного параметра.
func ParseChange(r *http.Request) (selection.Change, string, error) {
	query := r.URL.Query()
	var c selection.Change

	ints := []struct {
		name string
		dst  **int
	}{
		{"engagement", &c.EngagementIndex},
		{"mileage", &c.MileageIndex},
		{"insurance", &c.InsuranceIndex},
		{"drivers", &c.Drivers},
	}
	for _, p := range ints {
		raw := query.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return selection.Change{}, p.name, err
		}
		*p.dst = &v
	}

	if city := query.Get("city"); city != "" {
		c.City = &city
	}
	if raw := query.Get("insurance_active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return selection.Change{}, "insurance_active", err
		}
		c.InsuranceActive = &v
	}
	return c, "", nil
}
