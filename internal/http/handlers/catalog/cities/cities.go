// Package cities отдаёт список городов с ценовыми коэффициентами.
package cities

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/car-subscription/internal/http/response"
	"github.com/magabrotheeeer/car-subscription/internal/lib/sl"
	"github.com/magabrotheeeer/car-subscription/internal/models"
)

// Service возвращает коэффициенты городов.
type Service interface {
	Cities(ctx context.Context) ([]models.CityFactor, error)
}

// Handler обрабатывает GET /cities.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.cities"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.Cities(r.Context())
	if err != nil {
		log.Error("failed to list cities", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list cities"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"cities": res,
	}))
}
