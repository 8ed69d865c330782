// Package read реализует HTTP-обработчик получения отправленной записи подписки по ID.
//
// Запись ищется в основном хранилище, затем в резервном. Чужие записи
// недоступны и выглядят как отсутствующие.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/car-subscription/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/car-subscription/internal/http/middlewarectx"
	"github.com/magabrotheeeer/car-subscription/internal/http/response"
	"github.com/magabrotheeeer/car-subscription/internal/models"
)

// Service описывает чтение записи подписки владельца.
type Service interface {
	RecordByID(ctx context.Context, ownerID, id string) (models.SubscriptionRecord, error)
}

// Handler обрабатывает GET /reservations/{id}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.reservation.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	owner, ok := middlewarectx.OwnerFrom(r.Context())
	if !ok {
		log.Error("owner not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := h.service.RecordByID(r.Context(), owner.ID, id)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("success to read reservation", slog.String("reservation_id", rec.ReservationID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"reservation": rec,
	}))
}
