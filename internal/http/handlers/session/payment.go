package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/car-subscription/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/car-subscription/internal/models"
)

// PaymentRequest — платёжные данные. Номер карты и CVC не логируются.
type PaymentRequest struct {
	CardNumber string `json:"card_number" validate:"required"`
	Expiry     string `json:"expiry" validate:"required"`
	CVC        string `json:"cvc" validate:"required"`
	Holder     string `json:"holder"`
}

// PaymentHandler принимает карту и отправляет бронирование.
type PaymentHandler struct {
	base
	timeout time.Duration
}

// NewPayment создаёт PaymentHandler. timeout ограничивает всю отправку:
// загрузку документов, сохранение записи и публикацию события.
func NewPayment(log *slog.Logger, sessions Sessions, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{base: newBase(log, sessions), timeout: timeout}
}

func (h *PaymentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.Payment"
	log := h.logger(r, op)

	wf, ok := h.current(w, r, log)
	if !ok {
		return
	}
	var req PaymentRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	rec, err := wf.Submit(ctx, models.Card{
		Number: req.CardNumber,
		Expiry: req.Expiry,
		CVC:    req.CVC,
		Holder: req.Holder,
	})
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("reservation submitted",
		slog.String("reservation_id", rec.ReservationID),
		slog.String("stored_in", string(rec.StoredIn)),
		slog.Float64("total", rec.Total),
	)
	render.Status(r, http.StatusCreated)
	h.respond(w, r, wf)
}
