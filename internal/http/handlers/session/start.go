package session

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/car-subscription/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/car-subscription/internal/selection"
)

// StartRequest — тело запроса на открытие сессии.
type StartRequest struct {
	VehicleID string `json:"vehicle_id" validate:"required"`
}

// StartHandler открывает сессию бронирования автомобиля.
type StartHandler struct{ base }

// NewStart создаёт StartHandler.
func NewStart(log *slog.Logger, sessions Sessions) *StartHandler {
	return &StartHandler{newBase(log, sessions)}
}

func (h *StartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.Start"
	log := h.logger(r, op)

	owner, ok := h.owner(w, r, log)
	if !ok {
		return
	}
	var req StartRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	wf, err := h.sessions.Start(r.Context(), owner, req.VehicleID)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("session started", slog.String("vehicle_id", req.VehicleID))
	render.Status(r, http.StatusCreated)
	h.respond(w, r, wf)
}

// ViewHandler отдаёт текущее состояние сессии.
type ViewHandler struct{ base }

// NewViewHandler создаёт ViewHandler.
func NewViewHandler(log *slog.Logger, sessions Sessions) *ViewHandler {
	return &ViewHandler{newBase(log, sessions)}
}

func (h *ViewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.View"
	log := h.logger(r, op)

	wf, ok := h.current(w, r, log)
	if !ok {
		return
	}
	h.respond(w, r, wf)
}

// SelectionHandler меняет выбор опций и пересчитывает цену.
type SelectionHandler struct{ base }

// NewSelection создаёт SelectionHandler.
func NewSelection(log *slog.Logger, sessions Sessions) *SelectionHandler {
	return &SelectionHandler{newBase(log, sessions)}
}

func (h *SelectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.Selection"
	log := h.logger(r, op)

	wf, ok := h.current(w, r, log)
	if !ok {
		return
	}
	var change selection.Change
	if !h.decode(w, r, log, &change) {
		return
	}

	q, err := wf.UpdateSelection(change.Apply)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("selection updated", slog.Float64("total", q.Price.Total))
	h.respond(w, r, wf)
}
