package session

import (
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/car-subscription/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/car-subscription/internal/models"
)

// IdentityHandler принимает личные данные клиента.
type IdentityHandler struct{ base }

// NewIdentity создаёт IdentityHandler.
func NewIdentity(log *slog.Logger, sessions Sessions) *IdentityHandler {
	return &IdentityHandler{newBase(log, sessions)}
}

func (h *IdentityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.Identity"
	log := h.logger(r, op)

	wf, ok := h.current(w, r, log)
	if !ok {
		return
	}
	var id models.Identity
	if !h.decode(w, r, log, &id) {
		return
	}

	if err := wf.SubmitIdentity(id); err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("identity accepted", slog.String("client_type", string(id.ClientType)))
	h.respond(w, r, wf)
}

// ContractRequest — согласие с договором. Поле обязательно.
type ContractRequest struct {
	Accepted *bool `json:"accepted" validate:"required"`
}

// ContractHandler фиксирует согласие с договором.
type ContractHandler struct{ base }

// NewContract создаёт ContractHandler.
func NewContract(log *slog.Logger, sessions Sessions) *ContractHandler {
	return &ContractHandler{newBase(log, sessions)}
}

func (h *ContractHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.Contract"
	log := h.logger(r, op)

	wf, ok := h.current(w, r, log)
	if !ok {
		return
	}
	var req ContractRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	if err := wf.AcceptContract(*req.Accepted); err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("contract accepted")
	h.respond(w, r, wf)
}

// BackHandler возвращает сессию на предыдущий шаг.
type BackHandler struct{ base }

// NewBack создаёт BackHandler.
func NewBack(log *slog.Logger, sessions Sessions) *BackHandler {
	return &BackHandler{newBase(log, sessions)}
}

func (h *BackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.Back"
	log := h.logger(r, op)

	wf, ok := h.current(w, r, log)
	if !ok {
		return
	}

	st, err := wf.Back()
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("moved back", slog.String("state", st.String()))
	h.respond(w, r, wf)
}
