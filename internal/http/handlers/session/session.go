// Package session содержит HTTP-обработчики пошагового бронирования.
//
// Все обработчики работают с активной сессией владельца из контекста запроса
// и в ответ отдают текущее представление сессии: шаг, цену и черновик.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/car-subscription/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/car-subscription/internal/http/middlewarectx"
	"github.com/magabrotheeeer/car-subscription/internal/http/response"
	"github.com/magabrotheeeer/car-subscription/internal/lib/sl"
	"github.com/magabrotheeeer/car-subscription/internal/models"
	"github.com/magabrotheeeer/car-subscription/internal/reservation"
)

// Sessions — реестр сессий бронирования.
type Sessions interface {
	Start(ctx context.Context, owner models.Owner, vehicleID string) (*reservation.Workflow, error)
	Get(ownerID string) (*reservation.Workflow, error)
}

// View — представление сессии в ответе.
type View struct {
	State  string                     `json:"state"`
	Quote  reservation.Quote          `json:"quote"`
	Draft  models.Draft               `json:"draft"`
	Record *models.SubscriptionRecord `json:"record,omitempty"`
}

// NewView собирает представление сессии.
func NewView(wf *reservation.Workflow) View {
	v := View{
		State: wf.State().String(),
		Quote: wf.Quote(),
		Draft: wf.Draft(),
	}
	if rec, ok := wf.Record(); ok {
		v.Record = &rec
	}
	return v
}

// base — общая часть обработчиков сессии.
type base struct {
	log      *slog.Logger
	sessions Sessions
	validate *validator.Validate
}

func newBase(log *slog.Logger, sessions Sessions) base {
	return base{
		log:      log,
		sessions: sessions,
		validate: validator.New(),
	}
}

func (b base) logger(r *http.Request, op string) *slog.Logger {
	return b.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func (b base) owner(w http.ResponseWriter, r *http.Request, log *slog.Logger) (models.Owner, bool) {
	owner, ok := middlewarectx.OwnerFrom(r.Context())
	if !ok {
		log.Error("owner not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return models.Owner{}, false
	}
	return owner, true
}

// current возвращает активную сессию владельца или пишет ответ с ошибкой.
func (b base) current(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*reservation.Workflow, bool) {
	owner, ok := b.owner(w, r, log)
	if !ok {
		return nil, false
	}
	wf, err := b.sessions.Get(owner.ID)
	if err != nil {
		apierr.Write(w, r, log, err)
		return nil, false
	}
	return wf, true
}

// decode читает JSON-тело запроса и проверяет его тегами validate.
func (b base) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	if err := b.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Info("invalid request", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return false
		}
		log.Error("failed to validate request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	return true
}

func (b base) respond(w http.ResponseWriter, r *http.Request, wf *reservation.Workflow) {
	render.JSON(w, r, response.StatusOKWithData(NewView(wf)))
}
