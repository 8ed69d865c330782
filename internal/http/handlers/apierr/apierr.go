// Package apierr переводит ошибки бронирования в HTTP-ответы.
package apierr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/car-subscription/internal/http/response"
	"github.com/magabrotheeeer/car-subscription/internal/lib/sl"
	"github.com/magabrotheeeer/car-subscription/internal/reservation"
	"github.com/magabrotheeeer/car-subscription/internal/storage"
)

// Status возвращает HTTP-статус и текст ответа для ошибки.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, reservation.ErrVehicleNotFound):
		return http.StatusNotFound, "vehicle not found"
	case errors.Is(err, reservation.ErrSessionNotFound):
		return http.StatusNotFound, "no active reservation session"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, reservation.ErrInvalidTransition):
		return http.StatusConflict, "action is not allowed at the current step"
	case errors.Is(err, reservation.ErrSubmissionInProgress):
		return http.StatusConflict, "submission already in progress"
	case errors.Is(err, reservation.ErrUploadFailed):
		return http.StatusBadGateway, "document upload failed, please retry"
	case errors.Is(err, reservation.ErrPersistenceFailed):
		return http.StatusServiceUnavailable, "reservation could not be saved, please retry"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// Write пишет ответ об ошибке. Ошибки проверки полей возвращаются с кодом 422.
func Write(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var verr *reservation.ValidationError
	if errors.As(err, &verr) {
		log.Info("validation failed", slog.Any("fields", verr.Fields))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.FieldsError("validation failed", verr.Fields))
		return
	}

	code, msg := Status(err)
	if code >= http.StatusInternalServerError {
		log.Error(msg, sl.Err(err))
	} else {
		log.Info(msg, sl.Err(err))
	}
	render.Status(r, code)
	render.JSON(w, r, response.Error(msg))
}
