// Package upsert реализует загрузку каталога опций автомобиля.
//
// Каталог заменяется целиком, закешированная копия сбрасывается.
package upsert

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/car-subscription/internal/http/response"
	"github.com/magabrotheeeer/car-subscription/internal/lib/sl"
	"github.com/magabrotheeeer/car-subscription/internal/models"
)

// Service сохраняет каталог автомобиля.
type Service interface {
	SaveVehicle(ctx context.Context, catalog models.VehicleCatalog) error
}

// Request — каталог в теле запроса. ID автомобиля берётся из URL.
type Request struct {
	EngagementTiers []struct {
		Months       int     `json:"months" validate:"min=1"`
		MonthlyPrice float64 `json:"monthly_price" validate:"min=0"`
		Label        string  `json:"label"`
	} `json:"engagement_tiers" validate:"dive"`
	MileageTiers []struct {
		Km              int     `json:"km" validate:"min=1"`
		AdditionalPrice float64 `json:"additional_price" validate:"min=0"`
	} `json:"mileage_tiers" validate:"dive"`
	InsuranceTiers []struct {
		Type            string  `json:"type" validate:"required"`
		FranchiseAmount float64 `json:"franchise_amount" validate:"min=0"`
		AdditionalPrice float64 `json:"additional_price" validate:"min=0"`
	} `json:"insurance_tiers" validate:"dive"`
	AdditionalDriverPrice float64 `json:"additional_driver_price" validate:"min=0"`
}

// Catalog переводит запрос в каталог автомобиля vehicleID.
func (req Request) Catalog(vehicleID string) models.VehicleCatalog {
	c := models.VehicleCatalog{
		VehicleID:             vehicleID,
		AdditionalDriverPrice: req.AdditionalDriverPrice,
	}
	for _, t := range req.EngagementTiers {
		c.EngagementTiers = append(c.EngagementTiers, models.EngagementTier{
			Months: t.Months, MonthlyPrice: t.MonthlyPrice, Label: t.Label,
		})
	}
	for _, t := range req.MileageTiers {
		c.MileageTiers = append(c.MileageTiers, models.MileageTier{
			Km: t.Km, AdditionalPrice: t.AdditionalPrice,
		})
	}
	for _, t := range req.InsuranceTiers {
		c.InsuranceTiers = append(c.InsuranceTiers, models.InsuranceTier{
			Type: t.Type, FranchiseAmount: t.FranchiseAmount, AdditionalPrice: t.AdditionalPrice,
		})
	}
	return c.Normalize()
}

// Handler обрабатывает PUT /vehicles/{id}.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.upsert"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	vehicleID := chi.URLParam(r, "id")
	if vehicleID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("vehicle id is required"))
		return
	}

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Info("invalid catalog", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		log.Error("failed to validate catalog", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	catalog := req.Catalog(vehicleID)
	if err := h.service.SaveVehicle(r.Context(), catalog); err != nil {
		log.Error("failed to save catalog", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save catalog"))
		return
	}

	log.Info("catalog saved", slog.String("vehicle_id", vehicleID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"catalog": catalog,
	}))
}
