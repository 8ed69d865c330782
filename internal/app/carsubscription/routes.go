// Package carsubscription собирает HTTP-приложение сервиса подписки на автомобили.
package carsubscription

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/car-subscription/internal/config"
	"github.com/magabrotheeeer/car-subscription/internal/http/handlers/catalog/cities"
	"github.com/magabrotheeeer/car-subscription/internal/http/handlers/catalog/quote"
	"github.com/magabrotheeeer/car-subscription/internal/http/handlers/catalog/upsert"
	"github.com/magabrotheeeer/car-subscription/internal/http/handlers/health"
	"github.com/magabrotheeeer/car-subscription/internal/http/handlers/reservation/read"
	"github.com/magabrotheeeer/car-subscription/internal/http/handlers/session"
	"github.com/magabrotheeeer/car-subscription/internal/http/middlewarectx"
	"github.com/magabrotheeeer/car-subscription/internal/reservation"
	catalogservice "github.com/magabrotheeeer/car-subscription/internal/services/catalog"
	recordsservice "github.com/magabrotheeeer/car-subscription/internal/services/records"
)

// Services — всё, что нужно маршрутам.
type Services struct {
	Registry *reservation.Registry
	Catalog  *catalogservice.Service
	Records  *recordsservice.Service
	Tokens   middlewarectx.TokenParser
	Health   map[string]health.Check
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(cfg.RateLimit, cfg.RateBurst, logger))

		// Открытые конечные точки
		r.Get("/cities", cities.New(logger, s.Registry).ServeHTTP)
		r.Get("/vehicles/{id}/quote", quote.New(logger, s.Registry).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Tokens, logger))

			r.Put("/vehicles/{id}", upsert.New(logger, s.Catalog).ServeHTTP)

			view := session.NewViewHandler(logger, s.Registry)
			r.Post("/sessions", session.NewStart(logger, s.Registry).ServeHTTP)
			r.Get("/sessions", view.ServeHTTP)
			r.Get("/sessions/quote", view.ServeHTTP)
			r.Patch("/sessions/selection", session.NewSelection(logger, s.Registry).ServeHTTP)
			r.Post("/sessions/identity", session.NewIdentity(logger, s.Registry).ServeHTTP)
			r.Post("/sessions/documents", session.NewDocuments(logger, s.Registry, cfg.MaxTotalSize).ServeHTTP)
			r.Post("/sessions/contract", session.NewContract(logger, s.Registry).ServeHTTP)
			r.Post("/sessions/payment", session.NewPayment(logger, s.Registry, cfg.SubmitTimeout).ServeHTTP)
			r.Post("/sessions/back", session.NewBack(logger, s.Registry).ServeHTTP)

			r.Get("/reservations/{id}", read.New(logger, s.Records).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, s.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
}
