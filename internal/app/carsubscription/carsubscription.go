package carsubscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/car-subscription/internal/cache"
	"github.com/magabrotheeeer/car-subscription/internal/config"
	"github.com/magabrotheeeer/car-subscription/internal/http/handlers/health"
	"github.com/magabrotheeeer/car-subscription/internal/lib/jwt"
	"github.com/magabrotheeeer/car-subscription/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/car-subscription/internal/lib/sl"
	"github.com/magabrotheeeer/car-subscription/internal/migrations"
	"github.com/magabrotheeeer/car-subscription/internal/notify"
	"github.com/magabrotheeeer/car-subscription/internal/reservation"
	catalogservice "github.com/magabrotheeeer/car-subscription/internal/services/catalog"
	recordsservice "github.com/magabrotheeeer/car-subscription/internal/services/records"
	"github.com/magabrotheeeer/car-subscription/internal/storage/documents"
	"github.com/magabrotheeeer/car-subscription/internal/storage/repository"
)

const (
	shutdownTimeout = 15 * time.Second
	evictInterval   = time.Minute
)

var errAMQPClosed = errors.New("amqp connection closed")

// App — HTTP-сервер со всеми зависимостями.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	registry *reservation.Registry
	db       *repository.Storage
	cache    *cache.Cache
	amqp     *amqp.Connection
	ch       *amqp.Channel
}

// New подключает хранилища, брокер и S3, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "carsubscription.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = repository.CheckDatabaseReady(ctx, db); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	uploader, err := documents.NewS3Uploader(ctx, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.ReservationQueues())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	publishers := notify.Fanout{rabbitmq.NewPublisher(ch)}
	if cfg.TopicARN != "" {
		snsPublisher, err := notify.NewSNSFromConfig(ctx, cfg.SNS)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publishers = append(publishers, snsPublisher)
	}

	fallback := cache.NewRecordStore(redisCache)
	catalogService := catalogservice.NewService(db, redisCache, cfg.CatalogTTL, logger)

	registry := reservation.NewRegistry(catalogService, reservation.Deps{
		Uploader:  uploader,
		Primary:   db,
		Fallback:  fallback,
		Publisher: publishers,
		Rules: reservation.Rules{
			MinDocuments:        cfg.MinDocuments,
			MinCompanyDocuments: cfg.MinCompanyDocuments,
			MaxTotalSize:        cfg.MaxTotalSize,
		},
		SessionTTL: cfg.SessionTTL,
		Log:        logger,
	})

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, Services{
		Registry: registry,
		Catalog:  catalogService,
		Records:  recordsservice.NewService(db, fallback, logger),
		Tokens:   jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		Health: map[string]health.Check{
			"postgres": db.Ping,
			"redis":    redisCache.Ping,
			"rabbitmq": func(context.Context) error {
				if conn.IsClosed() {
					return errAMQPClosed
				}
				return nil
			},
		},
	})

	srv := &http.Server{
		Addr:        cfg.AddressHTTP,
		Handler:     router,
		ReadTimeout: cfg.TimeoutHTTP,
		// отправка бронирования может идти дольше обычного запроса
		WriteTimeout: cfg.TimeoutHTTP + cfg.SubmitTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		registry: registry,
		db:       db,
		cache:    redisCache,
		amqp:     conn,
		ch:       ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	go a.registry.Run(ctx, evictInterval)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Warn("failed to close amqp channel", sl.Err(err))
	}
	if err := a.amqp.Close(); err != nil {
		a.logger.Warn("failed to close amqp connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
