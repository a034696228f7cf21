package clubhouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/clubhouse/internal/cache"
	"github.com/magabrotheeeer/clubhouse/internal/config"
	"github.com/magabrotheeeer/clubhouse/internal/dictionary"
	"github.com/magabrotheeeer/clubhouse/internal/entitlement"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/health"
	"github.com/magabrotheeeer/clubhouse/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clubhouse/internal/lib/jwt"
	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/migrations"
	"github.com/magabrotheeeer/clubhouse/internal/rabbitmq"
	adminservice "github.com/magabrotheeeer/clubhouse/internal/services/admin"
	authservice "github.com/magabrotheeeer/clubhouse/internal/services/auth"
	profileservice "github.com/magabrotheeeer/clubhouse/internal/services/profile"
	promoservice "github.com/magabrotheeeer/clubhouse/internal/services/promo"
	"github.com/magabrotheeeer/clubhouse/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP API клуба со всеми подключениями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключается к PostgreSQL, Redis и RabbitMQ, применяет миграции,
// загружает словарь и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	trustedProxies, err := middlewarectx.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	dict, err := dictionary.Load(cfg.WordListPath)
	if err != nil {
		return nil, err
	}
	if dict.Len() == 0 {
		logger.Warn("dictionary is empty, every word will be rejected", slog.String("path", cfg.WordListPath))
	} else {
		logger.Info("dictionary loaded", slog.Int("words", dict.Len()))
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	publisher := rabbitmq.NewPublisher(ch)

	tracker := entitlement.NewTracker(entitlement.Policy{
		DefaultDailyLimit: cfg.DefaultDailyLimit,
		XPPerLevel:        cfg.XPPerLevel,
		Location:          loc,
	}, time.Now)

	deps := Dependencies{
		Dictionary:     dict,
		Auth:           authservice.NewAuthService(db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), tracker),
		Profiles:       profileservice.New(logger, db, tracker, publisher),
		Promo:          promoservice.New(logger, db, publisher, time.Now),
		Admin:          adminservice.New(logger, db, cacheRedis, time.Now),
		Limiter:        middlewarectx.NewIPRateLimiter(cfg.RPS, cfg.Burst, cfg.IdleTTL),
		TrustedProxies: trustedProxies,
		HealthChecks: map[string]health.Checker{
			"postgres": db.DB.PingContext,
			"redis":    cacheRedis.Ping,
			"rabbitmq": func(context.Context) error {
				if conn.IsClosed() {
					return amqp.ErrClosed
				}
				return nil
			},
		},
		AllowedOrigins: cfg.AllowedOrigins,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, deps)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем останавливает сервер и закрывает подключения.
func (a *App) Run(ctx context.Context) error {
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

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}
	a.close()
	return err
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
