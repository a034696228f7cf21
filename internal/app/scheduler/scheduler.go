// Package scheduler запускает фоновые задачи по расписанию cron.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/clubhouse/internal/config"
	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/rabbitmq"
	schedulerservice "github.com/magabrotheeeer/clubhouse/internal/services/scheduler"
	"github.com/magabrotheeeer/clubhouse/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	cron   *cron.Cron
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *slog.Logger

	service  *schedulerservice.Service
	schedule string
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(ctx, db)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		closeResources(ch, conn, logger)
		return nil, err
	}

	return &App{
		cron:     cron.New(),
		db:       db,
		conn:     conn,
		ch:       ch,
		logger:   logger,
		service:  schedulerservice.New(db, rabbitmq.NewPublisher(ch), logger, time.Now),
		schedule: cfg.ExpireSchedule,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run регистрирует задачи и ждёт отмены ctx. Перед выходом дожидается выполняющихся задач.
func (a *App) Run(ctx context.Context) error {
	if _, err := a.cron.AddFunc(a.schedule, a.service.Run(ctx)); err != nil {
		closeResources(a.ch, a.conn, a.logger)
		_ = a.db.Close()
		return fmt.Errorf("invalid expire schedule %q: %w", a.schedule, err)
	}
	a.cron.Start()
	a.logger.Info("scheduler started", slog.String("expire_schedule", a.schedule))

	<-ctx.Done()

	a.logger.Info("shutting down scheduler service")
	<-a.cron.Stop().Done()

	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return nil
}
