// Package notifier читает события профиля из RabbitMQ и рассылает письма.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/clubhouse/internal/config"
	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/lib/smtp"
	"github.com/magabrotheeeer/clubhouse/internal/rabbitmq"
	notifierservice "github.com/magabrotheeeer/clubhouse/internal/services/notifier"
)

// App потребитель очереди уведомлений.
type App struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	service *notifierservice.Service
	logger  *slog.Logger
}

// New подключается к RabbitMQ и готовит SMTP-транспорт.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)

	return &App{
		conn:    conn,
		ch:      ch,
		service: notifierservice.New(transport, logger),
		logger:  logger,
	}, nil
}

// Run читает очередь до отмены ctx и дожидается обработки начатых сообщений.
// Если брокер перестал доставлять сообщения, возвращает ошибку, чтобы процесс перезапустился.
func (a *App) Run(ctx context.Context) error {
	consumer, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.NotificationsQueue, a.service.HandleMessage)
	if err != nil {
		a.logger.Error("failed to start notifications consumer", sl.Err(err))
		a.close()
		return err
	}
	a.logger.Info("notifier started", slog.String("queue", rabbitmq.NotificationsQueue))

	err = a.wait(ctx, consumer)
	a.close()
	return err
}

func (a *App) wait(ctx context.Context, consumer *rabbitmq.Consumer) error {
	select {
	case <-ctx.Done():
		a.logger.Info("notifier shutting down gracefully")
	case <-consumer.Done():
	}
	consumer.Wait()

	if err := consumer.Err(); err != nil {
		a.logger.Error("notifications consumer stopped unexpectedly", sl.Err(err))
		return err
	}
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
