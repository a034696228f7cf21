// Package notifier рассылает игрокам письма о событиях профиля из очереди уведомлений.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/lib/smtp"
	"github.com/magabrotheeeer/clubhouse/internal/metrics"
	"github.com/magabrotheeeer/clubhouse/internal/models"
	"github.com/magabrotheeeer/clubhouse/internal/rabbitmq"
)

// ErrUnknownEvent событие неизвестного типа.
var ErrUnknownEvent = errors.New("unknown event type")

// Service отправитель уведомлений.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создаёт отправителя поверх SMTP транспорта.
func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// HandleMessage разбирает событие профиля и отправляет письмо игроку.
// Нечитаемые сообщения и события без адреса отклоняются без повтора.
func (s *Service) HandleMessage(ctx context.Context, body []byte) error {
	const op = "notifier.HandleMessage"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var event models.ProfileEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w: %w", op, rabbitmq.ErrDropMessage, err)
	}
	if event.Email == "" {
		s.log.Warn("event without recipient, skipping",
			slog.String("type", string(event.Type)), slog.String("user_uid", event.UserUID))
		metrics.NotificationsSent.WithLabelValues(string(event.Type), "skipped").Inc()
		return nil
	}

	subject, text, err := Render(event)
	if err != nil {
		metrics.NotificationsSent.WithLabelValues(string(event.Type), "skipped").Inc()
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrDropMessage, err)
	}

	err = s.sendEmail([]string{event.Email}, subject, text)
	metrics.NotificationsSent.WithLabelValues(string(event.Type), metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Render возвращает тему и текст письма для события.
func Render(event models.ProfileEvent) (string, string, error) {
	switch event.Type {
	case models.EventLevelUp:
		return fmt.Sprintf("You reached level %d!", event.Level),
			fmt.Sprintf("Hi, %s!\n\nCongratulations, you reached level %d in the club.\n\nKeep playing to climb higher.",
				event.Username, event.Level), nil
	case models.EventTrialGranted:
		until := "soon"
		if event.ExpiresAt != nil {
			until = event.ExpiresAt.Format("January 2, 2006")
		}
		return fmt.Sprintf("Your %s trial has started", event.Tier.DisplayName()),
			fmt.Sprintf("Hi, %s!\n\nYour promo code unlocked %s until %s.\n\nEnjoy the extra games!",
				event.Username, event.Tier.DisplayName(), until), nil
	case models.EventSubscriptionExpired:
		return fmt.Sprintf("Your %s subscription has ended", event.Tier.DisplayName()),
			fmt.Sprintf("Hi, %s!\n\nYour %s subscription has expired and your account is back on the Free plan.\n\n"+
				"You can renew at any time to get your daily games back.",
				event.Username, event.Tier.DisplayName()), nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownEvent, event.Type)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
