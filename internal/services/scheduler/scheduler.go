// Package scheduler понижает профили с истёкшей подпиской и сообщает об этом игрокам.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/metrics"
	"github.com/magabrotheeeer/clubhouse/internal/models"
)

// SubscriptionRepository хранилище профилей с подписками.
type SubscriptionRepository interface {
	ExpireSubscriptions(ctx context.Context, now time.Time) ([]*models.PlayerProfile, error)
}

// EventPublisher отправляет события профиля в брокер.
type EventPublisher interface {
	Publish(ctx context.Context, event models.ProfileEvent) error
}

// Service фоновая задача истечения подписок.
type Service struct {
	repo      SubscriptionRepository
	publisher EventPublisher
	log       *slog.Logger
	now       func() time.Time
}

// New создаёт сервис. now по умолчанию time.Now.
func New(repo SubscriptionRepository, publisher EventPublisher, log *slog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       now,
	}
}

// ExpireSubscriptions переводит на free все профили с истёкшей подпиской и публикует
// по событию subscription_expired на каждый. Возвращает число пониженных профилей.
// Ошибка публикации не откатывает понижение.
func (s *Service) ExpireSubscriptions(ctx context.Context) (int, error) {
	const op = "scheduler.ExpireSubscriptions"
	log := s.log.With(slog.String("op", op))

	now := s.now()
	expired, err := s.repo.ExpireSubscriptions(ctx, now)
	if err != nil {
		log.Error("failed to expire subscriptions", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(expired) == 0 {
		log.Info("no expired subscriptions found")
		return 0, nil
	}
	log.Info("subscriptions expired", slog.Int("count", len(expired)))
	metrics.SubscriptionsExpired.Add(float64(len(expired)))

	for _, p := range expired {
		event := models.ProfileEvent{
			Type:       models.EventSubscriptionExpired,
			UserUID:    p.UserUID,
			Username:   p.Username,
			Email:      p.Email,
			Tier:       p.SubscriptionTier,
			ExpiresAt:  p.SubscriptionExpires,
			OccurredAt: now,
		}
		err := s.publisher.Publish(ctx, event)
		metrics.EventsPublished.WithLabelValues(string(event.Type), metrics.Status(err)).Inc()
		if err != nil {
			log.Error("failed to publish message", slog.String("user_uid", p.UserUID), sl.Err(err))
		}
	}
	return len(expired), nil
}

// Run обёртка для планировщика cron: ошибки только логируются.
func (s *Service) Run(ctx context.Context) func() {
	return func() {
		s.log.Info("starting subscription expiry job")
		if _, err := s.ExpireSubscriptions(ctx); err != nil {
			s.log.Error("subscription expiry job failed", sl.Err(err))
		}
	}
}
