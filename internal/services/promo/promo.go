// Package promo проверяет и активирует промокоды.
package promo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/metrics"
	"github.com/magabrotheeeer/clubhouse/internal/models"
	"github.com/magabrotheeeer/clubhouse/internal/storage"
)

// Repository хранилище промокодов и профилей.
type Repository interface {
	GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error)
	RedeemPromoCode(ctx context.Context, userUID, code string, now time.Time) (*models.Redemption, error)
	GetProfile(ctx context.Context, userUID string) (*models.PlayerProfile, error)
}

// EventPublisher отправляет события профиля в брокер.
type EventPublisher interface {
	Publish(ctx context.Context, event models.ProfileEvent) error
}

// Service операции с промокодами для игроков.
type Service struct {
	log       *slog.Logger
	repo      Repository
	publisher EventPublisher
	now       func() time.Time
}

// New создаёт сервис промокодов. Если now равен nil, используется time.Now.
func New(log *slog.Logger, repo Repository, publisher EventPublisher, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{log: log, repo: repo, publisher: publisher, now: now}
}

// Check находит промокод без учёта регистра и сообщает, действителен ли он сейчас.
func (s *Service) Check(ctx context.Context, code string) (*models.PromoCode, bool, error) {
	const op = "promo.Check"
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, false, fmt.Errorf("%s: %w", op, storage.ErrPromoNotFound)
	}
	promo, err := s.repo.GetPromoCode(ctx, code)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return promo, promo.IsValid(s.now()), nil
}

// Redeem активирует промокод для игрока. Код, выдающий пробный период,
// переводит профиль на свой уровень и публикует событие trial_granted.
func (s *Service) Redeem(ctx context.Context, userUID, code string) (*models.Redemption, error) {
	const op = "promo.Redeem"
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrPromoNotFound)
	}

	now := s.now()
	res, err := s.repo.RedeemPromoCode(ctx, userUID, code, now)
	metrics.PromoRedemptions.WithLabelValues(redeemResult(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if res.TrialGranted {
		s.trialGranted(ctx, userUID, res, now)
	}
	return res, nil
}

func (s *Service) trialGranted(ctx context.Context, userUID string, res *models.Redemption, now time.Time) {
	log := s.log.With(slog.String("user_uid", userUID))

	event := models.ProfileEvent{
		Type:       models.EventTrialGranted,
		UserUID:    userUID,
		Tier:       res.Tier,
		ExpiresAt:  &res.Expires,
		OccurredAt: now,
	}
	if p, err := s.repo.GetProfile(ctx, userUID); err != nil {
		log.Warn("failed to load profile for trial event", sl.Err(err))
	} else {
		event.Username = p.Username
		event.Email = p.Email
		event.Level = p.Level
	}

	err := s.publisher.Publish(ctx, event)
	metrics.EventsPublished.WithLabelValues(string(event.Type), metrics.Status(err)).Inc()
	if err != nil {
		log.Warn("failed to publish trial granted event", sl.Err(err))
	}
}

func redeemResult(err error) string {
	switch {
	case err == nil:
		return "redeemed"
	case errors.Is(err, storage.ErrPromoNotFound):
		return "not_found"
	case errors.Is(err, storage.ErrPromoInvalid):
		return "invalid"
	case errors.Is(err, storage.ErrTierAlreadyHeld):
		return "tier_held"
	default:
		return "error"
	}
}
