// Package profile сохраняет изменения профиля игрока, сделанные трекером квот и опыта.
//
// Каждая изменяющая операция читает профиль, применяет изменение и записывает его
// с проверкой версии. При конфликте версий операция повторяется с перечитанным профилем.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/clubhouse/internal/entitlement"
	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/metrics"
	"github.com/magabrotheeeer/clubhouse/internal/models"
	"github.com/magabrotheeeer/clubhouse/internal/storage"
)

// maxAttempts сколько раз операция применяется при конфликте версий.
const maxAttempts = 3

var (
	// ErrConcurrentUpdate профиль не удалось сохранить за maxAttempts попыток.
	ErrConcurrentUpdate = errors.New("profile was modified concurrently, try again")
	// ErrUnknownTutorial неизвестная обучающая подсказка.
	ErrUnknownTutorial = errors.New("unknown tutorial")
)

// Repository хранилище профилей.
type Repository interface {
	GetProfile(ctx context.Context, userUID string) (*models.PlayerProfile, error)
	UpdateProfile(ctx context.Context, p *models.PlayerProfile) error
}

// EventPublisher отправляет события профиля в брокер.
type EventPublisher interface {
	Publish(ctx context.Context, event models.ProfileEvent) error
}

// PlayStatus ответ на вопрос, можно ли начать игру.
type PlayStatus struct {
	Allowed          bool        `json:"allowed"`
	GamesPlayedToday int         `json:"games_played_today"`
	Remaining        int         `json:"remaining"`
	Unlimited        bool        `json:"unlimited"`
	Tier             models.Tier `json:"tier"`
}

// ExperienceResult профиль после начисления опыта.
type ExperienceResult struct {
	Profile   *models.PlayerProfile `json:"profile"`
	LeveledUp bool                  `json:"leveled_up"`
}

// Service операции над профилем текущего игрока.
type Service struct {
	log       *slog.Logger
	repo      Repository
	tracker   *entitlement.Tracker
	publisher EventPublisher
}

// New создаёт сервис профилей.
func New(log *slog.Logger, repo Repository, tracker *entitlement.Tracker, publisher EventPublisher) *Service {
	return &Service{
		log:       log,
		repo:      repo,
		tracker:   tracker,
		publisher: publisher,
	}
}

// Get возвращает профиль игрока без изменений.
func (s *Service) Get(ctx context.Context, userUID string) (*models.PlayerProfile, error) {
	const op = "profile.Get"
	p, err := s.repo.GetProfile(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// CanPlayToday проверяет дневную квоту. Если наступил новый день, сброс счётчика сохраняется.
func (s *Service) CanPlayToday(ctx context.Context, userUID string) (PlayStatus, error) {
	const op = "profile.CanPlayToday"
	var allowed bool
	p, err := s.mutate(ctx, userUID, func(p *models.PlayerProfile) (bool, error) {
		var reset bool
		allowed, reset = s.tracker.CanPlayToday(p)
		return reset, nil
	})
	if err != nil {
		return PlayStatus{}, fmt.Errorf("%s: %w", op, err)
	}
	if !allowed {
		metrics.GamesDenied.Inc()
	}

	remaining, unlimited := s.tracker.RemainingGames(p)
	return PlayStatus{
		Allowed:          allowed,
		GamesPlayedToday: p.GamesPlayedToday,
		Remaining:        remaining,
		Unlimited:        unlimited,
		Tier:             p.SubscriptionTier,
	}, nil
}

// RecordGamePlayed учитывает завершённую игру и начисляет за неё опыт.
// Квота не проверяется: её проверяет CanPlayToday перед началом игры.
func (s *Service) RecordGamePlayed(ctx context.Context, userUID string, won bool, experience int) (ExperienceResult, error) {
	const op = "profile.RecordGamePlayed"
	if experience < 0 {
		return ExperienceResult{}, fmt.Errorf("%s: %w", op, entitlement.ErrNegativeExperience)
	}

	var leveledUp bool
	p, err := s.mutate(ctx, userUID, func(p *models.PlayerProfile) (bool, error) {
		s.tracker.ResetIfNewDay(p)
		s.tracker.RecordGamePlayed(p, won)
		var err error
		leveledUp, err = s.tracker.AddExperience(p, experience)
		return true, err
	})
	if err != nil {
		return ExperienceResult{}, fmt.Errorf("%s: %w", op, err)
	}

	outcome := "lost"
	if won {
		outcome = "won"
	}
	metrics.GamesRecorded.WithLabelValues(outcome).Inc()
	if leveledUp {
		s.levelUp(ctx, p)
	}
	return ExperienceResult{Profile: p, LeveledUp: leveledUp}, nil
}

// AddExperience начисляет опыт. Отрицательное значение отклоняется с ErrNegativeExperience.
func (s *Service) AddExperience(ctx context.Context, userUID string, points int) (ExperienceResult, error) {
	const op = "profile.AddExperience"
	var leveledUp bool
	p, err := s.mutate(ctx, userUID, func(p *models.PlayerProfile) (bool, error) {
		var err error
		leveledUp, err = s.tracker.AddExperience(p, points)
		return points > 0, err
	})
	if err != nil {
		return ExperienceResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if leveledUp {
		s.levelUp(ctx, p)
	}
	return ExperienceResult{Profile: p, LeveledUp: leveledUp}, nil
}

// MarkTutorialSeen отмечает подсказку как просмотренную.
func (s *Service) MarkTutorialSeen(ctx context.Context, userUID string, tutorial models.Tutorial) (*models.PlayerProfile, error) {
	const op = "profile.MarkTutorialSeen"
	p, err := s.mutate(ctx, userUID, func(p *models.PlayerProfile) (bool, error) {
		before := *p
		if !p.MarkSeen(tutorial) {
			return false, ErrUnknownTutorial
		}
		return before.SeenBlankTooltip != p.SeenBlankTooltip ||
			before.SeenChallengeTutorial != p.SeenChallengeTutorial ||
			before.SeenExchangeTutorial != p.SeenExchangeTutorial, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// mutate читает профиль, применяет apply и сохраняет его, если apply сообщил об изменении.
// При конфликте версий повторяет всё заново, не более maxAttempts раз.
func (s *Service) mutate(ctx context.Context, userUID string,
	apply func(p *models.PlayerProfile) (changed bool, err error)) (*models.PlayerProfile, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p, err := s.repo.GetProfile(ctx, userUID)
		if err != nil {
			return nil, err
		}
		changed, err := apply(p)
		if err != nil {
			return nil, err
		}
		if !changed {
			return p, nil
		}

		err = s.repo.UpdateProfile(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return nil, err
		}
		s.log.Debug("profile version conflict, retrying",
			slog.String("user_uid", userUID), slog.Int("attempt", attempt))
	}
	return nil, ErrConcurrentUpdate
}

func (s *Service) levelUp(ctx context.Context, p *models.PlayerProfile) {
	metrics.LevelUps.Inc()
	event := models.ProfileEvent{
		Type:       models.EventLevelUp,
		UserUID:    p.UserUID,
		Username:   p.Username,
		Email:      p.Email,
		Level:      p.Level,
		Tier:       p.SubscriptionTier,
		OccurredAt: s.tracker.Now(),
	}
	err := s.publisher.Publish(ctx, event)
	metrics.EventsPublished.WithLabelValues(string(event.Type), metrics.Status(err)).Inc()
	if err != nil {
		s.log.Warn("failed to publish level up event", slog.String("user_uid", p.UserUID), sl.Err(err))
	}
}
