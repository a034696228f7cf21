// Package admin реализует административные операции: тарифные планы, профили игроков,
// массовые действия над профилями и промокоды.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/models"
)

const (
	// DefaultPageSize размер страницы списка профилей по умолчанию.
	DefaultPageSize = 50
	// MaxPageSize наибольший допустимый размер страницы.
	MaxPageSize = 200
)

var (
	// ErrNoProfilesSelected массовое действие вызвано без профилей.
	ErrNoProfilesSelected = errors.New("no profiles selected")
	// ErrInvalidTier неизвестный уровень подписки.
	ErrInvalidTier = errors.New("invalid subscription tier")
)

// Repository хранилище, с которым работает администратор.
type Repository interface {
	CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (*models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, tier models.Tier, plan models.SubscriptionPlan) (*models.SubscriptionPlan, error)
	GetPlanByTier(ctx context.Context, tier models.Tier) (*models.SubscriptionPlan, error)
	ListPlans(ctx context.Context, filter models.PlanFilter) ([]*models.SubscriptionPlan, error)

	ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]*models.PlayerProfile, error)
	UpdateAdminNotes(ctx context.Context, userUID, notes string) error
	BulkUpgrade(ctx context.Context, userUIDs []string, tier models.Tier) (int, error)
	BulkResetDailyGames(ctx context.Context, userUIDs []string) (int, error)

	CreatePromoCode(ctx context.Context, code models.PromoCode) (*models.PromoCode, error)
	UpdatePromoCode(ctx context.Context, id int, code models.PromoCode) (*models.PromoCode, error)
	ListPromoCodes(ctx context.Context, filter models.PromoCodeFilter) ([]*models.PromoCode, error)
}

// PlanCache кэш тарифных планов по уровню.
type PlanCache interface {
	GetPlan(ctx context.Context, tier models.Tier) (*models.SubscriptionPlan, bool, error)
	SetPlan(ctx context.Context, plan *models.SubscriptionPlan) error
	InvalidatePlan(ctx context.Context, tier models.Tier) error
}

// Service административные операции.
type Service struct {
	log   *slog.Logger
	repo  Repository
	cache PlanCache
	now   func() time.Time
}

// New создаёт сервис. cache может быть nil, тогда планы всегда читаются из базы.
func New(log *slog.Logger, repo Repository, cache PlanCache, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{log: log, repo: repo, cache: cache, now: now}
}

// CreatePlan создаёт тарифный план.
func (s *Service) CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (*models.SubscriptionPlan, error) {
	const op = "admin.CreatePlan"
	if !plan.Tier.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidTier)
	}
	created, err := s.repo.CreatePlan(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidatePlan(ctx, created.Tier)
	return created, nil
}

// UpdatePlan обновляет план уровня tier и сбрасывает его из кэша.
func (s *Service) UpdatePlan(ctx context.Context, tier models.Tier, plan models.SubscriptionPlan) (*models.SubscriptionPlan, error) {
	const op = "admin.UpdatePlan"
	if !tier.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidTier)
	}
	updated, err := s.repo.UpdatePlan(ctx, tier, plan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidatePlan(ctx, tier)
	return updated, nil
}

// GetPlan возвращает план уровня tier, сначала из кэша.
func (s *Service) GetPlan(ctx context.Context, tier models.Tier) (*models.SubscriptionPlan, error) {
	const op = "admin.GetPlan"
	log := s.log.With(slog.String("op", op), slog.String("tier", string(tier)))

	if s.cache != nil {
		plan, found, err := s.cache.GetPlan(ctx, tier)
		if err != nil {
			log.Warn("failed to read plan from cache", sl.Err(err))
		} else if found {
			return plan, nil
		}
	}

	plan, err := s.repo.GetPlanByTier(ctx, tier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err := s.cache.SetPlan(ctx, plan); err != nil {
			log.Warn("failed to cache plan", sl.Err(err))
		}
	}
	return plan, nil
}

// ListPlans возвращает планы по фильтру.
func (s *Service) ListPlans(ctx context.Context, filter models.PlanFilter) ([]*models.SubscriptionPlan, error) {
	const op = "admin.ListPlans"
	plans, err := s.repo.ListPlans(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plans, nil
}

// ListProfiles возвращает профили по фильтру; размер страницы ограничен MaxPageSize.
func (s *Service) ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]*models.PlayerProfile, error) {
	const op = "admin.ListProfiles"
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageSize
	}
	filter.Limit = min(filter.Limit, MaxPageSize)
	filter.Offset = max(filter.Offset, 0)

	profiles, err := s.repo.ListProfiles(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return profiles, nil
}

// UpdateAdminNotes меняет заметки о профиле.
func (s *Service) UpdateAdminNotes(ctx context.Context, userUID, notes string) error {
	const op = "admin.UpdateAdminNotes"
	if err := s.repo.UpdateAdminNotes(ctx, userUID, notes); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpgradeProfiles переводит профили на уровень tier. Если плана для tier нет,
// возвращается storage.ErrPlanNotFound и ни один профиль не меняется.
func (s *Service) UpgradeProfiles(ctx context.Context, userUIDs []string, tier models.Tier) (int, error) {
	const op = "admin.UpgradeProfiles"
	if !tier.Valid() {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidTier)
	}
	if len(userUIDs) == 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrNoProfilesSelected)
	}
	n, err := s.repo.BulkUpgrade(ctx, userUIDs, tier)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("profiles upgraded", slog.String("tier", string(tier)), slog.Int("count", n))
	return n, nil
}

// ResetDailyGames обнуляет дневные счётчики игр у выбранных профилей.
func (s *Service) ResetDailyGames(ctx context.Context, userUIDs []string) (int, error) {
	const op = "admin.ResetDailyGames"
	if len(userUIDs) == 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrNoProfilesSelected)
	}
	n, err := s.repo.BulkResetDailyGames(ctx, userUIDs)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("daily games reset", slog.Int("count", n))
	return n, nil
}

// CreatePromoCode создаёт промокод из запроса администратора.
func (s *Service) CreatePromoCode(ctx context.Context, req models.DummyPromoCode) (*models.PromoCode, error) {
	const op = "admin.CreatePromoCode"
	created, err := s.repo.CreatePromoCode(ctx, req.ToPromoCode(s.now()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// UpdatePromoCode перезаписывает промокод. Счётчик активаций через API не меняется.
func (s *Service) UpdatePromoCode(ctx context.Context, id int, req models.DummyPromoCode) (*models.PromoCode, error) {
	const op = "admin.UpdatePromoCode"
	updated, err := s.repo.UpdatePromoCode(ctx, id, req.ToPromoCode(s.now()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// ListPromoCodes возвращает промокоды по фильтру.
func (s *Service) ListPromoCodes(ctx context.Context, filter models.PromoCodeFilter) ([]*models.PromoCode, error) {
	const op = "admin.ListPromoCodes"
	codes, err := s.repo.ListPromoCodes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return codes, nil
}

func (s *Service) invalidatePlan(ctx context.Context, tier models.Tier) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePlan(ctx, tier); err != nil {
		s.log.Warn("failed to invalidate cached plan", slog.String("tier", string(tier)), sl.Err(err))
	}
}
