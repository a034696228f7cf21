package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/clubhouse/internal/models"
	"github.com/magabrotheeeer/clubhouse/internal/storage"
)

const planColumns = `id, tier, name, price_monthly, price_yearly, can_play_ai_opponents, can_play_premium_ai,
			      games_per_day_limit, show_ads, monthly_tokens, description, is_active, display_order,
			      created_at, updated_at`

// planColumnsNullable колонки плана из LEFT JOIN с алиасом sp.
const planColumnsNullable = `sp.id, sp.tier, sp.name, sp.price_monthly, sp.price_yearly,
			      sp.can_play_ai_opponents, sp.can_play_premium_ai, sp.games_per_day_limit, sp.show_ads,
			      sp.monthly_tokens, sp.description, sp.is_active, sp.display_order, sp.created_at, sp.updated_at`

func scanPlan(row rowScanner) (*models.SubscriptionPlan, error) {
	var (
		plan        models.SubscriptionPlan
		priceYearly sql.NullFloat64
	)
	if err := row.Scan(&plan.ID, &plan.Tier, &plan.Name, &plan.PriceMonthly, &priceYearly,
		&plan.CanPlayAIOpponents, &plan.CanPlayPremiumAI, &plan.GamesPerDayLimit, &plan.ShowAds,
		&plan.MonthlyTokens, &plan.Description, &plan.IsActive, &plan.DisplayOrder,
		&plan.CreatedAt, &plan.UpdatedAt); err != nil {
		return nil, err
	}
	if priceYearly.Valid {
		plan.PriceYearly = &priceYearly.Float64
	}
	return &plan, nil
}

// nullablePlan принимает план из LEFT JOIN, где все колонки могут быть NULL.
type nullablePlan struct {
	id, gamesPerDay, monthlyTokens, displayOrder sql.NullInt64
	tier, name, description                      sql.NullString
	priceMonthly, priceYearly                    sql.NullFloat64
	canPlayAI, canPlayPremiumAI, showAds, active sql.NullBool
	createdAt, updatedAt                         sql.NullTime
}

func (n *nullablePlan) dest() []any {
	return []any{&n.id, &n.tier, &n.name, &n.priceMonthly, &n.priceYearly,
		&n.canPlayAI, &n.canPlayPremiumAI, &n.gamesPerDay, &n.showAds,
		&n.monthlyTokens, &n.description, &n.active, &n.displayOrder, &n.createdAt, &n.updatedAt}
}

func (n *nullablePlan) toPlan() *models.SubscriptionPlan {
	if !n.id.Valid {
		return nil
	}
	plan := &models.SubscriptionPlan{
		ID:                 int(n.id.Int64),
		Tier:               models.Tier(n.tier.String),
		Name:               n.name.String,
		PriceMonthly:       n.priceMonthly.Float64,
		CanPlayAIOpponents: n.canPlayAI.Bool,
		CanPlayPremiumAI:   n.canPlayPremiumAI.Bool,
		GamesPerDayLimit:   int(n.gamesPerDay.Int64),
		ShowAds:            n.showAds.Bool,
		MonthlyTokens:      int(n.monthlyTokens.Int64),
		Description:        n.description.String,
		IsActive:           n.active.Bool,
		DisplayOrder:       int(n.displayOrder.Int64),
		CreatedAt:          n.createdAt.Time,
		UpdatedAt:          n.updatedAt.Time,
	}
	if n.priceYearly.Valid {
		plan.PriceYearly = &n.priceYearly.Float64
	}
	return plan
}

// CreatePlan сохраняет новый тарифный план. Для каждого уровня допускается один план.
func (s *Storage) CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (*models.SubscriptionPlan, error) {
	const op = "storage.CreatePlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscription_plans (tier, name, price_monthly, price_yearly,
			      can_play_ai_opponents, can_play_premium_ai, games_per_day_limit, show_ads,
			      monthly_tokens, description, is_active, display_order)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING ` + planColumns
	created, err := scanPlan(s.DB.QueryRowContext(ctx, query,
		string(plan.Tier), plan.Name, plan.PriceMonthly, plan.PriceYearly,
		plan.CanPlayAIOpponents, plan.CanPlayPremiumAI, plan.GamesPerDayLimit, plan.ShowAds,
		plan.MonthlyTokens, plan.Description, plan.IsActive, plan.DisplayOrder))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPlanExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// UpdatePlan перезаписывает план уровня tier. Уровень плана не меняется.
func (s *Storage) UpdatePlan(ctx context.Context, tier models.Tier, plan models.SubscriptionPlan) (*models.SubscriptionPlan, error) {
	const op = "storage.UpdatePlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscription_plans
			  SET name = $1, price_monthly = $2, price_yearly = $3,
			      can_play_ai_opponents = $4, can_play_premium_ai = $5, games_per_day_limit = $6,
			      show_ads = $7, monthly_tokens = $8, description = $9, is_active = $10,
			      display_order = $11, updated_at = NOW()
			  WHERE tier = $12
			  RETURNING ` + planColumns
	updated, err := scanPlan(s.DB.QueryRowContext(ctx, query,
		plan.Name, plan.PriceMonthly, plan.PriceYearly,
		plan.CanPlayAIOpponents, plan.CanPlayPremiumAI, plan.GamesPerDayLimit,
		plan.ShowAds, plan.MonthlyTokens, plan.Description, plan.IsActive,
		plan.DisplayOrder, string(tier)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPlanNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// GetPlanByTier возвращает план уровня tier.
func (s *Storage) GetPlanByTier(ctx context.Context, tier models.Tier) (*models.SubscriptionPlan, error) {
	const op = "storage.GetPlanByTier"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + ` FROM subscription_plans WHERE tier = $1`
	plan, err := scanPlan(s.DB.QueryRowContext(ctx, query, string(tier)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPlanNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plan, nil
}

// ListPlans возвращает планы по фильтру в порядке display_order.
func (s *Storage) ListPlans(ctx context.Context, filter models.PlanFilter) ([]*models.SubscriptionPlan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + `
			  FROM subscription_plans
			  WHERE ($1::text IS NULL OR tier = $1)
			    AND ($2::boolean IS NULL OR is_active = $2)
			    AND ($3::text = '' OR name ILIKE '%' || $3 || '%' OR description ILIKE '%' || $3 || '%')
			  ORDER BY display_order, id`
	rows, err := s.DB.QueryContext(ctx, query, tierArg(filter.Tier), filter.IsActive, filter.Search)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, plan)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// planIDByTier возвращает id плана уровня tier внутри транзакции.
func planIDByTier(ctx context.Context, tx *sql.Tx, tier models.Tier) (int, error) {
	var id int
	err := tx.QueryRowContext(ctx, `SELECT id FROM subscription_plans WHERE tier = $1`, string(tier)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrPlanNotFound
	}
	return id, err
}
