package cache

import (
	"context"
	"time"

	"github.com/magabrotheeeer/clubhouse/internal/models"
)

// PlanTTL время жизни закэшированного тарифного плана.
const PlanTTL = time.Hour

// PlanKey ключ плана в кэше.
func PlanKey(tier models.Tier) string {
	return "plan:" + string(tier)
}

// GetPlan возвращает закэшированный план уровня tier.
func (c *Cache) GetPlan(ctx context.Context, tier models.Tier) (*models.SubscriptionPlan, bool, error) {
	var plan models.SubscriptionPlan
	found, err := c.Get(ctx, PlanKey(tier), &plan)
	if err != nil || !found {
		return nil, false, err
	}
	return &plan, true, nil
}

// SetPlan кладёт план в кэш на PlanTTL.
func (c *Cache) SetPlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	return c.Set(ctx, PlanKey(plan.Tier), plan, PlanTTL)
}

// InvalidatePlan удаляет план уровня tier из кэша.
func (c *Cache) InvalidatePlan(ctx context.Context, tier models.Tier) error {
	return c.Invalidate(ctx, PlanKey(tier))
}
