package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/clubhouse/internal/models"
	"github.com/magabrotheeeer/clubhouse/internal/storage"
)

const promoColumns = `id, code, description, discount_percent, discount_amount, grants_free_days,
			      grants_tier, max_uses, times_used, valid_from, valid_until, is_active, created_at, updated_at`

func scanPromoCode(row rowScanner) (*models.PromoCode, error) {
	var (
		code       models.PromoCode
		grantsTier sql.NullString
		validUntil sql.NullTime
	)
	if err := row.Scan(&code.ID, &code.Code, &code.Description, &code.DiscountPercent, &code.DiscountAmount,
		&code.GrantsFreeDays, &grantsTier, &code.MaxUses, &code.TimesUsed, &code.ValidFrom, &validUntil,
		&code.IsActive, &code.CreatedAt, &code.UpdatedAt); err != nil {
		return nil, err
	}
	if grantsTier.Valid {
		tier := models.Tier(grantsTier.String)
		code.GrantsTier = &tier
	}
	if validUntil.Valid {
		code.ValidUntil = &validUntil.Time
	}
	return &code, nil
}

// CreatePromoCode сохраняет новый промокод. Коды уникальны без учёта регистра.
func (s *Storage) CreatePromoCode(ctx context.Context, code models.PromoCode) (*models.PromoCode, error) {
	const op = "storage.CreatePromoCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO promo_codes (code, description, discount_percent, discount_amount,
			      grants_free_days, grants_tier, max_uses, valid_from, valid_until, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING ` + promoColumns
	created, err := scanPromoCode(s.DB.QueryRowContext(ctx, query,
		code.Code, code.Description, code.DiscountPercent, code.DiscountAmount,
		code.GrantsFreeDays, tierArg(code.GrantsTier), code.MaxUses, code.ValidFrom, code.ValidUntil,
		code.IsActive))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPromoExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// UpdatePromoCode обновляет промокод по id. Счётчик активаций не меняется.
func (s *Storage) UpdatePromoCode(ctx context.Context, id int, code models.PromoCode) (*models.PromoCode, error) {
	const op = "storage.UpdatePromoCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE promo_codes
			  SET code = $1, description = $2, discount_percent = $3, discount_amount = $4,
			      grants_free_days = $5, grants_tier = $6, max_uses = $7, valid_from = $8,
			      valid_until = $9, is_active = $10, updated_at = NOW()
			  WHERE id = $11
			  RETURNING ` + promoColumns
	updated, err := scanPromoCode(s.DB.QueryRowContext(ctx, query,
		code.Code, code.Description, code.DiscountPercent, code.DiscountAmount,
		code.GrantsFreeDays, tierArg(code.GrantsTier), code.MaxUses, code.ValidFrom,
		code.ValidUntil, code.IsActive, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPromoNotFound)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPromoExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// GetPromoCode ищет промокод без учёта регистра.
func (s *Storage) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	const op = "storage.GetPromoCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE UPPER(code) = UPPER($1)`
	promo, err := scanPromoCode(s.DB.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPromoNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return promo, nil
}

// ListPromoCodes возвращает промокоды по фильтру, новые первыми.
func (s *Storage) ListPromoCodes(ctx context.Context, filter models.PromoCodeFilter) ([]*models.PromoCode, error) {
	const op = "storage.ListPromoCodes"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + promoColumns + `
			  FROM promo_codes
			  WHERE ($1::boolean IS NULL OR is_active = $1)
			    AND ($2::text IS NULL OR grants_tier = $2)
			    AND ($3::text = '' OR code ILIKE '%' || $3 || '%' OR description ILIKE '%' || $3 || '%')
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, filter.IsActive, tierArg(filter.GrantsTier), filter.Search)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PromoCode
	for rows.Next() {
		promo, err := scanPromoCode(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, promo)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RedeemPromoCode активирует промокод для пользователя в одной транзакции: блокирует строку кода
// и профиль, перепроверяет действительность кода на момент now и записывает активацию.
// Повторная активация того же кода тем же пользователем возвращает ErrPromoInvalid.
// Если код выдаёт пробный период, профиль переводится на соответствующий уровень, но только
// когда у него нет активной подписки того же или более высокого уровня (иначе ErrTierAlreadyHeld).
func (s *Storage) RedeemPromoCode(ctx context.Context, userUID, code string, now time.Time) (*models.Redemption, error) {
	const op = "storage.RedeemPromoCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validUID(userUID) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrProfileNotFound)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE UPPER(code) = UPPER($1) FOR UPDATE`
	promo, err := scanPromoCode(tx.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrPromoNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !promo.IsValid(now) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrPromoInvalid)
	}

	var (
		currentTier    models.Tier
		currentExpires sql.NullTime
	)
	err = tx.QueryRowContext(ctx, `SELECT subscription_tier, subscription_expires
			  FROM player_profiles
			  WHERE user_uid = $1::uuid
			  FOR UPDATE`, userUID).Scan(&currentTier, &currentExpires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrProfileNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO promo_redemptions (promo_id, user_uid, redeemed_at)
			  VALUES ($1, $2::uuid, $3)
			  ON CONFLICT (promo_id, user_uid) DO NOTHING`, promo.ID, userUID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if inserted == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrPromoInvalid)
	}

	if err = tx.QueryRowContext(ctx, `UPDATE promo_codes
			  SET times_used = times_used + 1, updated_at = NOW()
			  WHERE id = $1
			  RETURNING times_used`, promo.ID).Scan(&promo.TimesUsed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &models.Redemption{Promo: promo}
	if promo.GrantsTrial() {
		tier := *promo.GrantsTier
		expires := now.AddDate(0, 0, promo.GrantsFreeDays)
		if tierHeld(currentTier, currentExpires, tier, now, expires) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrTierAlreadyHeld)
		}

		planID, err := planIDByTier(ctx, tx, tier)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if _, err = tx.ExecContext(ctx, `UPDATE player_profiles
				  SET subscription_tier = $1, is_member = $2, subscription_plan_id = $3,
				      subscription_started = $4, subscription_expires = $5,
				      version = version + 1, updated_at = NOW()
				  WHERE user_uid = $6::uuid`,
			string(tier), tier != models.TierFree, planID, now, expires, userUID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result.TrialGranted = true
		result.Tier = tier
		result.Expires = expires
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// tierHeld сообщает, перекрывает ли текущая подписка пробный период уровня granted до trialEnd.
// Бессрочная или более высокая активная подписка перекрывает всегда, подписка того же уровня
// только если заканчивается не раньше пробного периода.
func tierHeld(current models.Tier, expires sql.NullTime, granted models.Tier, now, trialEnd time.Time) bool {
	if current == models.TierFree {
		return false
	}
	if expires.Valid && !expires.Time.After(now) {
		return false
	}
	switch {
	case current.Rank() > granted.Rank():
		return true
	case current.Rank() < granted.Rank():
		return false
	}
	return !expires.Valid || !expires.Time.Before(trialEnd)
}
