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

const profileSelect = `SELECT p.id, p.user_uid, u.username, u.email, p.subscription_tier, p.is_member,
			      p.subscription_plan_id, p.subscription_started, p.subscription_expires,
			      p.experience_points, p.level, p.tokens_remaining, p.games_played_today, p.last_game_reset,
			      p.seen_blank_tooltip, p.seen_challenge_tutorial, p.seen_exchange_tutorial,
			      p.total_games_played, p.total_games_won, p.admin_notes, p.version, p.created_at, p.updated_at,
			      ` + planColumnsNullable + `
			  FROM player_profiles p
			  JOIN users u ON u.uid = p.user_uid
			  LEFT JOIN subscription_plans sp ON sp.id = p.subscription_plan_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.PlayerProfile, error) {
	var (
		p                models.PlayerProfile
		planID           sql.NullInt64
		started, expires sql.NullTime
		plan             nullablePlan
	)
	dest := []any{
		&p.ID, &p.UserUID, &p.Username, &p.Email, &p.SubscriptionTier, &p.IsMember,
		&planID, &started, &expires,
		&p.ExperiencePoints, &p.Level, &p.TokensRemaining, &p.GamesPlayedToday, &p.LastGameReset,
		&p.SeenBlankTooltip, &p.SeenChallengeTutorial, &p.SeenExchangeTutorial,
		&p.TotalGamesPlayed, &p.TotalGamesWon, &p.AdminNotes, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, plan.dest()...)...); err != nil {
		return nil, err
	}

	if planID.Valid {
		id := int(planID.Int64)
		p.SubscriptionPlanID = &id
	}
	if started.Valid {
		p.SubscriptionStarted = &started.Time
	}
	if expires.Valid {
		p.SubscriptionExpires = &expires.Time
	}
	p.Plan = plan.toPlan()
	return &p, nil
}

// GetProfile возвращает профиль игрока вместе с тарифным планом.
func (s *Storage) GetProfile(ctx context.Context, userUID string) (*models.PlayerProfile, error) {
	const op = "storage.GetProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if !validUID(userUID) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrProfileNotFound)
	}

	query := profileSelect + ` WHERE p.user_uid = $1::uuid`
	p, err := scanProfile(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrProfileNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// UpdateProfile сохраняет игровые поля профиля, если версия в базе совпадает с p.Version.
// При успехе версия в p увеличивается. Если профиль успели изменить, возвращает ErrVersionConflict.
func (s *Storage) UpdateProfile(ctx context.Context, p *models.PlayerProfile) error {
	const op = "storage.UpdateProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validUID(p.UserUID) {
		return fmt.Errorf("%s: %w", op, storage.ErrProfileNotFound)
	}

	query := `UPDATE player_profiles
			  SET subscription_tier = $1, is_member = $2, subscription_plan_id = $3,
			      subscription_started = $4, subscription_expires = $5,
			      experience_points = $6, level = $7, tokens_remaining = $8,
			      games_played_today = $9, last_game_reset = $10,
			      seen_blank_tooltip = $11, seen_challenge_tutorial = $12, seen_exchange_tutorial = $13,
			      total_games_played = $14, total_games_won = $15,
			      version = version + 1, updated_at = NOW()
			  WHERE user_uid = $16::uuid AND version = $17
			  RETURNING version, updated_at`
	var (
		version   int
		updatedAt time.Time
	)
	err := s.DB.QueryRowContext(ctx, query,
		string(p.SubscriptionTier), p.IsMember, p.SubscriptionPlanID,
		p.SubscriptionStarted, p.SubscriptionExpires,
		p.ExperiencePoints, p.Level, p.TokensRemaining,
		p.GamesPlayedToday, p.LastGameReset,
		p.SeenBlankTooltip, p.SeenChallengeTutorial, p.SeenExchangeTutorial,
		p.TotalGamesPlayed, p.TotalGamesWon,
		p.UserUID, p.Version,
	).Scan(&version, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		exists, existsErr := s.profileExists(ctx, p.UserUID)
		if existsErr != nil {
			return fmt.Errorf("%s: %w", op, existsErr)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, storage.ErrProfileNotFound)
		}
		return fmt.Errorf("%s: %w", op, storage.ErrVersionConflict)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.Version = version
	p.UpdatedAt = updatedAt
	return nil
}

func (s *Storage) profileExists(ctx context.Context, userUID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM player_profiles WHERE user_uid = $1::uuid)`, userUID).Scan(&exists)
	return exists, err
}

// ListProfiles возвращает профили по фильтру администратора, упорядоченные по id.
func (s *Storage) ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]*models.PlayerProfile, error) {
	const op = "storage.ListProfiles"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := profileSelect + `
			  WHERE ($1::text IS NULL OR p.subscription_tier = $1)
			    AND ($2::boolean IS NULL OR p.is_member = $2)
			    AND ($3::int IS NULL OR p.level = $3)
			    AND ($4::text = '' OR u.username ILIKE '%' || $4 || '%' OR u.email ILIKE '%' || $4 || '%')
			  ORDER BY p.id
			  LIMIT $5 OFFSET $6`
	rows, err := s.DB.QueryContext(ctx, query,
		tierArg(filter.Tier), filter.IsMember, filter.Level, filter.Search, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PlayerProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateAdminNotes меняет заметки администратора о профиле.
func (s *Storage) UpdateAdminNotes(ctx context.Context, userUID, notes string) error {
	const op = "storage.UpdateAdminNotes"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if !validUID(userUID) {
		return fmt.Errorf("%s: %w", op, storage.ErrProfileNotFound)
	}

	result, err := s.DB.ExecContext(ctx, `UPDATE player_profiles
			  SET admin_notes = $1, version = version + 1, updated_at = NOW()
			  WHERE user_uid = $2::uuid`, notes, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrProfileNotFound)
	}
	return nil
}

// BulkUpgrade переводит выбранные профили на уровень tier с соответствующим планом.
// Подписка, выданная администратором, бессрочна: subscription_expires сбрасывается,
// иначе планировщик понизил бы профиль по дате старого пробного периода.
// Если плана для tier нет, ни одна строка не меняется и возвращается ErrPlanNotFound.
func (s *Storage) BulkUpgrade(ctx context.Context, userUIDs []string, tier models.Tier) (int, error) {
	const op = "storage.BulkUpgrade"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	planID, err := planIDByTier(ctx, tx, tier)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	result, err := tx.ExecContext(ctx, `UPDATE player_profiles
			  SET subscription_tier = $1, is_member = TRUE, subscription_plan_id = $2,
			      subscription_started = NOW(), subscription_expires = NULL,
			      version = version + 1, updated_at = NOW()
			  WHERE user_uid = ANY($3::text[]::uuid[])`, string(tier), planID, validUIDs(userUIDs))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// BulkResetDailyGames обнуляет дневной счётчик игр у выбранных профилей.
func (s *Storage) BulkResetDailyGames(ctx context.Context, userUIDs []string) (int, error) {
	const op = "storage.BulkResetDailyGames"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `UPDATE player_profiles
			  SET games_played_today = 0, version = version + 1, updated_at = NOW()
			  WHERE user_uid = ANY($1::text[]::uuid[])`, validUIDs(userUIDs))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ExpireSubscriptions понижает до free все платные профили, у которых подписка истекла к now,
// и очищает subscription_expires. В возвращаемых профилях SubscriptionTier и
// SubscriptionExpires содержат значения до понижения.
func (s *Storage) ExpireSubscriptions(ctx context.Context, now time.Time) ([]*models.PlayerProfile, error) {
	const op = "storage.ExpireSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `WITH expired AS (
			      SELECT id, subscription_tier AS old_tier, subscription_expires AS old_expires
			      FROM player_profiles
			      WHERE subscription_expires < $1 AND subscription_tier <> 'free'
			      FOR UPDATE SKIP LOCKED
			  )
			  UPDATE player_profiles p
			  SET subscription_tier = 'free', is_member = FALSE, subscription_plan_id = NULL,
			      subscription_expires = NULL,
			      version = p.version + 1, updated_at = NOW()
			  FROM expired e, users u
			  WHERE p.id = e.id AND u.uid = p.user_uid
			  RETURNING p.user_uid, u.username, u.email, e.old_tier, e.old_expires`
	rows, err := s.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PlayerProfile
	for rows.Next() {
		var (
			p       models.PlayerProfile
			expires sql.NullTime
		)
		if err = rows.Scan(&p.UserUID, &p.Username, &p.Email, &p.SubscriptionTier, &expires); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if expires.Valid {
			p.SubscriptionExpires = &expires.Time
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func tierArg(t *models.Tier) any {
	if t == nil {
		return nil
	}
	return string(*t)
}
