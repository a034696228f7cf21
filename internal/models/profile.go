package models

import "time"

// PlayerProfile профиль игрока: подписка, дневная квота, опыт и статистика.
// Связан с пользователем один к одному и создаётся вместе с ним.
type PlayerProfile struct {
	ID       int    `json:"id"`
	UserUID  string `json:"user_uid"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`

	SubscriptionTier    Tier              `json:"subscription_tier"`
	IsMember            bool              `json:"is_member"`
	SubscriptionPlanID  *int              `json:"subscription_plan_id,omitempty"`
	Plan                *SubscriptionPlan `json:"plan,omitempty"`
	SubscriptionStarted *time.Time        `json:"subscription_started,omitempty"`
	SubscriptionExpires *time.Time        `json:"subscription_expires,omitempty"`

	ExperiencePoints int `json:"experience_points"`
	Level            int `json:"level"`

	TokensRemaining  int       `json:"tokens_remaining"`
	GamesPlayedToday int       `json:"games_played_today"`
	LastGameReset    time.Time `json:"last_game_reset"`

	SeenBlankTooltip      bool `json:"seen_blank_tooltip"`
	SeenChallengeTutorial bool `json:"seen_challenge_tutorial"`
	SeenExchangeTutorial  bool `json:"seen_exchange_tutorial"`

	TotalGamesPlayed int `json:"total_games_played"`
	TotalGamesWon    int `json:"total_games_won"`

	AdminNotes string    `json:"admin_notes,omitempty"`
	Version    int       `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewPlayerProfile возвращает профиль со значениями по умолчанию для нового пользователя.
func NewPlayerProfile(userUID string, today time.Time) PlayerProfile {
	return PlayerProfile{
		UserUID:          userUID,
		SubscriptionTier: TierFree,
		Level:            1,
		LastGameReset:    today,
	}
}

// Tutorial флаг обучающей подсказки, которую игрок уже видел.
type Tutorial string

const (
	TutorialBlankTooltip Tutorial = "blank-tooltip"
	TutorialChallenge    Tutorial = "challenge"
	TutorialExchange     Tutorial = "exchange"
)

// MarkSeen выставляет соответствующий флаг. Возвращает false для неизвестной подсказки.
func (p *PlayerProfile) MarkSeen(t Tutorial) bool {
	switch t {
	case TutorialBlankTooltip:
		p.SeenBlankTooltip = true
	case TutorialChallenge:
		p.SeenChallengeTutorial = true
	case TutorialExchange:
		p.SeenExchangeTutorial = true
	default:
		return false
	}
	return true
}
