package models

import (
	"fmt"
	"time"
)

// SubscriptionPlan тарифный план с ценами и флагами возможностей.
// Редактируется администратором, профили на него только ссылаются.
type SubscriptionPlan struct {
	ID           int      `json:"id"`
	Tier         Tier     `json:"tier"`
	Name         string   `json:"name"`
	PriceMonthly float64  `json:"price_monthly"`
	PriceYearly  *float64 `json:"price_yearly,omitempty"`

	CanPlayAIOpponents bool `json:"can_play_ai_opponents"`
	CanPlayPremiumAI   bool `json:"can_play_premium_ai"`
	// GamesPerDayLimit 0 означает отсутствие лимита.
	GamesPerDayLimit int  `json:"games_per_day_limit"`
	ShowAds          bool `json:"show_ads"`
	// MonthlyTokens 0 означает отсутствие лимита.
	MonthlyTokens int `json:"monthly_tokens"`

	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Unlimited сообщает, снят ли дневной лимит игр.
func (p *SubscriptionPlan) Unlimited() bool {
	return p.GamesPerDayLimit == 0
}

func (p *SubscriptionPlan) String() string {
	return fmt.Sprintf("%s ($%.2f/mo)", p.Name, p.PriceMonthly)
}

// DummyPlan используется для приёма плана из JSON-запроса администратора.
type DummyPlan struct {
	Tier               string   `json:"tier" validate:"required,oneof=free member premium"`
	Name               string   `json:"name" validate:"required,max=100"`
	PriceMonthly       float64  `json:"price_monthly" validate:"gte=0"`
	PriceYearly        *float64 `json:"price_yearly,omitempty" validate:"omitempty,gte=0"`
	CanPlayAIOpponents bool     `json:"can_play_ai_opponents"`
	CanPlayPremiumAI   bool     `json:"can_play_premium_ai"`
	GamesPerDayLimit   *int     `json:"games_per_day_limit,omitempty" validate:"omitempty,gte=0"`
	ShowAds            *bool    `json:"show_ads,omitempty"`
	MonthlyTokens      int      `json:"monthly_tokens" validate:"gte=0"`
	Description        string   `json:"description"`
	IsActive           *bool    `json:"is_active,omitempty"`
	DisplayOrder       int      `json:"display_order"`
}

// DefaultGamesPerDay лимит игр нового плана, если администратор его не указал.
const DefaultGamesPerDay = 5

// ToPlan переносит данные запроса в план, подставляя значения по умолчанию.
func (d DummyPlan) ToPlan() SubscriptionPlan {
	plan := SubscriptionPlan{
		Tier:               Tier(d.Tier),
		Name:               d.Name,
		PriceMonthly:       d.PriceMonthly,
		PriceYearly:        d.PriceYearly,
		CanPlayAIOpponents: d.CanPlayAIOpponents,
		CanPlayPremiumAI:   d.CanPlayPremiumAI,
		GamesPerDayLimit:   DefaultGamesPerDay,
		ShowAds:            true,
		MonthlyTokens:      d.MonthlyTokens,
		Description:        d.Description,
		IsActive:           true,
		DisplayOrder:       d.DisplayOrder,
	}
	if d.GamesPerDayLimit != nil {
		plan.GamesPerDayLimit = *d.GamesPerDayLimit
	}
	if d.ShowAds != nil {
		plan.ShowAds = *d.ShowAds
	}
	if d.IsActive != nil {
		plan.IsActive = *d.IsActive
	}
	return plan
}
