package models

import "time"

// PromoCode промокод на скидку или бесплатный пробный период.
type PromoCode struct {
	ID          int    `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`

	DiscountPercent int     `json:"discount_percent"`
	DiscountAmount  float64 `json:"discount_amount"`

	GrantsFreeDays int   `json:"grants_free_days"`
	GrantsTier     *Tier `json:"grants_tier,omitempty"`

	// MaxUses 0 означает неограниченное число активаций.
	MaxUses   int `json:"max_uses"`
	TimesUsed int `json:"times_used"`

	ValidFrom  time.Time  `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	IsActive   bool       `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsValid сообщает, можно ли использовать промокод в момент now.
func (p *PromoCode) IsValid(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.MaxUses > 0 && p.TimesUsed >= p.MaxUses {
		return false
	}
	if now.Before(p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return false
	}
	return true
}

// GrantsTrial сообщает, выдаёт ли промокод пробный период на каком-либо уровне.
func (p *PromoCode) GrantsTrial() bool {
	return p.GrantsTier != nil && p.GrantsFreeDays > 0
}

// DummyPromoCode используется для приёма промокода из JSON-запроса администратора.
type DummyPromoCode struct {
	Code            string     `json:"code" validate:"required,max=50"`
	Description     string     `json:"description" validate:"required,max=200"`
	DiscountPercent int        `json:"discount_percent" validate:"gte=0,lte=100"`
	DiscountAmount  float64    `json:"discount_amount" validate:"gte=0"`
	GrantsFreeDays  int        `json:"grants_free_days" validate:"gte=0"`
	GrantsTier      string     `json:"grants_tier,omitempty" validate:"omitempty,oneof=free member premium"`
	MaxUses         int        `json:"max_uses" validate:"gte=0"`
	ValidFrom       *time.Time `json:"valid_from,omitempty"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	IsActive        *bool      `json:"is_active,omitempty"`
}

// ToPromoCode переносит данные запроса в промокод; ValidFrom по умолчанию равен now.
func (d DummyPromoCode) ToPromoCode(now time.Time) PromoCode {
	code := PromoCode{
		Code:            d.Code,
		Description:     d.Description,
		DiscountPercent: d.DiscountPercent,
		DiscountAmount:  d.DiscountAmount,
		GrantsFreeDays:  d.GrantsFreeDays,
		MaxUses:         d.MaxUses,
		ValidFrom:       now,
		ValidUntil:      d.ValidUntil,
		IsActive:        true,
	}
	if d.GrantsTier != "" {
		tier := Tier(d.GrantsTier)
		code.GrantsTier = &tier
	}
	if d.ValidFrom != nil {
		code.ValidFrom = *d.ValidFrom
	}
	if d.IsActive != nil {
		code.IsActive = *d.IsActive
	}
	return code
}

// Redemption итог активации промокода.
type Redemption struct {
	Promo *PromoCode `json:"promo"`
	// TrialGranted true, если профилю выдан пробный период.
	TrialGranted bool      `json:"trial_granted"`
	Tier         Tier      `json:"tier,omitempty"`
	Expires      time.Time `json:"expires,omitempty"`
}
