// Package models содержит доменные структуры клуба: тарифные планы, профили игроков,
// промокоды, пользователей и события профиля.
package models

import "fmt"

// Tier уровень подписки, определяющий доступ к функциям.
type Tier string

const (
	TierFree    Tier = "free"
	TierMember  Tier = "member"
	TierPremium Tier = "premium"
)

// Tiers перечисляет все допустимые уровни в порядке возрастания.
var Tiers = []Tier{TierFree, TierMember, TierPremium}

// Valid сообщает, является ли значение известным уровнем.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierMember, TierPremium:
		return true
	}
	return false
}

// Rank порядковый номер уровня в Tiers, -1 для неизвестного.
func (t Tier) Rank() int {
	for i, tier := range Tiers {
		if tier == t {
			return i
		}
	}
	return -1
}

// DisplayName человекочитаемое название уровня.
func (t Tier) DisplayName() string {
	switch t {
	case TierFree:
		return "Free"
	case TierMember:
		return "Member"
	case TierPremium:
		return "Premium"
	}
	return string(t)
}

// ParseTier разбирает строку в Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}
