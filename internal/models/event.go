package models

import "time"

// EventType тип события профиля, публикуемого в брокер.
type EventType string

const (
	EventLevelUp             EventType = "level_up"
	EventTrialGranted        EventType = "trial_granted"
	EventSubscriptionExpired EventType = "subscription_expired"
)

// RoutingKey ключ маршрутизации события в обменнике.
func (e EventType) RoutingKey() string {
	return "profile." + string(e)
}

// ProfileEvent сообщение о значимом изменении профиля, на которое реагирует notifier.
type ProfileEvent struct {
	Type       EventType  `json:"type"`
	UserUID    string     `json:"user_uid"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Level      int        `json:"level,omitempty"`
	Tier       Tier       `json:"tier,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}
