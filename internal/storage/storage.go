// Package storage объявляет ошибки уровня хранилища, общие для репозитория и сервисов.
package storage

import "errors"

var (
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrPlanNotFound    = errors.New("subscription plan not found")
	ErrPlanExists      = errors.New("subscription plan for this tier already exists")
	ErrPromoNotFound   = errors.New("promo code not found")
	ErrPromoExists     = errors.New("promo code already exists")
	ErrPromoInvalid    = errors.New("promo code is not valid")
	// ErrTierAlreadyHeld профиль уже имеет активную подписку не ниже той, что выдаёт промокод.
	ErrTierAlreadyHeld = errors.New("subscription tier already held")
	// ErrVersionConflict профиль изменён другим запросом после чтения.
	ErrVersionConflict = errors.New("profile version conflict")
)
