// Package query разбирает необязательные параметры фильтров административного API.
// Пустой параметр означает отсутствие фильтра и возвращается как nil.
package query

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/magabrotheeeer/clubhouse/internal/models"
)

// Bool разбирает параметр key как bool.
func Bool(values url.Values, key string) (*bool, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("parameter %s must be a boolean", key)
	}
	return &v, nil
}

// Int разбирает параметр key как неотрицательное целое.
func Int(values url.Values, key string) (*int, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("parameter %s must be a non-negative integer", key)
	}
	return &v, nil
}

// Tier разбирает параметр key как уровень подписки.
func Tier(values url.Values, key string) (*models.Tier, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := models.ParseTier(raw)
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", key, err)
	}
	return &t, nil
}
