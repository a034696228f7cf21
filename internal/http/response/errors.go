package response

import (
	"errors"
	"net/http"

	"github.com/magabrotheeeer/clubhouse/internal/entitlement"
	"github.com/magabrotheeeer/clubhouse/internal/services/admin"
	"github.com/magabrotheeeer/clubhouse/internal/services/auth"
	"github.com/magabrotheeeer/clubhouse/internal/services/profile"
	"github.com/magabrotheeeer/clubhouse/internal/storage"
)

type mapping struct {
	err    error
	status int
	msg    string
}

var mappings = []mapping{
	{storage.ErrProfileNotFound, http.StatusNotFound, "profile not found"},
	{storage.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{storage.ErrPromoNotFound, http.StatusNotFound, "promo code not found"},
	{storage.ErrPromoInvalid, http.StatusConflict, "promo code is not valid"},
	{storage.ErrPromoExists, http.StatusConflict, "promo code already exists"},
	{storage.ErrTierAlreadyHeld, http.StatusConflict, "subscription tier already held"},
	{storage.ErrPlanNotFound, http.StatusUnprocessableEntity, "subscription plan for this tier does not exist"},
	{storage.ErrPlanExists, http.StatusConflict, "subscription plan for this tier already exists"},
	{storage.ErrUserExists, http.StatusConflict, "user already exists"},
	{storage.ErrVersionConflict, http.StatusConflict, "profile was modified concurrently, try again"},
	{profile.ErrConcurrentUpdate, http.StatusConflict, "profile was modified concurrently, try again"},
	{profile.ErrUnknownTutorial, http.StatusNotFound, "unknown tutorial"},
	{entitlement.ErrNegativeExperience, http.StatusUnprocessableEntity, "experience points must not be negative"},
	{entitlement.ErrExperienceOverflow, http.StatusUnprocessableEntity, "experience points limit exceeded"},
	{admin.ErrInvalidTier, http.StatusUnprocessableEntity, "invalid subscription tier"},
	{admin.ErrNoProfilesSelected, http.StatusUnprocessableEntity, "no profiles selected"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
}

// FromError подбирает HTTP-статус и безопасное сообщение для ошибки сервиса.
// Неизвестные ошибки отдаются как 500 с fallback, без внутренних подробностей.
func FromError(err error, fallback string) (int, ErrorResponse) {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return m.status, Error(m.msg)
		}
	}
	return http.StatusInternalServerError, Error(fallback)
}
