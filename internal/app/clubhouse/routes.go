// Package clubhouse собирает HTTP API клуба: маршруты, middleware и запуск сервера.
package clubhouse

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/clubhouse/internal/dictionary"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/admin/plans"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/admin/profiles"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/admin/promocodes"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/games/record"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/health"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/profile/canplay"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/profile/experience"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/profile/read"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/profile/tutorial"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/promo/check"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/promo/redeem"
	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/word/validate"
	"github.com/magabrotheeeer/clubhouse/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clubhouse/internal/metrics"
	"github.com/magabrotheeeer/clubhouse/internal/models"
	adminservice "github.com/magabrotheeeer/clubhouse/internal/services/admin"
	authservice "github.com/magabrotheeeer/clubhouse/internal/services/auth"
	profileservice "github.com/magabrotheeeer/clubhouse/internal/services/profile"
	promoservice "github.com/magabrotheeeer/clubhouse/internal/services/promo"
)

// Dependencies всё, что нужно маршрутам.
type Dependencies struct {
	Dictionary     *dictionary.Dictionary
	Auth           *authservice.AuthService
	Profiles       *profileservice.Service
	Promo          *promoservice.Service
	Admin          *adminservice.Service
	Limiter        *middlewarectx.IPRateLimiter
	TrustedProxies []netip.Prefix
	HealthChecks   map[string]health.Checker
	AllowedOrigins []string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Dependencies) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins(deps.AllowedOrigins),
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           int((5 * time.Minute).Seconds()),
		}),
		metrics.Middleware,
	)

	r.Get("/health", health.New(logger, deps.HealthChecks, deps.Dictionary.Len).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.With(middlewarectx.RateLimitMiddleware(logger, deps.Limiter, deps.TrustedProxies)).
			Post("/validate-word", validate.New(logger, deps.Dictionary).ServeHTTP)
		r.Post("/register", register.New(logger, deps.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, deps.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.Auth, logger))

			r.Get("/profile", read.New(logger, deps.Profiles).ServeHTTP)
			r.Get("/profile/can-play", canplay.New(logger, deps.Profiles).ServeHTTP)
			r.Post("/profile/experience", experience.New(logger, deps.Profiles).ServeHTTP)
			r.Post("/profile/tutorials/{tutorial}", tutorial.New(logger, deps.Profiles).ServeHTTP)
			r.Post("/games", record.New(logger, deps.Profiles).ServeHTTP)
			r.Get("/promo/{code}", check.New(logger, deps.Promo).ServeHTTP)
			r.Post("/promo/redeem", redeem.New(logger, deps.Promo).ServeHTTP)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))
				registerAdminRoutes(r, logger, deps.Admin)
			})
		})
	})

	r.Handle("/metrics", metrics.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

func registerAdminRoutes(r chi.Router, logger *slog.Logger, svc *adminservice.Service) {
	planHandler := plans.New(logger, svc)
	r.Get("/plans", planHandler.List)
	r.Post("/plans", planHandler.Create)
	r.Get("/plans/{tier}", planHandler.Get)
	r.Put("/plans/{tier}", planHandler.Update)

	profileHandler := profiles.New(logger, svc)
	r.Get("/profiles", profileHandler.List)
	r.Put("/profiles/{uid}/notes", profileHandler.UpdateNotes)
	r.Post("/profiles/actions/upgrade-member", profileHandler.UpgradeMember)
	r.Post("/profiles/actions/upgrade-premium", profileHandler.UpgradePremium)
	r.Post("/profiles/actions/reset-daily-games", profileHandler.ResetDailyGames)

	promoHandler := promocodes.New(logger, svc)
	r.Get("/promocodes", promoHandler.List)
	r.Post("/promocodes", promoHandler.Create)
	r.Put("/promocodes/{id}", promoHandler.Update)
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
