// Package check реализует HTTP-обработчик проверки промокода без его активации.
package check

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/clubhouse/internal/http/response"
	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/models"
)

// Service описывает проверку промокода.
type Service interface {
	Check(ctx context.Context, code string) (*models.PromoCode, bool, error)
}

// Handler обрабатывает GET /api/v1/promo/{code}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Проверка промокода
// @Description Ищет промокод без учёта регистра и сообщает, можно ли его активировать сейчас.
// @Tags Promo
// @Produce  json
// @Security BearerAuth
// @Param code path string true "Промокод"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /promo/{code} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.promo.check"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	code := chi.URLParam(r, "code")
	promo, valid, err := h.service.Check(r.Context(), code)
	if err != nil {
		log.Error("failed to check promo code", slog.String("code", code), sl.Err(err))
		status, resp := response.FromError(err, "could not check promo code")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"promo": promo,
		"valid": valid,
	}))
}
