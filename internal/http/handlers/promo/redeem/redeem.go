// Package redeem реализует HTTP-обработчик активации промокода текущим игроком.
package redeem

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/clubhouse/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clubhouse/internal/http/response"
	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/models"
)

// Request промокод для активации.
type Request struct {
	Code string `json:"code" validate:"required,max=50"`
}

// Service описывает активацию промокода.
type Service interface {
	Redeem(ctx context.Context, userUID, code string) (*models.Redemption, error)
}

// Handler обрабатывает POST /api/v1/promo/redeem.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт обработчик.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Активация промокода
// @Description Увеличивает счётчик активаций; промокод с пробным периодом переводит профиль на уровень кода.
// @Tags Promo
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Промокод"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Промокод не найден"
// @Failure 409 {object} response.ErrorResponse "Промокод недействителен"
// @Failure 422 {object} response.ErrorResponse "План для уровня промокода не существует"
// @Router /promo/redeem [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.promo.redeem"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.Redeem(r.Context(), userUID, req.Code)
	if err != nil {
		log.Error("failed to redeem promo code", slog.String("code", req.Code), sl.Err(err))
		status, resp := response.FromError(err, "could not redeem promo code")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("promo code redeemed", slog.String("code", req.Code), slog.Bool("trial", res.TrialGranted))
	render.JSON(w, r, response.OKWithData(res))
}
