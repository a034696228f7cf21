// Package record реализует HTTP-обработчик учёта завершённой игры.
//
// Обработчик увеличивает счётчики игр и начисляет опыт за партию. Дневная квота здесь
// не проверяется: клиент спрашивает /profile/can-play перед началом игры.
package record

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
	"github.com/magabrotheeeer/clubhouse/internal/services/profile"
)

// Request итог партии.
type Request struct {
	Won        bool `json:"won"`
	Experience int  `json:"experience" validate:"gte=0,lte=100000"`
}

// Service описывает учёт игры.
type Service interface {
	RecordGamePlayed(ctx context.Context, userUID string, won bool, experience int) (profile.ExperienceResult, error)
}

// Handler обрабатывает POST /api/v1/games.
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
// @Summary Учёт сыгранной партии
// @Tags Games
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Итог партии"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /games [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.games.record"

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

	res, err := h.service.RecordGamePlayed(r.Context(), userUID, req.Won, req.Experience)
	if err != nil {
		log.Error("failed to record game", sl.Err(err))
		status, resp := response.FromError(err, "could not record game")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("game recorded", slog.Bool("won", req.Won), slog.Bool("leveled_up", res.LeveledUp))
	render.JSON(w, r, response.OKWithData(res))
}
