// Package experience реализует HTTP-обработчик начисления опыта игроку.
package experience

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

// Request число очков опыта. Отрицательные значения отклоняются сервисом.
type Request struct {
	Points *int `json:"points" validate:"required,lte=100000"`
}

// Service описывает начисление опыта.
type Service interface {
	AddExperience(ctx context.Context, userUID string, points int) (profile.ExperienceResult, error)
}

// Handler обрабатывает POST /api/v1/profile/experience.
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
// @Summary Начисление опыта
// @Tags Profile
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Очки опыта"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Профиль изменён параллельно"
// @Failure 422 {object} response.ErrorResponse "Отрицательный опыт"
// @Router /profile/experience [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.experience"

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

	res, err := h.service.AddExperience(r.Context(), userUID, *req.Points)
	if err != nil {
		log.Error("failed to add experience", sl.Err(err))
		status, resp := response.FromError(err, "could not add experience")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("experience added", slog.Int("points", *req.Points), slog.Bool("leveled_up", res.LeveledUp))
	render.JSON(w, r, response.OKWithData(res))
}
