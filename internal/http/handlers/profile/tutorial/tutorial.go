// Package tutorial реализует HTTP-обработчик отметки обучающей подсказки как просмотренной.
package tutorial

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/clubhouse/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clubhouse/internal/http/response"
	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/models"
)

// Service описывает отметку подсказки.
type Service interface {
	MarkTutorialSeen(ctx context.Context, userUID string, tutorial models.Tutorial) (*models.PlayerProfile, error)
}

// Handler обрабатывает POST /api/v1/profile/tutorials/{tutorial}.
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
// @Summary Отметить подсказку просмотренной
// @Tags Profile
// @Produce  json
// @Security BearerAuth
// @Param tutorial path string true "blank-tooltip, challenge или exchange"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Неизвестная подсказка"
// @Router /profile/tutorials/{tutorial} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.tutorial"

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

	tutorial := models.Tutorial(chi.URLParam(r, "tutorial"))
	p, err := h.service.MarkTutorialSeen(r.Context(), userUID, tutorial)
	if err != nil {
		log.Error("failed to mark tutorial", slog.String("tutorial", string(tutorial)), sl.Err(err))
		status, resp := response.FromError(err, "could not update profile")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"profile": p,
	}))
}
