// Package canplay реализует HTTP-обработчик проверки дневной квоты игр.
package canplay

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/clubhouse/internal/http/middlewarectx"
	"github.com/magabrotheeeer/clubhouse/internal/http/response"
	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/services/profile"
)

// Service описывает проверку квоты.
type Service interface {
	CanPlayToday(ctx context.Context, userUID string) (profile.PlayStatus, error)
}

// Handler обрабатывает GET /api/v1/profile/can-play.
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
// @Summary Можно ли начать игру сегодня
// @Description Сбрасывает дневной счётчик, если наступил новый день, и сравнивает его с лимитом плана.
// @Tags Profile
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /profile/can-play [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.canplay"

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

	status, err := h.service.CanPlayToday(r.Context(), userUID)
	if err != nil {
		log.Error("failed to check daily quota", sl.Err(err))
		code, resp := response.FromError(err, "could not check daily quota")
		render.Status(r, code)
		render.JSON(w, r, resp)
		return
	}

	log.Info("daily quota checked", slog.Bool("allowed", status.Allowed), slog.Int("played", status.GamesPlayedToday))
	render.JSON(w, r, response.OKWithData(status))
}
