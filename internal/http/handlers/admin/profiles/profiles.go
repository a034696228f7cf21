// Package profiles реализует административные HTTP-обработчики профилей игроков:
// поиск, заметки и массовые действия.
package profiles

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/admin/query"
	"github.com/magabrotheeeer/clubhouse/internal/http/response"
	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/models"
)

// Service описывает административные операции над профилями.
type Service interface {
	ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]*models.PlayerProfile, error)
	UpdateAdminNotes(ctx context.Context, userUID, notes string) error
	UpgradeProfiles(ctx context.Context, userUIDs []string, tier models.Tier) (int, error)
	ResetDailyGames(ctx context.Context, userUIDs []string) (int, error)
}

// NotesRequest новые заметки администратора.
type NotesRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// ActionRequest выбранные профили для массового действия.
type ActionRequest struct {
	UserUIDs []string `json:"user_uids" validate:"required,min=1,max=1000,dive,uuid"`
}

// Handler набор обработчиков /api/v1/admin/profiles.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт обработчики профилей.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// List godoc
// @Summary Поиск профилей
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param tier query string false "Уровень"
// @Param is_member query bool false "Платный участник"
// @Param level query int false "Уровень игрока"
// @Param search query string false "Подстрока имени или почты"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Router /admin/profiles [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.profiles.list"
	log := h.logger(r, op)

	filter, err := parseFilter(r)
	if err != nil {
		log.Error("invalid filter", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	profiles, err := h.service.ListProfiles(r.Context(), filter)
	if err != nil {
		log.Error("failed to list profiles", sl.Err(err))
		status, resp := response.FromError(err, "could not list profiles")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"profiles": profiles,
		"count":    len(profiles),
	}))
}

// UpdateNotes godoc
// @Summary Заметки администратора о профиле
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param uid path string true "uid пользователя"
// @Param request body NotesRequest true "Заметки"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/profiles/{uid}/notes [put]
func (h *Handler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.profiles.notes"
	log := h.logger(r, op)

	uid := chi.URLParam(r, "uid")
	var req NotesRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	if err := h.service.UpdateAdminNotes(r.Context(), uid, req.Notes); err != nil {
		log.Error("failed to update notes", slog.String("user_uid", uid), sl.Err(err))
		status, resp := response.FromError(err, "could not update notes")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user_uid": uid,
		"notes":    req.Notes,
	}))
}

// UpgradeMember godoc
// @Summary Перевести профили на уровень member
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body ActionRequest true "Профили"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.ErrorResponse "Плана member нет"
// @Router /admin/profiles/actions/upgrade-member [post]
func (h *Handler) UpgradeMember(w http.ResponseWriter, r *http.Request) {
	h.upgrade(w, r, models.TierMember)
}

// UpgradePremium godoc
// @Summary Перевести профили на уровень premium
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body ActionRequest true "Профили"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.ErrorResponse "Плана premium нет"
// @Router /admin/profiles/actions/upgrade-premium [post]
func (h *Handler) UpgradePremium(w http.ResponseWriter, r *http.Request) {
	h.upgrade(w, r, models.TierPremium)
}

func (h *Handler) upgrade(w http.ResponseWriter, r *http.Request, tier models.Tier) {
	const op = "handlers.admin.profiles.upgrade"
	log := h.logger(r, op).With(slog.String("tier", string(tier)))

	var req ActionRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	n, err := h.service.UpgradeProfiles(r.Context(), req.UserUIDs, tier)
	if err != nil {
		log.Error("failed to upgrade profiles", sl.Err(err))
		status, resp := response.FromError(err, "could not upgrade profiles")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("profiles upgraded", slog.Int("count", n))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"updated": n,
		"tier":    tier,
	}))
}

// ResetDailyGames godoc
// @Summary Обнулить дневной счётчик игр
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body ActionRequest true "Профили"
// @Success 200 {object} response.Response
// @Router /admin/profiles/actions/reset-daily-games [post]
func (h *Handler) ResetDailyGames(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.profiles.reset"
	log := h.logger(r, op)

	var req ActionRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	n, err := h.service.ResetDailyGames(r.Context(), req.UserUIDs)
	if err != nil {
		log.Error("failed to reset daily games", sl.Err(err))
		status, resp := response.FromError(err, "could not reset daily games")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("daily games reset", slog.Int("count", n))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"updated": n,
	}))
}

func parseFilter(r *http.Request) (models.ProfileFilter, error) {
	values := r.URL.Query()
	filter := models.ProfileFilter{Search: values.Get("search")}

	var err error
	if filter.Tier, err = query.Tier(values, "tier"); err != nil {
		return filter, err
	}
	if filter.IsMember, err = query.Bool(values, "is_member"); err != nil {
		return filter, err
	}
	if filter.Level, err = query.Int(values, "level"); err != nil {
		return filter, err
	}
	limit, err := query.Int(values, "limit")
	if err != nil {
		return filter, err
	}
	if limit != nil {
		filter.Limit = *limit
	}
	offset, err := query.Int(values, "offset")
	if err != nil {
		return filter, err
	}
	if offset != nil {
		filter.Offset = *offset
	}
	return filter, nil
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return false
	}
	return true
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
