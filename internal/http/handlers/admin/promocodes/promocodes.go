// Package promocodes реализует административные HTTP-обработчики промокодов.
package promocodes

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/clubhouse/internal/http/handlers/admin/query"
	"github.com/magabrotheeeer/clubhouse/internal/http/response"
	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/models"
)

// Service описывает административные операции над промокодами.
type Service interface {
	CreatePromoCode(ctx context.Context, req models.DummyPromoCode) (*models.PromoCode, error)
	UpdatePromoCode(ctx context.Context, id int, req models.DummyPromoCode) (*models.PromoCode, error)
	ListPromoCodes(ctx context.Context, filter models.PromoCodeFilter) ([]*models.PromoCode, error)
}

// Handler набор обработчиков /api/v1/admin/promocodes.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт обработчики промокодов.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// List godoc
// @Summary Список промокодов
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param active query bool false "Только активные"
// @Param grants_tier query string false "Выдаваемый уровень"
// @Param search query string false "Подстрока кода или описания"
// @Success 200 {object} response.Response
// @Router /admin/promocodes [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.promocodes.list"
	log := h.logger(r, op)

	values := r.URL.Query()
	filter := models.PromoCodeFilter{Search: values.Get("search")}
	var err error
	if filter.IsActive, err = query.Bool(values, "active"); err == nil {
		filter.GrantsTier, err = query.Tier(values, "grants_tier")
	}
	if err != nil {
		log.Error("invalid filter", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	codes, err := h.service.ListPromoCodes(r.Context(), filter)
	if err != nil {
		log.Error("failed to list promo codes", sl.Err(err))
		status, resp := response.FromError(err, "could not list promo codes")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"promocodes": codes,
		"count":      len(codes),
	}))
}

// Create godoc
// @Summary Создать промокод
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyPromoCode true "Промокод"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.ErrorResponse
// @Router /admin/promocodes [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.promocodes.create"
	log := h.logger(r, op)

	var req models.DummyPromoCode
	if !h.decode(w, r, log, &req) {
		return
	}

	code, err := h.service.CreatePromoCode(r.Context(), req)
	if err != nil {
		log.Error("failed to create promo code", slog.String("code", req.Code), sl.Err(err))
		status, resp := response.FromError(err, "could not create promo code")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("promo code created", slog.Int("id", code.ID), slog.String("code", code.Code))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(code))
}

// Update godoc
// @Summary Изменить промокод
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "id промокода"
// @Param request body models.DummyPromoCode true "Промокод"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/promocodes/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.promocodes.update"
	log := h.logger(r, op)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		log.Error("invalid promo code id", slog.String("id", chi.URLParam(r, "id")))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid promo code id"))
		return
	}

	var req models.DummyPromoCode
	if !h.decode(w, r, log, &req) {
		return
	}

	code, err := h.service.UpdatePromoCode(r.Context(), id, req)
	if err != nil {
		log.Error("failed to update promo code", slog.Int("id", id), sl.Err(err))
		status, resp := response.FromError(err, "could not update promo code")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, response.OKWithData(code))
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
