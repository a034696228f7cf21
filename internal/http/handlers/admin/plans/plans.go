// Package plans реализует административные HTTP-обработчики тарифных планов.
package plans

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

// Service описывает операции над планами.
type Service interface {
	CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (*models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, tier models.Tier, plan models.SubscriptionPlan) (*models.SubscriptionPlan, error)
	GetPlan(ctx context.Context, tier models.Tier) (*models.SubscriptionPlan, error)
	ListPlans(ctx context.Context, filter models.PlanFilter) ([]*models.SubscriptionPlan, error)
}

// Handler набор обработчиков /api/v1/admin/plans.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт обработчики планов.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// List godoc
// @Summary Список тарифных планов
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param tier query string false "Уровень"
// @Param active query bool false "Только активные"
// @Param search query string false "Подстрока названия или описания"
// @Success 200 {object} response.Response
// @Router /admin/plans [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.plans.list"
	log := h.logger(r, op)

	values := r.URL.Query()
	var filter models.PlanFilter
	var err error
	if filter.Tier, err = query.Tier(values, "tier"); err == nil {
		filter.IsActive, err = query.Bool(values, "active")
	}
	if err != nil {
		log.Error("invalid filter", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}
	filter.Search = values.Get("search")

	plans, err := h.service.ListPlans(r.Context(), filter)
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		status, resp := response.FromError(err, "could not list plans")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"plans": plans,
	}))
}

// Get godoc
// @Summary Тарифный план уровня
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param tier path string true "Уровень"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.ErrorResponse "Плана нет"
// @Router /admin/plans/{tier} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.plans.get"
	log := h.logger(r, op)

	tier, err := models.ParseTier(chi.URLParam(r, "tier"))
	if err != nil {
		log.Error("invalid tier", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	plan, err := h.service.GetPlan(r.Context(), tier)
	if err != nil {
		log.Error("failed to get plan", sl.Err(err))
		status, resp := response.FromError(err, "could not get plan")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"plan": plan,
	}))
}

// Create godoc
// @Summary Создание тарифного плана
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyPlan true "План"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.ErrorResponse "План для уровня уже есть"
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/plans [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.plans.create"
	log := h.logger(r, op)

	req, ok := h.decode(w, r, log, "")
	if !ok {
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), req.ToPlan())
	if err != nil {
		log.Error("failed to create plan", sl.Err(err))
		status, resp := response.FromError(err, "could not create plan")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("plan created", slog.String("tier", string(plan.Tier)))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"plan": plan,
	}))
}

// Update godoc
// @Summary Изменение тарифного плана
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param tier path string true "Уровень"
// @Param request body models.DummyPlan true "План"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/plans/{tier} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.plans.update"
	log := h.logger(r, op)

	tier := chi.URLParam(r, "tier")
	req, ok := h.decode(w, r, log, tier)
	if !ok {
		return
	}

	plan, err := h.service.UpdatePlan(r.Context(), models.Tier(tier), req.ToPlan())
	if err != nil {
		log.Error("failed to update plan", sl.Err(err))
		status, resp := response.FromError(err, "could not update plan")
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("plan updated", slog.String("tier", tier))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"plan": plan,
	}))
}

// decode читает и проверяет тело запроса. Непустой tier из пути заменяет уровень из тела.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, tier string) (models.DummyPlan, bool) {
	var req models.DummyPlan
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return req, false
	}
	if tier != "" {
		req.Tier = tier
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return req, false
	}
	return req, true
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
