// Package health реализует проверку готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/clubhouse/internal/http/response"
	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
)

// Checker проверяет доступность зависимости.
type Checker func(ctx context.Context) error

// Handler обрабатывает GET /health.
type Handler struct {
	log    *slog.Logger
	checks map[string]Checker
	words  func() int
}

// New создаёт обработчик. words возвращает размер загруженного словаря.
func New(log *slog.Logger, checks map[string]Checker, words func() int) *Handler {
	return &Handler{
		log:    log,
		checks: checks,
		words:  words,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	deps := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			h.log.Error("dependency is not ready", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			deps[name] = "unavailable"
			healthy = false
			continue
		}
		deps[name] = "ok"
	}

	data := map[string]any{
		"status":       "ok",
		"dependencies": deps,
	}
	if h.words != nil {
		data["dictionary_words"] = h.words()
	}
	if !healthy {
		data["status"] = "degraded"
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, response.OKWithData(data))
}
