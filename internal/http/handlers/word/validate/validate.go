// Package validate реализует HTTP-обработчик проверки слова по словарю.
//
// Контракт ответа отличается от остального API: обработчик отвечает плоским JSON
// {"valid": bool, "word": string} или {"error": string}, без конверта status/data.
package validate

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/clubhouse/internal/dictionary"
	"github.com/magabrotheeeer/clubhouse/internal/lib/sl"
	"github.com/magabrotheeeer/clubhouse/internal/metrics"
)

// Request тело запроса.
type Request struct {
	Word string `json:"word"`
}

// Response результат проверки; Word нормализовано.
type Response struct {
	Valid bool   `json:"valid"`
	Word  string `json:"word"`
}

// ErrorResponse ответ с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Validator словарь, по которому проверяется слово.
type Validator interface {
	Validate(word string) (dictionary.Result, error)
}

// Handler обрабатывает POST /api/v1/validate-word.
type Handler struct {
	log  *slog.Logger
	dict Validator
}

// New создаёт обработчик поверх словаря.
func New(log *slog.Logger, dict Validator) *Handler {
	return &Handler{
		log:  log,
		dict: dict,
	}
}

// ServeHTTP godoc
// @Summary Проверка слова
// @Description Нормализует слово и проверяет его наличие в словаре.
// @Tags Words
// @Accept  json
// @Produce  json
// @Param request body Request true "Слово"
// @Success 200 {object} Response
// @Failure 400 {object} ErrorResponse "Некорректный JSON или пустое слово"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Router /validate-word [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.word.validate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid JSON"})
		return
	}

	res, err := h.dict.Validate(req.Word)
	if errors.Is(err, dictionary.ErrInvalidInput) {
		log.Info("empty word")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "No word provided"})
		return
	}
	if err != nil {
		log.Error("failed to validate word", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: "internal error"})
		return
	}

	result := "invalid"
	if res.Valid {
		result = "valid"
	}
	metrics.WordsValidated.WithLabelValues(result).Inc()

	log.Debug("word validated", slog.String("word", res.Word), slog.Bool("valid", res.Valid))
	render.JSON(w, r, Response{Valid: res.Valid, Word: res.Word})
}
