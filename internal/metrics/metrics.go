// Package metrics регистрирует метрики Prometheus для HTTP-запросов и доменных событий клуба.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clubhouse"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_in_flight_requests",
		Help:      "Current number of in-flight HTTP requests",
	})

	// WordsValidated проверки слов по результату (valid, invalid).
	WordsValidated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "words_validated_total",
		Help:      "Words checked against the dictionary",
	}, []string{"result"})

	// GamesRecorded сыгранные партии по исходу (won, lost).
	GamesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_recorded_total",
		Help:      "Games recorded against player profiles",
	}, []string{"outcome"})

	// GamesDenied отказы в игре из-за исчерпанной дневной квоты.
	GamesDenied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_denied_total",
		Help:      "Game starts refused because the daily quota was used up",
	})

	LevelUps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "level_ups_total",
		Help:      "Player level increases",
	})

	// PromoRedemptions активации промокодов по результату.
	PromoRedemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "promo_redemptions_total",
		Help:      "Promo code redemption attempts",
	}, []string{"result"})

	SubscriptionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "subscriptions_expired_total",
		Help:      "Paid profiles downgraded after their subscription ran out",
	})

	// EventsPublished события профиля, отправленные в брокер, по типу и результату.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Profile events published to the message broker",
	}, []string{"type", "status"})

	// NotificationsSent письма notifier по типу события и результату.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Notification emails handled by the notifier",
	}, []string{"type", "status"})
)

// Status метка результата операции.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Middleware записывает количество и длительность запросов. Путь берётся из шаблона маршрута chi,
// чтобы идентификаторы в URL не раздували число серий.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		labels := prometheus.Labels{
			"method": r.Method,
			"path":   path,
			"status": strconv.Itoa(status),
		}
		httpRequests.With(labels).Inc()
		httpLatency.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler отдаёт метрики в формате Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}
