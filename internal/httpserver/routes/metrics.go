package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrSnakeDoc/bookmark-checker/internal/httpserver/deps"
)

func init() { Register(registerMetrics, TrustedNetwork) }

func registerMetrics(r chi.Router, _ deps.Deps) {
	r.Handle("/metrics", promhttp.Handler())
}
