package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmark-checker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmark-checker/internal/httpserver/handlers"
)

func init() {
	Register(registerReport)
	Register(registerHistory, TrustedNetwork)
}

func registerReport(r chi.Router, d deps.Deps) {
	r.Get("/report", handlers.Report(d))
}

func registerHistory(r chi.Router, d deps.Deps) {
	r.Get("/reports", handlers.Reports(d))
	r.Get("/status", handlers.Status(d))
}
