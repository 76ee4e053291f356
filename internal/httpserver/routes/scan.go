package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmark-checker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmark-checker/internal/httpserver/handlers"
)

func init() { Register(registerScan, TrustedNetwork, KnownHost) }

func registerScan(r chi.Router, d deps.Deps) {
	r.Post("/scan", handlers.Scan(d))
}
