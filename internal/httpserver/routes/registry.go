package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookmark-checker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmark-checker/internal/httpserver/mw"
)

type (
	Registrar func(r chi.Router, d deps.Deps)
	// Guard builds a middleware once the server dependencies are known.
	Guard func(d deps.Deps) func(http.Handler) http.Handler
)

type entry struct {
	reg    Registrar
	guards []Guard
}

var registry []entry

// Register adds a registrar whose routes are wrapped by guards.
func Register(reg Registrar, guards ...Guard) {
	registry = append(registry, entry{reg: reg, guards: guards})
}

// RegisterAll is called once from httpserver.NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		if len(e.guards) == 0 {
			e.reg(r, d)
			continue
		}
		mws := make([]func(http.Handler) http.Handler, 0, len(e.guards))
		for _, g := range e.guards {
			mws = append(mws, g(d))
		}
		e.reg(r.With(mws...), d)
	}
}

// TrustedNetwork restricts routes to BMC_ALLOWED_CIDRS.
func TrustedNetwork(d deps.Deps) func(http.Handler) http.Handler {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}

// KnownHost restricts routes to BMC_ALLOWED_HOSTS.
func KnownHost(d deps.Deps) func(http.Handler) http.Handler {
	return mw.EnforceHost(d.AllowedHosts, d.Logger)
}
