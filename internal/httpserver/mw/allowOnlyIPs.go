package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
	"github.com/MrSnakeDoc/bookmark-checker/internal/utils"
)

// AllowOnlyCIDRS lets through callers whose address is in allowed. An empty
// list does not filter. A list that fails to parse rejects every request.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	list, err := utils.ParseAllowList(allowed)
	if err != nil {
		log.Error("invalid ip allow-list, guarded routes are closed", logger.Error(err))
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			})
		}
	}
	if list.Empty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !list.Contains(ip) {
				log.Warn("request rejected by ip allow-list",
					logger.String("ip", ip),
					logger.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
