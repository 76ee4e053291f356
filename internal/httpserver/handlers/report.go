package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/bookmark-checker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
	"github.com/MrSnakeDoc/bookmark-checker/internal/report"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// Report serves the latest report as JSON, or as the on-disk YAML with
// ?format=yaml.
func Report(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latest := d.Index.Latest()
		if latest == nil {
			writeError(w, http.StatusNotFound, "no report yet")
			return
		}

		switch r.URL.Query().Get("format") {
		case "", "json":
			writeJSON(w, http.StatusOK, latest)
		case "yaml", "yml":
			data, err := report.Marshal(latest)
			if err != nil {
				d.Logger.Error("failed to encode report", logger.Error(err))
				writeError(w, http.StatusInternalServerError, "failed to encode report")
				return
			}
			w.Header().Set("Content-Type", "application/yaml")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
		default:
			writeError(w, http.StatusBadRequest, "format must be json or yaml")
		}
	}
}

// Reports lists stored report summaries from redis, newest first.
func Reports(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.History == nil {
			writeError(w, http.StatusNotFound, "report history is disabled")
			return
		}

		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxHistoryLimit)
		}

		list, err := d.History.ListReports(r.Context(), limit)
		if err != nil {
			d.Logger.Warn("failed to list reports", logger.Error(err))
			writeError(w, http.StatusBadGateway, "report history unavailable")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
