package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookmark-checker/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready       bool      `json:"ready"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
}

// Readyz answers 200 once a report is available, 503 before.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latest := d.Index.Latest()
		if latest == nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, GeneratedAt: latest.GeneratedAt})
	}
}
