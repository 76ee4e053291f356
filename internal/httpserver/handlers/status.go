package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookmark-checker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmark-checker/internal/index"
)

type componentStatus struct {
	OK    bool   `json:"ok"`
	Mode  string `json:"mode,omitempty"`
	Error string `json:"error,omitempty"`
}

type statusResponse struct {
	Mode       string                     `json:"mode"`
	Profile    string                     `json:"profile,omitempty"`
	ReportFile string                     `json:"report_file,omitempty"`
	Scan       index.ScanStatus           `json:"scan"`
	Failures   map[string]int             `json:"failures,omitempty"`
	Components map[string]componentStatus `json:"components"`
}

// Status reports scan bookkeeping and the health of optional components.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statusResponse{
			Profile:    d.Profile,
			ReportFile: d.ReportFile,
			Scan:       d.Index.Status(),
			Components: map[string]componentStatus{
				"redis": checkRedis(r.Context(), d),
			},
		}
		if latest := d.Index.Latest(); latest != nil {
			resp.Failures = map[string]int{
				"not_found":         len(latest.NotFound),
				"unauthorized":      len(latest.Unauthorized),
				"connection_errors": len(latest.ConnectionErrors),
			}
		}
		resp.Mode = determineMode(resp)
		writeJSON(w, http.StatusOK, resp)
	}
}

func determineMode(s statusResponse) string {
	switch {
	case s.Failures == nil:
		return "starting"
	case s.Scan.LastError != "":
		return "stale"
	case !s.Components["redis"].OK && s.Components["redis"].Mode != "disabled":
		return "degraded"
	default:
		return "ok"
	}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisPing == nil {
		return componentStatus{OK: false, Mode: "disabled"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisPing(ctx); err != nil {
		return componentStatus{OK: false, Mode: "degraded", Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: "history"}
}
