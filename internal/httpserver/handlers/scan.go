package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookmark-checker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
)

type scanResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

// Scan triggers a manual scan. A scan already running or queued answers 429.
func Scan(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Scanner.Trigger() {
			d.Logger.Info("manual scan triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, scanResponse{Accepted: true, Message: "scan triggered"})
			return
		}
		d.Logger.Warn("scan already in progress",
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusTooManyRequests, scanResponse{Accepted: false, Message: "scan already in progress, please wait"})
	}
}
