package utils

import (
	"io"

	"github.com/MrSnakeDoc/bookmark-checker/internal/logger"
)

// Close closes c and ignores any error.
// Use for read-side handles in defer where a close error changes nothing.
func Close(c io.Closer) {
	_ = c.Close()
}

// CloseLogged closes c and logs a failure under what.
func CloseLogged(c io.Closer, log logger.Logger, what string) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("resource", what), logger.Error(err))
	}
}

// DrainClose reads at most limit bytes from rc, then closes it, so an HTTP
// connection can go back to the pool without downloading a large body.
func DrainClose(rc io.ReadCloser, limit int64) {
	_, _ = io.CopyN(io.Discard, rc, limit)
	_ = rc.Close()
}
