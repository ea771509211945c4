// Package logging builds the hclog logger shared by every HostProbe component
// and a gin middleware that reports requests through it.
package logging

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/vesaa/hostprobe/internal/config"
)

// New returns the root logger configured from cfg. Output goes to w.
func New(cfg *config.Config, w io.Writer) hclog.Logger {
	level := hclog.LevelFromString(cfg.LogLevel)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "hostprobe",
		Level:      level,
		Output:     w,
		JSONFormat: cfg.LogJSON,
	})
}

// Requests logs one line per handled request: method, path, status and latency.
// Server-side failures are logged at warn, everything else at debug so a
// collector polling every second does not flood the log.
func Requests(log hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"remote", c.ClientIP(),
		}
		if status >= 500 || len(c.Errors) > 0 {
			if len(c.Errors) > 0 {
				args = append(args, "errors", c.Errors.String())
			}
			log.Warn("request failed", args...)
			return
		}
		log.Debug("request", args...)
	}
}
