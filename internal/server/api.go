// Package server exposes the HostProbe snapshot over HTTP.
// Every GET, whatever its path or query, returns a fresh snapshot as JSON.
// Other methods get 405.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/vesaa/hostprobe/internal/logging"
	"github.com/vesaa/hostprobe/internal/models"
)

// Snapshotter produces one snapshot per call. *sampler.Sampler satisfies it.
type Snapshotter interface {
	Collect(ctx context.Context) models.ResourceSnapshot
}

// NewRouter builds the gin engine serving snapshots from s.
func NewRouter(s Snapshotter, log hclog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	// every GET target is answered in place, never redirected
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(gin.Recovery(), logging.Requests(log))

	snapshot := handleSnapshot(s)
	r.GET("/*path", snapshot)
	r.NoMethod(methodNotAllowed)
	// Targets the tree cannot match, e.g. an absolute-form URL with an empty path.
	r.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			snapshot(c)
			return
		}
		methodNotAllowed(c)
	})
	return r
}

func methodNotAllowed(c *gin.Context) {
	c.Header("Allow", http.MethodGet)
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed, use GET"})
}

// handleSnapshot samples the host and writes the snapshot.
//
//	GET /<anything>
//	200 Content-Type: application/json
func handleSnapshot(s Snapshotter) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := s.Collect(c.Request.Context())

		body, err := json.Marshal(snap)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to encode snapshot"})
			return
		}
		c.Data(http.StatusOK, "application/json", body)
	}
}
