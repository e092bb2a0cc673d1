package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orgdir/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	Enabled bool
	// SkipPaths are paths that don't need profiling labels (e.g., health checks).
	SkipPaths        []string
	SkipPathPrefixes []string
}

// DefaultProfilingConfig returns default profiling middleware configuration.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:          true,
		SkipPaths:        []string{"/health"},
		SkipPathPrefixes: []string{"/swagger", "/docs"},
	}
}

// Profiling returns profiling middleware with default configuration.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig tags the request goroutine with Pyroscope labels:
//   - controller: resource name derived from the route (e.g. "organizations")
//   - route: matched route pattern (e.g. "/api/v1/organizations/:id")
//   - method: HTTP method
//
// All three are low cardinality, so profiles can be filtered by them.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if skipProfiling(cfg, c.Request.URL.Path) {
			c.Next()
			return
		}

		route := c.FullPath()
		labels := telemetry.HTTPRequestLabels(extractControllerFromRoute(route), route, c.Request.Method)

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func skipProfiling(cfg ProfilingConfig, path string) bool {
	for _, p := range cfg.SkipPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// extractControllerFromRoute derives a controller name from the route pattern.
// Example: "/api/v1/organizations/by-activity/:id" -> "organizations"
func extractControllerFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) {
			continue
		}
		if strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*") {
			continue
		}
		return part
	}
	return ""
}

// isVersionSegment checks if a path segment is an API version (v1, v2, etc.)
func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
