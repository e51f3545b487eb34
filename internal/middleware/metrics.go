package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/transcript-clearance-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records request duration and count per route template. Requests
// that match no route share the "unmatched" label so arbitrary paths never
// create new series. Paths in skipPaths, such as the scrape endpoint, are not
// recorded.
func Metrics(metricsSvc *service.MetricsService, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skip[route]; ok {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
