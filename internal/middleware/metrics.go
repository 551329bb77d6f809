package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver receives one observation per served request.
type RequestObserver interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

const unmatchedRoute = "unmatched"

// Metrics reports request latency labelled by route template, so
// /api/payroll/EMP001 and /api/payroll/EMP002 share one series. Requests that
// match no route share the "unmatched" label. Routes listed in skip, such as
// the scrape and probe endpoints, are not observed.
func Metrics(observer RequestObserver, skip ...string) gin.HandlerFunc {
	if observer == nil {
		return func(c *gin.Context) { c.Next() }
	}
	skipped := make(map[string]bool, len(skip))
	for _, route := range skip {
		skipped[route] = true
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if skipped[route] {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		observer.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
