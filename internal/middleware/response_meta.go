package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrms-api/pkg/response"
)

// ResponseMeta starts the timer reported as meta.processing_time_ms.
func ResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.StartTimer(c)
		c.Next()
	}
}

// MarkCache labels the response with the outcome of a read-through cache lookup.
func MarkCache(c *gin.Context, hit bool) {
	label := "miss"
	if hit {
		label = "hit"
	}
	response.SetMeta(c, "cache", label)
	response.SetMeta(c, "cache_hit", hit)
}
