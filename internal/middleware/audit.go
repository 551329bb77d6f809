package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/hrms-api/internal/models"
)

// ActorHeader optionally names the operator behind an admin request. The API
// has no authentication, so the value is recorded as given.
const ActorHeader = "X-Actor"

// AuditWriter persists audit log rows.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records successful admin mutations. idParam names the path parameter
// holding the affected resource id and may be empty.
func Audit(repo AuditWriter, logger *zap.Logger, action, resource, idParam string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if repo == nil || c.Writer.Status() >= 400 {
			return
		}

		var actor *string
		if raw := strings.TrimSpace(c.GetHeader(ActorHeader)); raw != "" {
			actor = &raw
		}
		var resourceID *string
		if idParam != "" {
			if id := c.Param(idParam); id != "" {
				resourceID = &id
			}
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"latency": time.Since(start).Milliseconds(),
		})

		entry := &models.AuditLog{
			Actor:      actor,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			Status:     c.Writer.Status(),
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		}
		if err := repo.CreateAuditLog(context.WithoutCancel(c.Request.Context()), entry); err != nil {
			logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
		}
	}
}
