package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/transcript-clearance-api/internal/models"
	"github.com/noah-isme/transcript-clearance-api/pkg/middleware/requestid"
)

// AuditAppender writes journal entries.
type AuditAppender interface {
	Append(ctx context.Context, event *models.AuditEvent) error
}

// Audit journals successful mutations of the transcript request named by the
// :id path parameter. Journal failures are logged and never fail the request.
func Audit(journal AuditAppender, action models.AuditAction, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 || journal == nil {
			return
		}
		requestID := c.Param("id")
		if requestID == "" {
			return
		}

		details := map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.FullPath(),
			"status":    c.Writer.Status(),
			"latencyMs": time.Since(start).Milliseconds(),
			"traceId":   requestid.Value(c),
		}
		if dept := c.Param("department"); dept != "" {
			details["department"] = dept
		}
		if claims := Claims(c); claims != nil {
			details["actor"] = claims.UserID
			details["role"] = claims.Role
		}
		body, _ := json.Marshal(details)

		err := journal.Append(context.WithoutCancel(c.Request.Context()), &models.AuditEvent{
			RequestID: requestID,
			Action:    action,
			Details:   body,
			Timestamp: start,
		})
		if err != nil {
			logger.Warn("append audit event failed",
				zap.String("request_id", requestID),
				zap.String("action", string(action)),
				zap.Error(err),
			)
		}
	}
}
