package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/finsentsis/internal/domain"
)

// AuditWriter defines how audit records are persisted.
type AuditWriter interface {
	Record(ctx context.Context, entry domain.AuditLog) (domain.AuditLog, error)
}

// AuditMiddleware records every state-changing request in the audit trail.
// Reads are not recorded.
func AuditMiddleware(writer AuditWriter) fiber.Handler {
	return func(c fiber.Ctx) error {
		method := c.Method()
		if method == fiber.MethodGet || method == fiber.MethodHead || method == fiber.MethodOptions {
			return c.Next()
		}

		start := time.Now()

		// Capture request data BEFORE handler execution (Fiber reuses context objects)
		path := c.Path()
		ip := c.IP()
		userAgent := c.Get("User-Agent")

		err := c.Next()

		user := "anonymous"
		resourceID := ""
		if sc := GetSessionContext(c); sc != nil {
			user = sc.User
			resourceID = sc.SessionID
		}

		statusCode := c.Response().StatusCode()
		details := map[string]interface{}{
			"method":      method,
			"path":        path,
			"status":      statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		detailsJSON, _ := json.Marshal(details)

		entry := domain.AuditLog{
			User:       user,
			Action:     domain.AuditActionHTTPRequest,
			Resource:   "api",
			ResourceID: resourceID,
			Details:    string(detailsJSON),
			IP:         ip,
			UserAgent:  userAgent,
			CreatedAt:  start,
		}

		// Write audit log asynchronously; all values are captured, safe to use in goroutine
		go func() {
			if _, writeErr := writer.Record(context.Background(), entry); writeErr != nil {
				slog.Error("failed to write audit log", "error", writeErr)
			}
		}()

		return err
	}
}
