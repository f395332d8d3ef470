package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/finsentsis/internal/port"
	"github.com/arturoeanton/finsentsis/internal/service"
)

// AuditHandler handles audit log endpoints.
type AuditHandler struct {
	audit *service.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(audit *service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// Register sets up audit routes.
func (h *AuditHandler) Register(router fiber.Router) {
	audit := router.Group("/audit")
	audit.Get("/logs", h.ListLogs)
	audit.Get("/verify", h.Verify)
}

// ListLogs returns audit logs with optional filtering.
func (h *AuditHandler) ListLogs(c fiber.Ctx) error {
	limitStr := c.Query("limit", "100")
	limit, _ := strconv.Atoi(limitStr)
	action := c.Query("action", "")

	logs, err := h.audit.Logs(c.Context(), limit, action)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"count": len(logs),
	})
}

// Verify checks the hash chain of recorded entries.
func (h *AuditHandler) Verify(c fiber.Ctx) error {
	st, err := h.audit.Verify(c.Context())
	switch {
	case errors.Is(err, port.ErrAuditChainBroken):
		return c.Status(fiber.StatusConflict).JSON(st)
	case err != nil:
		return fail(c, err)
	}
	return c.JSON(st)
}
