package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/finsentsis/internal/middleware"
	"github.com/arturoeanton/finsentsis/internal/service"
)

// ComplianceHandler serves the dashboard, regulatory intelligence and policies.
type ComplianceHandler struct {
	compliance *service.ComplianceService
}

// NewComplianceHandler creates a new compliance handler.
func NewComplianceHandler(compliance *service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{compliance: compliance}
}

// Register sets up compliance routes.
func (h *ComplianceHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.Dashboard)
	regs := router.Group("/regulations")
	regs.Get("/", h.ListRegulations)
	regs.Get("/:id", h.GetRegulation)
	router.Get("/policies", h.ListPolicies)
}

// Dashboard returns metrics, alerts and country risk for the session.
func (h *ComplianceHandler) Dashboard(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}

	d, err := h.compliance.Dashboard(c.Context(), sc.SessionID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(d)
}

// ListRegulations searches the session's regulations by ?q=.
func (h *ComplianceHandler) ListRegulations(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}

	regs, err := h.compliance.Regulations(c.Context(), sc.SessionID, c.Query("q"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"regulations": regs,
		"count":       len(regs),
	})
}

// GetRegulation returns one regulation of the session's view.
func (h *ComplianceHandler) GetRegulation(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}

	reg, err := h.compliance.Regulation(c.Context(), sc.SessionID, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(reg)
}

// ListPolicies returns the policy library.
func (h *ComplianceHandler) ListPolicies(c fiber.Ctx) error {
	policies := h.compliance.Policies()
	return c.JSON(fiber.Map{
		"policies": policies,
		"count":    len(policies),
	})
}
