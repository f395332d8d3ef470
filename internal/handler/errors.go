package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/finsentsis/internal/port"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, port.ErrSessionNotFound),
		errors.Is(err, port.ErrTaskNotFound),
		errors.Is(err, port.ErrEvidenceNotFound),
		errors.Is(err, port.ErrRegulationNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, port.ErrInvalidTransition),
		errors.Is(err, port.ErrRequestPending),
		errors.Is(err, port.ErrProfileLocked),
		errors.Is(err, port.ErrStaleScan),
		errors.Is(err, port.ErrAuditChainBroken):
		return fiber.StatusConflict
	case errors.Is(err, port.ErrInvalidProfile),
		errors.Is(err, port.ErrInvalidEvidence),
		errors.Is(err, port.ErrNoFiles),
		errors.Is(err, port.ErrNoJurisdictions),
		errors.Is(err, port.ErrUnknownJurisdiction),
		errors.Is(err, port.ErrEmptyMessage):
		return fiber.StatusBadRequest
	case errors.Is(err, port.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.Is(err, port.ErrShuttingDown):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, port.ErrUnauthorized),
		errors.Is(err, port.ErrTokenExpired),
		errors.Is(err, port.ErrTokenInvalid):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes err as {"error": ...} with the mapped status.
func fail(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func unauthorized(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
}

func badRequest(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
}
