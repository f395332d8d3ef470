package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/finsentsis/internal/middleware"
	"github.com/arturoeanton/finsentsis/internal/service"
)

// TaskHandler serves the remediation board and evidence management.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// Register sets up task routes.
func (h *TaskHandler) Register(router fiber.Router) {
	tasks := router.Group("/tasks")
	tasks.Get("/", h.Board)
	tasks.Get("/:id", h.GetTask)
	tasks.Post("/:id/evidence", h.AddEvidence)
	tasks.Delete("/:id/evidence/:evidenceId", h.RemoveEvidence)
}

// Board returns the session's tasks grouped by status.
func (h *TaskHandler) Board(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}

	cols, err := h.tasks.Board(c.Context(), sc.SessionID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"columns": cols})
}

// GetTask returns one task with its evidence.
func (h *TaskHandler) GetTask(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}

	task, err := h.tasks.Task(c.Context(), sc.SessionID, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(task)
}

// AddEvidence attaches a link or file to a task.
func (h *TaskHandler) AddEvidence(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}

	var body service.EvidenceInput
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c)
	}

	ev, err := h.tasks.AddEvidence(c.Context(), sc.SessionID, c.Params("id"), body)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ev)
}

// RemoveEvidence deletes one evidence entry from a task.
func (h *TaskHandler) RemoveEvidence(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}

	if err := h.tasks.RemoveEvidence(c.Context(), sc.SessionID, c.Params("id"), c.Params("evidenceId")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
