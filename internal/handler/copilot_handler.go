package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/finsentsis/internal/middleware"
	"github.com/arturoeanton/finsentsis/internal/service"
	"github.com/arturoeanton/finsentsis/internal/workflow"
)

// streamTimeout bounds a single scan stream.
const streamTimeout = 5 * time.Minute

// CopilotHandler exposes the copilot transcript and its guided scenario.
type CopilotHandler struct {
	copilot *service.CopilotService
}

// NewCopilotHandler creates a new copilot handler.
func NewCopilotHandler(copilot *service.CopilotService) *CopilotHandler {
	return &CopilotHandler{copilot: copilot}
}

// Register sets up copilot routes.
func (h *CopilotHandler) Register(router fiber.Router) {
	copilot := router.Group("/copilot")
	copilot.Get("/", h.GetState)
	copilot.Post("/scenario", h.StartScenario)
	copilot.Post("/upload", h.Upload)
	copilot.Post("/jurisdictions", h.SelectJurisdictions)
	copilot.Post("/report", h.Report)
	copilot.Post("/messages", h.Ask)
	copilot.Get("/scan/stream", h.StreamSSE)
}

// stateView is a transcript plus the widget the client should render.
type stateView struct {
	workflow.State
	Widget        workflow.Widget `json:"widget"`
	Jurisdictions []string        `json:"jurisdictions,omitempty"`
	Model         string          `json:"model"`
}

func (h *CopilotHandler) view(st workflow.State) stateView {
	v := stateView{State: st, Widget: workflow.ActiveWidget(st.Stage), Model: h.copilot.ModelName()}
	if st.Stage == workflow.StageAwaitingJurisdiction {
		v.Jurisdictions = h.copilot.Jurisdictions()
	}
	return v
}

// respond writes the state, or the error along with the unchanged state.
func (h *CopilotHandler) respond(c fiber.Ctx, st workflow.State, err error) error {
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{
			"error": err.Error(),
			"state": h.view(st),
		})
	}
	return c.JSON(h.view(st))
}

// GetState returns the session's transcript.
func (h *CopilotHandler) GetState(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}
	st, err := h.copilot.State(c.Context(), sc.SessionID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(h.view(st))
}

// StartScenario begins the guided scan.
func (h *CopilotHandler) StartScenario(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}
	st, err := h.copilot.StartScenario(c.Context(), sc.SessionID)
	return h.respond(c, st, err)
}

// Upload accepts either a multipart form with "files" or {"files": [names]}.
// Only the file names are used.
func (h *CopilotHandler) Upload(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}

	var files []string
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return badRequest(c)
		}
		for _, fh := range form.File["files"] {
			files = append(files, fh.Filename)
		}
	} else {
		var body struct {
			Files []string `json:"files"`
		}
		if err := c.Bind().JSON(&body); err != nil {
			return badRequest(c)
		}
		files = body.Files
	}

	st, err := h.copilot.Upload(c.Context(), sc.SessionID, files)
	return h.respond(c, st, err)
}

// SelectJurisdictions confirms the jurisdictions and starts the scan.
func (h *CopilotHandler) SelectJurisdictions(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}
	var body struct {
		Jurisdictions []string `json:"jurisdictions"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c)
	}
	st, err := h.copilot.SelectJurisdictions(c.Context(), sc.SessionID, body.Jurisdictions)
	return h.respond(c, st, err)
}

// Report generates the audit report.
func (h *CopilotHandler) Report(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}
	st, err := h.copilot.ProceedToReport(c.Context(), sc.SessionID)
	return h.respond(c, st, err)
}

// Ask submits a free-form question. The reply arrives asynchronously.
func (h *CopilotHandler) Ask(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c)
	}
	st, err := h.copilot.Ask(c.Context(), sc.SessionID, body.Message)
	if err != nil {
		return h.respond(c, st, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(h.view(st))
}

// StreamSSE streams transcript updates while a scan is running via
// Server-Sent Events. Outside a scan it sends the current state once.
func (h *CopilotHandler) StreamSSE(c fiber.Ctx) error {
	sc := middleware.GetSessionContext(c)
	if sc == nil {
		return unauthorized(c)
	}
	sessionID := sc.SessionID

	// Subscribe before deciding: the snapshot and the subscription are taken
	// atomically, so a completion can never slip in between.
	st, ch, unsubscribe, err := h.copilot.Subscribe(c.Context(), sessionID)
	if err != nil {
		return fail(c, err)
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	if st.Stage != workflow.StageScanning {
		unsubscribe()
		data, _ := json.Marshal(h.view(st))
		return c.SendString(fmt.Sprintf("event: %s\ndata: %s\n\n", eventName(st), string(data)))
	}

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		data, _ := json.Marshal(h.view(st))
		fmt.Fprintf(w, "event: progress\ndata: %s\n\n", string(data))
		if err := w.Flush(); err != nil {
			return
		}

		timeout := time.After(streamTimeout)
		for {
			select {
			case update, ok := <-ch:
				if !ok {
					return
				}
				data, _ := json.Marshal(h.view(update))
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventName(update), string(data))
				if err := w.Flush(); err != nil {
					return
				}
				if update.Stage != workflow.StageScanning {
					return
				}
			case <-timeout:
				slog.Warn("SSE timeout", "session_id", sessionID)
				return
			}
		}
	})
}

func eventName(st workflow.State) string {
	if st.Stage == workflow.StageScanning {
		return "progress"
	}
	return "complete"
}
