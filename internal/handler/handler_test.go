package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/finsentsis/internal/adapter/ai"
	"github.com/arturoeanton/finsentsis/internal/adapter/catalog"
	"github.com/arturoeanton/finsentsis/internal/adapter/store"
	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/middleware"
	"github.com/arturoeanton/finsentsis/internal/port"
	"github.com/arturoeanton/finsentsis/internal/service"
	"github.com/arturoeanton/finsentsis/internal/workflow"
	"github.com/arturoeanton/finsentsis/internal/workflow/workflowtest"
)

var testJWT = middleware.JWTConfig{Secret: "handler-secret", Issuer: "finsentsis-test", ExpiresIn: time.Hour}

type testApp struct {
	app     *fiber.App
	audit   *store.MemoryAuditStore
	clock   *workflowtest.FakeClock
	copilot *service.CopilotService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)

	clock := workflowtest.NewFakeClock(time.Date(2024, 5, 24, 9, 0, 0, 0, time.UTC))
	sessions := store.NewMemorySessionStore()
	auditStore := store.NewMemoryAuditStore()
	auditSvc := service.NewAuditService(auditStore, cat.AuditLogs, clock)
	copilot := service.NewCopilotService(cat, ai.CannedProvider{}, sessions, auditSvc, clock, service.CopilotConfig{})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = copilot.Shutdown(ctx)
	})

	app := fiber.New()
	app.Use(middleware.AuditMiddleware(auditSvc))
	Mount(app, Handlers{
		Auth:       NewAuthHandler(service.NewSessionService(sessions, cat, auditSvc, testJWT, clock)),
		Compliance: NewComplianceHandler(service.NewComplianceService(sessions, cat)),
		Tasks:      NewTaskHandler(service.NewTaskService(sessions, auditSvc, clock)),
		Audit:      NewAuditHandler(auditSvc),
		Copilot:    NewCopilotHandler(copilot),
	}, middleware.JWTMiddleware(testJWT), "Finsentsis")

	return &testApp{app: app, audit: auditStore, clock: clock, copilot: copilot}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (a *testApp) login(t *testing.T) string {
	t.Helper()
	status, body := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "alex@acme.com", "password": "pw"})
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthAndAuth(t *testing.T) {
	a := newTestApp(t)

	status, body := a.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	status, _ = a.do(t, http.MethodGet, "/api/v1/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(t, http.MethodGet, "/api/v1/dashboard", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "a@b.c"})
	assert.Equal(t, http.StatusUnauthorized, status)

	token := a.login(t)
	status, body = a.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(domain.AuthOnboarding), body["state"])
}

func TestOnboardingAndDashboard(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t)

	status, _ := a.do(t, http.MethodPost, "/api/v1/onboarding", token, map[string]any{"company_name": "Acme", "regions": []string{}, "sector": "finance"})
	assert.Equal(t, http.StatusBadRequest, status)

	profile := map[string]any{"company_name": "Acme Bank", "employees": "51-200", "regions": []string{"eu"}, "sector": "finance"}
	status, body := a.do(t, http.MethodPost, "/api/v1/onboarding", token, profile)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(domain.AuthAuthenticated), body["state"])

	status, _ = a.do(t, http.MethodPost, "/api/v1/onboarding", token, profile)
	assert.Equal(t, http.StatusConflict, status)

	status, body = a.do(t, http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, status)
	metrics := body["metrics"].(map[string]any)
	assert.Equal(t, 3_750_000.0, metrics["estimated_penalty"])
	assert.Equal(t, 2.0, body["regulations"])

	status, body = a.do(t, http.MethodGet, "/api/v1/regulations?q=csrd", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["count"])

	status, _ = a.do(t, http.MethodGet, "/api/v1/regulations/REG-004", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = a.do(t, http.MethodGet, "/api/v1/policies", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3.0, body["count"])
}

func TestEvidenceEndpoints(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t)

	status, body := a.do(t, http.MethodGet, "/api/v1/tasks", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["columns"], 4)

	status, _ = a.do(t, http.MethodPost, "/api/v1/tasks/TSK-102/evidence", token, map[string]string{"kind": "link", "title": "DPIA"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.do(t, http.MethodPost, "/api/v1/tasks/TSK-102/evidence", token, map[string]string{"kind": "link", "title": "DPIA", "url": "https://docs/dpia"})
	require.Equal(t, http.StatusCreated, status)
	evID := body["id"].(string)
	assert.Equal(t, "alex@acme.com", body["added_by"])

	status, _ = a.do(t, http.MethodDelete, "/api/v1/tasks/TSK-102/evidence/"+evID, token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = a.do(t, http.MethodDelete, "/api/v1/tasks/TSK-102/evidence/"+evID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = a.do(t, http.MethodGet, "/api/v1/tasks/TSK-999", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCopilotEndpoints(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t)

	status, body := a.do(t, http.MethodGet, "/api/v1/copilot", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(workflow.StageIdle), body["stage"])
	assert.Equal(t, "canned", body["model"])

	status, _ = a.do(t, http.MethodPost, "/api/v1/copilot/upload", token, map[string]any{"files": []string{"a.pdf"}})
	assert.Equal(t, http.StatusConflict, status, "upload before the scenario starts")

	status, body = a.do(t, http.MethodPost, "/api/v1/copilot/scenario", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(workflow.WidgetUpload), body["widget"])

	status, body = a.do(t, http.MethodPost, "/api/v1/copilot/upload", token, map[string]any{"files": []string{}})
	assert.Equal(t, http.StatusBadRequest, status)
	state := body["state"].(map[string]any)
	assert.Equal(t, string(workflow.StageAwaitingUpload), state["stage"])

	status, body = a.do(t, http.MethodPost, "/api/v1/copilot/upload", token, map[string]any{"files": []string{"Employee_Handbook_2024.pdf"}})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["jurisdictions"], 5)

	status, _ = a.do(t, http.MethodPost, "/api/v1/copilot/jurisdictions", token, map[string]any{"jurisdictions": []string{"Mars"}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = a.do(t, http.MethodPost, "/api/v1/copilot/jurisdictions", token, map[string]any{"jurisdictions": []string{"India (DPDP)"}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(workflow.StageScanning), body["stage"])

	status, _ = a.do(t, http.MethodPost, "/api/v1/copilot/messages", token, map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusConflict, status, "questions wait until the scenario is over")
}

func TestCopilotAsk(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t)

	status, _ := a.do(t, http.MethodPost, "/api/v1/copilot/messages", token, map[string]string{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := a.do(t, http.MethodPost, "/api/v1/copilot/messages", token, map[string]string{"message": "What is DPDP?"})
	require.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, true, body["pending"])

	assert.Eventually(t, func() bool {
		_, body := a.do(t, http.MethodGet, "/api/v1/copilot", token, nil)
		return body["pending"] == false
	}, 2*time.Second, 10*time.Millisecond)

	_, body = a.do(t, http.MethodGet, "/api/v1/copilot", token, nil)
	msgs := body["messages"].([]any)
	last := msgs[len(msgs)-1].(map[string]any)
	assert.Equal(t, ai.CannedReplyText, last["content"])
}

func TestScanStream_OutsideScanSendsStateOnce(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/copilot/scan/stream?token="+token, nil)
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "event: complete\ndata: {"), string(raw))
	assert.Contains(t, string(raw), `"stage":"idle"`)
}

func TestScanStream_EndsWithCompletion(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t)

	a.do(t, http.MethodPost, "/api/v1/copilot/scenario", token, nil)
	a.do(t, http.MethodPost, "/api/v1/copilot/upload", token, map[string]any{"files": []string{"a.pdf"}})
	status, _ := a.do(t, http.MethodPost, "/api/v1/copilot/jurisdictions", token, map[string]any{"jurisdictions": []string{"India (DPDP)"}})
	require.Equal(t, http.StatusOK, status)

	// Drive the scan while the stream is open. Whether the stream attaches
	// before or after the last checkpoint it must finish with a completion.
	go func() {
		for range len(workflow.DefaultCheckpoints) + 1 {
			tm, ok := a.clock.Next(2 * time.Second)
			if !ok {
				return
			}
			a.clock.Fire(tm)
		}
	}()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/copilot/scan/stream?token="+token, nil)
	resp, err := a.app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	body := string(raw)
	assert.Contains(t, body, "event: complete\n")
	assert.Contains(t, body, `"stage":"results_ready"`)
}

func TestAuditEndpoints(t *testing.T) {
	a := newTestApp(t)
	token := a.login(t)

	assert.Eventually(t, func() bool {
		logs, _ := a.audit.List(context.Background(), 0, domain.AuditActionHTTPRequest)
		return len(logs) == 1
	}, 2*time.Second, 10*time.Millisecond, "the login request is recorded")

	status, body := a.do(t, http.MethodGet, "/api/v1/audit/logs?action=login", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["count"])

	status, body = a.do(t, http.MethodGet, "/api/v1/audit/verify", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["intact"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.EOF))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(fmt.Errorf("ask: %w", port.ErrShuttingDown)))
	assert.Equal(t, http.StatusTooManyRequests, statusFor(port.ErrRateLimited))
}
