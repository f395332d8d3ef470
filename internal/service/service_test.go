package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/arturoeanton/finsentsis/internal/adapter/catalog"
	"github.com/arturoeanton/finsentsis/internal/adapter/store"
	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/middleware"
	"github.com/arturoeanton/finsentsis/internal/port"
	"github.com/arturoeanton/finsentsis/internal/workflow/workflowtest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testJWT = middleware.JWTConfig{Secret: "test-secret", Issuer: "finsentsis-test", ExpiresIn: time.Hour}

type testEnv struct {
	catalog  *catalog.Catalog
	clock    *workflowtest.FakeClock
	sessions *store.MemorySessionStore
	auditLog *store.MemoryAuditStore
	audit    *AuditService
	session  *SessionService
	comp     *ComplianceService
	tasks    *TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)

	env := &testEnv{
		catalog:  cat,
		clock:    workflowtest.NewFakeClock(time.Date(2024, 5, 24, 9, 30, 0, 0, time.UTC)),
		sessions: store.NewMemorySessionStore(),
		auditLog: store.NewMemoryAuditStore(),
	}
	env.audit = NewAuditService(env.auditLog, cat.AuditLogs, env.clock)
	env.session = NewSessionService(env.sessions, cat, env.audit, testJWT, env.clock)
	env.comp = NewComplianceService(env.sessions, cat)
	env.tasks = NewTaskService(env.sessions, env.audit, env.clock)
	return env
}

// login opens a session and optionally onboards it.
func (e *testEnv) login(t *testing.T, profile *domain.UserProfile) string {
	t.Helper()
	_, sess, err := e.session.Login(context.Background(), "alex@acme.com", "pw")
	require.NoError(t, err)
	if profile != nil {
		_, err = e.session.Onboard(context.Background(), sess.ID, *profile)
		require.NoError(t, err)
	}
	return sess.ID
}

var financeEU = &domain.UserProfile{CompanyName: "Acme Bank", Employees: "201-1000", Regions: []string{"eu"}, Sector: "finance"}

// stubProvider is a scripted collaborator. When gate is set each call waits
// for a value on it before answering.
type stubProvider struct {
	mu    sync.Mutex
	reply string
	err   error
	gate  chan struct{}
	calls []stubCall
}

type stubCall struct {
	message string
	history []port.Turn
}

func (p *stubProvider) ModelName() string { return "stub" }

func (p *stubProvider) Chat(ctx context.Context, message string, history []port.Turn) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, stubCall{message: message, history: history})
	gate := p.gate
	p.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reply, p.err
}

func (p *stubProvider) Calls() []stubCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]stubCall(nil), p.calls...)
}
