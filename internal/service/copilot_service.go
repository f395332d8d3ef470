package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/arturoeanton/finsentsis/internal/adapter/catalog"
	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/port"
	"github.com/arturoeanton/finsentsis/internal/workflow"
)

// CopilotConfig tunes the copilot service.
type CopilotConfig struct {
	Scanner       workflow.ScannerConfig
	RatePerMinute int   // free-form questions per session per minute, 0 = unlimited
	MaxInflight   int64 // concurrent collaborator calls across sessions, 0 = 8
}

// CopilotService owns one transcript per session. Guided events, timer
// callbacks and collaborator replies are applied through the workflow
// reducer under the conversation's lock, so they interleave in completion
// order.
type CopilotService struct {
	engine        *workflow.Engine
	scanner       *workflow.Scanner
	provider      port.AIProvider
	sessions      port.SessionStore
	audit         *AuditService
	cfg           CopilotConfig
	jurisdictions []string
	inflight      *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	convs   map[string]*conversation
	closing bool // set by Shutdown; guards wg.Add
}

type conversation struct {
	mu         sync.Mutex
	state      workflow.State
	limiter    *rate.Limiter
	cancelScan context.CancelFunc
	subs       []chan workflow.State
}

// NewCopilotService creates a new copilot service.
func NewCopilotService(cat *catalog.Catalog, provider port.AIProvider, sessions port.SessionStore, audit *AuditService, clock port.Clock, cfg CopilotConfig) *CopilotService {
	if cfg.MaxInflight <= 0 {
		cfg.MaxInflight = 8
	}
	ctx, cancel := context.WithCancel(context.Background())
	script := workflow.Script{Jurisdictions: cat.Jurisdictions, Findings: cat.Findings}
	return &CopilotService{
		engine:        workflow.NewEngine(script, clock),
		scanner:       workflow.NewScanner(clock, cfg.Scanner),
		provider:      provider,
		sessions:      sessions,
		audit:         audit,
		cfg:           cfg,
		jurisdictions: slices.Clone(cat.Jurisdictions),
		inflight:      semaphore.NewWeighted(cfg.MaxInflight),
		ctx:           ctx,
		cancel:        cancel,
		convs:         make(map[string]*conversation),
	}
}

// ModelName returns the collaborator's model identifier.
func (s *CopilotService) ModelName() string {
	return s.provider.ModelName()
}

// Jurisdictions returns the selectable jurisdictions.
func (s *CopilotService) Jurisdictions() []string {
	return slices.Clone(s.jurisdictions)
}

// State returns the current transcript of a session.
func (s *CopilotService) State(ctx context.Context, sessionID string) (workflow.State, error) {
	conv, err := s.conversation(ctx, sessionID)
	if err != nil {
		return workflow.State{}, err
	}
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return conv.state, nil
}

// StartScenario begins the guided compliance scan.
func (s *CopilotService) StartScenario(ctx context.Context, sessionID string) (workflow.State, error) {
	return s.apply(ctx, sessionID, workflow.StartScenario{})
}

// Upload submits the names of the uploaded documents.
func (s *CopilotService) Upload(ctx context.Context, sessionID string, files []string) (workflow.State, error) {
	return s.apply(ctx, sessionID, workflow.UploadFiles{Files: files})
}

// SelectJurisdictions confirms the regulatory baseline and starts the scan.
func (s *CopilotService) SelectJurisdictions(ctx context.Context, sessionID string, jurisdictions []string) (workflow.State, error) {
	conv, err := s.conversation(ctx, sessionID)
	if err != nil {
		return workflow.State{}, err
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()
	next, err := s.engine.Apply(conv.state, workflow.SelectJurisdictions{Jurisdictions: jurisdictions})
	if err != nil {
		return conv.state, err
	}
	if !s.track() {
		return conv.state, port.ErrShuttingDown
	}
	s.commit(conv, next)
	s.startScan(sessionID, conv, next.Scan.ID)
	return next, nil
}

// ProceedToReport generates the audit report and enters assistant mode.
func (s *CopilotService) ProceedToReport(ctx context.Context, sessionID string) (workflow.State, error) {
	st, err := s.apply(ctx, sessionID, workflow.ProceedToReport{})
	if err != nil {
		return st, err
	}

	var report *domain.AuditReport
	for i := len(st.Messages) - 1; i >= 0 && report == nil; i-- {
		report = st.Messages[i].Report
	}
	user := sessionID
	if sess, err := s.sessions.Get(ctx, sessionID); err == nil {
		user = sess.User
	}
	recordAudit(ctx, s.audit, domain.AuditLog{
		User:       user,
		Action:     domain.AuditActionReport,
		Resource:   "report",
		ResourceID: sessionID,
		Details:    mustJSON(report),
	})
	return st, nil
}

// Ask submits a free-form question. The user message is appended and the
// collaborator is called in the background with a context that outlives the
// caller; the reply (or nothing, on failure) is appended when it arrives.
func (s *CopilotService) Ask(ctx context.Context, sessionID, text string) (workflow.State, error) {
	conv, err := s.conversation(ctx, sessionID)
	if err != nil {
		return workflow.State{}, err
	}

	conv.mu.Lock()
	next, err := s.engine.Apply(conv.state, workflow.UserMessage{Text: text})
	if err != nil {
		st := conv.state
		conv.mu.Unlock()
		return st, err
	}
	if conv.limiter != nil && !conv.limiter.Allow() {
		st := conv.state
		conv.mu.Unlock()
		return st, port.ErrRateLimited
	}
	if !s.track() {
		st := conv.state
		conv.mu.Unlock()
		return st, port.ErrShuttingDown
	}
	history := turns(conv.state.Messages)
	s.commit(conv, next)
	conv.mu.Unlock()

	go s.reply(context.WithoutCancel(ctx), sessionID, conv, text, history)
	return next, nil
}

func (s *CopilotService) reply(ctx context.Context, sessionID string, conv *conversation, text string, history []port.Turn) {
	defer s.wg.Done()

	var ev workflow.Event = workflow.ReplyFailed{}
	if err := s.inflight.Acquire(ctx, 1); err != nil {
		slog.Error("copilot reply failed", "session_id", sessionID, "error", err)
	} else {
		answer, err := s.provider.Chat(ctx, text, history)
		s.inflight.Release(1)
		if err != nil {
			slog.Error("copilot reply failed", "session_id", sessionID, "model", s.provider.ModelName(), "error", err)
		} else {
			ev = workflow.AssistantReply{Text: answer}
		}
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()
	next, err := s.engine.Apply(conv.state, ev)
	if err != nil {
		slog.Warn("copilot reply dropped", "session_id", sessionID, "error", err)
		return
	}
	s.commit(conv, next)
}

// startScan runs the scanner for scan scanID. Callers hold conv.mu.
// startScan runs the scanner for scanID. The caller must have reserved a
// slot with track.
func (s *CopilotService) startScan(sessionID string, conv *conversation, scanID int) {
	if conv.cancelScan != nil {
		conv.cancelScan()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	conv.cancelScan = cancel

	go func() {
		defer s.wg.Done()
		defer cancel()
		err := s.scanner.Run(ctx,
			func(cp workflow.Checkpoint) {
				s.applyScan(sessionID, conv, workflow.ScanProgress{ScanID: scanID, Checkpoint: cp})
			},
			func() {
				s.applyScan(sessionID, conv, workflow.ScanComplete{ScanID: scanID})
			},
		)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("scan failed", "session_id", sessionID, "scan_id", scanID, "error", err)
		}
	}()
	slog.Info("scan started", "session_id", sessionID, "scan_id", scanID)
}

func (s *CopilotService) applyScan(sessionID string, conv *conversation, ev workflow.Event) {
	conv.mu.Lock()
	defer conv.mu.Unlock()
	next, err := s.engine.Apply(conv.state, ev)
	if err != nil {
		slog.Debug("scan event ignored", "session_id", sessionID, "event", ev.Kind(), "error", err)
		return
	}
	s.commit(conv, next)
}

// Subscribe returns the session's current state and a channel receiving
// every later one; both are taken under the same lock so no commit falls
// between them. Slow subscribers miss intermediate states but always
// receive the latest.
func (s *CopilotService) Subscribe(ctx context.Context, sessionID string) (workflow.State, <-chan workflow.State, func(), error) {
	conv, err := s.conversation(ctx, sessionID)
	if err != nil {
		return workflow.State{}, nil, nil, err
	}
	ch := make(chan workflow.State, 10)
	conv.mu.Lock()
	current := conv.state
	conv.subs = append(conv.subs, ch)
	conv.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			conv.mu.Lock()
			defer conv.mu.Unlock()
			for i, c := range conv.subs {
				if c == ch {
					conv.subs = append(conv.subs[:i], conv.subs[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
	return current, ch, unsubscribe, nil
}

// Shutdown cancels running scans and waits for background work until ctx is done.
// Calls made after Shutdown that would start background work fail with
// ErrShuttingDown.
func (s *CopilotService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("copilot shutdown: %w", ctx.Err())
	}
}

func (s *CopilotService) apply(ctx context.Context, sessionID string, ev workflow.Event) (workflow.State, error) {
	conv, err := s.conversation(ctx, sessionID)
	if err != nil {
		return workflow.State{}, err
	}
	conv.mu.Lock()
	defer conv.mu.Unlock()
	next, err := s.engine.Apply(conv.state, ev)
	if err != nil {
		return conv.state, err
	}
	s.commit(conv, next)
	return next, nil
}

// commit stores next and notifies subscribers. Callers hold conv.mu.
func (s *CopilotService) commit(conv *conversation, next workflow.State) {
	conv.state = next
	for _, ch := range conv.subs {
		select {
		case ch <- next:
		default:
			// full: drop the oldest pending state to make room
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next:
			default:
			}
		}
	}
}

// track reserves a background goroutine slot unless Shutdown has begun.
func (s *CopilotService) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.wg.Add(1)
	return true
}

// conversation returns the session's conversation, creating it on first use.
func (s *CopilotService) conversation(ctx context.Context, sessionID string) (*conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.convs[sessionID]; ok {
		return conv, nil
	}
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	conv := &conversation{state: s.engine.Start()}
	if s.cfg.RatePerMinute > 0 {
		conv.limiter = rate.NewLimiter(rate.Limit(float64(s.cfg.RatePerMinute)/60), s.cfg.RatePerMinute)
	}
	s.convs[sessionID] = conv
	return conv, nil
}

// turns maps a transcript to the collaborator's history format.
func turns(msgs []domain.ChatMessage) []port.Turn {
	out := make([]port.Turn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, port.Turn{Role: string(m.Role), Content: m.Content})
	}
	return out
}
