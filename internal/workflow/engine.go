package workflow

import (
	"fmt"
	"slices"
	"strings"

	"github.com/arturoeanton/finsentsis/internal/anchor"
	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/port"
	"github.com/google/uuid"
)

// Scripted transcript lines.
const (
	GreetingText = "Hello. I am the Finsentsis Autonomous Copilot.\n\n" +
		"I can assist with real-time Q&A, or you can activate the **Autonomous Compliance Scan** " +
		"to ingest documents, detect risks, and generate audit-ready workflows."

	startRequestText = "Run a full autonomous compliance scan."
	uploadPromptText = "Initializing Finsentsis OS Workflow.\n" +
		"Please upload your relevant policy documents, contracts, or prior filings to begin the ingestion process."
	jurisdictionPromptText = "Documents ingested and parsed successfully. \n\n" +
		"Now, please select the jurisdictions you operate in to configure the regulatory baseline."
	scanStartText = "Configuration confirmed. Initiating AI Regulation Scan & Gap Detection..."
	resultsText   = "Scan Complete. \n\n" +
		"I have detected critical gaps in your documentation against the EU AI Act and India DPDP Act. " +
		"Automated tasks have been generated."
	reportRequestText = "Generate final audit report."
	reportReadyText   = "Compiling evidence... Report generated successfully."
	assistantModeText = "The workflow is complete. I am now in **24/7 Assistant Mode**. " +
		"You can ask me specific questions about these findings or any other regulatory topic."

	// FallbackReplyText replaces an empty collaborator reply.
	FallbackReplyText = "I apologize, but I couldn't process that request."

	// ReportFileName is the name of the generated audit report.
	ReportFileName = "Compliance_Audit_Report_2024.pdf"

	initialScanCaption = "Initializing scan..."
)

// legalActMarker triggers citation labels on a reply.
const legalActMarker = "Act"

// DefaultCitations are attached to replies that mention a legal act.
var DefaultCitations = []string{"Official Gazette", "Regulation Art. 5"}

// Script is the fixed content of the guided scenario.
type Script struct {
	Jurisdictions []string
	Findings      []domain.Finding
}

// ScanState is the progress of the scan currently associated with a transcript.
// ID increases with every scan start.
type ScanState struct {
	ID      int    `json:"id"`
	Percent int    `json:"percent"`
	Caption string `json:"caption"`
}

// State is an immutable snapshot of a copilot transcript. Apply never
// modifies the snapshot it receives.
type State struct {
	Stage    Stage                `json:"stage"`
	Messages []domain.ChatMessage `json:"messages"`
	Pending  bool                 `json:"pending"`
	Scan     ScanState            `json:"scan"`
}

// Engine applies events to states.
type Engine struct {
	script Script
	clock  port.Clock
	newID  func() string
}

// NewEngine creates an engine for the given script.
func NewEngine(script Script, clock port.Clock) *Engine {
	return &Engine{script: script, clock: clock, newID: uuid.NewString}
}

// Start returns the initial state: Idle with the assistant greeting.
func (e *Engine) Start() State {
	return State{
		Stage:    StageIdle,
		Messages: []domain.ChatMessage{e.message(domain.RoleAssistant, GreetingText, domain.MessageText)},
	}
}

// Apply returns the state reached from s on ev. On error s is returned
// unchanged.
func (e *Engine) Apply(s State, ev Event) (State, error) {
	switch ev := ev.(type) {
	case AssistantReply:
		return e.reply(s, ev)
	case ReplyFailed:
		if !s.Pending {
			return s, fmt.Errorf("reply without pending request: %w", port.ErrInvalidTransition)
		}
		s.Pending = false
		return s, nil
	case ScanProgress:
		return e.scanProgress(s, ev)
	case ScanComplete:
		return e.scanComplete(s, ev)
	case UserMessage:
		return e.userMessage(s, ev)
	}

	next, ok := Next(s.Stage, ev.Kind())
	if !ok {
		return s, fmt.Errorf("%s in stage %s: %w", ev.Kind(), s.Stage, port.ErrInvalidTransition)
	}

	switch ev := ev.(type) {
	case StartScenario:
		return e.with(s, next,
			e.message(domain.RoleUser, startRequestText, domain.MessageText),
			e.message(domain.RoleAssistant, uploadPromptText, domain.MessageUploadRequest),
		), nil

	case UploadFiles:
		if len(ev.Files) == 0 {
			return s, port.ErrNoFiles
		}
		summary := fmt.Sprintf("Uploaded %d documents: %s", len(ev.Files), strings.Join(ev.Files, ", "))
		return e.with(s, next,
			e.message(domain.RoleUser, summary, domain.MessageText),
			e.message(domain.RoleAssistant, jurisdictionPromptText, domain.MessageJurisdictionSelection),
		), nil

	case SelectJurisdictions:
		selected, err := e.validJurisdictions(ev.Jurisdictions)
		if err != nil {
			return s, err
		}
		out := e.with(s, next,
			e.message(domain.RoleUser, "Selected jurisdictions: "+strings.Join(selected, ", "), domain.MessageText),
			e.message(domain.RoleAssistant, scanStartText, domain.MessageScanProgress),
		)
		out.Scan = ScanState{ID: s.Scan.ID + 1, Caption: initialScanCaption}
		return out, nil

	case ProceedToReport:
		report, err := e.report()
		if err != nil {
			return s, fmt.Errorf("build report: %w", err)
		}
		delivered := e.message(domain.RoleAssistant, reportReadyText, domain.MessageReportDownload)
		delivered.Report = report
		out := e.with(s, next, e.message(domain.RoleUser, reportRequestText, domain.MessageText), delivered)

		// The report stage hands over to assistant mode without waiting for the user.
		final, _ := Next(out.Stage, kindReportDelivered)
		return e.with(out, final, e.message(domain.RoleAssistant, assistantModeText, domain.MessageText)), nil
	}

	return s, fmt.Errorf("unhandled event %s: %w", ev.Kind(), port.ErrInvalidTransition)
}

func (e *Engine) userMessage(s State, ev UserMessage) (State, error) {
	if strings.TrimSpace(ev.Text) == "" {
		return s, port.ErrEmptyMessage
	}
	if s.Pending {
		return s, port.ErrRequestPending
	}
	if !s.Stage.AcceptsFreeForm() {
		return s, fmt.Errorf("question in stage %s: %w", s.Stage, port.ErrInvalidTransition)
	}
	out := e.with(s, s.Stage, e.message(domain.RoleUser, ev.Text, domain.MessageText))
	out.Pending = true
	return out, nil
}

func (e *Engine) reply(s State, ev AssistantReply) (State, error) {
	if !s.Pending {
		return s, fmt.Errorf("reply without pending request: %w", port.ErrInvalidTransition)
	}
	text := ev.Text
	if text == "" {
		text = FallbackReplyText
	}
	msg := e.message(domain.RoleAssistant, text, domain.MessageText)
	if strings.Contains(text, legalActMarker) {
		msg.Citations = slices.Clone(DefaultCitations)
	}
	out := e.with(s, s.Stage, msg)
	out.Pending = false
	return out, nil
}

func (e *Engine) scanProgress(s State, ev ScanProgress) (State, error) {
	if s.Stage != StageScanning || ev.ScanID != s.Scan.ID {
		return s, port.ErrStaleScan
	}
	if ev.Checkpoint.Percent < s.Scan.Percent {
		return s, fmt.Errorf("progress went backwards: %w", port.ErrInvalidTransition)
	}
	s.Scan.Percent = ev.Checkpoint.Percent
	s.Scan.Caption = ev.Checkpoint.Caption
	return s, nil
}

func (e *Engine) scanComplete(s State, ev ScanComplete) (State, error) {
	if s.Stage != StageScanning || ev.ScanID != s.Scan.ID {
		return s, port.ErrStaleScan
	}
	if s.Scan.Percent < 100 {
		return s, fmt.Errorf("scan at %d%%: %w", s.Scan.Percent, port.ErrInvalidTransition)
	}
	next, _ := Next(s.Stage, KindScanComplete)
	msg := e.message(domain.RoleAssistant, resultsText, domain.MessageAnalysisResult)
	msg.Findings = slices.Clone(e.script.Findings)
	return e.with(s, next, msg), nil
}

func (e *Engine) validJurisdictions(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, port.ErrNoJurisdictions
	}
	selected := make([]string, 0, len(requested))
	for _, j := range requested {
		if !slices.Contains(e.script.Jurisdictions, j) {
			return nil, fmt.Errorf("%q: %w", j, port.ErrUnknownJurisdiction)
		}
		if !slices.Contains(selected, j) {
			selected = append(selected, j)
		}
	}
	return selected, nil
}

func (e *Engine) report() (*domain.AuditReport, error) {
	sig, err := anchor.Digest(e.script.Findings)
	if err != nil {
		return nil, err
	}
	return &domain.AuditReport{
		FileName:    ReportFileName,
		GeneratedAt: e.clock.Now(),
		Signature:   anchor.Short(sig),
	}, nil
}

// with returns a copy of s in stage next with msgs appended. The clipped
// slice forces a fresh backing array so earlier snapshots stay intact.
func (e *Engine) with(s State, next Stage, msgs ...domain.ChatMessage) State {
	s.Stage = next
	s.Messages = append(slices.Clip(s.Messages), msgs...)
	return s
}

func (e *Engine) message(role domain.Role, content string, t domain.MessageType) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        e.newID(),
		Role:      role,
		Content:   content,
		Timestamp: e.clock.Now(),
		Type:      t,
	}
}

// Last returns the most recent message of the transcript.
func (s State) Last() domain.ChatMessage {
	if len(s.Messages) == 0 {
		return domain.ChatMessage{}
	}
	return s.Messages[len(s.Messages)-1]
}

