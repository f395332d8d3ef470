package domain

import "time"

// Role identifies the author of a chat message.
type Role string

// Chat roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageType selects the interactive widget a message renders with.
type MessageType string

// Message types.
const (
	MessageText                  MessageType = "text"
	MessageUploadRequest         MessageType = "upload_request"
	MessageJurisdictionSelection MessageType = "jurisdiction_selection"
	MessageScanProgress          MessageType = "scan_progress"
	MessageAnalysisResult        MessageType = "analysis_result"
	MessageReportDownload        MessageType = "report_download"
)

// ChatMessage is one entry of the copilot transcript. Messages are never
// edited once appended.
type ChatMessage struct {
	ID        string       `json:"id"`
	Role      Role         `json:"role"`
	Content   string       `json:"content"`
	Timestamp time.Time    `json:"timestamp"`
	Citations []string     `json:"citations,omitempty"`
	Type      MessageType  `json:"type"`
	Findings  []Finding    `json:"findings,omitempty"`
	Report    *AuditReport `json:"report,omitempty"`
}

// Finding is a risk discovered by the guided compliance scan.
type Finding struct {
	Title        string    `json:"title"         yaml:"title"`
	Detail       string    `json:"detail"        yaml:"detail"`
	Severity     RiskLevel `json:"severity"      yaml:"severity"`
	RegulationID string    `json:"regulation_id" yaml:"regulation_id"`
	TaskID       string    `json:"task_id"       yaml:"task_id"`
}

// AuditReport describes the downloadable report produced at the end of a scan.
type AuditReport struct {
	FileName    string    `json:"file_name"`
	GeneratedAt time.Time `json:"generated_at"`
	Signature   string    `json:"signature"`
}
