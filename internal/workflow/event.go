package workflow

// EventKind tags the variants of Event.
type EventKind string

// Event kinds.
const (
	KindStartScenario       EventKind = "start_scenario"
	KindUploadFiles         EventKind = "upload_files"
	KindSelectJurisdictions EventKind = "select_jurisdictions"
	KindScanProgress        EventKind = "scan_progress"
	KindScanComplete        EventKind = "scan_complete"
	KindProceedToReport     EventKind = "proceed_to_report"
	KindUserMessage         EventKind = "user_message"
	KindAssistantReply      EventKind = "assistant_reply"
	KindReplyFailed         EventKind = "reply_failed"

	kindReportDelivered EventKind = "report_delivered"
)

// Event is a user action, timer callback or collaborator outcome applied to a State.
type Event interface {
	Kind() EventKind
}

// StartScenario begins the guided scan.
type StartScenario struct{}

// UploadFiles reports the names of the files submitted through the upload widget.
type UploadFiles struct {
	Files []string
}

// SelectJurisdictions confirms the jurisdiction picker.
type SelectJurisdictions struct {
	Jurisdictions []string
}

// ScanProgress is emitted by the scanner for each checkpoint of scan ScanID.
type ScanProgress struct {
	ScanID     int
	Checkpoint Checkpoint
}

// ScanComplete is emitted by the scanner once scan ScanID is finished.
type ScanComplete struct {
	ScanID int
}

// ProceedToReport asks for the final audit report.
type ProceedToReport struct{}

// UserMessage is a free-form question.
type UserMessage struct {
	Text string
}

// AssistantReply carries the collaborator's answer to the pending question.
type AssistantReply struct {
	Text string
}

// ReplyFailed clears the pending question without appending anything.
type ReplyFailed struct{}

func (StartScenario) Kind() EventKind       { return KindStartScenario }
func (UploadFiles) Kind() EventKind         { return KindUploadFiles }
func (SelectJurisdictions) Kind() EventKind { return KindSelectJurisdictions }
func (ScanProgress) Kind() EventKind        { return KindScanProgress }
func (ScanComplete) Kind() EventKind        { return KindScanComplete }
func (ProceedToReport) Kind() EventKind     { return KindProceedToReport }
func (UserMessage) Kind() EventKind         { return KindUserMessage }
func (AssistantReply) Kind() EventKind      { return KindAssistantReply }
func (ReplyFailed) Kind() EventKind         { return KindReplyFailed }
