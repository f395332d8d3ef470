package workflow

import "github.com/arturoeanton/finsentsis/internal/domain"

// Widget is the interactive element a front end renders.
type Widget string

// Widgets.
const (
	WidgetNone         Widget = "none"
	WidgetUpload       Widget = "upload"
	WidgetJurisdiction Widget = "jurisdiction_picker"
	WidgetScanProgress Widget = "scan_progress"
	WidgetFindings     Widget = "findings"
	WidgetReport       Widget = "report"
)

// WidgetFor maps a message type to the widget rendered under the message.
func WidgetFor(t domain.MessageType) Widget {
	switch t {
	case domain.MessageUploadRequest:
		return WidgetUpload
	case domain.MessageJurisdictionSelection:
		return WidgetJurisdiction
	case domain.MessageScanProgress:
		return WidgetScanProgress
	case domain.MessageAnalysisResult:
		return WidgetFindings
	case domain.MessageReportDownload:
		return WidgetReport
	default:
		return WidgetNone
	}
}

// ActiveWidget is the widget that currently expects input (or, for Scanning,
// shows live progress).
func ActiveWidget(s Stage) Widget {
	switch s {
	case StageAwaitingUpload:
		return WidgetUpload
	case StageAwaitingJurisdiction:
		return WidgetJurisdiction
	case StageScanning:
		return WidgetScanProgress
	case StageResultsReady:
		return WidgetFindings
	default:
		return WidgetNone
	}
}
