// Package workflow implements the copilot's guided compliance scan as an
// explicit state machine: a pure reducer over transcript snapshots, a
// transition table, and a clock-driven scanner for the one autonomous step.
package workflow

// Stage is the position of a transcript in the guided scenario.
type Stage string

// Stages of the guided scenario. Assistant is the open-ended mode reached
// after the report; it accepts the same events as Idle.
const (
	StageIdle                 Stage = "idle"
	StageAwaitingUpload       Stage = "awaiting_upload"
	StageAwaitingJurisdiction Stage = "awaiting_jurisdiction"
	StageScanning             Stage = "scanning"
	StageResultsReady         Stage = "results_ready"
	StageReportReady          Stage = "report_ready"
	StageAssistant            Stage = "assistant"
)

// transitions maps (stage, event kind) to the next stage. Reply events are
// stage-independent and handled separately.
var transitions = map[Stage]map[EventKind]Stage{
	StageIdle: {
		KindStartScenario: StageAwaitingUpload,
		KindUserMessage:   StageIdle,
	},
	StageAwaitingUpload: {
		KindUploadFiles: StageAwaitingJurisdiction,
	},
	StageAwaitingJurisdiction: {
		KindSelectJurisdictions: StageScanning,
	},
	StageScanning: {
		KindScanProgress: StageScanning,
		KindScanComplete: StageResultsReady,
	},
	StageResultsReady: {
		KindProceedToReport: StageReportReady,
	},
	StageReportReady: {
		kindReportDelivered: StageAssistant,
	},
	StageAssistant: {
		KindStartScenario: StageAwaitingUpload,
		KindUserMessage:   StageAssistant,
	},
}

// Next returns the stage reached from s on an event of kind k.
func Next(s Stage, k EventKind) (Stage, bool) {
	next, ok := transitions[s][k]
	return next, ok
}

// AcceptsFreeForm reports whether users may type questions in stage s.
func (s Stage) AcceptsFreeForm() bool {
	_, ok := Next(s, KindUserMessage)
	return ok
}
