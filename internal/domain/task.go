package domain

import "slices"

// TaskStatus is the kanban column of a task.
type TaskStatus string

// Task statuses in workflow order.
const (
	TaskToDo       TaskStatus = "To Do"
	TaskInProgress TaskStatus = "In Progress"
	TaskReview     TaskStatus = "Review"
	TaskDone       TaskStatus = "Done"
)

// TaskStatuses lists the statuses in board order.
var TaskStatuses = []TaskStatus{TaskToDo, TaskInProgress, TaskReview, TaskDone}

// EvidenceKind distinguishes uploaded files from links.
type EvidenceKind string

// Evidence kinds.
const (
	EvidenceFile EvidenceKind = "file"
	EvidenceLink EvidenceKind = "link"
)

// Evidence is a remediation artifact attached to a task.
type Evidence struct {
	ID      string       `json:"id"       yaml:"id"`
	Kind    EvidenceKind `json:"kind"     yaml:"kind"`
	Title   string       `json:"title"    yaml:"title"`
	URL     string       `json:"url"      yaml:"url"`
	AddedBy string       `json:"added_by" yaml:"added_by"`
	Date    string       `json:"date"     yaml:"date"`
}

// Task is a remediation work item.
type Task struct {
	ID           string     `json:"id"                      yaml:"id"`
	Title        string     `json:"title"                   yaml:"title"`
	Description  string     `json:"description,omitempty"   yaml:"description"`
	Assignee     string     `json:"assignee"                yaml:"assignee"`
	DueDate      string     `json:"due_date"                yaml:"due_date"`
	Status       TaskStatus `json:"status"                  yaml:"status"`
	Priority     RiskLevel  `json:"priority"                yaml:"priority"`
	RegulationID string     `json:"regulation_id,omitempty" yaml:"regulation_id"`
	RegionCode   string     `json:"region_code,omitempty"   yaml:"region_code"`
	Sector       string     `json:"sector,omitempty"        yaml:"sector"`
	Evidence     []Evidence `json:"evidence"                yaml:"evidence"`
}

// Open reports whether the task still needs work.
func (t *Task) Open() bool {
	return t.Status != TaskDone
}

// EvidenceIndex returns the position of the evidence with the given id, or -1.
func (t *Task) EvidenceIndex(id string) int {
	return slices.IndexFunc(t.Evidence, func(e Evidence) bool { return e.ID == id })
}

// Clone returns a copy of the task that shares no slices with the original.
func (t Task) Clone() Task {
	t.Evidence = slices.Clone(t.Evidence)
	if t.Evidence == nil {
		t.Evidence = []Evidence{}
	}
	return t
}

// CloneTasks deep-copies a task list.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
