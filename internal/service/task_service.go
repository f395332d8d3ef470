package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/arturoeanton/finsentsis/internal/compliance"
	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/port"
)

// Column is one kanban lane.
type Column struct {
	Status domain.TaskStatus `json:"status"`
	Tasks  []domain.Task     `json:"tasks"`
}

// EvidenceInput is an evidence submission.
type EvidenceInput struct {
	Kind  domain.EvidenceKind `json:"kind"`
	Title string              `json:"title"`
	URL   string              `json:"url"`
}

// TaskService manages the per-session remediation board.
type TaskService struct {
	sessions   port.SessionStore
	audit      *AuditService
	clock      port.Clock
	fileNumber func() int
}

// NewTaskService creates a new task service.
func NewTaskService(sessions port.SessionStore, audit *AuditService, clock port.Clock) *TaskService {
	return &TaskService{
		sessions:   sessions,
		audit:      audit,
		clock:      clock,
		fileNumber: func() int { return rand.IntN(1000) },
	}
}

// Board returns the session's profile-relevant tasks grouped by status.
func (s *TaskService) Board(ctx context.Context, sessionID string) ([]Column, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := compliance.Filter(sess.Profile, nil, sess.Tasks)
	return GroupByStatus(view.Tasks), nil
}

// GroupByStatus groups tasks into the four board columns in workflow order.
// Tasks keep their relative order inside a column.
func GroupByStatus(tasks []domain.Task) []Column {
	cols := make([]Column, len(domain.TaskStatuses))
	for i, st := range domain.TaskStatuses {
		cols[i] = Column{Status: st, Tasks: []domain.Task{}}
	}
	for _, t := range tasks {
		if i := slices.Index(domain.TaskStatuses, t.Status); i >= 0 {
			cols[i].Tasks = append(cols[i].Tasks, t)
		}
	}
	return cols
}

// Task returns one profile-relevant task of the session.
func (s *TaskService) Task(ctx context.Context, sessionID, taskID string) (domain.Task, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Task{}, err
	}
	i := taskIndex(sess, taskID)
	if i < 0 {
		return domain.Task{}, fmt.Errorf("task %s: %w", taskID, port.ErrTaskNotFound)
	}
	return sess.Tasks[i], nil
}

// AddEvidence attaches evidence to a task. Links need a title and a URL;
// files without a title get a generated name.
func (s *TaskService) AddEvidence(ctx context.Context, sessionID, taskID string, in EvidenceInput) (domain.Evidence, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)

	ev := domain.Evidence{
		ID:   "EV-" + uuid.NewString(),
		Kind: in.Kind,
		Date: s.clock.Now().Format("2006-01-02"),
	}
	switch in.Kind {
	case domain.EvidenceLink:
		if in.Title == "" || in.URL == "" {
			return domain.Evidence{}, fmt.Errorf("link evidence needs a title and a url: %w", port.ErrInvalidEvidence)
		}
		ev.Title, ev.URL = in.Title, in.URL
	case domain.EvidenceFile:
		ev.Title = in.Title
		if ev.Title == "" {
			ev.Title = fmt.Sprintf("Uploaded_Evidence_%d.pdf", s.fileNumber())
		}
		ev.URL = "#"
	default:
		return domain.Evidence{}, fmt.Errorf("unknown evidence kind %q: %w", in.Kind, port.ErrInvalidEvidence)
	}

	sess, err := s.sessions.Modify(ctx, sessionID, func(sess *domain.Session) error {
		i := taskIndex(sess, taskID)
		if i < 0 {
			return fmt.Errorf("task %s: %w", taskID, port.ErrTaskNotFound)
		}
		ev.AddedBy = sess.User
		sess.Tasks[i].Evidence = append(sess.Tasks[i].Evidence, ev)
		return nil
	})
	if err != nil {
		return domain.Evidence{}, err
	}

	recordAudit(ctx, s.audit, domain.AuditLog{
		User:       sess.User,
		Action:     domain.AuditActionEvidenceAdd,
		Resource:   "task",
		ResourceID: taskID,
		Details:    mustJSON(ev),
	})
	return ev, nil
}

// RemoveEvidence deletes one evidence entry; the others keep their order.
func (s *TaskService) RemoveEvidence(ctx context.Context, sessionID, taskID, evidenceID string) error {
	sess, err := s.sessions.Modify(ctx, sessionID, func(sess *domain.Session) error {
		i := taskIndex(sess, taskID)
		if i < 0 {
			return fmt.Errorf("task %s: %w", taskID, port.ErrTaskNotFound)
		}
		t := &sess.Tasks[i]
		j := t.EvidenceIndex(evidenceID)
		if j < 0 {
			return fmt.Errorf("evidence %s: %w", evidenceID, port.ErrEvidenceNotFound)
		}
		t.Evidence = slices.Delete(t.Evidence, j, j+1)
		return nil
	})
	if err != nil {
		return err
	}

	recordAudit(ctx, s.audit, domain.AuditLog{
		User:       sess.User,
		Action:     domain.AuditActionEvidenceRemove,
		Resource:   "task",
		ResourceID: taskID,
		Details:    mustJSON(map[string]string{"evidence_id": evidenceID}),
	})
	return nil
}

// taskIndex finds a task by id among those the session's profile can see.
// Tasks outside the profile's view are reported as missing.
func taskIndex(sess *domain.Session, id string) int {
	i := slices.IndexFunc(sess.Tasks, func(t domain.Task) bool { return t.ID == id })
	if i < 0 || (sess.Profile != nil && !compliance.TaskApplies(sess.Profile, sess.Tasks[i])) {
		return -1
	}
	return i
}
