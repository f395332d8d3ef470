package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/finsentsis/internal/domain"
	"github.com/arturoeanton/finsentsis/internal/port"
)

func evidenceTitles(t domain.Task) []string {
	out := make([]string, len(t.Evidence))
	for i, e := range t.Evidence {
		out[i] = e.Title
	}
	return out
}

func TestTaskService_Board(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cols, err := env.tasks.Board(ctx, env.login(t, nil))
	require.NoError(t, err)
	require.Len(t, cols, 4)
	assert.Equal(t, domain.TaskToDo, cols[0].Status)
	assert.Equal(t, domain.TaskDone, cols[3].Status)

	var ids []string
	for _, task := range cols[0].Tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"TSK-102", "TSK-103", "TSK-105"}, ids)

	cols, err = env.tasks.Board(ctx, env.login(t, financeEU))
	require.NoError(t, err)
	assert.Empty(t, cols[0].Tasks)
	assert.Empty(t, cols[1].Tasks)
	require.Len(t, cols[3].Tasks, 1)
	assert.Equal(t, "TSK-104", cols[3].Tasks[0].ID)
}

func TestTaskService_AddEvidence(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.fileNumber = func() int { return 42 }
	ctx := context.Background()
	id := env.login(t, nil)

	link, err := env.tasks.AddEvidence(ctx, id, "TSK-101", EvidenceInput{Kind: domain.EvidenceLink, Title: "DPIA", URL: "https://docs/dpia"})
	require.NoError(t, err)
	assert.Regexp(t, `^EV-[0-9a-f-]{36}$`, link.ID)
	assert.Equal(t, "alex@acme.com", link.AddedBy)
	assert.Equal(t, "2024-05-24", link.Date)

	file, err := env.tasks.AddEvidence(ctx, id, "TSK-101", EvidenceInput{Kind: domain.EvidenceFile})
	require.NoError(t, err)
	assert.Equal(t, "Uploaded_Evidence_42.pdf", file.Title)
	assert.Equal(t, "#", file.URL)

	task, err := env.tasks.Task(ctx, id, "TSK-101")
	require.NoError(t, err)
	assert.Equal(t, []string{"Draft Policy v2 (GDocs)", "DPIA", "Uploaded_Evidence_42.pdf"}, evidenceTitles(task))

	logs, _ := env.auditLog.List(ctx, 0, domain.AuditActionEvidenceAdd)
	assert.Len(t, logs, 2)
}

func TestTaskService_AddEvidenceRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.login(t, nil)

	tests := []struct {
		name string
		in   EvidenceInput
		task string
		want error
	}{
		{"link without url", EvidenceInput{Kind: domain.EvidenceLink, Title: "x"}, "TSK-101", port.ErrInvalidEvidence},
		{"link without title", EvidenceInput{Kind: domain.EvidenceLink, URL: "https://x"}, "TSK-101", port.ErrInvalidEvidence},
		{"unknown kind", EvidenceInput{Kind: "fax", Title: "x"}, "TSK-101", port.ErrInvalidEvidence},
		{"unknown task", EvidenceInput{Kind: domain.EvidenceFile}, "TSK-999", port.ErrTaskNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tasks.AddEvidence(ctx, id, tt.task, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	task, _ := env.tasks.Task(ctx, id, "TSK-101")
	assert.Len(t, task.Evidence, 1, "rejected submissions leave the task untouched")
}

func TestTaskService_RemoveEvidencePreservesOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.login(t, nil)

	var added []domain.Evidence
	for _, title := range []string{"a", "b", "c"} {
		ev, err := env.tasks.AddEvidence(ctx, id, "TSK-102", EvidenceInput{Kind: domain.EvidenceFile, Title: title})
		require.NoError(t, err)
		added = append(added, ev)
	}

	require.NoError(t, env.tasks.RemoveEvidence(ctx, id, "TSK-102", added[1].ID))
	task, _ := env.tasks.Task(ctx, id, "TSK-102")
	assert.Equal(t, []string{"a", "c"}, evidenceTitles(task))

	err := env.tasks.RemoveEvidence(ctx, id, "TSK-102", added[1].ID)
	assert.ErrorIs(t, err, port.ErrEvidenceNotFound)
	err = env.tasks.RemoveEvidence(ctx, id, "TSK-999", added[0].ID)
	assert.ErrorIs(t, err, port.ErrTaskNotFound)

	logs, _ := env.auditLog.List(ctx, 0, domain.AuditActionEvidenceRemove)
	assert.Len(t, logs, 1)
}

func TestTaskService_SessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.login(t, nil), env.login(t, nil)

	require.NoError(t, env.tasks.RemoveEvidence(ctx, a, "TSK-101", "EV-1"))

	other, err := env.tasks.Task(ctx, b, "TSK-101")
	require.NoError(t, err)
	assert.Len(t, other.Evidence, 1)
	assert.Len(t, env.catalog.Tasks[0].Evidence, 1, "catalog is never modified")
}

func TestTaskService_HidesTasksOutsideProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.login(t, financeEU)

	_, err := env.tasks.Task(ctx, id, "TSK-101")
	assert.ErrorIs(t, err, port.ErrTaskNotFound, "apac task is outside an eu profile")

	_, err = env.tasks.AddEvidence(ctx, id, "TSK-101", EvidenceInput{Kind: domain.EvidenceFile, Title: "x.pdf"})
	assert.ErrorIs(t, err, port.ErrTaskNotFound)

	err = env.tasks.RemoveEvidence(ctx, id, "TSK-101", "EV-1")
	assert.ErrorIs(t, err, port.ErrTaskNotFound)

	sess, err := env.sessions.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, sess.Tasks[0].Evidence, 1, "hidden task is left untouched")

	visible, err := env.tasks.Task(ctx, id, "TSK-104")
	require.NoError(t, err)
	assert.Equal(t, "TSK-104", visible.ID)
	_, err = env.tasks.AddEvidence(ctx, id, "TSK-104", EvidenceInput{Kind: domain.EvidenceFile, Title: "y.pdf"})
	assert.NoError(t, err)
}

func TestGroupByStatus_KeepsRelativeOrder(t *testing.T) {
	cols := GroupByStatus([]domain.Task{
		{ID: "1", Status: domain.TaskReview},
		{ID: "2", Status: domain.TaskToDo},
		{ID: "3", Status: domain.TaskReview},
		{ID: "4", Status: "Blocked"},
	})
	assert.Equal(t, "2", cols[0].Tasks[0].ID)
	require.Len(t, cols[2].Tasks, 2)
	assert.Equal(t, "1", cols[2].Tasks[0].ID)
	assert.Equal(t, "3", cols[2].Tasks[1].ID)
	assert.Empty(t, cols[1].Tasks)
}
