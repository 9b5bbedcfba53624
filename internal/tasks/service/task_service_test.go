package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/donna-backend/internal/tasks/domain"
)

type memStore struct {
	tasks []domain.Task
	seq   int
}

func (m *memStore) Create(ctx context.Context, t domain.Task) (*domain.Task, error) {
	m.seq++
	t.ID = strings.Repeat("t", m.seq)
	t.CreatedAt = time.Date(2024, 1, 1, 0, m.seq, 0, 0, time.UTC)
	m.tasks = append(m.tasks, t)
	return &t, nil
}

func (m *memStore) List(ctx context.Context, f domain.Filter) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range m.tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.ProjectID != "" && t.ProjectID != f.ProjectID {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) FindByTitle(ctx context.Context, text string, status domain.Status) (*domain.Task, error) {
	for i := range m.tasks {
		t := m.tasks[i]
		if status != "" && t.Status != status {
			continue
		}
		if strings.Contains(strings.ToLower(t.Title), strings.ToLower(text)) {
			return &t, nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

func (m *memStore) index(id string) int {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *memStore) Complete(ctx context.Context, id string, at time.Time) error {
	i := m.index(id)
	if i < 0 {
		return domain.ErrTaskNotFound
	}
	m.tasks[i].Status = domain.StatusCompleted
	m.tasks[i].CompletedAt = &at
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	i := m.index(id)
	if i < 0 {
		return domain.ErrTaskNotFound
	}
	m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
	return nil
}

func (m *memStore) UpdatePriority(ctx context.Context, id string, p domain.Priority) error {
	i := m.index(id)
	if i < 0 {
		return domain.ErrTaskNotFound
	}
	m.tasks[i].Priority = p
	return nil
}

func (m *memStore) PendingByPriority(ctx context.Context, priorities []domain.Priority, limit int) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range m.tasks {
		if t.Status != domain.StatusPending {
			continue
		}
		for _, p := range priorities {
			if t.Priority == p && len(out) < limit {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (m *memStore) CompletedSince(ctx context.Context, since time.Time) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range m.tasks {
		if t.Status == domain.StatusCompleted && t.CompletedAt != nil && !t.CompletedAt.Before(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

func newService(t *testing.T) (*TaskService, *memStore) {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	store := &memStore{}
	svc := NewTaskService(store, loc)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 15, 0, 0, 0, loc) }
	return svc, store
}

func TestAdd_NormalizesPriority(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	task, err := svc.Add(ctx, AddInput{Title: "  Ship invoice  ", Priority: "urgent", Project: "SigmaVue"})
	require.NoError(t, err)
	assert.Equal(t, "Ship invoice", task.Title)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Equal(t, domain.StatusPending, task.Status)
	assert.Equal(t, "sigmavue", task.ProjectID)

	task, err = svc.Add(ctx, AddInput{Title: "Call bank", Priority: "SIGNAL"})
	require.NoError(t, err)
	assert.Equal(t, domain.PrioritySignal, task.Priority)

	_, err = svc.Add(ctx, AddInput{Title: "   "})
	assert.Error(t, err)
}

func TestParseDueDate(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		in   string
		want string
	}{
		{"today", "2024-03-10 23:59"},
		{"Tomorrow", "2024-03-11 23:59"},
		{"2024-04-01", "2024-04-01 00:00"},
		{"2024-04-01T09:30", "2024-04-01 09:30"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := svc.ParseDueDate(tt.in)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Format("2006-01-02 15:04"))
		})
	}

	got, err := svc.ParseDueDate("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = svc.ParseDueDate("next week")
	assert.ErrorIs(t, err, domain.ErrInvalidDueDate)
}

func TestCompleteAndDelete_ByPartialTitle(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, _ = svc.Add(ctx, AddInput{Title: "Write PRD for billing"})
	_, _ = svc.Add(ctx, AddInput{Title: "Review contract"})

	done, err := svc.Complete(ctx, "prd")
	require.NoError(t, err)
	assert.Equal(t, "Write PRD for billing", done.Title)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	_, err = svc.Complete(ctx, "prd")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	deleted, err := svc.Delete(ctx, "CONTRACT")
	require.NoError(t, err)
	assert.Equal(t, "Review contract", deleted.Title)
	assert.Len(t, store.tasks, 1)

	_, err = svc.Delete(ctx, "")
	assert.Error(t, err)
}

func TestUpdatePriority(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	_, _ = svc.Add(ctx, AddInput{Title: "Refactor billing"})

	_, err := svc.UpdatePriority(ctx, "billing", "whenever")
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)

	task, err := svc.UpdatePriority(ctx, "billing", "High")
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, task.Priority)
	assert.Equal(t, domain.PriorityHigh, store.tasks[0].Priority)
}

func TestSignal_FallsBackToMedium(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c", "d"} {
		_, _ = svc.Add(ctx, AddInput{Title: title})
	}
	_, _ = svc.Add(ctx, AddInput{Title: "low thing", Priority: "low"})

	got, err := svc.Signal(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Title)

	_, _ = svc.Add(ctx, AddInput{Title: "urgent", Priority: "signal"})
	titles, err := svc.SignalTitles(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"urgent"}, titles)
}

func TestList_Filters(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, _ = svc.Add(ctx, AddInput{Title: "one", Project: "acme", Priority: "high"})
	_, _ = svc.Add(ctx, AddInput{Title: "two", Project: "bolt"})

	got, err := svc.List(ctx, ListInput{Project: "ACME"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0].Title)

	_, err = svc.List(ctx, ListInput{Status: "someday"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.List(ctx, ListInput{Priority: "meh"})
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)

	md := Markdown(got)
	assert.Contains(t, md, "# Your Tasks (1)")
	assert.Contains(t, md, "## High Priority")
	assert.Contains(t, md, "- [ ] one (acme)")
	assert.Equal(t, "No tasks found.", Markdown(nil))
}
