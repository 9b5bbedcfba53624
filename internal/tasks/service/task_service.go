package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/donna-backend/internal/tasks/domain"
)

const (
	signalLimit   = 5
	fallbackLimit = 3
)

type Store interface {
	Create(ctx context.Context, t domain.Task) (*domain.Task, error)
	List(ctx context.Context, f domain.Filter) ([]domain.Task, error)
	FindByTitle(ctx context.Context, text string, status domain.Status) (*domain.Task, error)
	Complete(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	UpdatePriority(ctx context.Context, id string, p domain.Priority) error
	PendingByPriority(ctx context.Context, priorities []domain.Priority, limit int) ([]domain.Task, error)
	CompletedSince(ctx context.Context, since time.Time) ([]domain.Task, error)
}

type TaskService struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

func NewTaskService(store Store, loc *time.Location) *TaskService {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskService{store: store, loc: loc, now: time.Now}
}

type AddInput struct {
	Title       string `json:"title"`
	Priority    string `json:"priority,omitempty"`
	Project     string `json:"project,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Description string `json:"description,omitempty"`
}

func (s *TaskService) Add(ctx context.Context, in AddInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	due, err := s.ParseDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}
	return s.store.Create(ctx, domain.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    domain.NormalizePriority(in.Priority),
		Status:      domain.StatusPending,
		ProjectID:   strings.ToLower(strings.TrimSpace(in.Project)),
		DueDate:     due,
	})
}

// ParseDueDate understands "today", "tomorrow" (both at 23:59) and ISO dates.
func (s *TaskService) ParseDueDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	now := s.now().In(s.loc)
	endOfDay := func(d time.Time) *time.Time {
		t := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, s.loc)
		return &t
	}
	switch strings.ToLower(v) {
	case "today":
		return endOfDay(now), nil
	case "tomorrow":
		return endOfDay(now.AddDate(0, 0, 1)), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, v, s.loc); err == nil {
			return &t, nil
		}
	}
	return nil, domain.ErrInvalidDueDate
}

type ListInput struct {
	Status   string `json:"status,omitempty"`
	Project  string `json:"project,omitempty"`
	Priority string `json:"priority,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

func (s *TaskService) List(ctx context.Context, in ListInput) ([]domain.Task, error) {
	status, err := domain.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}
	var priority domain.Priority
	if in.Priority != "" {
		if priority, err = domain.ParsePriority(in.Priority); err != nil {
			return nil, err
		}
	}
	return s.store.List(ctx, domain.Filter{
		Status:    status,
		ProjectID: strings.ToLower(strings.TrimSpace(in.Project)),
		Priority:  priority,
		Limit:     in.Limit,
	})
}

// Complete marks the first pending task matching the partial title as done.
func (s *TaskService) Complete(ctx context.Context, partialTitle string) (*domain.Task, error) {
	t, err := s.find(ctx, partialTitle, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.store.Complete(ctx, t.ID, now); err != nil {
		return nil, err
	}
	t.Status = domain.StatusCompleted
	t.CompletedAt = &now
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, partialTitle string) (*domain.Task, error) {
	t, err := s.find(ctx, partialTitle, "")
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) UpdatePriority(ctx context.Context, partialTitle, priority string) (*domain.Task, error) {
	p, err := domain.ParsePriority(priority)
	if err != nil {
		return nil, err
	}
	t, err := s.find(ctx, partialTitle, "")
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdatePriority(ctx, t.ID, p); err != nil {
		return nil, err
	}
	t.Priority = p
	return t, nil
}

// Signal returns pending signal/high tasks, or the top medium ones when
// there are none.
func (s *TaskService) Signal(ctx context.Context) ([]domain.Task, error) {
	out, err := s.store.PendingByPriority(ctx, []domain.Priority{domain.PrioritySignal, domain.PriorityHigh}, signalLimit)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		return out, nil
	}
	return s.store.PendingByPriority(ctx, []domain.Priority{domain.PriorityMedium}, fallbackLimit)
}

// SignalTitles feeds the daily schedule's signal task list.
func (s *TaskService) SignalTitles(ctx context.Context, limit int) ([]string, error) {
	tasks, err := s.Signal(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, t.Title)
	}
	return out, nil
}

// Pending lists pending tasks in the given priorities for planning views.
func (s *TaskService) Pending(ctx context.Context, priorities []domain.Priority, limit int) ([]domain.Task, error) {
	return s.store.PendingByPriority(ctx, priorities, limit)
}

func (s *TaskService) CompletedSince(ctx context.Context, since time.Time) ([]domain.Task, error) {
	return s.store.CompletedSince(ctx, since)
}

func (s *TaskService) find(ctx context.Context, partialTitle string, status domain.Status) (*domain.Task, error) {
	text := strings.TrimSpace(partialTitle)
	if text == "" {
		return nil, fmt.Errorf("task title is required")
	}
	return s.store.FindByTitle(ctx, text, status)
}

// Markdown groups tasks by priority tier.
func Markdown(tasks []domain.Task) string {
	if len(tasks) == 0 {
		return "No tasks found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Your Tasks (%d)\n", len(tasks))
	for _, p := range domain.Priorities {
		var group []domain.Task
		for _, t := range tasks {
			if t.Priority == p {
				group = append(group, t)
			}
		}
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s Priority\n\n", strings.ToUpper(string(p[:1]))+string(p[1:]))
		for _, t := range group {
			box := "[ ]"
			if t.Status == domain.StatusCompleted {
				box = "[x]"
			}
			line := fmt.Sprintf("- %s %s", box, t.Title)
			if t.ProjectID != "" {
				line += " (" + t.ProjectID + ")"
			}
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
