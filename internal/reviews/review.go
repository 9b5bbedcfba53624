package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/donna-backend/internal/braindump"
	projects "github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
	tasks "github.com/GoSim-25-26J-441/donna-backend/internal/tasks/domain"
)

const (
	lowTaskCount     = 5
	highTaskCount    = 15
	lowProjectCount  = 2
	shownCompleted   = 10
	shownPending     = 5
	pendingFetch     = 10
	weekAheadProject = 3
)

type TaskSource interface {
	CompletedSince(ctx context.Context, since time.Time) ([]tasks.Task, error)
	Pending(ctx context.Context, priorities []tasks.Priority, limit int) ([]tasks.Task, error)
}

type ProjectSource interface {
	List(ctx context.Context) ([]projects.Project, error)
}

type DumpSource interface {
	Since(ctx context.Context, t time.Time) ([]braindump.Dump, error)
}

type TemplateSource interface {
	Template(ctx context.Context) (*schedule.WeeklyTemplate, error)
}

// Reviewer builds the weekly look-back and the week-ahead plan.
type Reviewer struct {
	tasks     TaskSource
	projects  ProjectSource
	dumps     DumpSource
	templates TemplateSource
	now       func() time.Time
}

func NewReviewer(t TaskSource, p ProjectSource, d DumpSource, tmpl TemplateSource) *Reviewer {
	return &Reviewer{tasks: t, projects: p, dumps: d, templates: tmpl, now: time.Now}
}

type WeeklyReview struct {
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	CompletedTasks []string  `json:"completed_tasks"`
	ProjectsWorked []string  `json:"projects_worked"`
	BrainDumps     int       `json:"brain_dumps"`
	Insights       []string  `json:"insights"`
}

func (r *Reviewer) Weekly(ctx context.Context) (*WeeklyReview, error) {
	to := r.now()
	from := to.AddDate(0, 0, -7)
	out := &WeeklyReview{From: from, To: to, CompletedTasks: []string{}, ProjectsWorked: []string{}}

	done, err := r.tasks.CompletedSince(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("completed tasks: %w", err)
	}
	for _, t := range done {
		out.CompletedTasks = append(out.CompletedTasks, t.Title)
	}

	all, err := r.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("projects: %w", err)
	}
	for _, p := range all {
		if p.LastWorked != nil && !p.LastWorked.Before(from) {
			out.ProjectsWorked = append(out.ProjectsWorked, p.Name)
		}
	}

	if r.dumps != nil {
		dumps, err := r.dumps.Since(ctx, from)
		if err != nil {
			return nil, fmt.Errorf("brain dumps: %w", err)
		}
		out.BrainDumps = len(dumps)
	}

	out.Insights = insights(len(out.CompletedTasks), len(out.ProjectsWorked))
	return out, nil
}

func insights(taskCount, projectCount int) []string {
	out := []string{}
	switch {
	case taskCount < lowTaskCount:
		out = append(out, "Task completion was low. Aim higher next week.")
	case taskCount > highTaskCount:
		out = append(out, "Great task velocity this week.")
	}
	if projectCount < lowProjectCount {
		out = append(out, "Project diversity was low. Consider rotating more.")
	}
	return out
}

func (w *WeeklyReview) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Weekly Review: %s - %s\n", w.From.Format("January 02"), w.To.Format("January 02, 2006"))

	b.WriteString("\n## Tasks Completed\n")
	if len(w.CompletedTasks) == 0 {
		b.WriteString("No tasks completed this week.\n")
	} else {
		fmt.Fprintf(&b, "You completed **%d** tasks this week.\n\n", len(w.CompletedTasks))
		for i, t := range w.CompletedTasks {
			if i == shownCompleted {
				break
			}
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}

	b.WriteString("\n## Projects Worked On\n")
	if len(w.ProjectsWorked) == 0 {
		b.WriteString("No projects logged.\n")
	} else {
		fmt.Fprintf(&b, "You touched **%d** projects.\n\n", len(w.ProjectsWorked))
		for _, p := range w.ProjectsWorked {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}

	b.WriteString("\n## Brain Dumps\n")
	if w.BrainDumps == 0 {
		b.WriteString("No brain dumps captured.\n")
	} else {
		fmt.Fprintf(&b, "**%d** brain dumps captured.\n", w.BrainDumps)
	}

	b.WriteString("\n## Stats\n")
	fmt.Fprintf(&b, "- Tasks: %d\n- Projects: %d\n- Ideas: %d\n", len(w.CompletedTasks), len(w.ProjectsWorked), w.BrainDumps)

	if len(w.Insights) > 0 {
		b.WriteString("\n## Insights\n")
		for _, s := range w.Insights {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

type WeekAhead struct {
	Through       time.Time    `json:"through"`
	WorkBlocks    []string     `json:"work_blocks"`
	PriorityTasks []tasks.Task `json:"priority_tasks"`
	Projects      []string     `json:"projects"`
}

func (r *Reviewer) Ahead(ctx context.Context) (*WeekAhead, error) {
	out := &WeekAhead{Through: r.now().AddDate(0, 0, 7), WorkBlocks: []string{}, Projects: []string{}}

	tmpl, err := r.templates.Template(ctx)
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	for _, wb := range tmpl.WorkBlocks {
		label := wb.Title
		switch wb.Kind {
		case schedule.KindFixed:
			if label == "" {
				label = wb.ProjectID
			}
		case schedule.KindBreak:
			label = "Break"
		case schedule.KindRotation:
			label = "Project Rotation"
		}
		out.WorkBlocks = append(out.WorkBlocks, fmt.Sprintf("%s - %s: %s", wb.Start, wb.End, label))
	}

	pending, err := r.tasks.Pending(ctx, []tasks.Priority{tasks.PrioritySignal, tasks.PriorityHigh, tasks.PriorityMedium}, pendingFetch)
	if err != nil {
		return nil, fmt.Errorf("pending tasks: %w", err)
	}
	if len(pending) > shownPending {
		pending = pending[:shownPending]
	}
	out.PriorityTasks = pending

	all, err := r.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("projects: %w", err)
	}
	for _, p := range all {
		if p.Daily {
			continue
		}
		if len(out.Projects) == weekAheadProject {
			break
		}
		out.Projects = append(out.Projects, p.Name)
	}
	return out, nil
}

func (w *WeekAhead) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Week Ahead: Through %s\n", w.Through.Format("January 02, 2006"))

	b.WriteString("\n## Daily Blocks\n")
	for _, wb := range w.WorkBlocks {
		fmt.Fprintf(&b, "- %s\n", wb)
	}

	b.WriteString("\n## Priority Tasks\n")
	if len(w.PriorityTasks) == 0 {
		b.WriteString("- No pending tasks.\n")
	}
	for _, t := range w.PriorityTasks {
		marker := "[medium]"
		if t.Priority.Urgent() {
			marker = "[urgent]"
		}
		fmt.Fprintf(&b, "- %s %s\n", marker, t.Title)
	}

	b.WriteString("\n## Projects for This Week\n")
	for _, p := range w.Projects {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	return strings.TrimRight(b.String(), "\n")
}
