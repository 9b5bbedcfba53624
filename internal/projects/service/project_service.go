package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/prd"
)

// Store is the persistence surface the service needs.
type Store interface {
	List(ctx context.Context) ([]domain.Project, error)
	Get(ctx context.Context, idOrName string) (*domain.Project, error)
	Create(ctx context.Context, in domain.NewProject) (*domain.Project, error)
	UpdateLastWorked(ctx context.Context, id string, at time.Time) error
}

// ProjectService handles project-related business logic
type ProjectService struct {
	store Store
	now   func() time.Time
	added []func(domain.Project)
}

func NewProjectService(store Store) *ProjectService {
	return &ProjectService{store: store, now: time.Now}
}

// OnAdded registers fn to run after a project is registered. Hooks are
// set up at startup, before the service is shared.
func (s *ProjectService) OnAdded(fn func(domain.Project)) {
	s.added = append(s.added, fn)
}

func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.store.List(ctx)
}

func (s *ProjectService) Get(ctx context.Context, idOrName string) (*domain.Project, error) {
	return s.store.Get(ctx, idOrName)
}

// MarkWorked records that the project was worked on now.
func (s *ProjectService) MarkWorked(ctx context.Context, idOrName string) (*domain.Project, error) {
	p, err := s.store.Get(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.store.UpdateLastWorked(ctx, p.ID, now); err != nil {
		return nil, err
	}
	p.LastWorked = &now
	return p, nil
}

// PRDStatus loads the PRD summary for the named project.
func (s *ProjectService) PRDStatus(ctx context.Context, idOrName string) (*prd.Summary, error) {
	p, err := s.store.Get(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	return prd.Read(*p)
}

type ScanInput struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

type ScanResult struct {
	Project       *domain.Project `json:"project"`
	PRDStatusPath string          `json:"prd_status_path,omitempty"`
	AgentFilePath string          `json:"agent_file_path,omitempty"`
}

// ScanAndAdd inspects a project folder and registers it with the lowest priority.
func (s *ProjectService) ScanAndAdd(ctx context.Context, in ScanInput) (*ScanResult, error) {
	abs, err := filepath.Abs(strings.TrimSpace(in.Path))
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %s", in.Path)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", in.Path)
	}

	typ := domain.TypeClient
	if in.Type != "" {
		t, ok := domain.ParseType(in.Type)
		if !ok {
			return nil, domain.ErrInvalidProjectType
		}
		typ = t
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = filepath.Base(abs)
	}

	existing, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	maxPriority := 0
	for _, p := range existing {
		if p.Path == abs {
			return nil, fmt.Errorf("%w: %s", domain.ErrProjectAlreadyExists, p.Name)
		}
		if p.Priority > maxPriority {
			maxPriority = p.Priority
		}
	}

	statusPath, agentPath := prd.Detect(abs)
	p, err := s.store.Create(ctx, domain.NewProject{
		ID:            Slug(name),
		Name:          name,
		Path:          abs,
		Type:          typ,
		Priority:      maxPriority + 1,
		PRDStatusPath: statusPath,
		ClaudeMDPath:  agentPath,
		Description:   "Added on " + s.now().Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}
	for _, fn := range s.added {
		fn(*p)
	}
	return &ScanResult{Project: p, PRDStatusPath: statusPath, AgentFilePath: agentPath}, nil
}

// NeedingAttention returns rotation-eligible projects not worked on within
// the given number of days, stalest first.
func (s *ProjectService) NeedingAttention(ctx context.Context, days int) ([]domain.Project, error) {
	if days <= 0 {
		days = 3
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := s.now().AddDate(0, 0, -days)

	var out []domain.Project
	for _, p := range all {
		if !p.Eligible() {
			continue
		}
		if p.LastWorked == nil || p.LastWorked.Before(cutoff) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastWorked, out[j].LastWorked
		switch {
		case a == nil && b == nil:
			return out[i].Priority < out[j].Priority
		case a == nil:
			return true
		case b == nil:
			return false
		}
		return a.Before(*b)
	})
	return out, nil
}

// Slug turns a display name into a project id.
func Slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	return s
}

// Markdown lists projects by priority for chat surfaces.
func Markdown(projects []domain.Project) string {
	if len(projects) == 0 {
		return "No projects are currently tracked."
	}
	sorted := append([]domain.Project(nil), projects...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	var b strings.Builder
	b.WriteString("# Tracked Projects\n")
	for _, p := range sorted {
		daily := ""
		if p.Daily {
			daily = " (DAILY)"
		}
		last := "Never"
		if p.LastWorked != nil {
			last = p.LastWorked.Format("2006-01-02")
		}
		path := p.Path
		if path == "" {
			path = "Not configured"
		}
		fmt.Fprintf(&b, "\n## %s%s\n", p.Name, daily)
		fmt.Fprintf(&b, "- **Type**: %s\n", p.Type)
		fmt.Fprintf(&b, "- **Priority**: %d\n", p.Priority)
		fmt.Fprintf(&b, "- **Path**: `%s`\n", path)
		fmt.Fprintf(&b, "- **Last Worked**: %s\n", last)
		if p.Description != "" {
			fmt.Fprintf(&b, "- **Description**: %s\n", p.Description)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
