package schedule

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
)

const (
	DateLayout       = "2006-01-02"
	maxSignalTasks   = 3
	noWorkBlocksText = "No work blocks configured"
)

type BlockType string

const (
	BlockPersonal BlockType = "personal"
	BlockWork     BlockType = "work"
	BlockBreak    BlockType = "break"
	BlockCall     BlockType = "call"
	BlockEvening  BlockType = "evening"
	BlockMarker   BlockType = "marker"
)

type TimeBlock struct {
	Start     Clock     `json:"start"`
	End       Clock     `json:"end"`
	Title     string    `json:"title"`
	Type      BlockType `json:"type"`
	Name      string    `json:"name,omitempty"`
	ProjectID string    `json:"project_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// DailySchedule is a derived, recomputable view of one date.
type DailySchedule struct {
	Date        string      `json:"date"`
	Weekday     string      `json:"weekday"`
	TimeBlocks  []TimeBlock `json:"time_blocks"`
	SignalTasks []string    `json:"signal_tasks"`
	Notes       string      `json:"notes,omitempty"`
	Approved    bool        `json:"approved"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// Day parses the schedule date.
func (s *DailySchedule) Day() (time.Time, error) {
	return time.Parse(DateLayout, s.Date)
}

// WorkBlocks returns the blocks that belong to the work section.
func (s *DailySchedule) WorkBlocks() []TimeBlock {
	var out []TimeBlock
	for _, b := range s.TimeBlocks {
		switch b.Type {
		case BlockWork, BlockBreak, BlockCall, BlockMarker:
			out = append(out, b)
		}
	}
	return out
}

// DigestFunc returns a one-line PRD digest for a project.
type DigestFunc func(p domain.Project) (string, error)

// Assemble builds the schedule for date. It never fails: a nil template
// falls back to DefaultTemplate, digest errors drop the detail, and missing
// rotation candidates leave slots out.
func Assemble(date time.Time, tmpl *WeeklyTemplate, projects []domain.Project, digest DigestFunc, signals []string) DailySchedule {
	if tmpl == nil {
		tmpl = DefaultTemplate()
	}

	out := DailySchedule{
		Date:       date.Format(DateLayout),
		Weekday:    date.Weekday().String(),
		TimeBlocks: []TimeBlock{},
	}

	for _, b := range tmpl.PersonalBlocks {
		if !b.ActiveOn(date.Weekday()) {
			continue
		}
		title := b.Title
		if title == "" {
			title = b.Name
		}
		if len(b.Days) > 0 {
			title = fmt.Sprintf("%s (%d min)", title, b.DurationMinutes)
		}
		out.TimeBlocks = append(out.TimeBlocks, TimeBlock{
			Start: b.Time, End: b.End(), Title: title, Type: BlockPersonal, Name: b.Name,
		})
	}

	byID := make(map[string]domain.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}
	picks := SelectRotation(projects, tmpl.FixedProjectIDs(), tmpl.RotationSlots())

	var primary *domain.Project
	next := 0
	for _, b := range tmpl.WorkBlocks {
		switch b.Kind {
		case KindFixed:
			tb := TimeBlock{Start: b.Start, End: b.End, Type: BlockWork, Name: b.Name, ProjectID: b.ProjectID}
			if p, ok := byID[b.ProjectID]; ok {
				tb.Title = p.Name
				tb.Detail = digestFor(p, digest)
				if primary == nil {
					pp := p
					primary = &pp
				}
			} else {
				tb.Title = firstNonEmpty(b.Title, b.ProjectID)
			}
			out.TimeBlocks = append(out.TimeBlocks, tb)

		case KindBreak:
			out.TimeBlocks = append(out.TimeBlocks, TimeBlock{
				Start: b.Start, End: b.End, Title: firstNonEmpty(b.Title, "Break"), Type: BlockBreak, Name: b.Name,
			})

		case KindRotation:
			if next >= len(picks) {
				continue
			}
			p := picks[next]
			next++
			out.TimeBlocks = append(out.TimeBlocks, TimeBlock{
				Start: b.Start, End: b.End, Title: p.Name, Type: BlockWork, Name: b.Name,
				ProjectID: p.ID, Detail: digestFor(p, digest),
			})
		}
	}

	for _, b := range tmpl.EveningBlocks {
		out.TimeBlocks = append(out.TimeBlocks, TimeBlock{
			Start: b.Start, End: b.End, Title: firstNonEmpty(b.Title, b.Name), Type: BlockEvening, Name: b.Name,
		})
	}

	if len(tmpl.WorkBlocks) == 0 {
		out.TimeBlocks = append(out.TimeBlocks, TimeBlock{Title: noWorkBlocksText, Type: BlockMarker})
	}

	out.SignalTasks = signalTasks(signals, primary, picks)
	return out
}

func digestFor(p domain.Project, digest DigestFunc) string {
	if digest == nil || p.PRDStatusPath == "" {
		return ""
	}
	text, err := digest(p)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func signalTasks(signals []string, primary *domain.Project, picks []domain.Project) []string {
	out := make([]string, 0, maxSignalTasks)
	for _, s := range signals {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
		if len(out) == maxSignalTasks {
			return out
		}
	}
	if len(out) > 0 {
		return out
	}

	if primary != nil {
		out = append(out, fmt.Sprintf("Complete current PRD phase (%s)", primary.Name))
	}
	for _, p := range picks {
		if len(out) == maxSignalTasks {
			break
		}
		out = append(out, "Progress on "+p.Name)
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// SortBlocks orders blocks by start time, keeping markers last.
func SortBlocks(blocks []TimeBlock) {
	sort.SliceStable(blocks, func(i, j int) bool {
		if (blocks[i].Type == BlockMarker) != (blocks[j].Type == BlockMarker) {
			return blocks[j].Type == BlockMarker
		}
		return blocks[i].Start < blocks[j].Start
	})
}

type ProjectLister interface {
	List(ctx context.Context) ([]domain.Project, error)
}

type TemplateLoader interface {
	Load(ctx context.Context) (*WeeklyTemplate, error)
}

// SignalSource supplies the titles of today's most important tasks.
type SignalSource interface {
	SignalTitles(ctx context.Context, limit int) ([]string, error)
}

// Assembler wires the pure assembly to its collaborators.
type Assembler struct {
	projects  ProjectLister
	templates TemplateLoader
	signals   SignalSource
	digest    DigestFunc
	now       func() time.Time
}

type AssemblerOption func(*Assembler)

func WithSignals(s SignalSource) AssemblerOption {
	return func(a *Assembler) { a.signals = s }
}

func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) { a.now = now }
}

func NewAssembler(projects ProjectLister, templates TemplateLoader, digest DigestFunc, opts ...AssemblerOption) *Assembler {
	a := &Assembler{projects: projects, templates: templates, digest: digest, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Template loads the stored template or the built-in default when none is stored.
func (a *Assembler) Template(ctx context.Context) (*WeeklyTemplate, error) {
	if a.templates == nil {
		return DefaultTemplate(), nil
	}
	tmpl, err := a.templates.Load(ctx)
	if errors.Is(err, ErrTemplateNotFound) {
		return DefaultTemplate(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	return tmpl, nil
}

// GenerateDailySchedule reads a consistent snapshot of projects and the
// template, then assembles the schedule for date.
func (a *Assembler) GenerateDailySchedule(ctx context.Context, date time.Time) (*DailySchedule, error) {
	tmpl, err := a.Template(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := a.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var signals []string
	if a.signals != nil {
		signals, err = a.signals.SignalTitles(ctx, maxSignalTasks)
		if err != nil {
			log.Printf("[schedule] signal tasks unavailable: %v", err)
			signals = nil
		}
	}

	s := Assemble(date, tmpl, projects, a.digest, signals)
	s.GeneratedAt = a.now().UTC()
	return &s, nil
}

// SelectRotation applies the rotation policy to the current project snapshot,
// excluding the template's fixed projects.
func (a *Assembler) SelectRotation(ctx context.Context, n int) ([]domain.Project, error) {
	tmpl, err := a.Template(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := a.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if n <= 0 {
		n = tmpl.RotationSlots()
	}
	return SelectRotation(projects, tmpl.FixedProjectIDs(), n), nil
}
