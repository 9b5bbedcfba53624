package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
)

type Cache interface {
	Get(ctx context.Context, date string) (*schedule.DailySchedule, error)
	Set(ctx context.Context, s *schedule.DailySchedule) error
	Delete(ctx context.Context, dates ...string) error
	DeleteAll(ctx context.Context) error
}

type Archive interface {
	Get(ctx context.Context, date string) (*schedule.DailySchedule, error)
	Upsert(ctx context.Context, s *schedule.DailySchedule) error
}

type Generator interface {
	GenerateDailySchedule(ctx context.Context, date time.Time) (*schedule.DailySchedule, error)
	SelectRotation(ctx context.Context, n int) ([]domain.Project, error)
	Template(ctx context.Context) (*schedule.WeeklyTemplate, error)
}

type TemplateSaver interface {
	Save(ctx context.Context, t *schedule.WeeklyTemplate) error
}

// ScheduleService owns the read/write paths around the assembled schedule.
type ScheduleService struct {
	gen       Generator
	cache     Cache
	archive   Archive
	templates TemplateSaver
	loc       *time.Location
	now       func() time.Time
}

func NewScheduleService(gen Generator, cache Cache, archive Archive, templates TemplateSaver, loc *time.Location) *ScheduleService {
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleService{gen: gen, cache: cache, archive: archive, templates: templates, loc: loc, now: time.Now}
}

// Today returns the current date in the configured timezone.
func (s *ScheduleService) Today() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc)
}

func (s *ScheduleService) Location() *time.Location { return s.loc }

// ParseDate accepts YYYY-MM-DD, "today" and "tomorrow". Empty means today.
func (s *ScheduleService) ParseDate(v string) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "today":
		return s.Today(), nil
	case "tomorrow":
		return s.Today().AddDate(0, 0, 1), nil
	}
	d, err := time.ParseInLocation(schedule.DateLayout, strings.TrimSpace(v), s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", v)
	}
	return d, nil
}

// Generate assembles a fresh schedule for date and caches it.
func (s *ScheduleService) Generate(ctx context.Context, date time.Time) (*schedule.DailySchedule, error) {
	out, err := s.gen.GenerateDailySchedule(ctx, date)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, out)
	return out, nil
}

// ForDate returns the stored schedule for date, generating one if none exists.
func (s *ScheduleService) ForDate(ctx context.Context, date time.Time) (*schedule.DailySchedule, error) {
	key := date.Format(schedule.DateLayout)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, schedule.ErrScheduleNotFound) {
			log.Printf("[schedule] cache get %s: %v", key, err)
		}
	}

	if s.archive != nil {
		stored, err := s.archive.Get(ctx, key)
		if err == nil {
			s.cachePut(ctx, stored)
			return stored, nil
		}
		if !errors.Is(err, schedule.ErrScheduleNotFound) {
			return nil, err
		}
	}

	return s.Generate(ctx, date)
}

func (s *ScheduleService) Tomorrow(ctx context.Context) (*schedule.DailySchedule, error) {
	return s.ForDate(ctx, s.Today().AddDate(0, 0, 1))
}

func (s *ScheduleService) Approve(ctx context.Context, date time.Time) (*schedule.DailySchedule, error) {
	out, err := s.ForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	out.Approved = true
	if err := s.persist(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

const (
	ActionMoveProject = "move_project"
	ActionAddCall     = "add_call"
	ActionRemoveBlock = "remove_block"
)

// UpdateRequest edits a stored schedule. Start and End use any clock form.
type UpdateRequest struct {
	Action    string `json:"action"`
	ProjectID string `json:"project_id,omitempty"`
	Block     string `json:"block,omitempty"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
	Title     string `json:"title,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// ParseTimeRange splits "HH:MM-HH:MM" style ranges.
func ParseTimeRange(v string) (string, string, error) {
	parts := strings.Split(v, "-")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected a start-end time range, got %q", v)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

func (s *ScheduleService) Update(ctx context.Context, date time.Time, req UpdateRequest) (*schedule.DailySchedule, error) {
	out, err := s.ForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	switch req.Action {
	case ActionMoveProject:
		if req.ProjectID == "" {
			return nil, fmt.Errorf("move_project requires project_id")
		}
		start, end, err := parseRange(req.Start, req.End)
		if err != nil {
			return nil, err
		}
		idx := findBlock(out.TimeBlocks, func(b schedule.TimeBlock) bool { return b.ProjectID == req.ProjectID })
		if idx < 0 {
			return nil, fmt.Errorf("%w: project %s", schedule.ErrBlockNotFound, req.ProjectID)
		}
		out.TimeBlocks[idx].Start = start
		out.TimeBlocks[idx].End = end

	case ActionAddCall:
		start, end, err := parseRange(req.Start, req.End)
		if err != nil {
			return nil, err
		}
		title := req.Title
		if title == "" {
			title = "Call"
		}
		var dropped []schedule.TimeBlock
		out.TimeBlocks, dropped = AddCall(out.TimeBlocks, schedule.TimeBlock{Start: start, End: end, Title: title, Type: schedule.BlockCall})
		for _, b := range dropped {
			req.Notes = strings.TrimSpace(req.Notes + "\n" + "Dropped " + b.Title + ": no room after " + title + ".")
		}

	case ActionRemoveBlock:
		idx := findBlock(out.TimeBlocks, func(b schedule.TimeBlock) bool {
			return (req.ProjectID != "" && b.ProjectID == req.ProjectID) ||
				(req.Block != "" && (b.Name == req.Block || strings.EqualFold(b.Title, req.Block)))
		})
		if idx < 0 {
			return nil, schedule.ErrBlockNotFound
		}
		out.TimeBlocks = append(out.TimeBlocks[:idx], out.TimeBlocks[idx+1:]...)

	default:
		return nil, fmt.Errorf("%w: %s (available: move_project, add_call, remove_block)", schedule.ErrUnknownAction, req.Action)
	}

	schedule.SortBlocks(out.TimeBlocks)
	if req.Notes != "" {
		out.Notes = strings.TrimSpace(strings.TrimSpace(out.Notes) + "\n" + req.Notes)
	}
	if err := s.persist(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddCall inserts a call and pushes overlapping work blocks to after it,
// cascading so moved blocks do not overlap each other. Blocks that would
// run past midnight are dropped and returned separately.
func AddCall(blocks []schedule.TimeBlock, call schedule.TimeBlock) (kept, dropped []schedule.TimeBlock) {
	sorted := append([]schedule.TimeBlock(nil), blocks...)
	schedule.SortBlocks(sorted)

	cursor := int(call.End)
	kept = make([]schedule.TimeBlock, 0, len(sorted)+1)
	for _, b := range sorted {
		if b.Type != schedule.BlockWork && b.Type != schedule.BlockBreak {
			kept = append(kept, b)
			continue
		}
		if b.End <= call.Start || int(b.Start) >= cursor {
			kept = append(kept, b)
			continue
		}
		d := int(b.End) - int(b.Start)
		if cursor+d >= schedule.MinutesPerDay {
			dropped = append(dropped, b)
			continue
		}
		b.Start = schedule.Clock(cursor)
		b.End = schedule.Clock(cursor + d)
		cursor += d
		kept = append(kept, b)
	}

	kept = append(kept, call)
	schedule.SortBlocks(kept)
	return kept, dropped
}

// BookCall adds a call to the day it starts on, moving work out of its way.
// Approved days are edited in place so the stored copy reflects the call.
func (s *ScheduleService) BookCall(ctx context.Context, title string, start, end time.Time) (*schedule.DailySchedule, error) {
	start, end = start.In(s.loc), end.In(s.loc)
	if !end.After(start) {
		return nil, fmt.Errorf("call ends before it starts")
	}
	if end.Format(schedule.DateLayout) != start.Format(schedule.DateLayout) {
		return nil, fmt.Errorf("call crosses midnight")
	}
	return s.Update(ctx, start, UpdateRequest{
		Action: ActionAddCall,
		Start:  start.Format("15:04"),
		End:    end.Format("15:04"),
		Title:  title,
	})
}

// CancelCall removes the call block starting at start. Work moved for the
// call stays where it is.
func (s *ScheduleService) CancelCall(ctx context.Context, start time.Time) (*schedule.DailySchedule, error) {
	start = start.In(s.loc)
	out, err := s.ForDate(ctx, start)
	if err != nil {
		return nil, err
	}
	at := schedule.Clock(start.Hour()*60 + start.Minute())
	idx := findBlock(out.TimeBlocks, func(b schedule.TimeBlock) bool { return b.Type == schedule.BlockCall && b.Start == at })
	if idx < 0 {
		return nil, fmt.Errorf("%w: call at %s", schedule.ErrBlockNotFound, at)
	}
	out.TimeBlocks = append(out.TimeBlocks[:idx], out.TimeBlocks[idx+1:]...)
	if err := s.persist(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Rotation exposes the rotation policy over the current project snapshot.
func (s *ScheduleService) Rotation(ctx context.Context, n int) ([]domain.Project, error) {
	return s.gen.SelectRotation(ctx, n)
}

func (s *ScheduleService) Template(ctx context.Context) (*schedule.WeeklyTemplate, error) {
	return s.gen.Template(ctx)
}

// ReplaceTemplate stores a full template and drops cached schedules.
func (s *ScheduleService) ReplaceTemplate(ctx context.Context, t *schedule.WeeklyTemplate) error {
	if s.templates == nil {
		return fmt.Errorf("template store not configured")
	}
	if err := s.templates.Save(ctx, t); err != nil {
		return err
	}
	s.InvalidateAll(ctx)
	return nil
}

// UpdateTemplate edits one block of the current template.
func (s *ScheduleService) UpdateTemplate(ctx context.Context, u schedule.BlockUpdate) (*schedule.WeeklyTemplate, error) {
	current, err := s.gen.Template(ctx)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := next.Apply(u); err != nil {
		return nil, err
	}
	if err := s.ReplaceTemplate(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Invalidate drops cached schedules for the given dates.
func (s *ScheduleService) Invalidate(ctx context.Context, dates ...time.Time) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, d.Format(schedule.DateLayout))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Printf("[schedule] cache invalidate: %v", err)
	}
}

func (s *ScheduleService) InvalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteAll(ctx); err != nil {
		log.Printf("[schedule] cache invalidate all: %v", err)
	}
}

func (s *ScheduleService) persist(ctx context.Context, out *schedule.DailySchedule) error {
	if s.archive != nil {
		if err := s.archive.Upsert(ctx, out); err != nil {
			return err
		}
	}
	s.cachePut(ctx, out)
	return nil
}

func (s *ScheduleService) cachePut(ctx context.Context, out *schedule.DailySchedule) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, out); err != nil {
		log.Printf("[schedule] cache set %s: %v", out.Date, err)
	}
}

func parseRange(startStr, endStr string) (schedule.Clock, schedule.Clock, error) {
	if startStr == "" || endStr == "" {
		return 0, 0, fmt.Errorf("start and end are required")
	}
	start, err := schedule.ParseClock(startStr)
	if err != nil {
		return 0, 0, err
	}
	end, err := schedule.ParseClock(endStr)
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("end must be after start")
	}
	return start, end, nil
}

func findBlock(blocks []schedule.TimeBlock, match func(schedule.TimeBlock) bool) int {
	for i, b := range blocks {
		if match(b) {
			return i
		}
	}
	return -1
}
