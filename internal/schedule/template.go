package schedule

import (
	"fmt"
	"strings"
	"time"
)

type WorkKind string

const (
	KindFixed    WorkKind = "fixed"
	KindBreak    WorkKind = "break"
	KindRotation WorkKind = "rotation"
)

// WeeklyTemplate is the read-mostly configuration a day is assembled from.
type WeeklyTemplate struct {
	Version        string          `json:"version" yaml:"version"`
	Timezone       string          `json:"timezone" yaml:"timezone"`
	PersonalBlocks []PersonalBlock `json:"personal_blocks" yaml:"personal_blocks"`
	WorkBlocks     []WorkBlock     `json:"work_blocks" yaml:"work_blocks"`
	EveningBlocks  []EveningBlock  `json:"evening_blocks,omitempty" yaml:"evening_blocks,omitempty"`
}

// PersonalBlock is a routine item. An empty Days set means every day.
type PersonalBlock struct {
	Name            string   `json:"name" yaml:"name"`
	Title           string   `json:"title" yaml:"title"`
	Time            Clock    `json:"time" yaml:"time"`
	Days            []string `json:"days,omitempty" yaml:"days,omitempty"`
	DurationMinutes int      `json:"duration_minutes" yaml:"duration_minutes"`
}

// ActiveOn reports whether the block applies to the weekday (case-insensitive).
func (b PersonalBlock) ActiveOn(day time.Weekday) bool {
	if len(b.Days) == 0 {
		return true
	}
	for _, d := range b.Days {
		if strings.EqualFold(strings.TrimSpace(d), day.String()) {
			return true
		}
	}
	return false
}

func (b PersonalBlock) End() Clock {
	return b.Time.Add(b.DurationMinutes)
}

type WorkBlock struct {
	Name      string   `json:"name" yaml:"name"`
	Kind      WorkKind `json:"kind" yaml:"kind"`
	Start     Clock    `json:"start" yaml:"start"`
	End       Clock    `json:"end" yaml:"end"`
	ProjectID string   `json:"project,omitempty" yaml:"project,omitempty"`
	Title     string   `json:"title,omitempty" yaml:"title,omitempty"`
}

type EveningBlock struct {
	Name  string `json:"name" yaml:"name"`
	Title string `json:"title" yaml:"title"`
	Start Clock  `json:"start" yaml:"start"`
	End   Clock  `json:"end" yaml:"end"`
}

// DefaultTemplate is used whenever no template has been stored.
func DefaultTemplate() *WeeklyTemplate {
	return &WeeklyTemplate{
		Version:  "1.0.0",
		Timezone: "America/New_York",
		PersonalBlocks: []PersonalBlock{
			{Name: "wake", Title: "Wake up", Time: MustClock("7:00 AM"), DurationMinutes: 60},
			{Name: "gym", Title: "Gym", Time: MustClock("8:00 AM"), Days: []string{"monday", "wednesday", "friday"}, DurationMinutes: 90},
			{Name: "stretch", Title: "Stretch / Recovery", Time: MustClock("9:30 AM"), DurationMinutes: 30},
			{Name: "shower", Title: "Shower", Time: MustClock("10:00 AM"), DurationMinutes: 30},
			{Name: "ready", Title: "Ready / Personal time", Time: MustClock("10:30 AM"), DurationMinutes: 60},
		},
		WorkBlocks: []WorkBlock{
			{Name: "primary", Kind: KindFixed, Start: MustClock("12:00 PM"), End: MustClock("3:00 PM"), ProjectID: "sigmavue"},
			{Name: "break_1", Kind: KindBreak, Start: MustClock("3:00 PM"), End: MustClock("3:30 PM"), Title: "Break"},
			{Name: "rotation_1", Kind: KindRotation, Start: MustClock("3:30 PM"), End: MustClock("5:00 PM")},
			{Name: "rotation_2", Kind: KindRotation, Start: MustClock("5:00 PM"), End: MustClock("7:00 PM")},
		},
		EveningBlocks: []EveningBlock{
			{Name: "dinner", Title: "Dinner", Start: MustClock("7:30 PM"), End: MustClock("9:00 PM")},
			{Name: "wind_down", Title: "Wind down", Start: MustClock("9:00 PM"), End: MustClock("10:30 PM")},
		},
	}
}

// RotationSlots counts the rotation work blocks.
func (t *WeeklyTemplate) RotationSlots() int {
	n := 0
	for _, b := range t.WorkBlocks {
		if b.Kind == KindRotation {
			n++
		}
	}
	return n
}

// FixedProjectIDs lists the projects bound to fixed blocks.
func (t *WeeklyTemplate) FixedProjectIDs() []string {
	var ids []string
	for _, b := range t.WorkBlocks {
		if b.Kind == KindFixed && b.ProjectID != "" {
			ids = append(ids, b.ProjectID)
		}
	}
	return ids
}

// Location resolves the template timezone, falling back to UTC.
func (t *WeeklyTemplate) Location() *time.Location {
	if t.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

var weekdays = map[string]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

func (t *WeeklyTemplate) Validate() error {
	if t.Timezone != "" {
		if _, err := time.LoadLocation(t.Timezone); err != nil {
			return fmt.Errorf("%w: timezone %q", ErrInvalidTemplate, t.Timezone)
		}
	}

	names := map[string]bool{}
	for _, b := range t.PersonalBlocks {
		if b.Name == "" {
			return fmt.Errorf("%w: personal block without name", ErrInvalidTemplate)
		}
		if b.DurationMinutes <= 0 {
			return fmt.Errorf("%w: %s duration must be positive", ErrInvalidTemplate, b.Name)
		}
		for _, d := range b.Days {
			if !weekdays[strings.ToLower(strings.TrimSpace(d))] {
				return fmt.Errorf("%w: %s has unknown day %q", ErrInvalidTemplate, b.Name, d)
			}
		}
		if names[b.Name] {
			return fmt.Errorf("%w: duplicate block %q", ErrInvalidTemplate, b.Name)
		}
		names[b.Name] = true
	}

	fixed := map[string]bool{}
	for _, b := range t.WorkBlocks {
		if b.Name == "" {
			return fmt.Errorf("%w: work block without name", ErrInvalidTemplate)
		}
		if names[b.Name] {
			return fmt.Errorf("%w: duplicate block %q", ErrInvalidTemplate, b.Name)
		}
		names[b.Name] = true
		if b.End <= b.Start {
			return fmt.Errorf("%w: %s ends before it starts", ErrInvalidTemplate, b.Name)
		}
		switch b.Kind {
		case KindFixed:
			if b.ProjectID == "" {
				return fmt.Errorf("%w: fixed block %s needs a project", ErrInvalidTemplate, b.Name)
			}
			if fixed[b.ProjectID] {
				return fmt.Errorf("%w: project %s bound to more than one fixed block", ErrInvalidTemplate, b.ProjectID)
			}
			fixed[b.ProjectID] = true
		case KindBreak, KindRotation:
		default:
			return fmt.Errorf("%w: %s has unknown kind %q", ErrInvalidTemplate, b.Name, b.Kind)
		}
	}

	for _, b := range t.EveningBlocks {
		if b.Name == "" {
			return fmt.Errorf("%w: evening block without name", ErrInvalidTemplate)
		}
		if names[b.Name] {
			return fmt.Errorf("%w: duplicate block %q", ErrInvalidTemplate, b.Name)
		}
		names[b.Name] = true
		if b.End <= b.Start {
			return fmt.Errorf("%w: %s ends before it starts", ErrInvalidTemplate, b.Name)
		}
	}
	return nil
}

// BlockUpdate edits one named block. Nil fields are left unchanged.
type BlockUpdate struct {
	Name  string
	Start *Clock
	End   *Clock
	Days  []string
}

// Apply edits the block in place and validates the result.
func (t *WeeklyTemplate) Apply(u BlockUpdate) error {
	found := false
	for i := range t.PersonalBlocks {
		b := &t.PersonalBlocks[i]
		if b.Name != u.Name {
			continue
		}
		found = true
		if u.Start != nil {
			b.Time = *u.Start
		}
		if u.End != nil {
			d := int(*u.End) - int(b.Time)
			if d <= 0 {
				return fmt.Errorf("%w: %s ends before it starts", ErrInvalidTemplate, b.Name)
			}
			b.DurationMinutes = d
		}
		if u.Days != nil {
			b.Days = u.Days
		}
	}
	for i := range t.WorkBlocks {
		b := &t.WorkBlocks[i]
		if b.Name != u.Name {
			continue
		}
		found = true
		if u.Start != nil {
			b.Start = *u.Start
		}
		if u.End != nil {
			b.End = *u.End
		}
	}
	for i := range t.EveningBlocks {
		b := &t.EveningBlocks[i]
		if b.Name != u.Name {
			continue
		}
		found = true
		if u.Start != nil {
			b.Start = *u.Start
		}
		if u.End != nil {
			b.End = *u.End
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, u.Name)
	}
	return t.Validate()
}

// Clone returns a deep copy.
func (t *WeeklyTemplate) Clone() *WeeklyTemplate {
	c := *t
	c.PersonalBlocks = make([]PersonalBlock, len(t.PersonalBlocks))
	for i, b := range t.PersonalBlocks {
		b.Days = append([]string(nil), b.Days...)
		c.PersonalBlocks[i] = b
	}
	c.WorkBlocks = append([]WorkBlock(nil), t.WorkBlocks...)
	c.EveningBlocks = append([]EveningBlock(nil), t.EveningBlocks...)
	return &c
}
