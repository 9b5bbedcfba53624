package domain

import (
	"strings"
	"time"
)

type ProjectType string

const (
	TypeStartup  ProjectType = "startup"
	TypePersonal ProjectType = "personal"
	TypeClient   ProjectType = "client"
)

// Project is a tracked body of work. Daily projects own a fixed schedule
// block; the rest compete for rotation slots.
type Project struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Path          string      `json:"path,omitempty"`
	Type          ProjectType `json:"type"`
	Priority      int         `json:"priority"`
	Daily         bool        `json:"daily"`
	LastWorked    *time.Time  `json:"last_worked,omitempty"`
	PRDStatusPath string      `json:"prd_status_path,omitempty"`
	ClaudeMDPath  string      `json:"claude_md_path,omitempty"`
	Description   string      `json:"description,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Eligible reports whether the project may fill a rotation slot.
func (p Project) Eligible() bool {
	return !p.Daily && strings.TrimSpace(p.Path) != ""
}

// DaysSinceWorked returns -1 when the project was never worked on.
func (p Project) DaysSinceWorked(now time.Time) int {
	if p.LastWorked == nil {
		return -1
	}
	return int(now.Sub(*p.LastWorked).Hours() / 24)
}

func ParseType(s string) (ProjectType, bool) {
	switch ProjectType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeStartup:
		return TypeStartup, true
	case TypePersonal:
		return TypePersonal, true
	case TypeClient:
		return TypeClient, true
	}
	return "", false
}

// NewProject is the input for creating a project record.
type NewProject struct {
	ID            string
	Name          string
	Path          string
	Type          ProjectType
	Priority      int
	Daily         bool
	PRDStatusPath string
	ClaudeMDPath  string
	Description   string
}
