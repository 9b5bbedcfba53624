package domain

import (
	"strings"
	"time"
)

type Priority string

const (
	PrioritySignal Priority = "signal"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNoise  Priority = "noise"
)

// Priorities lists every priority, most important first.
var Priorities = []Priority{PrioritySignal, PriorityHigh, PriorityMedium, PriorityLow, PriorityNoise}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	ProjectID   string     `json:"project_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ParsePriority is strict; it is used where a wrong value must be reported.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Priorities {
		if p == known {
			return p, nil
		}
	}
	return "", ErrInvalidPriority
}

// NormalizePriority maps unknown or empty values to medium.
func NormalizePriority(s string) Priority {
	p, err := ParsePriority(s)
	if err != nil {
		return PriorityMedium
	}
	return p
}

// ParseStatus returns "" for "all".
func ParseStatus(s string) (Status, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", string(StatusPending):
		return StatusPending, nil
	case string(StatusInProgress), string(StatusCompleted):
		return Status(v), nil
	case "all":
		return "", nil
	}
	return "", ErrInvalidStatus
}

// Urgent reports whether the priority belongs to the signal tier.
func (p Priority) Urgent() bool {
	return p == PrioritySignal || p == PriorityHigh
}

type Filter struct {
	Status    Status
	ProjectID string
	Priority  Priority
	Limit     int
}
