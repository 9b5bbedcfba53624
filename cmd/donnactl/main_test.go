package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
)

func TestRootCommands(t *testing.T) {
	var names []string
	for _, c := range newRootCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"schedule", "rotation", "migrate", "mcp"})
}

func TestRenderSchedule(t *testing.T) {
	s := schedule.Assemble(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), schedule.DefaultTemplate(), []domain.Project{
		{ID: "sigmavue", Name: "Sigmavue", Daily: true, Priority: 1},
		{ID: "sss", Name: "SSS", Priority: 2},
	}, nil, []string{"Ship the beta"})

	var buf bytes.Buffer
	renderSchedule(&buf, newStyles(), s)
	out := buf.String()

	assert.Contains(t, out, "Monday 2024-01-01")
	assert.Contains(t, out, "12:00 PM")
	assert.Contains(t, out, "Sigmavue")
	assert.Contains(t, out, "1. Ship the beta")
}

func TestRenderRotation(t *testing.T) {
	var buf bytes.Buffer
	renderRotation(&buf, newStyles(), nil)
	assert.Contains(t, buf.String(), "No projects are eligible")

	buf.Reset()
	worked := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	renderRotation(&buf, newStyles(), []domain.Project{
		{Name: "SSS", Priority: 2},
		{Name: "Academy", Priority: 3, LastWorked: &worked},
	})
	assert.Contains(t, buf.String(), "1. SSS")
	assert.Contains(t, buf.String(), "last worked never")
	assert.Contains(t, buf.String(), "last worked 2024-01-01")
}
