package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DONNA_TIMEZONE", "")
	t.Setenv("DONNA_MORNING_BRIEF_TIME", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "America/New_York", cfg.App.Timezone)
	assert.Equal(t, "05:00", cfg.Scheduler.MorningBriefTime)
	assert.Equal(t, "21:00", cfg.Scheduler.EveningSummaryTime)
	assert.Equal(t, 3, cfg.Calendly.SyncIntervalHours)
	assert.Equal(t, "primary", cfg.Google.CalendarID)
	assert.Equal(t, "America/New_York", cfg.Location().String())
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Database:  DatabaseConfig{Host: "localhost"},
			App:       AppConfig{Timezone: "UTC"},
			Calendly:  CalendlyConfig{SyncIntervalHours: 3},
			Scheduler: SchedulerConfig{MorningBriefTime: "05:00", EveningSummaryTime: "21:00", EventCheckMinutes: 15},
		}
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing port", func(t *testing.T) {
		c := valid()
		c.Server.Port = ""
		assert.EqualError(t, c.Validate(), "PORT is required")
	})

	t.Run("bad timezone", func(t *testing.T) {
		c := valid()
		c.App.Timezone = "Mars/Olympus"
		assert.Error(t, c.Validate())
	})

	t.Run("bad brief time", func(t *testing.T) {
		c := valid()
		c.Scheduler.MorningBriefTime = "25:00"
		assert.Error(t, c.Validate())
	})
}

func TestGetEnvAsSlice(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,,")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvAsSlice("CORS_ORIGINS", nil))
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"unset uses default", "", true},
		{"false", "false", false},
		{"zero", "0", false},
		{"garbage uses default", "maybe", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DONNA_SCHEDULER_ENABLED", tt.value)
			assert.Equal(t, tt.want, getEnvAsBool("DONNA_SCHEDULER_ENABLED", true))
		})
	}
}
