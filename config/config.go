package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	App        AppConfig
	Telegram   TelegramConfig
	OpenAI     OpenAIConfig
	Google     GoogleConfig
	Calendly   CalendlyConfig
	ElevenLabs ElevenLabsConfig
	Firebase   FirebaseConfig
	Storage    StorageConfig
	Scheduler  SchedulerConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	Timezone    string
	Workspace   string
}

type TelegramConfig struct {
	BotToken string
	ChatID   string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type GoogleConfig struct {
	CredentialsPath string
	TokenPath       string
	CalendarID      string
}

type CalendlyConfig struct {
	APIKey            string
	WebhookSecret     string
	SyncIntervalHours int
}

type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string
	ModelID string
}

type FirebaseConfig struct {
	CredentialsPath string
	OwnerUID        string
}

type StorageConfig struct {
	VoiceArchiveBucket string
	AWSRegion          string
}

type SchedulerConfig struct {
	Enabled            bool
	MorningBriefTime   string
	EveningSummaryTime string
	EventCheckMinutes  int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnvAsSlice("CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "donna"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Timezone:    getEnv("DONNA_TIMEZONE", "America/New_York"),
			Workspace:   getEnv("DONNA_WORKSPACE", "./workspace"),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o"),
		},
		Google: GoogleConfig{
			CredentialsPath: getEnv("GOOGLE_CREDENTIALS_PATH", "./credentials/google_credentials.json"),
			TokenPath:       getEnv("GOOGLE_TOKEN_PATH", "./credentials/google_token.json"),
			CalendarID:      getEnv("GOOGLE_CALENDAR_ID", "primary"),
		},
		Calendly: CalendlyConfig{
			APIKey:            getEnv("CALENDLY_API_KEY", ""),
			WebhookSecret:     getEnv("CALENDLY_WEBHOOK_SECRET", ""),
			SyncIntervalHours: getEnvAsInt("DONNA_CALENDLY_SYNC_INTERVAL_HOURS", 3),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:  getEnv("ELEVENLABS_API_KEY", ""),
			VoiceID: getEnv("ELEVENLABS_VOICE_ID", ""),
			ModelID: getEnv("ELEVENLABS_MODEL_ID", "eleven_turbo_v2_5"),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			OwnerUID:        getEnv("FIREBASE_OWNER_UID", ""),
		},
		Storage: StorageConfig{
			VoiceArchiveBucket: getEnv("VOICE_ARCHIVE_BUCKET", ""),
			AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		},
		Scheduler: SchedulerConfig{
			Enabled:            getEnvAsBool("DONNA_SCHEDULER_ENABLED", true),
			MorningBriefTime:   getEnv("DONNA_MORNING_BRIEF_TIME", "05:00"),
			EveningSummaryTime: getEnv("DONNA_EVENING_SUMMARY_TIME", "21:00"),
			EventCheckMinutes:  getEnvAsInt("DONNA_EVENT_CHECK_MINUTES", 15),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("DB_DSN or DB_HOST is required")
	}

	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("DONNA_TIMEZONE is invalid: %w", err)
	}

	if _, _, err := ParseHHMM(c.Scheduler.MorningBriefTime); err != nil {
		return fmt.Errorf("DONNA_MORNING_BRIEF_TIME: %w", err)
	}
	if _, _, err := ParseHHMM(c.Scheduler.EveningSummaryTime); err != nil {
		return fmt.Errorf("DONNA_EVENING_SUMMARY_TIME: %w", err)
	}

	if c.Calendly.SyncIntervalHours <= 0 {
		return fmt.Errorf("DONNA_CALENDLY_SYNC_INTERVAL_HOURS must be positive")
	}
	if c.Scheduler.EventCheckMinutes <= 0 || c.Scheduler.EventCheckMinutes > 59 {
		return fmt.Errorf("DONNA_EVENT_CHECK_MINUTES must be between 1 and 59")
	}

	return nil
}

// Location returns the configured timezone. Validate has already checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseHHMM parses a 24h "HH:MM" wall-clock string.
func ParseHHMM(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func (c *Config) VoiceEnabled() bool {
	return c.ElevenLabs.APIKey != "" && c.ElevenLabs.VoiceID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
