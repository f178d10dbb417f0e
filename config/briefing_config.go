package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"briefing_worker/pkg/apperr"
)

type Config struct {
	Port        string
	Environment string

	// Storage (all optional; pipeline degrades to filesystem-only)
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// OpenAI
	OpenAIAPIKey   string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeoutSec  int

	// OAuth - Google (token supplied, no interactive flow)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string

	// Todoist
	TodoistAPIToken string
	TodoistBaseURL  string

	// Fetch windows
	EmailLookbackHours int
	EmailMaxResults    int
	CalendarLookahead  time.Duration

	// Scoring
	RecencyWeight    float64
	CountWeight      float64
	SenderWeight     float64
	KeywordWeight    float64
	CountCap         int
	RecencyHalfLife  time.Duration
	TopThreads       int
	PrioritySenders  []string
	DeniedSenders    []string

	// Analysis
	AnalysisWorkers     int
	BodyCharLimit       int
	TranscriptCharLimit int
	AnalysisCacheTTL    time.Duration

	// Synthesis
	MediumTaskLimit int

	// Artifacts
	OutputDir       string
	ArtifactTTLDays int

	// Scheduler
	ScheduleTimes []string
	LockFile      string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_NAME", "briefing"),
		RedisURL:    getEnv("REDIS_URL", ""),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
		LLMTimeoutSec:  getEnvInt("LLM_TIMEOUT_SEC", 60),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),

		TodoistAPIToken: getEnv("TODOIST_API_TOKEN", ""),
		TodoistBaseURL:  getEnv("TODOIST_BASE_URL", "https://api.todoist.com/rest/v2"),

		EmailLookbackHours: getEnvInt("EMAIL_LOOKBACK_HOURS", 24),
		EmailMaxResults:    getEnvInt("EMAIL_MAX_RESULTS", 100),
		CalendarLookahead:  time.Duration(getEnvInt("CALENDAR_LOOKAHEAD_DAYS", 7)) * 24 * time.Hour,

		RecencyWeight:   getEnvFloat("SCORE_RECENCY_WEIGHT", 30.0),
		CountWeight:     getEnvFloat("SCORE_COUNT_WEIGHT", 10.0),
		SenderWeight:    getEnvFloat("SCORE_SENDER_WEIGHT", 100.0),
		KeywordWeight:   getEnvFloat("SCORE_KEYWORD_WEIGHT", 30.0),
		CountCap:        getEnvInt("SCORE_COUNT_CAP", 10),
		RecencyHalfLife: time.Duration(getEnvInt("SCORE_HALF_LIFE_HOURS", 24)) * time.Hour,
		TopThreads:      getEnvInt("TOP_THREADS", 15),
		PrioritySenders: getEnvSlice("PRIORITY_SENDERS", nil),
		DeniedSenders:   getEnvSlice("DENIED_SENDERS", nil),

		AnalysisWorkers:     getEnvInt("ANALYSIS_WORKERS", 4),
		BodyCharLimit:       getEnvInt("BODY_CHAR_LIMIT", 800),
		TranscriptCharLimit: getEnvInt("TRANSCRIPT_CHAR_LIMIT", 12000),
		AnalysisCacheTTL:    time.Duration(getEnvInt("ANALYSIS_CACHE_TTL_MIN", 360)) * time.Minute,

		MediumTaskLimit: getEnvInt("MEDIUM_TASK_LIMIT", 3),

		OutputDir:       getEnv("OUTPUT_DIR", "output"),
		ArtifactTTLDays: getEnvInt("ARTIFACT_TTL_DAYS", 30),

		ScheduleTimes: getEnvSlice("SCHEDULE_TIMES", []string{"06:00", "09:00", "12:00", "15:00", "18:00"}),
		LockFile:      getEnv("LOCK_FILE", "/tmp/briefing_worker.lock"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects configurations that would corrupt a run before it starts.
func (c *Config) validate() error {
	if c.TopThreads <= 0 {
		return apperr.ConfigError("TOP_THREADS must be positive")
	}
	if c.AnalysisWorkers <= 0 {
		return apperr.ConfigError("ANALYSIS_WORKERS must be positive")
	}
	if c.BodyCharLimit <= 0 || c.TranscriptCharLimit <= 0 {
		return apperr.ConfigError("transcript limits must be positive")
	}
	if c.RecencyHalfLife <= 0 {
		return apperr.ConfigError("SCORE_HALF_LIFE_HOURS must be positive")
	}
	for _, t := range c.ScheduleTimes {
		if _, err := time.Parse("15:04", strings.TrimSpace(t)); err != nil {
			return apperr.ConfigError("SCHEDULE_TIMES entries must be HH:MM: " + t)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
