package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends accepted by TURNSTILE_STORE.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Settings is the process configuration read from the environment.
type Settings struct {
	LogLevel string `env:"TURNSTILE_LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"TURNSTILE_LOG_JSON" envDefault:"false"`

	Store   string `env:"TURNSTILE_STORE" envDefault:"file"`
	DataDir string `env:"TURNSTILE_DATA_DIR" envDefault:".turnstile"`

	RedisAddr     string        `env:"TURNSTILE_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"TURNSTILE_REDIS_PASSWORD"`
	RedisDB       int           `env:"TURNSTILE_REDIS_DB" envDefault:"0"`
	RedisTTL      time.Duration `env:"TURNSTILE_REDIS_TTL" envDefault:"0s"`
	RedisLock     bool          `env:"TURNSTILE_REDIS_LOCK" envDefault:"false"`

	SQLitePath string `env:"TURNSTILE_SQLITE_PATH"`
	GamesDir   string `env:"TURNSTILE_GAMES_DIR"`
	AgentsFile string `env:"TURNSTILE_AGENTS_FILE"`

	// Base64 AES-256 keys sealing stored transcripts. Empty disables encryption.
	EncryptionKey          string   `env:"TURNSTILE_ENCRYPTION_KEY"`
	EncryptionFallbackKeys []string `env:"TURNSTILE_ENCRYPTION_FALLBACK_KEYS"`
	RedactKeys             []string `env:"TURNSTILE_REDACT_KEYS"`

	HTTPAddr     string `env:"TURNSTILE_HTTP_ADDR" envDefault:":8080"`
	MetricsAddr  string `env:"TURNSTILE_METRICS_ADDR"`
	OTelEndpoint string `env:"TURNSTILE_OTEL_ENDPOINT"`

	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	AnthropicKey  string `env:"ANTHROPIC_API_KEY"`
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	switch s.Store {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	default:
		return Settings{}, fmt.Errorf("unknown store %q (want %s, %s, %s or %s)",
			s.Store, StoreMemory, StoreFile, StoreRedis, StoreSQLite)
	}
	return s, nil
}

// AgentsPath is the process agents file, defaulting to the data directory.
func (s Settings) AgentsPath() string {
	if s.AgentsFile != "" {
		return s.AgentsFile
	}
	return filepath.Join(s.DataDir, "agents.yaml")
}

// SessionsDir is where the file store keeps transcripts.
func (s Settings) SessionsDir() string {
	return filepath.Join(s.DataDir, "sessions")
}

// DatabasePath is the SQLite file, defaulting to the data directory.
func (s Settings) DatabasePath() string {
	if s.SQLitePath != "" {
		return s.SQLitePath
	}
	return filepath.Join(s.DataDir, "transcripts.db")
}

// DeterminismResultsPath is the file recording determinism checks.
func (s Settings) DeterminismResultsPath() string {
	return filepath.Join(s.DataDir, "results", "determinism_check.json")
}
