// Package config loads knowbot configuration from defaults, an optional TOML
// file and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// State backend names.
const (
	BackendFile      = "file"
	BackendSQLite    = "sqlite"
	BackendSurrealDB = "surrealdb"
	BackendMemory    = "memory"
)

// Responder names.
const (
	ResponderStatic = "static"
	ResponderLLM    = "llm"
)

// LLM provider names.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// DefaultStaticReply is the placeholder bot answer.
const DefaultStaticReply = "Thanks for reaching out! This is a placeholder response from the Knowledge Bot while we wire up the real service."

// DefaultReplyDelay is how long the static responder waits before answering.
const DefaultReplyDelay = 450 * time.Millisecond

// Config holds all configuration values.
type Config struct {
	// HTTP server
	ServerPort string `toml:"server_port"`

	// Persisted state
	StateBackend string `toml:"state_backend"`
	StatePath    string `toml:"state_path"`
	SQLitePath   string `toml:"sqlite_path"`

	// SurrealDB connection
	SurrealDBURL       string `toml:"surrealdb_url"`
	SurrealDBNamespace string `toml:"surrealdb_namespace"`
	SurrealDBDatabase  string `toml:"surrealdb_database"`
	SurrealDBUser      string `toml:"surrealdb_user"`
	SurrealDBPass      string `toml:"surrealdb_pass"`
	SurrealDBAuthLevel string `toml:"surrealdb_auth_level"`

	// Bot replies
	Responder   string        `toml:"responder"`
	ReplyDelay  time.Duration `toml:"reply_delay"`
	StaticReply string        `toml:"static_reply"`

	// LLM responder
	LLMProvider     string `toml:"llm_provider"`
	LLMModel        string `toml:"llm_model"`
	OllamaHost      string `toml:"ollama_host"`
	OpenAIAPIKey    string `toml:"-"`
	AnthropicAPIKey string `toml:"-"`

	// Issue reports
	ResendAPIKey     string  `toml:"-"`
	SystemEmail      string  `toml:"system_email"`
	IssueReportEmail string  `toml:"issue_report_email"`
	ReportRatePerMin float64 `toml:"report_rate_per_min"`
	ReportBurst      int     `toml:"report_burst"`

	// Logging
	LogFile  string     `toml:"log_file"`
	LogLevel slog.Level `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	dataDir := defaultDataDir()
	return Config{
		ServerPort: "8484",

		StateBackend: BackendFile,
		StatePath:    filepath.Join(dataDir, "state.json"),
		SQLitePath:   filepath.Join(dataDir, "state.db"),

		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "knowbot",
		SurrealDBDatabase:  "workspace",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		Responder:   ResponderStatic,
		ReplyDelay:  DefaultReplyDelay,
		StaticReply: DefaultStaticReply,

		LLMProvider: ProviderOllama,
		LLMModel:    "llama3.2",
		OllamaHost:  "http://localhost:11434",

		SystemEmail:      "onboarding@resend.dev",
		IssueReportEmail: "support@beairdharris.com",
		ReportRatePerMin: 30,
		ReportBurst:      5,

		LogFile:  filepath.Join(os.TempDir(), "knowbot.log"),
		LogLevel: slog.LevelInfo,
	}
}

// Load reads configuration. Values from the TOML file named by KNOWBOT_CONFIG
// override defaults; environment variables override both.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("KNOWBOT_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.ServerPort = getEnv("KNOWBOT_SERVER_PORT", c.ServerPort)

	c.StateBackend = strings.ToLower(getEnv("KNOWBOT_STATE_BACKEND", c.StateBackend))
	c.StatePath = getEnv("KNOWBOT_STATE_PATH", c.StatePath)
	c.SQLitePath = getEnv("KNOWBOT_SQLITE_PATH", c.SQLitePath)

	c.SurrealDBURL = getEnv("SURREALDB_URL", c.SurrealDBURL)
	c.SurrealDBNamespace = getEnv("SURREALDB_NAMESPACE", c.SurrealDBNamespace)
	c.SurrealDBDatabase = getEnv("SURREALDB_DATABASE", c.SurrealDBDatabase)
	c.SurrealDBUser = getEnv("SURREALDB_USER", c.SurrealDBUser)
	c.SurrealDBPass = getEnv("SURREALDB_PASS", c.SurrealDBPass)
	c.SurrealDBAuthLevel = getEnv("SURREALDB_AUTH_LEVEL", c.SurrealDBAuthLevel)

	c.Responder = strings.ToLower(getEnv("KNOWBOT_RESPONDER", c.Responder))
	c.StaticReply = getEnv("KNOWBOT_STATIC_REPLY", c.StaticReply)
	if v := os.Getenv("KNOWBOT_REPLY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse KNOWBOT_REPLY_DELAY: %w", err)
		}
		c.ReplyDelay = d
	}

	c.LLMProvider = strings.ToLower(getEnv("KNOWBOT_LLM_PROVIDER", c.LLMProvider))
	c.LLMModel = getEnv("KNOWBOT_LLM_MODEL", c.LLMModel)
	c.OllamaHost = getEnv("OLLAMA_HOST", c.OllamaHost)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", c.AnthropicAPIKey)

	c.ResendAPIKey = getEnv("RESEND_API_KEY", c.ResendAPIKey)
	c.SystemEmail = getEnv("SYSTEM_EMAIL", c.SystemEmail)
	c.IssueReportEmail = getEnv("ISSUE_REPORT_EMAIL", c.IssueReportEmail)
	if v := os.Getenv("KNOWBOT_REPORT_RATE_PER_MIN"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse KNOWBOT_REPORT_RATE_PER_MIN: %w", err)
		}
		c.ReportRatePerMin = rate
	}

	c.LogFile = getEnv("KNOWBOT_LOG_FILE", c.LogFile)
	if v := os.Getenv("KNOWBOT_LOG_LEVEL"); v != "" {
		c.LogLevel = parseLogLevel(v)
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".knowbot"
	}
	return filepath.Join(home, ".knowbot")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
