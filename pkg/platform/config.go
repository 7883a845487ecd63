// Package platform loads configuration and wires the chat service together.
package platform

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/txn2/moodchat/pkg/chatbot"
	"github.com/txn2/moodchat/pkg/conversation"
	"github.com/txn2/moodchat/pkg/emotion"
	"github.com/txn2/moodchat/pkg/llm"
	"github.com/txn2/moodchat/pkg/transcript"
)

// Environment variables consulted when the config leaves a value empty.
const (
	EnvGroqAPIKey  = "GROQ_API_KEY"
	EnvLLMAPIKey   = "LLM_API_KEY"
	EnvDatabaseURL = "DATABASE_URL"
)

// Defaults applied by applyDefaults.
const (
	DefaultName            = "moodchat"
	DefaultAddress         = ":8080"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxOpenConns    = 25
	DefaultRetentionDays   = 30
)

const maxTemperature = 2.0

// Config holds the complete service configuration.
type Config struct {
	Server       ServerConfig        `yaml:"server"`
	LLM          llm.Config          `yaml:"llm"`
	Conversation conversation.Config `yaml:"conversation"`
	Emotion      emotion.Config      `yaml:"emotion"`
	Chat         chatbot.Config      `yaml:"chat"`
	Database     DatabaseConfig      `yaml:"database"`
	Transcript   transcript.Config   `yaml:"transcript"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Name            string        `yaml:"name"`
	Address         string        `yaml:"address"`
	LogLevel        string        `yaml:"log_level"`  // debug, info, warn, error
	LogFormat       string        `yaml:"log_format"` // text, json
	StaticDir       string        `yaml:"static_dir"` // empty serves the embedded page
	CORSOrigins     []string      `yaml:"cors_origins"`
	Swagger         *bool         `yaml:"swagger"`
	MCP             *bool         `yaml:"mcp"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SwaggerEnabled reports whether the API docs are served. Defaults to true.
func (s ServerConfig) SwaggerEnabled() bool {
	return s.Swagger == nil || *s.Swagger
}

// MCPEnabled reports whether the MCP endpoint is served. Defaults to true.
func (s ServerConfig) MCPEnabled() bool {
	return s.MCP == nil || *s.MCP
}

// DatabaseConfig configures the PostgreSQL connection used by the exchange log.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by admin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = DefaultName
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultAddress
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = DefaultLogLevel
	}
	if cfg.Server.LogFormat == "" {
		cfg.Server.LogFormat = DefaultLogFormat
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = firstEnv(EnvGroqAPIKey, EnvLLMAPIKey)
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = llm.DefaultBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = llm.DefaultModel
	}
	if cfg.Conversation.WindowSize == 0 {
		cfg.Conversation.WindowSize = conversation.DefaultWindowSize
	}
	if cfg.Chat.MaxMessageChars == 0 {
		cfg.Chat.MaxMessageChars = chatbot.DefaultMaxMessageChars
	}
	if cfg.Chat.DefaultSession == "" {
		cfg.Chat.DefaultSession = chatbot.DefaultSession
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = os.Getenv(EnvDatabaseURL)
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultMaxOpenConns
	}
	if cfg.Transcript.RetentionDays == 0 {
		cfg.Transcript.RetentionDays = DefaultRetentionDays
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.LLM.APIKey) == "" {
		errs = append(errs, fmt.Sprintf("llm.api_key is required (or set %s)", EnvGroqAPIKey))
	}
	if c.LLM.BaseURL != "" {
		if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, "llm.base_url must be an absolute URL")
		}
	}
	for _, t := range []struct {
		name  string
		value *float64
	}{
		{"llm.temperature", c.LLM.Temperature},
		{"llm.classify_temperature", c.LLM.ClassifyTemperature},
	} {
		if t.value != nil && (*t.value < 0 || *t.value > maxTemperature) {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and %g", t.name, maxTemperature))
		}
	}
	if c.Conversation.WindowSize < 1 {
		errs = append(errs, "conversation.history_window_size must be at least 1")
	}
	if c.Chat.MaxMessageChars < 0 {
		errs = append(errs, "chat.max_message_chars must not be negative")
	}
	if _, err := emotion.NewSet(c.Emotion); err != nil {
		errs = append(errs, err.Error())
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, "server.log_level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Server.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, "server.log_format must be text or json")
	}
	if c.Transcript.Enabled && c.Database.DSN == "" {
		errs = append(errs, fmt.Sprintf("transcript.enabled requires database.dsn (or set %s)", EnvDatabaseURL))
	}
	if c.Transcript.RetentionDays < 0 {
		errs = append(errs, "transcript.retention_days must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
