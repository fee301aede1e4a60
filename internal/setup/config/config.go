// Package config resolves the application configuration: an optional TOML
// config file plus environment variables for secrets and fetch tunables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables consumed by the fetch pipeline.
const (
	EnvBotToken      = "DISCORD_BOT_TOKEN" //nolint:gosec // env var name, not a credential
	EnvMaxMessages   = "DISCORD_CHAT_MAX_MESSAGES"
	EnvMaxConcurrent = "DISCORD_CHAT_MAX_CONCURRENT"
	EnvTimeout       = "DISCORD_CHAT_TIMEOUT"
	EnvAuditLog      = "DISCORD_CHAT_SECURITY_LOG"
)

// Fetch tunable defaults and their accepted ranges. Values outside a range
// silently fall back to the default; the tunables are usability knobs and
// a malformed value must never abort a run.
const (
	DefaultMaxMessages = 1000
	MinMaxMessages     = 100
	MaxMaxMessages     = 10000

	DefaultMaxConcurrent = 5
	MinMaxConcurrent     = 1
	MaxMaxConcurrent     = 20

	DefaultTimeoutSeconds = 60
	MinTimeoutSeconds     = 10
	MaxTimeoutSeconds     = 300
)

// Fetch holds the resolved tunables of one fetcher instance.
type Fetch struct {
	// MaxMessagesPerChannel caps how many messages a single channel may
	// contribute to a digest.
	MaxMessagesPerChannel int
	// MaxConcurrentChannels bounds how many channel fetches run at once.
	MaxConcurrentChannels int
	// OperationTimeout bounds the entire fetch operation.
	OperationTimeout time.Duration
}

// LoadFetch resolves the fetch tunables from the environment, clamping each
// independently to its accepted range.
func LoadFetch() Fetch {
	return Fetch{
		MaxMessagesPerChannel: envInt(EnvMaxMessages, DefaultMaxMessages, MinMaxMessages, MaxMaxMessages),
		MaxConcurrentChannels: envInt(EnvMaxConcurrent, DefaultMaxConcurrent, MinMaxConcurrent, MaxMaxConcurrent),
		OperationTimeout: time.Duration(
			envInt(EnvTimeout, DefaultTimeoutSeconds, MinTimeoutSeconds, MaxTimeoutSeconds),
		) * time.Second,
	}
}

// envInt reads an integer environment variable, falling back to def when the
// variable is unset, non-numeric, or outside [minValue, maxValue]. It never
// fails: an invalid tunable selects the default rather than aborting.
func envInt(key string, def, minValue, maxValue int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < minValue || value > maxValue {
		return def
	}

	return value
}

// Config is the file-backed application configuration. Everything in it is
// optional; environment variables win for secrets and tunables.
type Config struct {
	Discord Discord `koanf:"discord"`
	LLM     LLM     `koanf:"llm"`
	Log     Log     `koanf:"log"`
}

// Discord contains remote-service settings.
type Discord struct {
	// Bot token. DISCORD_BOT_TOKEN overrides this when set.
	Token string `koanf:"token"`
}

// LLM contains digest-generation settings.
type LLM struct {
	// Preferred provider name (openai or gemini). Empty selects the first
	// available provider.
	Provider string `koanf:"provider"`
	// Model overrides per provider.
	OpenAIModel string `koanf:"openai_model"`
	GeminiModel string `koanf:"gemini_model"`
}

// Log contains logging settings.
type Log struct {
	// Level is the zap log level (debug, info, warn, error).
	Level string `koanf:"level"`
	// AuditPath is where security audit events are written.
	// DISCORD_CHAT_SECURITY_LOG overrides this when set.
	AuditPath string `koanf:"audit_path"`
}

// Load reads the config file at path. A missing file is not an error; the
// default configuration is returned so the tool works from environment
// variables alone.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Log: Log{Level: "info", AuditPath: "security.log"},
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}

		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// BotToken returns the Discord bot token, preferring the environment over
// the config file.
func (c *Config) BotToken() string {
	if token := os.Getenv(EnvBotToken); token != "" {
		return token
	}

	return c.Discord.Token
}

// AuditLogPath returns where audit events are written, preferring the
// environment over the config file.
func (c *Config) AuditLogPath() string {
	if path := os.Getenv(EnvAuditLog); path != "" {
		return path
	}

	return c.Log.AuditPath
}
