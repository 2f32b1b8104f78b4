package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

const (
	envConfigPath        = "MAIDCHAN_CONFIG"
	envAssistantName     = "MAIDCHAN_NAME"
	envRestrictedChats   = "MAIDCHAN_RESTRICTED_CHATS"
	envTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	envTelegramAllowFrom = "TELEGRAM_ALLOW_FROM"

	// DefaultAssistantName is how members address the assistant.
	DefaultAssistantName = "メイドちゃん"
	// AllChats marks every chat as restricted-scope eligible.
	AllChats = "*"
)

// ErrConfigNotFound is returned when no config.json could be located.
var ErrConfigNotFound = errors.New("config.json not found")

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Assistant     AssistantConfig     `json:"assistant"`
	Channels      ChannelsConfig      `json:"channels"`
	Collaborators CollaboratorsConfig `json:"collaborators"`
	Gateway       GatewayConfig       `json:"gateway"`
	Logging       LoggingConfig       `json:"logging,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// AssistantConfig describes the assistant persona and where its chit-chat rules apply.
type AssistantConfig struct {
	Name string `json:"name"`
	// RestrictedChats lists chat IDs that get the restricted-scope rules
	// before the all-channel ones. "*" matches every chat.
	RestrictedChats []string `json:"restricted_chats"`
}

// ChannelsConfig stores transport adapter settings.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

// TelegramConfig configures Telegram channel integration.
type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token"`
	AllowFrom []string `json:"allow_from"`
}

// CollaboratorsConfig configures the outbound lookups some rules depend on.
type CollaboratorsConfig struct {
	Horoscope CollaboratorConfig `json:"horoscope"`
	Weather   CollaboratorConfig `json:"weather"`
}

// CollaboratorConfig configures one HTTP collaborator.
type CollaboratorConfig struct {
	BaseURL               string `json:"base_url"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// GatewayConfig configures HTTP status bind settings and inbound throttling.
type GatewayConfig struct {
	Host      string          `json:"host"`
	Port      int             `json:"port"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// RateLimitConfig bounds how fast a single sender can trigger replies.
type RateLimitConfig struct {
	RPS   float64 `json:"rps"`
	Burst int     `json:"burst"`
}

// Default returns a usable configuration with no channels enabled.
func Default() *Config {
	return &Config{
		Assistant: AssistantConfig{
			Name:            DefaultAssistantName,
			RestrictedChats: []string{AllChats},
		},
		Collaborators: CollaboratorsConfig{
			Horoscope: CollaboratorConfig{RequestTimeoutSeconds: 10},
			Weather:   CollaboratorConfig{RequestTimeoutSeconds: 10},
		},
		Gateway: GatewayConfig{
			Host:      "0.0.0.0",
			Port:      18790,
			RateLimit: RateLimitConfig{RPS: 1, Burst: 5},
		},
	}
}

// LoadConfig resolves config.json, unmarshals it over the defaults, and
// applies .env and environment overrides.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(cfg)
	normalize(cfg)

	return cfg, nil
}

// LoadOrDefault behaves like LoadConfig but falls back to Default when no
// config file exists.
func LoadOrDefault() (*Config, error) {
	cfg, err := LoadConfig()
	if errors.Is(err, ErrConfigNotFound) {
		cfg = Default()
		applyEnvOverrides(cfg)
		normalize(cfg)
		return cfg, nil
	}

	return cfg, err
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if name := strings.TrimSpace(os.Getenv(envAssistantName)); name != "" {
		cfg.Assistant.Name = name
	}

	if rawChats := strings.TrimSpace(os.Getenv(envRestrictedChats)); rawChats != "" {
		cfg.Assistant.RestrictedChats = parseCSV(rawChats)
	}

	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Channels.Telegram.Token = token
	}

	if rawAllowFrom := strings.TrimSpace(os.Getenv(envTelegramAllowFrom)); rawAllowFrom != "" {
		cfg.Channels.Telegram.AllowFrom = parseCSV(rawAllowFrom)
	}
}

func normalize(cfg *Config) {
	cfg.Assistant.Name = strings.TrimSpace(cfg.Assistant.Name)
	if cfg.Assistant.Name == "" {
		cfg.Assistant.Name = DefaultAssistantName
	}
}

// parseCSV splits comma-separated values and returns a trimmed compact slice.
func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

// findConfigPath resolves the active config file location.
//
// Precedence is MAIDCHAN_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w (checked %s and %s)", ErrConfigNotFound, candidates[0], candidates[1])
}
