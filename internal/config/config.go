// internal/config/config.go
//
// This package handles configuration and the .cfpgen directory structure.
// Every directory cfpgen runs in gets a .cfpgen/ folder for config, logs,
// exports and saved sessions.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/cfpgen/internal/assistant"
	"github.com/kingrea/cfpgen/internal/catalog"
	"github.com/kingrea/cfpgen/internal/ideas"
	"github.com/kingrea/cfpgen/internal/profile"
	"github.com/kingrea/cfpgen/internal/session"
)

const (
	// Dir is the name of the directory we create in the working directory.
	Dir = ".cfpgen"

	defaultSessionTTL = 24 * time.Hour
)

const defaultConfigYAML = `# cfpgen configuration
version: 1

# Answers used when a prompt is left empty.
defaults:
  idea_count: 8
  audience: mixed
  format: talk

# OpenAI compatible chat assistant. The API key is only read from OPENAI_API_KEY.
assistant:
  model: gpt-4o-mini
  # base_url: https://api.openai.com/v1
  max_tokens: 1000
  timeout: 60s
  requests_per_second: 10

# JSON API started by "cfpgen serve".
server:
  host: 127.0.0.1
  port: 8501
  # rate_limit: 60   # requests per minute per client IP

# Where "cfpgen serve" keeps generation sessions: memory or sqlite.
sessions:
  backend: memory
  ttl: 24h

# Extra conferences, merged into the built-in list by name.
# conferences:
#   - name: GopherCon
#     tracks: [Performance, Tooling]
#     formats: [talk, workshop, lightning]
`

// DefaultsConfig holds fallback answers for the generation flow.
type DefaultsConfig struct {
	IdeaCount int    `yaml:"idea_count"`
	Audience  string `yaml:"audience"`
	Format    string `yaml:"format"`
}

// AssistantConfig configures the chat assistant client.
type AssistantConfig struct {
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url,omitempty"`
	MaxTokens         int           `yaml:"max_tokens"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// ServerConfig is the file form of the HTTP API settings. Zero values are
// filled in by the server package.
type ServerConfig struct {
	Host         string        `yaml:"host,omitempty"`
	Port         int           `yaml:"port,omitempty"`
	MaxBodyBytes int64         `yaml:"max_body_bytes,omitempty"`
	RateLimit    int           `yaml:"rate_limit,omitempty"`
	ReadTimeout  time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty"`
}

// SessionsConfig selects the session store.
type SessionsConfig struct {
	Backend string        `yaml:"backend"`
	Path    string        `yaml:"path,omitempty"`
	TTL     time.Duration `yaml:"ttl"`
}

// ConferenceConfig declares one extra catalogue entry.
type ConferenceConfig struct {
	Name    string   `yaml:"name"`
	Tracks  []string `yaml:"tracks,omitempty"`
	Formats []string `yaml:"formats,omitempty"`
}

// FileConfig models .cfpgen/config.yaml.
type FileConfig struct {
	Version     int                `yaml:"version"`
	Defaults    DefaultsConfig     `yaml:"defaults"`
	Assistant   AssistantConfig    `yaml:"assistant"`
	Server      ServerConfig       `yaml:"server"`
	Sessions    SessionsConfig     `yaml:"sessions"`
	Conferences []ConferenceConfig `yaml:"conferences,omitempty"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory cfpgen was started from.
	ProjectDir string
	// StateDir is ProjectDir/.cfpgen.
	StateDir string
	// APIKey comes from OPENAI_API_KEY and is never written to disk.
	APIKey string

	File FileConfig
}

// InitDir creates the .cfpgen directory structure and a default config file.
//
// Structure created:
// .cfpgen/
// ├── config.yaml
// ├── logs/      <- zap log output
// ├── exports/   <- default location for saved idea files
// └── state/     <- sqlite session database
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, Dir)
	for _, dir := range []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "exports"),
		filepath.Join(root, "state"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return ensureConfigFile(filepath.Join(root, "config.yaml"))
}

// Load reads .cfpgen/config.yaml (defaults when missing) and applies
// environment overrides.
func Load(projectDir string) (*Config, error) {
	return load(projectDir, os.Getenv)
}

func load(projectDir string, getenv func(string) string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", projectDir, err)
	}
	cfg := &Config{
		ProjectDir: abs,
		StateDir:   filepath.Join(abs, Dir),
		File:       defaultFileConfig(),
	}
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	cfg.applyEnv(getenv)
	cfg.File.normalize(cfg.StateDir)
	if err := cfg.File.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Path returns the on-disk location of the config file.
func (c *Config) Path() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// ExportsDir returns the default directory for saved idea files.
func (c *Config) ExportsDir() string {
	return filepath.Join(c.StateDir, "exports")
}

// HistoryPath returns the generation journal file.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.StateDir, "history.log")
}

// Catalog returns the built-in conferences merged with configured extras.
func (c *Config) Catalog() *catalog.Catalog {
	base := catalog.Default()
	if len(c.File.Conferences) == 0 {
		return base
	}
	extra := make([]catalog.Conference, 0, len(c.File.Conferences))
	for _, entry := range c.File.Conferences {
		conf := catalog.Conference{Name: entry.Name, Tracks: entry.Tracks}
		for _, raw := range entry.Formats {
			if f, ok := profile.ParseFormat(raw); ok {
				conf.Formats = append(conf.Formats, f)
			}
		}
		extra = append(extra, conf)
	}
	return base.Merge(extra...)
}

// AssistantConfig returns the client configuration including the API key.
func (c *Config) AssistantConfig() assistant.Config {
	a := c.File.Assistant
	return assistant.Config{
		APIKey:            c.APIKey,
		BaseURL:           a.BaseURL,
		Model:             a.Model,
		MaxTokens:         a.MaxTokens,
		Timeout:           a.Timeout,
		RequestsPerSecond: a.RequestsPerSecond,
	}
}

// DefaultFormat returns the configured fallback format.
func (c *Config) DefaultFormat() profile.Format {
	f, _ := profile.ParseFormat(c.File.Defaults.Format)
	return f
}

// DefaultAudience returns the configured fallback audience.
func (c *Config) DefaultAudience() profile.Audience {
	return profile.ParseAudience(c.File.Defaults.Audience)
}

func (c *Config) loadFile() error {
	path := c.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	parsed := defaultFileConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	c.File = parsed
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}
	c.APIKey = strings.TrimSpace(getenv("OPENAI_API_KEY"))
	if v := strings.TrimSpace(getenv("OPENAI_BASE_URL")); v != "" {
		c.File.Assistant.BaseURL = v
	}
	if v := strings.TrimSpace(getenv("CFPGEN_MODEL")); v != "" {
		c.File.Assistant.Model = v
	}
	if v := strings.TrimSpace(getenv("CFPGEN_SESSION_BACKEND")); v != "" {
		c.File.Sessions.Backend = v
	}
}

func defaultFileConfig() FileConfig {
	fc := FileConfig{}
	fc.applyDefaults()
	return fc
}

func (fc *FileConfig) applyDefaults() {
	if fc.Version == 0 {
		fc.Version = 1
	}
	if fc.Defaults.IdeaCount == 0 {
		fc.Defaults.IdeaCount = ideas.DefaultCount
	}
	if fc.Defaults.Audience == "" {
		fc.Defaults.Audience = string(profile.AudienceMixed)
	}
	if fc.Defaults.Format == "" {
		fc.Defaults.Format = string(profile.FormatTalk)
	}
	if fc.Assistant.Model == "" {
		fc.Assistant.Model = assistant.DefaultModel
	}
	if fc.Assistant.MaxTokens == 0 {
		fc.Assistant.MaxTokens = assistant.DefaultMaxTokens
	}
	if fc.Assistant.Timeout == 0 {
		fc.Assistant.Timeout = assistant.DefaultTimeout
	}
	if fc.Assistant.RequestsPerSecond == 0 {
		fc.Assistant.RequestsPerSecond = assistant.DefaultRequestsPerSecond
	}
	if fc.Sessions.Backend == "" {
		fc.Sessions.Backend = session.BackendMemory
	}
	if fc.Sessions.TTL == 0 {
		fc.Sessions.TTL = defaultSessionTTL
	}
}

func (fc *FileConfig) normalize(stateDir string) {
	fc.Defaults.Audience = strings.ToLower(strings.TrimSpace(fc.Defaults.Audience))
	fc.Defaults.Format = strings.ToLower(strings.TrimSpace(fc.Defaults.Format))
	fc.Assistant.Model = strings.TrimSpace(fc.Assistant.Model)
	fc.Assistant.BaseURL = strings.TrimRight(strings.TrimSpace(fc.Assistant.BaseURL), "/")
	fc.Server.Host = strings.TrimSpace(fc.Server.Host)
	fc.Sessions.Backend = strings.ToLower(strings.TrimSpace(fc.Sessions.Backend))
	fc.Sessions.Path = resolvePath(stateDir, fc.Sessions.Path)
	if fc.Sessions.Backend == session.BackendSQLite && fc.Sessions.Path == "" {
		fc.Sessions.Path = filepath.Join(stateDir, "state", "sessions.db")
	}
	for i := range fc.Conferences {
		fc.Conferences[i].Name = strings.TrimSpace(fc.Conferences[i].Name)
	}
}

func (fc *FileConfig) validate() error {
	if fc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if fc.Defaults.IdeaCount < ideas.MinCount || fc.Defaults.IdeaCount > ideas.MaxCount {
		return fmt.Errorf("defaults.idea_count must be between %d and %d", ideas.MinCount, ideas.MaxCount)
	}
	if _, ok := profile.ParseFormat(fc.Defaults.Format); !ok {
		return fmt.Errorf("defaults.format %q is not a known format", fc.Defaults.Format)
	}
	if !validAudience(fc.Defaults.Audience) {
		return fmt.Errorf("defaults.audience %q is not a known audience", fc.Defaults.Audience)
	}
	if fc.Assistant.MaxTokens < 0 {
		return fmt.Errorf("assistant.max_tokens must be positive")
	}
	if fc.Assistant.RequestsPerSecond < 0 {
		return fmt.Errorf("assistant.requests_per_second must be positive")
	}
	if fc.Server.Port < 0 || fc.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535")
	}
	switch fc.Sessions.Backend {
	case session.BackendMemory, session.BackendSQLite:
	default:
		return fmt.Errorf("sessions.backend must be %q or %q", session.BackendMemory, session.BackendSQLite)
	}
	if fc.Sessions.TTL < 0 {
		return fmt.Errorf("sessions.ttl must not be negative")
	}
	for i, conf := range fc.Conferences {
		if conf.Name == "" {
			return fmt.Errorf("conferences[%d]: name is required", i)
		}
		for _, raw := range conf.Formats {
			if _, ok := profile.ParseFormat(raw); !ok {
				return fmt.Errorf("conferences[%d]: unknown format %q", i, raw)
			}
		}
	}
	return nil
}

func validAudience(value string) bool {
	for _, a := range profile.Audiences {
		if string(a) == value {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
