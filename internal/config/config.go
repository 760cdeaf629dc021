package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"AgenticDigest/internal/provider"
)

const (
	defaultConfigPath = "configs/config.yaml"
	defaultTimezone   = "UTC"

	configPathEnv   = "DIGEST_CONFIG"
	databasePathEnv = "DIGEST_DB_PATH"
	logLevelEnv     = "DIGEST_LOG_LEVEL"
	providerEnv     = "DIGEST_PROVIDER"
	openAIKeyEnv    = "OPENAI_API_KEY"
	openAIModelEnv  = "OPENAI_MODEL"
	openAIBaseEnv   = "OPENAI_BASE_URL"
)

// Render formats understood by the renderer.
const (
	FormatHTML     = "html"
	FormatPDF      = "pdf"
	FormatMarkdown = "markdown"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Sources   string          `yaml:"sources"`
	Prompts   PromptsConfig   `yaml:"prompts"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Summarize SummarizeConfig `yaml:"summarize"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Render    RenderConfig    `yaml:"render"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Server    ServerConfig    `yaml:"server"`
	Publish   PublishConfig   `yaml:"publish"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig points at the SQLite record store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// PromptsConfig locates the brief.md and extended.md templates.
type PromptsConfig struct {
	Dir string `yaml:"dir"`
}

// IngestConfig tunes feed fetching and page extraction.
type IngestConfig struct {
	Limit        int           `yaml:"limit"`
	FeedTimeout  time.Duration `yaml:"feedTimeout"`
	PageTimeout  time.Duration `yaml:"pageTimeout"`
	UserAgent    string        `yaml:"userAgent"`
	MaxPageBytes int64         `yaml:"maxPageBytes"`
}

// SummarizeConfig selects the provider and the batch failure policy.
type SummarizeConfig struct {
	Limit           int    `yaml:"limit"`
	Provider        string `yaml:"provider"`
	ContinueOnError bool   `yaml:"continueOnError"`
}

// OpenAIConfig describes the live text-generation backend.
type OpenAIConfig struct {
	APIKey     string        `yaml:"apiKey"`
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"baseUrl"`
	MaxTokens  int64         `yaml:"maxTokens"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"maxRetries"`
}

// RenderConfig defines digest output defaults.
type RenderConfig struct {
	Limit    int    `yaml:"limit"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	Template string `yaml:"template"`
	// BrowserURL connects to a running Chrome DevTools endpoint instead of
	// launching a local headless browser for PDF output.
	BrowserURL string `yaml:"browserUrl"`
}

// SchedulerConfig defines when the full pipeline should run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.UTC
}

// ServerConfig configures the read-only HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// PublishConfig groups optional artifact destinations.
type PublishConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config describes the bucket rendered digests are uploaded to.
// An empty Bucket disables publishing.
type S3Config struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	Region       string `yaml:"region"`
	Profile      string `yaml:"profile"`
	UsePathStyle bool   `yaml:"usePathStyle"`
}

// Enabled reports whether a bucket is configured.
func (s S3Config) Enabled() bool {
	return strings.TrimSpace(s.Bucket) != ""
}

var envVarExpr = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load builds the configuration from defaults, the YAML file at path and
// environment overrides. An empty path falls back to DIGEST_CONFIG and then
// configs/config.yaml; a missing default file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(configPathEnv)
		explicit = path != ""
	}
	if path == "" {
		path = defaultConfigPath
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(raw))), &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.Ingest.Limit < 0 {
		return fmt.Errorf("config: ingest.limit must be >= 0, got %d", c.Ingest.Limit)
	}
	if c.Summarize.Limit < 0 {
		return fmt.Errorf("config: summarize.limit must be >= 0, got %d", c.Summarize.Limit)
	}
	if c.Render.Limit < 0 {
		return fmt.Errorf("config: render.limit must be >= 0, got %d", c.Render.Limit)
	}
	switch c.Render.Format {
	case FormatHTML, FormatPDF, FormatMarkdown:
	default:
		return fmt.Errorf("config: unsupported render.format %q (supported: html, pdf, markdown)", c.Render.Format)
	}
	switch c.Summarize.Provider {
	case provider.MockName, provider.OpenAIName:
	case "":
		return fmt.Errorf("config: summarize.provider is required")
	default:
		return fmt.Errorf("config: unknown summarize.provider %q (supported: %s, %s)",
			c.Summarize.Provider, provider.MockName, provider.OpenAIName)
	}
	if c.OpenAI.MaxRetries < 0 {
		return fmt.Errorf("config: openai.maxRetries must be >= 0")
	}
	return nil
}

func expandEnvVars(s string) string {
	return envVarExpr.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(providerEnv); v != "" {
		c.Summarize.Provider = v
	}
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv(openAIBaseEnv); v != "" {
		c.OpenAI.BaseURL = v
	}
}

// fillDefaults restores defaults for values a file explicitly blanked.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Sources == "" {
		c.Sources = d.Sources
	}
	if c.Prompts.Dir == "" {
		c.Prompts.Dir = d.Prompts.Dir
	}
	if c.Ingest.FeedTimeout <= 0 {
		c.Ingest.FeedTimeout = d.Ingest.FeedTimeout
	}
	if c.Ingest.PageTimeout <= 0 {
		c.Ingest.PageTimeout = d.Ingest.PageTimeout
	}
	if c.Ingest.UserAgent == "" {
		c.Ingest.UserAgent = d.Ingest.UserAgent
	}
	if c.Ingest.MaxPageBytes <= 0 {
		c.Ingest.MaxPageBytes = d.Ingest.MaxPageBytes
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = d.OpenAI.Model
	}
	if c.OpenAI.MaxTokens <= 0 {
		c.OpenAI.MaxTokens = d.OpenAI.MaxTokens
	}
	if c.OpenAI.Timeout <= 0 {
		c.OpenAI.Timeout = d.OpenAI.Timeout
	}
	if c.Render.Format == "" {
		c.Render.Format = d.Render.Format
	}
	c.Render.Format = strings.ToLower(c.Render.Format)
	if c.Scheduler.CronExpression == "" {
		c.Scheduler.CronExpression = d.Scheduler.CronExpression
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("config: unknown scheduler.timezone %q: %w", tz, err)
	}
	c.Scheduler.Timezone = tz
	c.Scheduler.location = loc
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Path: "data/cache/digest.db"},
		Sources:  "configs/sources.yaml",
		Prompts:  PromptsConfig{Dir: "configs/prompts"},
		Ingest: IngestConfig{
			Limit:        2,
			FeedTimeout:  30 * time.Second,
			PageTimeout:  10 * time.Second,
			UserAgent:    "AgenticDigest/1.0",
			MaxPageBytes: 5 << 20,
		},
		Summarize: SummarizeConfig{Limit: 5, Provider: "mock"},
		OpenAI: OpenAIConfig{
			Model:      "gpt-4o-mini",
			MaxTokens:  300,
			Timeout:    60 * time.Second,
			MaxRetries: 2,
		},
		Render: RenderConfig{Limit: 10, Format: FormatHTML},
		Scheduler: SchedulerConfig{
			CronExpression: "0 7 * * *",
			Timezone:       defaultTimezone,
			location:       time.UTC,
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}
