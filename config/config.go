package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable holding the optional YAML config path.
const FileEnv = "WEBSEARCH_CONFIG"

type Config struct {
	AppPort     int      `yaml:"app_port"`
	CORSOrigins []string `yaml:"cors_origins"`
	LogLevel    string   `yaml:"log_level"`
	Browser     Browser  `yaml:"browser"`
}

// Browser holds the settings used to launch one browser session per search.
type Browser struct {
	Kind      string `yaml:"kind"`
	Headless  bool   `yaml:"headless"`
	Debug     bool   `yaml:"debug"`
	RemoteURL string `yaml:"remote_url"`
	ExecPath  string `yaml:"exec_path"`
	DebugDir  string `yaml:"debug_dir"`
}

func Default() *Config {
	return &Config{
		AppPort:     8000,
		CORSOrigins: []string{"*"},
		LogLevel:    "info",
		Browser: Browser{
			Kind:     "chrome",
			Headless: true,
			Debug:    false,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// WEBSEARCH_CONFIG (if any), then environment variables.
func Load() (*Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path, ok := lookup(FileEnv); ok && path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("APP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("APP_PORT: %w", err)
		}
		c.AppPort = port
	}
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = strings.ToLower(v)
	}

	if v, ok := lookup("ST_SELENIUM_BROWSER"); ok {
		c.Browser.Kind = v
	}
	// Only the exact string "true" enables a flag.
	if v, ok := lookup("ST_SELENIUM_HEADLESS"); ok {
		c.Browser.Headless = v == "true"
	}
	if v, ok := lookup("ST_SELENIUM_DEBUG"); ok {
		c.Browser.Debug = v == "true"
	}
	if v, ok := lookup("ST_SELENIUM_REMOTE_URL"); ok {
		c.Browser.RemoteURL = v
	}
	if v, ok := lookup("ST_SELENIUM_EXEC_PATH"); ok {
		c.Browser.ExecPath = v
	}
	if v, ok := lookup("ST_SELENIUM_DEBUG_DIR"); ok {
		c.Browser.DebugDir = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.AppPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.CORSOrigins, validation.Required),
		validation.Field(&c.Browser),
	)
}

// Validate checks the browser block. An unrecognized kind is not an error:
// the session factory falls back to chrome.
func (b Browser) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.RemoteURL, is.URL),
	)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
