package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mchmarny/docsite/pkg/server"
)

// EnvFiles are loaded, when present, before the configuration file is
// read. Variables already set in the process environment are kept.
var EnvFiles = []string{".env", ".env.local"}

// ErrInvalidConfig is returned when the configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultHTMXScript is the htmx build loaded by pages unless site.htmx_script
// points elsewhere.
const DefaultHTMXScript = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Site    SiteConfig    `yaml:"site"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	TLSCertFile     string        `yaml:"tls_cert_file,omitempty"`
	TLSKeyFile      string        `yaml:"tls_key_file,omitempty"`
}

// SiteConfig describes the site being served. Empty Descriptor, ContentDir
// and StaticDir select the embedded default site. SelfURL is the path menu
// links point to; the page is served there as well as at "/".
type SiteConfig struct {
	Title      string `yaml:"title"`
	Author     string `yaml:"author,omitempty"`
	Descriptor string `yaml:"descriptor,omitempty"` // path to menu.xml, .json or .yaml
	ContentDir string `yaml:"content_dir,omitempty"`
	StaticDir  string `yaml:"static_dir,omitempty"`
	SelfURL    string `yaml:"self_url"`
	Stylesheet string `yaml:"stylesheet,omitempty"`
	HTMXScript string `yaml:"htmx_script,omitempty"`
	Badges     bool   `yaml:"badges,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load loads configuration from the specified file. Environment variables
// referenced as ${VAR} in the file are expanded.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("configuration file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes YAML configuration, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = server.DefaultPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = server.DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = server.DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = server.DefaultShutdownTimeout
	}
	if c.Site.Title == "" {
		c.Site.Title = "MPC"
	}
	if c.Site.SelfURL == "" {
		c.Site.SelfURL = "/"
	}
	if c.Site.Stylesheet == "" && c.Site.StaticDir == "" {
		c.Site.Stylesheet = "/static/docsite.css"
	}
	if c.Site.HTMXScript == "" {
		c.Site.HTMXScript = DefaultHTMXScript
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the configuration for values the site cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: server timeouts must not be negative", ErrInvalidConfig)
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return fmt.Errorf("%w: server.tls_cert_file and server.tls_key_file must be set together", ErrInvalidConfig)
	}
	if (c.Site.Descriptor == "") != (c.Site.ContentDir == "") {
		return fmt.Errorf("%w: site.descriptor and site.content_dir must be set together", ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.Site.SelfURL, "/") || strings.ContainsAny(c.Site.SelfURL, "?#{}*") {
		return fmt.Errorf("%w: site.self_url %q must be an absolute path without query or route wildcards", ErrInvalidConfig, c.Site.SelfURL)
	}
	for _, dir := range []string{c.Site.ContentDir, c.Site.StaticDir} {
		if dir == "" {
			continue
		}
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", ErrInvalidConfig, dir)
		}
	}
	return nil
}

// Embedded reports whether the embedded default site is served.
func (c *Config) Embedded() bool {
	return c.Site.Descriptor == ""
}

func loadEnvFiles() error {
	for _, f := range EnvFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
		slog.Debug("loaded environment file", "file", f)
	}
	return nil
}
