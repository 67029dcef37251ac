// internal/config/config.go
//
// This package handles configuration and the application's home directory.
// Every user gets an addressapp/ folder under their config directory holding
// config.yaml, the preferences file and the logs.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/addressapp/internal/person"
	"github.com/kingrea/addressapp/internal/prefs"
)

const (
	// AppDirName is the folder created under the user's config directory.
	AppDirName = "addressapp"

	defaultLogLevel = "info"
)

const defaultConfigYAML = `# addressapp configuration
version: 1

# Start with the sample address book when no file is remembered.
samples: true

# How birthdays are shown and typed. Use yyyy, MM and dd.
date_format: dd.MM.yyyy

# debug, info, warn or error
log_level: info

preferences:
  # Node inside prefs.yaml that holds this application's values.
  node: kr/greedyeater/address
`

// PreferencesConfig selects where per-user values are kept.
type PreferencesConfig struct {
	Node string `yaml:"node"`
	Path string `yaml:"path,omitempty"`
}

// FileConfig models config.yaml.
type FileConfig struct {
	Version     int               `yaml:"version"`
	Samples     *bool             `yaml:"samples,omitempty"`
	DateFormat  string            `yaml:"date_format"`
	LogLevel    string            `yaml:"log_level"`
	Preferences PreferencesConfig `yaml:"preferences"`
}

// Config holds the runtime configuration.
type Config struct {
	// HomeDir is the addressapp directory (usually ~/.config/addressapp).
	HomeDir string

	File FileConfig
}

// HomeDir resolves the application directory, honouring ADDRESSAPP_HOME.
func HomeDir() (string, error) {
	if home := strings.TrimSpace(os.Getenv("ADDRESSAPP_HOME")); home != "" {
		return filepath.Clean(home), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate user config dir: %w", err)
	}
	return filepath.Join(base, AppDirName), nil
}

// InitHomeDir creates the directory layout and a commented config.yaml when
// none exists yet.
//
// Structure created:
// addressapp/
// ├── config.yaml
// └── logs/
func InitHomeDir(homeDir string) error {
	if err := os.MkdirAll(filepath.Join(homeDir, "logs"), 0o755); err != nil {
		return err
	}
	return ensureConfigFile(filepath.Join(homeDir, "config.yaml"))
}

// NewConfig loads config.yaml from homeDir and applies environment
// overrides. A missing file yields the defaults.
func NewConfig(homeDir string) (*Config, error) {
	cfg := &Config{
		HomeDir: homeDir,
		File:    defaultFileConfig(),
	}
	if err := cfg.load(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.File.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ConfigPath returns the on-disk location of config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.HomeDir, "config.yaml")
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.HomeDir, "logs")
}

// LogPath returns the application log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "addressapp.log")
}

// PreferencesPath returns the preferences file. An explicit path in
// config.yaml wins over ADDRESSAPP_PREFS and the default location.
func (c *Config) PreferencesPath() (string, error) {
	if p := strings.TrimSpace(c.File.Preferences.Path); p != "" {
		return resolvePath(c.HomeDir, p), nil
	}
	if p := strings.TrimSpace(os.Getenv("ADDRESSAPP_PREFS")); p != "" {
		return filepath.Clean(p), nil
	}
	return filepath.Join(c.HomeDir, "prefs.yaml"), nil
}

// PreferencesNode returns the node name for the preferences file.
func (c *Config) PreferencesNode() string {
	return c.File.Preferences.Node
}

// SeedSamples reports whether a fresh book starts with sample records.
func (c *Config) SeedSamples() bool {
	return c.File.Samples == nil || *c.File.Samples
}

// DateFormat returns the birthday display pattern.
func (c *Config) DateFormat() string {
	return c.File.DateFormat
}

// LogLevel returns the configured log level name.
func (c *Config) LogLevel() string {
	return c.File.LogLevel
}

// SetDateFormat updates the display pattern and persists config.yaml.
func (c *Config) SetDateFormat(pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if !person.ValidPattern(pattern) {
		return fmt.Errorf("config: date format %q needs yyyy, MM and dd", pattern)
	}
	c.File.DateFormat = pattern
	return c.save()
}

func (c *Config) load() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var parsed FileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	parsed.normalize()
	c.File = parsed
	return nil
}

func (c *Config) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv("ADDRESSAPP_NO_SAMPLES")); value != "" {
		if disabled, err := strconv.ParseBool(value); err == nil {
			samples := !disabled
			c.File.Samples = &samples
		}
	}
	if level := strings.TrimSpace(os.Getenv("ADDRESSAPP_LOG_LEVEL")); level != "" {
		c.File.LogLevel = strings.ToLower(level)
	}
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Version:    1,
		DateFormat: person.DefaultDisplayPattern,
		LogLevel:   defaultLogLevel,
		Preferences: PreferencesConfig{
			Node: prefs.DefaultNode,
		},
	}
}

func (fc *FileConfig) applyDefaults() {
	if fc.Version == 0 {
		fc.Version = 1
	}
	if strings.TrimSpace(fc.DateFormat) == "" {
		fc.DateFormat = person.DefaultDisplayPattern
	}
	if strings.TrimSpace(fc.LogLevel) == "" {
		fc.LogLevel = defaultLogLevel
	}
	if strings.TrimSpace(fc.Preferences.Node) == "" {
		fc.Preferences.Node = prefs.DefaultNode
	}
}

func (fc *FileConfig) normalize() {
	fc.DateFormat = strings.TrimSpace(fc.DateFormat)
	fc.LogLevel = strings.ToLower(strings.TrimSpace(fc.LogLevel))
	fc.Preferences.Node = strings.Trim(strings.TrimSpace(fc.Preferences.Node), "/")
	fc.Preferences.Path = strings.TrimSpace(fc.Preferences.Path)
}

func (fc *FileConfig) validate() error {
	if fc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if !person.ValidPattern(fc.DateFormat) {
		return fmt.Errorf("date_format %q needs yyyy, MM and dd", fc.DateFormat)
	}
	switch fc.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error")
	}
	if fc.Preferences.Node == "" {
		return fmt.Errorf("preferences.node is required")
	}
	return nil
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
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

func (c *Config) save() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.File.applyDefaults()
	c.File.normalize()
	if err := c.File.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.HomeDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure home dir: %w", err)
	}
	data, err := yaml.Marshal(c.File)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write config: %w", err)
	}
	return nil
}
