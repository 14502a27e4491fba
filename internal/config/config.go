// Package config loads, validates and persists the per-vault binmeta
// settings stored in <vault>/.binmeta/config.yaml.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/harrison/binmeta/internal/extension"
	"github.com/harrison/binmeta/internal/filelock"
	"github.com/harrison/binmeta/internal/formatter"
	"github.com/harrison/binmeta/internal/logger"
	"github.com/harrison/binmeta/internal/retry"
	"github.com/harrison/binmeta/internal/vault"
	"gopkg.in/yaml.v3"
)

var (
	// ErrBlankFormat is returned for a filename format that is empty after trimming.
	ErrBlankFormat = errors.New("file name format must not be blank")

	// ErrInvalidFileName is returned when a format yields characters a file name cannot hold.
	ErrInvalidFileName = errors.New("file name contains an invalid character")

	// ErrProhibitedExtension is returned when adding "md".
	ErrProhibitedExtension = errors.New(`extension "md" is prohibited`)

	// ErrDuplicateExtension is returned when adding an extension twice.
	ErrDuplicateExtension = errors.New("extension is already registered")

	// ErrUnknownExtension is returned when removing an extension that is not watched.
	ErrUnknownExtension = errors.New("extension is not registered")

	// ErrUnknownKey is returned by Set for keys it does not manage.
	ErrUnknownKey = errors.New("unknown config key")
)

// InvalidFileNameChars may not appear in a generated note name.
const InvalidFileNameChars = `\/:*?"<>|`

// SampleFile is the path used to preview a filename format.
const SampleFile = "folder/sample.png"

// DefaultExtensions are watched in a freshly initialised vault.
var DefaultExtensions = []string{
	"png", "jpg", "jpeg", "gif", "bmp", "svg",
	"mp3", "webm", "wav", "m4a", "ogg", "3gp", "flac",
	"mp4", "ogv", "mov", "mkv",
	"pdf",
}

// ExpanderConfig configures the external template expander.
type ExpanderConfig struct {
	// Command is the argv of the expander; empty disables it.
	Command []string `yaml:"command"`

	// Timeout bounds a single expansion.
	Timeout time.Duration `yaml:"timeout"`
}

// RetryConfig bounds polling for late collaborators.
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Config represents binmeta settings for one vault
type Config struct {
	// AutoDetection generates notes for files created while watching
	AutoDetection bool `yaml:"auto_detection"`

	// Folder is where metadata notes are created
	Folder string `yaml:"folder"`

	// FilenameFormat is the note name template, without ".md"
	FilenameFormat string `yaml:"filename_format"`

	// TemplatePath is the vault path of the note body template ("" = built-in)
	TemplatePath string `yaml:"template_path"`

	// UseExpander passes note bodies through the expander command
	UseExpander bool `yaml:"use_expander"`

	// Extensions are the watched binary file extensions
	Extensions []string `yaml:"extensions"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	Expander ExpanderConfig `yaml:"expander"`
	Retry    RetryConfig    `yaml:"retry"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	opts := retry.DefaultOptions()
	return &Config{
		AutoDetection:  true,
		Folder:         "/",
		FilenameFormat: "INFO_{{NAME}}_{{EXTENSION:UP}}",
		TemplatePath:   "",
		UseExpander:    false,
		Extensions:     append([]string(nil), DefaultExtensions...),
		LogLevel:       "info",
		Expander: ExpanderConfig{
			Timeout: 5 * time.Second,
		},
		Retry: RetryConfig{
			Attempts: opts.Attempts,
			Interval: opts.Interval,
			Timeout:  opts.Timeout,
		},
	}
}

// yamlConfig mirrors Config with presence-tracking fields so that values
// omitted from the file keep their defaults.
type yamlConfig struct {
	AutoDetection  *bool     `yaml:"auto_detection"`
	Folder         *string   `yaml:"folder"`
	FilenameFormat *string   `yaml:"filename_format"`
	TemplatePath   *string   `yaml:"template_path"`
	UseExpander    *bool     `yaml:"use_expander"`
	Extensions     *[]string `yaml:"extensions"`
	LogLevel       *string   `yaml:"log_level"`
	Expander       struct {
		Command *[]string `yaml:"command"`
		Timeout string    `yaml:"timeout"`
	} `yaml:"expander"`
	Retry struct {
		Attempts *int   `yaml:"attempts"`
		Interval string `yaml:"interval"`
		Timeout  string `yaml:"timeout"`
	} `yaml:"retry"`
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if raw.AutoDetection != nil {
		cfg.AutoDetection = *raw.AutoDetection
	}
	if raw.Folder != nil {
		cfg.Folder = *raw.Folder
	}
	if raw.FilenameFormat != nil {
		cfg.FilenameFormat = *raw.FilenameFormat
	}
	if raw.TemplatePath != nil {
		cfg.TemplatePath = *raw.TemplatePath
	}
	if raw.UseExpander != nil {
		cfg.UseExpander = *raw.UseExpander
	}
	if raw.Extensions != nil {
		cfg.Extensions = *raw.Extensions
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.Expander.Command != nil {
		cfg.Expander.Command = *raw.Expander.Command
	}
	if err := parseDuration("expander.timeout", raw.Expander.Timeout, &cfg.Expander.Timeout); err != nil {
		return nil, err
	}
	if raw.Retry.Attempts != nil {
		cfg.Retry.Attempts = *raw.Retry.Attempts
	}
	if err := parseDuration("retry.interval", raw.Retry.Interval, &cfg.Retry.Interval); err != nil {
		return nil, err
	}
	if err := parseDuration("retry.timeout", raw.Retry.Timeout, &cfg.Retry.Timeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(key, value string, dst *time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s format %q: %w", key, value, err)
	}
	*dst = d
	return nil
}

// LoadConfigFromDir loads configuration from .binmeta/config.yaml in the vault root
func LoadConfigFromDir(root string) (*Config, error) {
	return LoadConfig(ConfigPath(root))
}

// Save writes the configuration to path under the sidecar lock.
func (c *Config) Save(ctx context.Context, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := filelock.LockAndWrite(ctx, path, data); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if _, err := NormalizeFilenameFormat(c.FilenameFormat); err != nil {
		return fmt.Errorf("invalid filename_format: %w", err)
	}
	if err := ValidateFilenameFormat(c.FilenameFormat, c.Formatter()); err != nil {
		return fmt.Errorf("invalid filename_format: %w", err)
	}

	seen := make(map[string]bool, len(c.Extensions))
	for _, ext := range c.Extensions {
		if err := checkExtension(ext); err != nil {
			return fmt.Errorf("invalid extensions: %w", err)
		}
		if ext != extension.Normalize(ext) {
			return fmt.Errorf("invalid extensions: %q must be lowercase without a leading dot", ext)
		}
		if seen[ext] {
			return fmt.Errorf("invalid extensions: %w: %s", ErrDuplicateExtension, ext)
		}
		seen[ext] = true
	}

	if c.Expander.Timeout < 0 {
		return fmt.Errorf("expander.timeout must be >= 0, got %v", c.Expander.Timeout)
	}
	if err := c.RetryOptions().Validate(); err != nil {
		return fmt.Errorf("invalid retry settings: %w", err)
	}

	return nil
}

// RetryOptions converts the retry section for retry.Poll.
func (c *Config) RetryOptions() retry.Options {
	return retry.Options{
		Attempts: c.Retry.Attempts,
		Interval: c.Retry.Interval,
		Timeout:  c.Retry.Timeout,
	}
}

// Matcher builds the extension matcher for the watched extensions.
func (c *Config) Matcher() *extension.Matcher {
	return extension.NewMatcher(c.Extensions)
}

// Formatter builds a formatter matching against the watched extensions.
func (c *Config) Formatter(opts ...formatter.Option) *formatter.Formatter {
	return formatter.New(c.Matcher(), opts...)
}

// NormalizeFilenameFormat trims input and strips a trailing ".md".
func NormalizeFilenameFormat(input string) (string, error) {
	format := strings.TrimSuffix(strings.TrimSpace(input), ".md")
	if strings.TrimSpace(format) == "" {
		return "", ErrBlankFormat
	}
	return format, nil
}

// SampleFileName previews format for SampleFile.
func SampleFileName(format string, f *formatter.Formatter) string {
	return f.Format(format, SampleFile, time.Now())
}

// InvalidCharIn returns the first character of name that a file name cannot hold.
func InvalidCharIn(name string) (rune, bool) {
	for _, r := range name {
		if strings.ContainsRune(InvalidFileNameChars, r) {
			return r, true
		}
	}
	return 0, false
}

// ValidateFilenameFormat rejects formats whose sample expansion contains an
// invalid file name character.
func ValidateFilenameFormat(format string, f *formatter.Formatter) error {
	sample := SampleFileName(format, f)
	if r, bad := InvalidCharIn(sample); bad {
		return fmt.Errorf("%w: %q in %q", ErrInvalidFileName, r, sample)
	}
	return nil
}

func checkExtension(ext string) error {
	if ext == "" {
		return errors.New("extension must not be empty")
	}
	if ext == "md" {
		return ErrProhibitedExtension
	}
	if strings.ContainsAny(ext, `/\`) {
		return fmt.Errorf("extension %q must not contain a path separator", ext)
	}
	return nil
}

// AddExtension normalises ext and adds it to the watched set.
func (c *Config) AddExtension(ext string) (string, error) {
	ext = extension.Normalize(ext)
	if err := checkExtension(ext); err != nil {
		return ext, err
	}
	for _, existing := range c.Extensions {
		if existing == ext {
			return ext, fmt.Errorf("%w: %s", ErrDuplicateExtension, ext)
		}
	}
	c.Extensions = append(c.Extensions, ext)
	return ext, nil
}

// RemoveExtension removes ext from the watched set.
func (c *Config) RemoveExtension(ext string) (string, error) {
	ext = extension.Normalize(ext)
	for i, existing := range c.Extensions {
		if existing == ext {
			c.Extensions = append(c.Extensions[:i], c.Extensions[i+1:]...)
			return ext, nil
		}
	}
	return ext, fmt.Errorf("%w: %s", ErrUnknownExtension, ext)
}

// Keys lists the keys accepted by Set.
func Keys() []string {
	return []string{
		"auto_detection",
		"folder",
		"filename_format",
		"template_path",
		"use_expander",
		"log_level",
		"expander.command",
		"expander.timeout",
		"retry.attempts",
		"retry.interval",
		"retry.timeout",
	}
}

// Set assigns a single setting from its string form. The config is left
// unchanged when value is rejected.
func (c *Config) Set(key, value string) error {
	switch key {
	case "auto_detection", "use_expander":
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s must be true or false, got %q", key, value)
		}
		if key == "auto_detection" {
			c.AutoDetection = b
		} else {
			c.UseExpander = b
		}
	case "folder":
		c.Folder = vault.NormalizePath(strings.TrimSpace(value))
	case "filename_format":
		format, err := NormalizeFilenameFormat(value)
		if err != nil {
			return err
		}
		if err := ValidateFilenameFormat(format, c.Formatter()); err != nil {
			return err
		}
		c.FilenameFormat = format
	case "template_path":
		p := strings.TrimSpace(value)
		if p != "" {
			p = vault.NormalizePath(p)
		}
		c.TemplatePath = p
	case "log_level":
		level := strings.ToLower(strings.TrimSpace(value))
		if !logger.ValidLevel(level) {
			return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", value)
		}
		c.LogLevel = level
	case "expander.command":
		c.Expander.Command = strings.Fields(value)
	case "expander.timeout", "retry.interval", "retry.timeout":
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid %s format %q: %w", key, value, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be >= 0, got %v", key, d)
		}
		switch key {
		case "expander.timeout":
			c.Expander.Timeout = d
		case "retry.interval":
			c.Retry.Interval = d
		default:
			c.Retry.Timeout = d
		}
	case "retry.attempts":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return fmt.Errorf("retry.attempts must be an integer >= 0, got %q", value)
		}
		c.Retry.Attempts = n
	default:
		return fmt.Errorf("%w %q, must be one of: %s", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
	return nil
}
