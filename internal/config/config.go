// Package config loads and validates the per-build plugin configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-sitepdf/internal/fileutil"
	"github.com/alnah/go-sitepdf/internal/hints"
	"github.com/alnah/go-sitepdf/internal/logging"
	"github.com/alnah/go-sitepdf/internal/yamlutil"
)

// Sentinel errors for configuration loading.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// Field length limits for validation.
const (
	MaxNameLength      = 100
	MaxTitleLength     = 200
	MaxSubtitleLength  = 200
	MaxURLLength       = 2048
	MaxTextLength      = 4000
	MaxPathLength      = 4096
	MaxCopyrightLength = 500
	MaxCSVNameLength   = 255
)

// Defaults applied by Default.
const (
	DefaultTOCTitle     = "Table of Contents"
	DefaultTOCLevel     = 4
	DefaultTemplatePath = "templates"
	DefaultMediaType    = "print"
	DefaultCSVName      = "4Dversions.csv"
	DefaultDebugDir     = "pdf_html_debug"
)

// Config is the plugin configuration for one build. It is read once and
// treated as immutable afterwards; per-page state lives elsewhere.
type Config struct {
	MediaType    string `yaml:"media_type"`
	Verbose      bool   `yaml:"verbose"`
	EnableCSV    bool   `yaml:"enable_csv"`
	CSVName      string `yaml:"csv_name"`
	Debug        bool   `yaml:"debug"`
	DebugTarget  string `yaml:"debug_target"`
	DebugDir     string `yaml:"debug_dir"`
	EnabledIfEnv string `yaml:"enabled_if_env"`

	Theme            string `yaml:"theme"`
	ThemeHandlerPath string `yaml:"theme_handler_path"`

	Author            string `yaml:"author"`
	AuthorLogo        string `yaml:"author_logo"`
	Copyright         string `yaml:"copyright"`
	Disclaimer        string `yaml:"disclaimer"`
	IncludeLegalTerms bool   `yaml:"include_legal_terms"`

	Cover              bool              `yaml:"cover"`
	CoverTitle         string            `yaml:"cover_title"`
	CoverSubtitle      string            `yaml:"cover_subtitle"`
	CoverImages        map[string]string `yaml:"cover_images"`
	CustomTemplatePath string            `yaml:"custom_template_path"`

	TOC          bool   `yaml:"toc"`
	TOCNumbering bool   `yaml:"toc_numbering"`
	TOCTitle     string `yaml:"toc_title"`
	TOCLevel     int    `yaml:"toc_level"`

	SiteURL  string `yaml:"site_url"`
	SiteName string `yaml:"site_name"`
	SiteDir  string `yaml:"site_dir"`

	Extra map[string]any `yaml:"extra"`

	Log logging.Config `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		MediaType:          DefaultMediaType,
		CSVName:            DefaultCSVName,
		DebugDir:           DefaultDebugDir,
		Cover:              true,
		CustomTemplatePath: DefaultTemplatePath,
		TOC:                true,
		TOCNumbering:       true,
		TOCTitle:           DefaultTOCTitle,
		TOCLevel:           DefaultTOCLevel,
	}
}

// Enabled reports whether the plugin runs in the current environment.
// When EnabledIfEnv names a variable, it must be set to "1".
func (c *Config) Enabled() bool {
	if c.EnabledIfEnv == "" {
		return true
	}
	return os.Getenv(c.EnabledIfEnv) == "1"
}

// CoverImage returns the cover image configured for a document type,
// falling back to the "default" entry.
func (c *Config) CoverImage(docType string) string {
	if img, ok := c.CoverImages[strings.ToLower(docType)]; ok && docType != "" {
		return img
	}
	return c.CoverImages["default"]
}

// Validate checks field lengths and value ranges.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"author", c.Author, MaxNameLength},
		{"author_logo", c.AuthorLogo, MaxPathLength},
		{"copyright", c.Copyright, MaxCopyrightLength},
		{"disclaimer", c.Disclaimer, MaxTextLength},
		{"cover_title", c.CoverTitle, MaxTitleLength},
		{"cover_subtitle", c.CoverSubtitle, MaxSubtitleLength},
		{"custom_template_path", c.CustomTemplatePath, MaxPathLength},
		{"theme_handler_path", c.ThemeHandlerPath, MaxPathLength},
		{"toc_title", c.TOCTitle, MaxTitleLength},
		{"site_url", c.SiteURL, MaxURLLength},
		{"site_name", c.SiteName, MaxTitleLength},
		{"site_dir", c.SiteDir, MaxPathLength},
		{"csv_name", c.CSVName, MaxCSVNameLength},
		{"debug_dir", c.DebugDir, MaxPathLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}

	if c.TOC && (c.TOCLevel < 1 || c.TOCLevel > 6) {
		return fmt.Errorf("%w: toc_level must be between 1 and 6, got %d", ErrInvalidConfig, c.TOCLevel)
	}
	if c.MediaType != "" && c.MediaType != "print" && c.MediaType != "screen" {
		return fmt.Errorf("%w: media_type must be print or screen, got %q", ErrInvalidConfig, c.MediaType)
	}
	if c.SiteURL != "" && !fileutil.IsURL(c.SiteURL) {
		return fmt.Errorf("%w: site_url must be an http(s) URL, got %q", ErrInvalidConfig, c.SiteURL)
	}
	if fileutil.IsFilePath(c.CSVName) {
		return fmt.Errorf("%w: csv_name must be a file name, got %q", ErrInvalidConfig, c.CSVName)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Keys absent from the file keep their Default values.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-sitepdf/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-sitepdf", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s%s", ErrConfigNotFound,
		strings.Join(triedPaths, ", "), hints.ForConfigNotFound(triedPaths))
}
