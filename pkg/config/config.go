package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/MatteoDelliRocioli/telemetry/pkg/log"
)

// DefaultCategory is the MinimumLevel key holding the fallback level.
const DefaultCategory = "Default"

// DefaultEnvironment is used when no environment variable is set.
const DefaultEnvironment = "production"

// Environment variables consulted by Load.
const (
	EnvEnvironment = "TELEMETRY_ENVIRONMENT"
	EnvAppEnv      = "APP_ENVIRONMENT"
	EnvGeneric     = "ENVIRONMENT"
	EnvMinLevel    = "TELEMETRY_MIN_LEVEL"
)

// Config is the resolved tracing configuration.
type Config struct {
	Environment string  `yaml:"environment" toml:"environment"`
	Logging     Logging `yaml:"logging" toml:"logging"`
}

// Logging configures levels, formatting and sinks.
type Logging struct {
	// MinimumLevel maps dotted category prefixes to level names. The
	// "Default" key applies to categories without a match.
	MinimumLevel map[string]string `yaml:"minimumLevel" toml:"minimumLevel"`

	// StartUnlocked opens delivery immediately instead of waiting for Ready.
	StartUnlocked bool `yaml:"startUnlocked" toml:"startUnlocked"`

	Format  Format  `yaml:"format" toml:"format"`
	Console Console `yaml:"console" toml:"console"`
	File    File    `yaml:"file" toml:"file"`
	Slog    Slog    `yaml:"slog" toml:"slog"`
	Logrus  Logrus  `yaml:"logrus" toml:"logrus"`
}

// Format holds text formatting options shared by text sinks.
type Format struct {
	TimeFormat        string `yaml:"timeFormat" toml:"timeFormat"`
	UTC               bool   `yaml:"utc" toml:"utc"`
	IncludeThreadID   bool   `yaml:"includeThreadId" toml:"includeThreadId"`
	CollapseMultiline bool   `yaml:"collapseMultiline" toml:"collapseMultiline"`
	Indent            bool   `yaml:"indent" toml:"indent"`
	IndentWidth       int    `yaml:"indentWidth" toml:"indentWidth"`
}

// Console configures the console sink.
type Console struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	// Stream is stderr or stdout.
	Stream string `yaml:"stream" toml:"stream"`
	// Color is auto, on or off.
	Color string `yaml:"color" toml:"color"`
	// Format is text or json.
	Format string `yaml:"format" toml:"format"`
}

// File configures the CBOR trace file sink.
type File struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Path     string `yaml:"path" toml:"path"`
	MinLevel string `yaml:"minLevel" toml:"minLevel"`
}

// Slog configures forwarding to slog.Default().
type Slog struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

// Logrus configures forwarding to the logrus standard logger.
type Logrus struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Level   string `yaml:"level" toml:"level"`
	JSON    bool   `yaml:"json" toml:"json"`
}

// Default returns the configuration used when no file is found: console
// output at Information and above.
func Default() *Config {
	f := log.DefaultFormatOptions()
	return &Config{
		Environment: DefaultEnvironment,
		Logging: Logging{
			MinimumLevel: map[string]string{DefaultCategory: log.LevelInformation.String()},
			Format: Format{
				TimeFormat:        f.TimeFormat,
				IncludeThreadID:   f.IncludeThreadID,
				CollapseMultiline: f.CollapseMultiline,
				Indent:            f.Indent,
				IndentWidth:       f.IndentWidth,
			},
			Console: Console{Enabled: true, Stream: "stderr", Color: "auto", Format: "text"},
			File:    File{Path: "trace.tlog"},
			Logrus:  Logrus{Level: "info"},
		},
	}
}

// Load reads the configuration from dir. Missing files are not an error;
// the defaults apply.
func Load(dir string) (*Config, error) {
	cfg := Default()

	base, err := findSettings(dir, "appsettings")
	if err != nil {
		return nil, err
	}
	if base != "" {
		if err := LoadFile(base, cfg); err != nil {
			return nil, err
		}
	}

	if env := DetectEnvironment(); env != "" {
		cfg.Environment = env
	}

	overlay, err := findSettings(dir, "appsettings."+cfg.Environment)
	if err != nil {
		return nil, err
	}
	if overlay != "" {
		if err := LoadFile(overlay, cfg); err != nil {
			return nil, err
		}
	}

	if lvl := strings.TrimSpace(os.Getenv(EnvMinLevel)); lvl != "" {
		if cfg.Logging.MinimumLevel == nil {
			cfg.Logging.MinimumLevel = make(map[string]string)
		}
		cfg.Logging.MinimumLevel[DefaultCategory] = lvl
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes a YAML or TOML file over cfg. Fields absent from the
// file keep their current values and maps are merged.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.Wrapf(err, "parse %s", path)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return errors.Wrapf(err, "parse %s", path)
		}
	default:
		return errors.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

// findSettings returns the first existing name.yaml, name.yml or name.toml
// in dir, or "".
func findSettings(dir, name string) (string, error) {
	for _, ext := range []string{".yaml", ".yml", ".toml"} {
		p := filepath.Join(dir, name+ext)
		_, err := os.Stat(p)
		if err == nil {
			return p, nil
		}
		if !os.IsNotExist(err) {
			return "", errors.Wrapf(err, "stat %s", p)
		}
	}
	return "", nil
}

// DetectEnvironment returns the environment named by the first set
// variable among TELEMETRY_ENVIRONMENT, APP_ENVIRONMENT and ENVIRONMENT,
// lower-cased, or "".
func DetectEnvironment() string {
	for _, key := range []string{EnvEnvironment, EnvAppEnv, EnvGeneric} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return strings.ToLower(v)
		}
	}
	return ""
}

// Validate checks that every configured level name parses.
func (c *Config) Validate() error {
	if _, err := c.CategoryLevels(); err != nil {
		return err
	}
	if c.Logging.File.MinLevel != "" {
		if _, err := log.ParseLevel(c.Logging.File.MinLevel); err != nil {
			return errors.Wrap(err, "logging.file.minLevel")
		}
	}
	if c.Logging.File.Enabled && c.Logging.File.Path == "" {
		return errors.New("logging.file.path is required when the file sink is enabled")
	}
	return nil
}

// CategoryLevels parses MinimumLevel into per-category levels.
func (c *Config) CategoryLevels() (log.CategoryLevels, error) {
	levels := log.CategoryLevels{
		Default:    log.LevelInformation,
		Categories: make(map[string]log.Level),
	}
	for category, name := range c.Logging.MinimumLevel {
		lvl, err := log.ParseLevel(name)
		if err != nil {
			return log.CategoryLevels{}, errors.Wrapf(err, "logging.minimumLevel.%s", category)
		}
		if category == DefaultCategory {
			levels.Default = lvl
			continue
		}
		levels.Categories[category] = lvl
	}
	return levels, nil
}

// MinLevelFor returns the minimum level for category: the level of the
// longest matching dotted prefix, else the default. Invalid level names
// fall back to Information.
func (c *Config) MinLevelFor(category string) log.Level {
	levels, err := c.CategoryLevels()
	if err != nil {
		return log.LevelInformation
	}
	return levels.MinLevelFor(category)
}

// FormatOptions converts the format section to formatter options.
func (c *Config) FormatOptions() log.FormatOptions {
	f := c.Logging.Format
	return log.FormatOptions{
		TimeFormat:        f.TimeFormat,
		UTC:               f.UTC,
		IncludeThreadID:   f.IncludeThreadID,
		CollapseMultiline: f.CollapseMultiline,
		Indent:            f.Indent,
		IndentWidth:       f.IndentWidth,
	}
}
