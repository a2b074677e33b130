package config

import (
	"errors"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	gerrors "typeguess/internal/errors"
	"typeguess/internal/guess"
	"typeguess/internal/interp"
)

// ConfigVersion is the schema version written by this release.
const ConfigVersion = 1

// Config represents the complete typeguess configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Logging     LoggingConfig     `json:"logging" mapstructure:"logging"`
	Patterns    PatternsConfig    `json:"patterns" mapstructure:"patterns"`
	Catalog     CatalogConfig     `json:"catalog" mapstructure:"catalog"`
	Propagation PropagationConfig `json:"propagation" mapstructure:"propagation"`
	Interpreter InterpreterConfig `json:"interpreter" mapstructure:"interpreter"`
	Scan        ScanConfig        `json:"scan" mapstructure:"scan"`
	Watch       WatchConfig       `json:"watch" mapstructure:"watch"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
	// File, when set, receives log output instead of stderr and is rotated
	// once it grows past MaxSizeMB.
	File      string `json:"file" mapstructure:"file"`
	MaxSizeMB int    `json:"maxSizeMB" mapstructure:"maxSizeMB"`
}

// PatternsConfig names an extra method pattern file
type PatternsConfig struct {
	File string `json:"file" mapstructure:"file"`
}

// CatalogConfig lists extra class catalogs
type CatalogConfig struct {
	Files []string `json:"files" mapstructure:"files"`
}

// PropagationConfig bounds the container element usage walk
type PropagationConfig struct {
	MaxDepth   int `json:"maxDepth" mapstructure:"maxDepth"`
	MaxVisited int `json:"maxVisited" mapstructure:"maxVisited"`
}

// InterpreterConfig bounds the dataflow interpreter
type InterpreterConfig struct {
	MaxSteps int `json:"maxSteps" mapstructure:"maxSteps"`
}

// ScanConfig contains scan command settings
type ScanConfig struct {
	Workers int `json:"workers" mapstructure:"workers"`
}

// WatchConfig contains watch command settings
type WatchConfig struct {
	DebounceMs int `json:"debounceMs" mapstructure:"debounceMs"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: ConfigVersion,
		Logging: LoggingConfig{
			Format:    "human",
			Level:     "info",
			MaxSizeMB: 10,
		},
		Propagation: PropagationConfig{
			MaxDepth:   guess.DefaultMaxDepth,
			MaxVisited: guess.DefaultMaxVisited,
		},
		Interpreter: InterpreterConfig{
			MaxSteps: interp.DefaultMaxSteps,
		},
		Scan: ScanConfig{
			Workers: runtime.GOMAXPROCS(0),
		},
		Watch: WatchConfig{
			DebounceMs: 200,
		},
	}
}

// Dir is the per-project configuration directory.
const Dir = ".typeguess"

// LoadConfig loads configuration from .typeguess/config.{json,yaml,toml}
// under root. TYPEGUESS_* environment variables override file values, e.g.
// TYPEGUESS_PROPAGATION_MAXDEPTH. A missing file yields the defaults.
func LoadConfig(root string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(root, Dir))
	v.SetEnvPrefix("TYPEGUESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, gerrors.New(gerrors.InvalidConfig, "failed to read config", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, gerrors.New(gerrors.InvalidConfig, "failed to decode config", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSizeMB", d.Logging.MaxSizeMB)
	v.SetDefault("patterns.file", d.Patterns.File)
	v.SetDefault("catalog.files", d.Catalog.Files)
	v.SetDefault("propagation.maxDepth", d.Propagation.MaxDepth)
	v.SetDefault("propagation.maxVisited", d.Propagation.MaxVisited)
	v.SetDefault("interpreter.maxSteps", d.Interpreter.MaxSteps)
	v.SetDefault("scan.workers", d.Scan.Workers)
	v.SetDefault("watch.debounceMs", d.Watch.DebounceMs)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != ConfigVersion {
		return invalid("version", "unsupported config version")
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return invalid("logging.format", "must be human or json")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("logging.level", "must be debug, info, warn or error")
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB <= 0 {
		return invalid("logging.maxSizeMB", "must be positive when logging to a file")
	}
	if c.Propagation.MaxDepth < 1 {
		return invalid("propagation.maxDepth", "must be at least 1")
	}
	if c.Propagation.MaxVisited < 1 {
		return invalid("propagation.maxVisited", "must be at least 1")
	}
	if c.Interpreter.MaxSteps < 1 {
		return invalid("interpreter.maxSteps", "must be at least 1")
	}
	if c.Scan.Workers < 1 {
		return invalid("scan.workers", "must be at least 1")
	}
	if c.Watch.DebounceMs < 0 {
		return invalid("watch.debounceMs", "must not be negative")
	}
	return nil
}

func invalid(field, msg string) error {
	return gerrors.New(gerrors.InvalidConfig, "invalid configuration", &ConfigError{Field: field, Message: msg}).
		WithDetails(map[string]string{"field": field})
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
