package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Makepad-fr/foodtrack/internal/store/jsonstore"
)

// Config holds everything the root flags, FOODTRACK_* env vars and .env can set.
type Config struct {
	File    string    `mapstructure:"file"`
	Theme   string    `mapstructure:"theme"`
	NoColor bool      `mapstructure:"no_color"`
	Log     LogConfig `mapstructure:"log"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

var (
	validThemes = []string{"classic", "neon", "mono"}
	validLevels = []string{"debug", "info", "warn", "error"}
)

// RegisterFlags adds the root flags that Load reads back.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("file", jsonstore.DefaultFileName, "path of the JSON data file")
	fs.String("theme", "classic", "color theme: classic, neon or mono")
	fs.Bool("no-color", false, "disable colored output")
	fs.String("log-file", "", "write logs to this file (disabled when empty)")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
}

// Load resolves configuration with precedence flag > env > default.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FOODTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("file", jsonstore.DefaultFileName)
	v.SetDefault("theme", "classic")
	v.SetDefault("no_color", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")

	if fs != nil {
		binds := map[string]string{
			"file":      "file",
			"theme":     "theme",
			"no_color":  "no-color",
			"log.file":  "log-file",
			"log.level": "log-level",
		}
		for key, name := range binds {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Theme = strings.ToLower(strings.TrimSpace(cfg.Theme))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string
	if strings.TrimSpace(c.File) == "" {
		errs = append(errs, "data file path cannot be empty")
	}
	if !slices.Contains(validThemes, c.Theme) {
		errs = append(errs, fmt.Sprintf("invalid theme '%s': must be one of %v", c.Theme, validThemes))
	}
	if !slices.Contains(validLevels, c.Log.Level) {
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of %v", c.Log.Level, validLevels))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
